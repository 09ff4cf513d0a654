package demoserver

// DocDefinition holds all versions of a single repository file. Path is
// relative to the repository root ("docs/intro.md").
type DocDefinition struct {
	Path        string
	Description string
	Versions    map[int]string
	// Removed is the first version in which the file no longer exists (0: never).
	Removed int
}

// At returns the file content served at version v: the newest defined
// version not after v.
func (d DocDefinition) At(v int) (string, bool) {
	if d.Removed > 0 && v >= d.Removed {
		return "", false
	}
	best := 0
	for k := range d.Versions {
		if k <= v && k > best {
			best = k
		}
	}
	if best == 0 {
		return "", false
	}
	return d.Versions[best], true
}

// MaxVersion returns the highest version at which the file changes.
func (d DocDefinition) MaxVersion() int {
	m := d.Removed
	for k := range d.Versions {
		if k > m {
			m = k
		}
	}
	return m
}

// GetAllDocs returns the demo repository contents.
func GetAllDocs() []DocDefinition {
	return []DocDefinition{
		getIndexDoc(),
		getIntroDoc(),
		getSetupDoc(),
		getConfigurationDoc(),
		getLogoAsset(),
	}
}

func getIndexDoc() DocDefinition {
	return DocDefinition{
		Path:        "docs/index.md",
		Description: "Docs landing page. v3 deletes it so the index falls back to the first sidebar entry.",
		Versions: map[int]string{
			1: `Welcome to the **Acme handbook**.

Start with the [introduction](/acme/docs/intro).
`,
			2: `---
title: Acme handbook
---
Welcome to the **Acme handbook**.

<Callout type="info" title="New">
The setup guide now covers Windows.
</Callout>
`,
		},
		Removed: 3,
	}
}

func getIntroDoc() DocDefinition {
	return DocDefinition{
		Path:        "docs/intro.md",
		Description: "Plain markdown page with a nested outline.",
		Versions: map[int]string{
			1: `Acme ships tools for building rockets.

## Concepts

### Stages

### Payloads

## Next steps
`,
			2: `Acme ships tools for building rockets and the launch pads they need.

## Concepts

### Stages

### Payloads

### Launch pads

## Next steps

Read the <Tooltip content="installation guide">setup</Tooltip> page.
`,
		},
	}
}

func getSetupDoc() DocDefinition {
	return DocDefinition{
		Path:        "docs/setup.md",
		Description: "Component-heavy page. v2 leaves a tag unclosed to trigger an operator notification.",
		Versions: map[int]string{
			1: `Install the CLI.

` + "```sh\ncurl -sSL https://acme.dev/install | sh\n```" + `

## Verify

<Callout type="warning">
Run the doctor command after every upgrade.
</Callout>
`,
			2: `Install the CLI.

<Callout type="warning">
Run the doctor command after every upgrade.
`,
		},
	}
}

func getConfigurationDoc() DocDefinition {
	return DocDefinition{
		Path:        "docs/configuration.md",
		Description: "Added in v2; appears in derived navigation once present.",
		Versions: map[int]string{
			2: `## Files

## Environment

| Variable | Meaning |
|:--|:--|
| ACME_HOME | data directory |
`,
		},
	}
}

func getLogoAsset() DocDefinition {
	return DocDefinition{
		Path:        "docs/images/logo.svg",
		Description: "Non-markdown file inside a sub directory; never part of navigation.",
		Versions: map[int]string{
			1: `<svg xmlns="http://www.w3.org/2000/svg" width="16" height="16"><circle cx="8" cy="8" r="7"/></svg>`,
		},
	}
}
