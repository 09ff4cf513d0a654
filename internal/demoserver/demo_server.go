package demoserver

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hyperdocs/hyperdocs/internal/logging"
)

// DemoServer mimics the GitHub contents API for a single repository whose
// documents can be switched between versions at runtime. Point a site's
// repository URL at it (with source.api_base_url) to watch pages change,
// break and recover without touching a real repository.
type DemoServer struct {
	cfg      Config
	docs     map[string]DocDefinition
	versions map[string]int // path -> current version
	logger   logging.Logger
	mu       sync.RWMutex
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.InitialVersion < 1 {
		cfg.InitialVersion = 1
	}
	docs := make(map[string]DocDefinition)
	versions := make(map[string]int)
	for _, d := range GetAllDocs() {
		docs[d.Path] = d
		versions[d.Path] = cfg.InitialVersion
	}
	return &DemoServer{
		cfg:      cfg,
		docs:     docs,
		versions: versions,
		logger:   logger,
	}
}

// Handler returns the routes of the demo server.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", s.contentsHandler)

	// Control panel for version switching
	mux.HandleFunc("/demo/control", s.controlPanelHandler)
	mux.HandleFunc("/demo/set-version", s.setVersionHandler)
	mux.HandleFunc("/demo/get-versions", s.getVersionsHandler)
	mux.HandleFunc("/demo/bump-all", s.bumpAllVersionsHandler)
	mux.HandleFunc("/demo/reset", s.resetVersionsHandler)

	return mux
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("demo server starting",
		logging.Field{Key: "api_base_url", Value: "http://localhost" + addr},
		logging.Field{Key: "repo", Value: s.cfg.Owner + "/" + s.cfg.Repo},
		logging.Field{Key: "control_panel", Value: "http://localhost" + addr + "/demo/control"})
	return http.ListenAndServe(addr, s.Handler())
}

// contentItem is the part of the contents API response the github source reads.
type contentItem struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding,omitempty"`
	Content  string `json:"content,omitempty"`
}

func (s *DemoServer) contentsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}
	if !strings.EqualFold(r.PathValue("owner"), s.cfg.Owner) || !strings.EqualFold(r.PathValue("repo"), s.cfg.Repo) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	p := strings.Trim(r.PathValue("path"), "/")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if content, ok := s.fileAt(p); ok {
		writeJSON(w, http.StatusOK, contentItem{
			Name:     path.Base(p),
			Path:     p,
			Type:     "file",
			Size:     len(content),
			Encoding: "base64",
			Content:  wrap(base64.StdEncoding.EncodeToString([]byte(content)), 60),
		})
		return
	}

	if items := s.listing(p); len(items) > 0 {
		writeJSON(w, http.StatusOK, items)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func (s *DemoServer) authorized(r *http.Request) bool {
	if s.cfg.Token == "" {
		return true
	}
	h := r.Header.Get("Authorization")
	var got string
	switch {
	case strings.HasPrefix(h, "Bearer "):
		got = strings.TrimPrefix(h, "Bearer ")
	case strings.HasPrefix(h, "token "):
		got = strings.TrimPrefix(h, "token ")
	default:
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.Token)) == 1
}

// fileAt returns the content of p at its current version. Callers hold mu.
func (s *DemoServer) fileAt(p string) (string, bool) {
	d, ok := s.docs[p]
	if !ok {
		return "", false
	}
	return d.At(s.versions[p])
}

// listing returns the immediate children of dir that exist at their
// current version, files and sub directories alike. Callers hold mu.
func (s *DemoServer) listing(dir string) []contentItem {
	prefix := dir + "/"
	seen := make(map[string]bool)
	var items []contentItem
	for p := range s.docs {
		content, ok := s.fileAt(p)
		if !ok || !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			name := rest[:i]
			if !seen[name] {
				seen[name] = true
				items = append(items, contentItem{Name: name, Path: prefix + name, Type: "dir"})
			}
			continue
		}
		items = append(items, contentItem{Name: rest, Path: p, Type: "file", Size: len(content)})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func wrap(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	b.WriteByte('\n')
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// controlPanelHandler serves the control panel for version management.
func (s *DemoServer) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl := template.Must(template.New("control").Parse(controlPanelHTML))
	data := struct {
		Docs     map[string]DocDefinition
		Versions map[string]int
		Owner    string
		Repo     string
	}{
		Docs:     s.docs,
		Versions: s.versions,
		Owner:    s.cfg.Owner,
		Repo:     s.cfg.Repo,
	}
	w.Header().Set("Content-Type", "text/html")
	_ = tmpl.Execute(w, data)
}

// setVersionHandler sets the version for a specific document.
func (s *DemoServer) setVersionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p := r.FormValue("path")
	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil || version < 1 {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	_, ok := s.docs[p]
	if ok {
		s.versions[p] = version
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "Unknown path", http.StatusNotFound)
		return
	}
	s.logger.Info("document version changed",
		logging.Field{Key: "path", Value: p},
		logging.Field{Key: "version", Value: version})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"path":    p,
		"version": version,
	})
}

// DocInfo describes one document in the get-versions response.
type DocInfo struct {
	Path              string `json:"path"`
	Description       string `json:"description"`
	CurrentVersion    int    `json:"current_version"`
	Present           bool   `json:"present"`
	AvailableVersions []int  `json:"available_versions"`
}

// getVersionsHandler returns the current versions of all documents.
func (s *DemoServer) getVersionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]DocInfo, 0, len(s.docs))
	for p, d := range s.docs {
		versions := make([]int, 0, len(d.Versions))
		for v := range d.Versions {
			versions = append(versions, v)
		}
		sort.Ints(versions)
		_, present := s.fileAt(p)
		docs = append(docs, DocInfo{
			Path:              p,
			Description:       d.Description,
			CurrentVersion:    s.versions[p],
			Present:           present,
			AvailableVersions: versions,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })

	writeJSON(w, http.StatusOK, docs)
}

// bumpAllVersionsHandler increments the version of all documents.
func (s *DemoServer) bumpAllVersionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	for p := range s.versions {
		// Cap at the last version that changes anything.
		if s.versions[p] < s.docs[p].MaxVersion() {
			s.versions[p]++
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All versions bumped",
	})
}

// resetVersionsHandler resets all documents to the initial version.
func (s *DemoServer) resetVersionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	for p := range s.versions {
		s.versions[p] = s.cfg.InitialVersion
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("All versions reset to %d", s.cfg.InitialVersion),
	})
}

const controlPanelHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Demo Repository Control Panel</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 1200px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        h1 { color: #333; border-bottom: 2px solid #007bff; padding-bottom: 10px; }
        .doc-card { background: white; border-radius: 8px; padding: 20px; margin: 15px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .doc-header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 10px; }
        .doc-path { font-size: 1.2em; font-weight: bold; color: #007bff; font-family: monospace; }
        .doc-desc { color: #666; margin: 5px 0; }
        .version-controls { display: flex; gap: 10px; align-items: center; margin-top: 10px; }
        .version-btn { padding: 8px 16px; border: none; border-radius: 4px; cursor: pointer; font-size: 14px; }
        .version-btn.active { background: #007bff; color: white; }
        .version-btn.inactive { background: #e9ecef; color: #333; }
        .current-version { font-weight: bold; color: #28a745; }
        .global-controls { background: #fff3cd; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
        .global-btn { padding: 10px 20px; margin-right: 10px; border: none; border-radius: 4px; cursor: pointer; font-size: 14px; }
        .bump-btn { background: #28a745; color: white; }
        .reset-btn { background: #dc3545; color: white; }
        .info-box { background: #e7f3ff; padding: 15px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #007bff; }
    </style>
</head>
<body>
    <h1>{{.Owner}}/{{.Repo}}</h1>

    <div class="info-box">
        <strong>How to use:</strong> switch document versions, then revalidate the site
        (or wait for its cache entries to expire) to see pages change, fail to compile and recover.
    </div>

    <div class="global-controls">
        <button class="global-btn bump-btn" onclick="post('/demo/bump-all')">Bump All Versions</button>
        <button class="global-btn reset-btn" onclick="post('/demo/reset')">Reset All</button>
    </div>

    {{range $path, $doc := .Docs}}
    <div class="doc-card">
        <div class="doc-header">
            <span class="doc-path">{{$path}}</span>
            <span class="current-version">Current: v{{index $.Versions $path}}</span>
        </div>
        <div class="doc-desc">{{$doc.Description}}</div>
        <div class="version-controls">
            <span>Set version:</span>
            {{range $v, $_ := $doc.Versions}}
            <button class="version-btn {{if eq (index $.Versions $path) $v}}active{{else}}inactive{{end}}"
                    onclick="setVersion('{{$path}}', {{$v}})">v{{$v}}</button>
            {{end}}
            {{if $doc.Removed}}
            <button class="version-btn {{if ge (index $.Versions $path) $doc.Removed}}active{{else}}inactive{{end}}"
                    onclick="setVersion('{{$path}}', {{$doc.Removed}})">deleted</button>
            {{end}}
        </div>
    </div>
    {{end}}

    <script>
        function setVersion(path, version) {
            fetch('/demo/set-version', {
                method: 'POST',
                headers: {'Content-Type': 'application/x-www-form-urlencoded'},
                body: 'path=' + encodeURIComponent(path) + '&version=' + version
            }).then(() => location.reload());
        }

        function post(url) {
            fetch(url, {method: 'POST'}).then(() => location.reload());
        }
    </script>
</body>
</html>`
