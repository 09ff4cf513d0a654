package fetcher

import "time"

type Config struct {
	// MaxConcurrency bounds how many pages are rebuilt at once.
	MaxConcurrency int `yaml:"max_concurrency"`
	// PageTimeout bounds a single page rebuild.
	PageTimeout time.Duration `yaml:"page_timeout"`
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		PageTimeout:    30 * time.Second,
	}
}
