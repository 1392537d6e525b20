package ingest

import (
	"path/filepath"
	"strings"
)

const DefaultIngestionParallelism = 5

// Config contains configuration options that allow
// customization of how recordings are discovered and processed.
type Config struct {
	// Controls the number of workers that can process recordings at once, and
	// so the number of ffprobe processes that may be running at any time.
	// Reducing to 1 means one recording at a time.
	IngestionParallelism int `json:"parallelism" env:"INGEST_PARALLELISM" env-default:"5" validate:"min=1,max=64"`

	// An optional list of file extensions (e.g. ".mp4") to RESTRICT the
	// files processed. When empty, every file in a date directory is
	// considered a recording.
	Extensions []string `json:"extensions" env:"INGEST_EXTENSIONS" env-separator:","`
}

func (config *Config) parallelism() int {
	if config.IngestionParallelism <= 0 {
		return DefaultIngestionParallelism
	}

	return config.IngestionParallelism
}

// acceptsFile reports whether the file name provided passes the extension
// allow-list. Comparison is case-insensitive and tolerates a missing dot.
func (config *Config) acceptsFile(name string) bool {
	if len(config.Extensions) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range config.Extensions {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if !strings.HasPrefix(allowed, ".") {
			allowed = "." + allowed
		}
		if ext == allowed {
			return true
		}
	}

	return false
}
