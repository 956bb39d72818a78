// Package config loads and persists kdex's TOML configuration file and
// resolves the per-user config directory.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// Config mirrors the recognized keys in spec.md §6.
type Config struct {
	MaxFileSizeMB       int    `toml:"max_file_size_mb"`
	BatchSize           int    `toml:"batch_size"`
	WatcherDebounceMS   int    `toml:"watcher_debounce_ms"`
	IgnorePatterns      []string `toml:"ignore_patterns"`
	EnableSemanticSearch bool  `toml:"enable_semantic_search"`
	EmbeddingModel      string `toml:"embedding_model"`
	DefaultSearchMode   string `toml:"default_search_mode"`
	StripMarkdownSyntax bool   `toml:"strip_markdown_syntax"`
	IndexCodeBlocks     bool   `toml:"index_code_blocks"`
}

// Default returns the configuration with every default from spec.md §6.
func Default() *Config {
	return &Config{
		MaxFileSizeMB:        10,
		BatchSize:            100,
		WatcherDebounceMS:    500,
		IgnorePatterns:       []string{".git", "node_modules", "target", ".obsidian/workspace*"},
		EnableSemanticSearch: false,
		EmbeddingModel:       "all-MiniLM-L6-v2",
		DefaultSearchMode:    "lexical",
		StripMarkdownSyntax:  false,
		IndexCodeBlocks:      false,
	}
}

// Dir resolves the per-user config directory, honoring KDEX_CONFIG_DIR.
func Dir() (string, error) {
	if v := os.Getenv("KDEX_CONFIG_DIR"); v != "" {
		return filepath.Join(v, "kdex"), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", kdexerr.Wrap(kdexerr.Internal, "resolve user config dir", err)
	}
	return filepath.Join(base, "kdex"), nil
}

// Path returns the path to config.toml under the config directory.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StorePath returns the path to the SQLite index file.
func StorePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "index.db"), nil
}

// ReposDir returns the directory holding cloned remote working trees.
func ReposDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "repos"), nil
}

// Load reads config.toml, applying defaults for any key the file omits. A
// missing file is not an error: Default() is returned as-is.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, kdexerr.Wrap(kdexerr.Internal, "read config", err).WithPath(path)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "parse config toml", err).WithPath(path)
	}
	return cfg, nil
}

// Save writes cfg as TOML to config.toml, creating the config directory if
// it does not yet exist.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return kdexerr.Wrap(kdexerr.Internal, "create config dir", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return kdexerr.Wrap(kdexerr.Internal, "marshal config toml", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return kdexerr.Wrap(kdexerr.Internal, "write config", err).WithPath(path)
	}
	return nil
}
