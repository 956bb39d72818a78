package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// PortableRepo is one entry of the portable config's repository list.
type PortableRepo struct {
	Type   string `yaml:"type"` // "remote" or "local"
	URL    string `yaml:"url,omitempty"`
	Path   string `yaml:"path,omitempty"`
	Branch string `yaml:"branch,omitempty"`
}

// Portable is the version-1 YAML export/import document described in
// spec.md §6.
type Portable struct {
	Version      int               `yaml:"version"`
	Repositories []PortableRepo    `yaml:"repositories"`
	Settings     map[string]string `yaml:"settings"`
}

// Export builds a Portable document from the current config and repo list.
func Export(cfg *Config, repos []PortableRepo) *Portable {
	return &Portable{
		Version:      1,
		Repositories: append([]PortableRepo{}, repos...),
		Settings:     toSettingsMap(cfg),
	}
}

// SaveTo writes p as YAML to path.
func (p *Portable) SaveTo(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return kdexerr.Wrap(kdexerr.Internal, "marshal portable config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return kdexerr.Wrap(kdexerr.Internal, "write portable config", err).WithPath(path)
	}
	return nil
}

// LoadPortable reads a version-1 portable config document from path.
func LoadPortable(path string) (*Portable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.PathNotFound, "read portable config", err).WithPath(path)
	}
	var p Portable
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "parse portable config yaml", err).WithPath(path)
	}
	if p.Version != 1 {
		return nil, kdexerr.New(kdexerr.Internal, "unsupported portable config version").WithPath(path)
	}
	return &p, nil
}

// ImportSettings builds a Config from a portable document's settings map,
// for `import` without --merge, where the document replaces the existing
// config outright (spec.md §8 "Export -> Import... yields a configuration
// whose effective settings... compare equal").
func ImportSettings(doc *Portable) *Config {
	return fromSettingsMap(doc.Settings)
}

// Merge applies import --merge semantics per DESIGN NOTES §9: existing
// settings keys take precedence over the incoming document, new
// repositories are appended, and repos are deduplicated by (url, branch).
func Merge(existing *Config, existingRepos []PortableRepo, incoming *Portable) (*Config, []PortableRepo) {
	// Existing settings always win on merge (DESIGN NOTES §9); incoming
	// settings are parsed only to validate the document, not applied.
	_ = fromSettingsMap(incoming.Settings)
	merged := *existing

	seen := make(map[[2]string]bool, len(existingRepos))
	out := append([]PortableRepo{}, existingRepos...)
	for _, r := range existingRepos {
		seen[[2]string{r.URL, r.Branch}] = true
	}
	for _, r := range incoming.Repositories {
		key := [2]string{r.URL, r.Branch}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return &merged, out
}

func toSettingsMap(cfg *Config) map[string]string {
	return map[string]string{
		"max_file_size_mb":       itoa(cfg.MaxFileSizeMB),
		"batch_size":             itoa(cfg.BatchSize),
		"watcher_debounce_ms":    itoa(cfg.WatcherDebounceMS),
		"enable_semantic_search": btoa(cfg.EnableSemanticSearch),
		"embedding_model":        cfg.EmbeddingModel,
		"default_search_mode":    cfg.DefaultSearchMode,
		"strip_markdown_syntax":  btoa(cfg.StripMarkdownSyntax),
		"index_code_blocks":      btoa(cfg.IndexCodeBlocks),
	}
}

func fromSettingsMap(m map[string]string) *Config {
	cfg := Default()
	if v, ok := m["max_file_size_mb"]; ok {
		cfg.MaxFileSizeMB = atoiOr(v, cfg.MaxFileSizeMB)
	}
	if v, ok := m["batch_size"]; ok {
		cfg.BatchSize = atoiOr(v, cfg.BatchSize)
	}
	if v, ok := m["watcher_debounce_ms"]; ok {
		cfg.WatcherDebounceMS = atoiOr(v, cfg.WatcherDebounceMS)
	}
	if v, ok := m["enable_semantic_search"]; ok {
		cfg.EnableSemanticSearch = v == "true"
	}
	if v, ok := m["embedding_model"]; ok && v != "" {
		cfg.EmbeddingModel = v
	}
	if v, ok := m["default_search_mode"]; ok && v != "" {
		cfg.DefaultSearchMode = v
	}
	if v, ok := m["strip_markdown_syntax"]; ok {
		cfg.StripMarkdownSyntax = v == "true"
	}
	if v, ok := m["index_code_blocks"]; ok {
		cfg.IndexCodeBlocks = v == "true"
	}
	return cfg
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func btoa(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
