// Package store owns the persistent index: schema, migrations,
// transactional writes, and lexical/vector queries (spec.md §4.1).
package store

import "time"

// RepoStatus is the lifecycle state of a Repository row (spec.md §3).
type RepoStatus string

const (
	StatusPending  RepoStatus = "pending"
	StatusIndexing RepoStatus = "indexing"
	StatusReady    RepoStatus = "ready"
	StatusError    RepoStatus = "error"
)

// SourceKind distinguishes a locally-rooted repository from a remote clone.
type SourceKind string

const (
	SourceLocal  SourceKind = "local"
	SourceRemote SourceKind = "remote"
)

// Repository is the logical root being indexed (spec.md §3).
type Repository struct {
	ID             int64
	RootPath       string
	Name           string
	CreatedAt      time.Time
	LastIndexedAt  *time.Time
	FileCount      int
	TotalBytes     int64
	Status         RepoStatus
	SourceKind     SourceKind
	OriginURL      string
	Branch         string
	Shallow        bool
	ClonePath      string
	VaultKind      string
	LastError      string
}

// File is a text unit within a repository (spec.md §3).
type File struct {
	ID       int64
	RepoID   int64
	RelPath  string
	Hash     string
	Size     int64
	MTime    time.Time
	Language string
}

// MarkdownMeta is the optional per-file markdown record (spec.md §3).
type MarkdownMeta struct {
	FileID       int64
	Title        string
	TagsJSON     string
	LinksJSON    string
	HeadingsJSON string
}

// EmbeddingChunk is one stored dense-vector chunk row (spec.md §3).
type EmbeddingChunk struct {
	ID      int64
	FileID  int64
	Ordinal int
	Start   int
	End     int
	Text    string
	Vector  []float32
}

// Filters is the conjunctive WHERE clause applied uniformly across search
// modes (spec.md §4.1 "Filters").
type Filters struct {
	RepoSubstring string
	Language      string
	Extension     string
	PathGlob      string
	TypeClass     string
	Tag           string
}

// LexicalHit is one ranked lexical search result.
type LexicalHit struct {
	FileID     int64
	RepoID     int64
	RelPath    string
	Language   string
	Rank       float64 // BM25 rank, lower = more relevant
	Snippet    string  // >>>marker-bracketed<<< excerpt
	StartByte  int
	EndByte    int
}

// VectorHit is one cosine-ranked vector search result.
type VectorHit struct {
	FileID   int64
	ChunkID  int64
	RepoID   int64
	RelPath  string
	Language string
	Score    float32 // cosine similarity, higher = more relevant
	Text     string
}

// FileStamp is the (size, mtime, hash) tuple the indexer uses for
// incremental diffing (spec.md §4.6).
type FileStamp struct {
	RelPath string
	Size    int64
	MTime   time.Time
	Hash    string
}

// Stats summarizes the store for reporting.
type Stats struct {
	RepoCount  int
	FileCount  int
	ChunkCount int
	TotalBytes int64
}
