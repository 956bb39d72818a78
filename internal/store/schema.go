package store

// migration is one forward-only schema step (spec.md §3 "Schema version").
type migration struct {
	version int
	stmts   []string
}

// migrations is the append-only ladder. Never edit a past entry; add a new
// one with the next version number instead.
var migrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS repositories (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				root_path TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				created_at INTEGER NOT NULL,
				last_indexed_at INTEGER,
				file_count INTEGER NOT NULL DEFAULT 0,
				total_bytes INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'pending',
				source_kind TEXT NOT NULL DEFAULT 'local',
				origin_url TEXT NOT NULL DEFAULT '',
				branch TEXT NOT NULL DEFAULT '',
				shallow INTEGER NOT NULL DEFAULT 0,
				clone_path TEXT NOT NULL DEFAULT '',
				vault_kind TEXT NOT NULL DEFAULT 'generic',
				last_error TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS files (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				repo_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
				rel_path TEXT NOT NULL,
				hash TEXT NOT NULL,
				size INTEGER NOT NULL,
				mtime INTEGER NOT NULL,
				lang TEXT NOT NULL DEFAULT '',
				UNIQUE(repo_id, rel_path)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_files_repo ON files(repo_id)`,
			`CREATE VIRTUAL TABLE IF NOT EXISTS contents USING fts5(
				text,
				file_id UNINDEXED,
				tokenize = 'porter unicode61'
			)`,
			`CREATE TABLE IF NOT EXISTS markdown_meta (
				file_id INTEGER PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
				title TEXT NOT NULL DEFAULT '',
				tags_json TEXT NOT NULL DEFAULT '[]',
				links_json TEXT NOT NULL DEFAULT '[]',
				headings_json TEXT NOT NULL DEFAULT '[]'
			)`,
			`CREATE TABLE IF NOT EXISTS tags (
				file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
				tag TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag)`,
			`CREATE TABLE IF NOT EXISTS links (
				source_file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
				target_stem TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_stem)`,
			`CREATE TABLE IF NOT EXISTS embeddings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
				ordinal INTEGER NOT NULL,
				start_off INTEGER NOT NULL,
				end_off INTEGER NOT NULL,
				text TEXT NOT NULL,
				vector BLOB NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_embeddings_file ON embeddings(file_id)`,
			`CREATE TABLE IF NOT EXISTS kv_state (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
		},
	},
}

// CurrentSchemaVersion is the highest version any migration applies.
func CurrentSchemaVersion() int {
	v := 0
	for _, m := range migrations {
		if m.version > v {
			v = m.version
		}
	}
	return v
}
