package scanner

import (
	"io/fs"
	"path/filepath"
)

// Candidate is one path discovered during a walk, not yet filtered.
type Candidate struct {
	AbsPath string
	RelPath string
	Size    int64
	ModTime int64 // unix nanos
	IsDir   bool
}

// Walk enumerates every entry under root, honoring the ignore matcher for
// directory pruning (so an ignored directory is never descended into).
// It returns files and directories; callers filter further via Classify.
func Walk(root string, matcher *IgnoreMatcher) ([]Candidate, error) {
	root = filepath.Clean(root)
	var out []Candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission errors on a single entry should not abort the walk;
			// the indexer accounts for this as a skipped file (spec.md §4.6).
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if matcher != nil && matcher.Match(path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		out = append(out, Candidate{
			AbsPath: path,
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime().UnixNano(),
			IsDir:   d.IsDir(),
		})
		return nil
	})
	return out, err
}
