package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

func TestReadNormalizesCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("line one\r\nline two\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := Read(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "line one\nline two\n" {
		t.Errorf("Text = %q", res.Text)
	}
}

// TestHashInsensitiveToLineEndings covers spec.md §8 round-trip property:
// hashing is insensitive to the CRLF/LF difference only.
func TestHashInsensitiveToLineEndings(t *testing.T) {
	dir := t.TempDir()
	crlf := filepath.Join(dir, "crlf.txt")
	lf := filepath.Join(dir, "lf.txt")
	if err := os.WriteFile(crlf, []byte("alpha\r\nbeta\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lf, []byte("alpha\nbeta\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rCRLF, err := Read(crlf, 10)
	if err != nil {
		t.Fatal(err)
	}
	rLF, err := Read(lf, 10)
	if err != nil {
		t.Fatal(err)
	}
	if rCRLF.Hash != rLF.Hash {
		t.Errorf("hashes differ: %q vs %q", rCRLF.Hash, rLF.Hash)
	}
}

// TestReadRejectsOversizeFile covers spec.md §8 boundary: a file exceeding
// max_file_size_mb returns FileTooLarge.
func TestReadRejectsOversizeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	big := make([]byte, 2*1024*1024+10)
	if err := os.WriteFile(path, big, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Read(path, 1)
	if kdexerr.KindOf(err) != kdexerr.FileTooLarge {
		t.Errorf("err kind = %v, want FileTooLarge", kdexerr.KindOf(err))
	}
}

func TestReadLatin1Fallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latin1.txt")
	// 0xe9 is invalid standalone UTF-8 but decodes as 'é' under Latin-1.
	if err := os.WriteFile(path, []byte("caf\xe9"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := Read(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "café" {
		t.Errorf("Text = %q, want %q", res.Text, "café")
	}
}
