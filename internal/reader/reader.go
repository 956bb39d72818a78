// Package reader implements the Reader component (spec.md §4.3):
// size-bounded reads, encoding detection, CRLF normalization, and content
// hashing.
package reader

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// Result is the normalized content of a successfully read file.
type Result struct {
	Text string // normalized (CRLF->LF) text
	Hash string // hex SHA-256 of the normalized bytes
	Size int64  // bytes actually on disk (pre-normalization)
}

// Read reads at most maxFileSizeMB megabytes plus one byte of path using a
// take-limited read so that an oversized file is detected without a second stat
// (spec.md §4.3). It decodes UTF-8, falling back to Latin-1 only when the
// bytes are not valid UTF-8, normalizes CRLF to LF, and hashes the result.
func Read(path string, maxFileSizeMB int) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, kdexerr.Wrap(kdexerr.PermissionDenied, "open file", err).WithPath(path)
		}
		if os.IsNotExist(err) {
			return nil, kdexerr.Wrap(kdexerr.PathNotFound, "open file", err).WithPath(path)
		}
		return nil, kdexerr.Wrap(kdexerr.Internal, "open file", err).WithPath(path)
	}
	defer f.Close()

	limit := int64(maxFileSizeMB) * 1024 * 1024
	limited := io.LimitReader(f, limit+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "read file", err).WithPath(path)
	}
	if int64(len(raw)) > limit {
		return nil, kdexerr.New(kdexerr.FileTooLarge, "file exceeds max_file_size_mb").WithPath(path)
	}

	text, err := decode(raw)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.DecodeFailed, "decode file contents", err).WithPath(path)
	}

	normalized := normalizeCRLF(text)
	sum := sha256.Sum256([]byte(normalized))

	return &Result{
		Text: normalized,
		Hash: hex.EncodeToString(sum[:]),
		Size: int64(len(raw)),
	}, nil
}

// decode attempts UTF-8 first; on failure it falls back to treating the
// bytes as Latin-1 (ISO-8859-1), which can represent every byte value and
// therefore never itself fails to decode.
func decode(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// normalizeCRLF rewrites "\r\n" to "\n". Hashing is computed after this
// step so that line-ending differences alone never change the hash
// (spec.md §8 round-trip property).
func normalizeCRLF(s string) string {
	if !bytes.Contains([]byte(s), []byte("\r\n")) {
		return s
	}
	return string(bytes.ReplaceAll([]byte(s), []byte("\r\n"), []byte("\n")))
}
