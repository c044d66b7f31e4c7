// Package checksum fingerprints content files so unchanged files can be
// skipped on sync.
package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// FormatVersion is mixed into every digest. Bump it when the content
// loaders change how a file maps to rows, so the next sync rewrites
// everything.
const FormatVersion = "hunlearn-content-1"

var bom = []byte{0xEF, 0xBB, 0xBF}

// Sum returns the hex-encoded SHA-256 digest of a content file. A leading
// BOM, CRLF line endings and trailing blank space do not affect the result,
// so a file re-saved by a Windows editor is still considered unchanged.
func Sum(data []byte) string {
	h := sha256.New()
	h.Write([]byte(FormatVersion))
	h.Write([]byte{0})
	h.Write(Normalize(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize returns data in the canonical form hashed by Sum.
func Normalize(data []byte) []byte {
	data = bytes.TrimPrefix(data, bom)
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.TrimRight(data, " \t\n")
}
