package extract

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/unicode/norm"
)

const byteOrderMark = "\ufeff"

// Decode converts raw converter or file output into UTF-8. Input whose
// non-ASCII bytes are largely invalid as UTF-8 is read as GB18030, the usual
// encoding of Chinese legacy documents. Otherwise it is treated as UTF-8 with
// stray bytes. Undecodable bytes are dropped in both cases.
func Decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if looksLegacy(raw) {
		decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(raw)
		if err == nil {
			return strings.ReplaceAll(string(decoded), string(utf8.RuneError), "")
		}
	}
	return strings.ToValidUTF8(string(raw), "")
}

// looksLegacy reports whether more than a third of the non-ASCII bytes in raw
// fail to decode as UTF-8. GB18030 text scores well above that since only some
// of its byte pairs happen to form valid UTF-8 sequences.
func looksLegacy(raw []byte) bool {
	invalid, nonASCII := 0, 0
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			invalid++
			nonASCII++
		case size > 1:
			nonASCII += size
		}
		i += size
	}
	return invalid*3 > nonASCII
}

// Normalize converts CRLF and lone CR to LF, strips a leading byte order mark,
// and composes the text to NFC.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimPrefix(text, byteOrderMark)
	return norm.NFC.String(text)
}

// ReadText reads a plain-text document from disk.
func ReadText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return Normalize(Decode(raw)), nil
}
