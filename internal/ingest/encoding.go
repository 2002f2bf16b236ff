package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported encodings
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// lookupEncoding resolves an encoding name, accepting common aliases
func lookupEncoding(name string) (string, encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, unicode.UTF8, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, charmap.Windows1252, nil
	case "iso-8859-1", "latin-1", "latin1":
		return EncodingLatin1, charmap.ISO8859_1, nil
	default:
		return "", nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// detectEncoding guesses the encoding of raw file content. Exports are
// either UTF-8 (possibly with a BOM) or come from Excel as Windows-1252.
func detectEncoding(data []byte) string {
	if bytes.HasPrefix(data, utf8BOM) || utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

// decode converts data in the named encoding to UTF-8, dropping a UTF-8 BOM
func decode(data []byte, name string) ([]byte, error) {
	canonical, enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if canonical == EncodingUTF8 {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", canonical, err)
		}
		return out, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", canonical, err)
	}
	return out, nil
}

// encode converts UTF-8 data to the named encoding. Characters the target
// cannot represent are replaced.
func encode(data []byte, name string) ([]byte, error) {
	canonical, enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if canonical == EncodingUTF8 {
		return data, nil
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", canonical, err)
	}
	return out, nil
}
