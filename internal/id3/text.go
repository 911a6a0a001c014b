package id3

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Text encoding bytes.
const (
	EncodingISO88591 byte = 0
	EncodingUTF16    byte = 1 // UTF-16 with BOM
	EncodingUTF16BE  byte = 2 // v2.4 only
	EncodingUTF8     byte = 3 // v2.4 only
)

var (
	utf16BOM   = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	utf16BE    = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	utf16LEBOM = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
)

// decoderFor returns the x/text decoder for an encoding byte, nil for UTF-8.
func decoderFor(enc byte) *encoding.Decoder {
	switch enc {
	case EncodingUTF16:
		return utf16BOM.NewDecoder()
	case EncodingUTF16BE:
		return utf16BE.NewDecoder()
	case EncodingUTF8:
		return nil
	default:
		// Unknown encodings are treated as ISO-8859-1
		return charmap.ISO8859_1.NewDecoder()
	}
}

// decodeString converts raw frame text to UTF-8. Trailing NULs and any
// stray byte order marks are removed.
func decodeString(data []byte, enc byte) string {
	if len(data) == 0 {
		return ""
	}

	var s string
	if dec := decoderFor(enc); dec != nil {
		out, err := dec.Bytes(data)
		if err != nil {
			// Odd-length UTF-16 and similar damage: keep what decodes
			out, _ = dec.Bytes(data[:len(data)&^1])
		}
		s = string(out)
	} else {
		s = strings.ToValidUTF8(string(data), string(utf8.RuneError))
	}

	s = strings.ReplaceAll(s, "\ufeff", "")
	return strings.TrimRight(s, "\x00")
}

// decodeText decodes a text frame body. v2.4 multi-value frames separate
// values with NUL; they are re-joined with sep.
func decodeText(data []byte, enc byte, sep string) string {
	s := decodeString(data, enc)
	if !strings.Contains(s, "\x00") {
		return s
	}

	parts := strings.Split(s, "\x00")
	values := parts[:0]
	for _, p := range parts {
		if p != "" {
			values = append(values, p)
		}
	}
	return strings.Join(values, sep)
}

// isLatin1 reports whether every rune of s is representable in ISO-8859-1.
func isLatin1(s string) bool {
	for _, r := range s {
		if r > 0xFF || r == utf8.RuneError {
			return false
		}
	}
	return true
}

// pickEncoding chooses ISO-8859-1 when all strings fit, UTF-16 otherwise.
func pickEncoding(texts ...string) byte {
	for _, s := range texts {
		if !isLatin1(s) {
			return EncodingUTF16
		}
	}
	return EncodingISO88591
}

// encodeString encodes s without a terminator. UTF-16 output is
// little-endian and starts with an FF FE byte order mark.
func encodeString(s string, enc byte) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	switch enc {
	case EncodingISO88591:
		return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	case EncodingUTF16:
		return utf16LEBOM.NewEncoder().Bytes([]byte(s))
	case EncodingUTF16BE:
		return utf16BE.NewEncoder().Bytes([]byte(s))
	default:
		return []byte(s), nil
	}
}

// terminator returns the string terminator for an encoding.
func terminator(enc byte) []byte {
	if enc == EncodingUTF16 || enc == EncodingUTF16BE {
		return []byte{0, 0}
	}
	return []byte{0}
}

// findTerminator returns the index of the first string terminator in data,
// or -1. UTF-16 terminators are only matched on code unit boundaries.
func findTerminator(data []byte, enc byte) int {
	if enc != EncodingUTF16 && enc != EncodingUTF16BE {
		return bytes.IndexByte(data, 0)
	}
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			return i
		}
	}
	return -1
}

// splitTerminated splits data at the first terminator. ok is false when
// there is none, in which case head is all of data.
func splitTerminated(data []byte, enc byte) (head, rest []byte, ok bool) {
	idx := findTerminator(data, enc)
	if idx < 0 {
		return data, nil, false
	}
	return data[:idx], data[idx+len(terminator(enc)):], true
}
