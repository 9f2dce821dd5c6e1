package peg

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// EncodingError reports the byte offset at which decoding or encoding first
// failed, so a caller can point a user at the exact offending byte.
type EncodingError struct {
	Encoding string
	Offset   int
	Reason   string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %s: %s at byte offset %d", e.Encoding, e.Reason, e.Offset)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DefaultEncoding is used whenever a request omits the encoding field.
const DefaultEncoding = "utf-8"

// Decode turns raw file bytes into the string domain the edit engine
// operates on. Supported names: "utf-8" (default), "utf-8-sig" (BOM
// stripped), "ascii" (7-bit only). Any other name is rejected outright.
func Decode(data []byte, encoding string) (string, error) {
	switch normalize(encoding) {
	case "utf-8":
		return decodeUTF8(data, "utf-8")
	case "utf-8-sig":
		return decodeUTF8(bytes.TrimPrefix(data, utf8BOM), "utf-8-sig")
	case "ascii":
		for i := 0; i < len(data); i++ {
			if data[i] > 127 {
				return "", &EncodingError{Encoding: "ascii", Offset: i, Reason: "byte outside 7-bit ascii range"}
			}
		}
		return string(data), nil
	default:
		return "", &EncodingError{Encoding: encoding, Offset: 0, Reason: "unsupported encoding"}
	}
}

// Encode is the inverse of Decode.
func Encode(s string, encoding string) ([]byte, error) {
	switch normalize(encoding) {
	case "utf-8":
		return []byte(s), nil
	case "utf-8-sig":
		return append(append([]byte{}, utf8BOM...), []byte(s)...), nil
	case "ascii":
		for i := 0; i < len(s); i++ {
			if s[i] > 127 {
				return nil, &EncodingError{Encoding: "ascii", Offset: i, Reason: "character outside 7-bit ascii range"}
			}
		}
		return []byte(s), nil
	default:
		return nil, &EncodingError{Encoding: encoding, Offset: 0, Reason: "unsupported encoding"}
	}
}

func normalize(encoding string) string {
	if encoding == "" {
		return DefaultEncoding
	}
	return encoding
}

func decodeUTF8(data []byte, name string) (string, error) {
	if !utf8.Valid(data) {
		offset := firstInvalidOffset(data)
		return "", &EncodingError{Encoding: name, Offset: offset, Reason: "invalid utf-8 byte sequence"}
	}
	return string(data), nil
}

func firstInvalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}
