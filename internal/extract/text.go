package extract

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText reads data as UTF-8, falling back to Latin-1 when the bytes are not valid UTF-8.
func decodeText(data []byte) (string, []string) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// ISO-8859-1 maps every byte, so this only happens on allocation failure.
		return string(data), []string{"latin-1 decode: " + err.Error()}
	}
	return string(decoded), []string{"input is not valid UTF-8; decoded as Latin-1"}
}
