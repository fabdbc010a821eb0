package extract

import (
	"context"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// plainText decodes a text file. A UTF-8 or UTF-16 byte order mark selects
// the encoding and is dropped; without one the bytes are read as UTF-8 and
// invalid sequences become U+FFFD.
func plainText(_ context.Context, data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}
