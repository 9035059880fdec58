package batch

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseNames decodes a names file and returns its non-blank lines, trimmed.
// Bytes that are not valid UTF-8 are read as ISO-8859-2 (Latin-2).
func ParseNames(data []byte) ([]string, error) {
	text, err := decodeNames(bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(text, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoNames
	}
	return names, nil
}

func decodeNames(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_2.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: decode names: %v", ErrProcessing, err)
	}
	return string(decoded), nil
}
