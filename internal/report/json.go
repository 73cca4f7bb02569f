package report

import (
	"bytes"
	"encoding/json"
)

// JSONIndent is the indentation of every JSON document the application writes.
const JSONIndent = "    "

// EncodeJSON renders v indented, with non-ASCII text and HTML characters kept
// literal.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", JSONIndent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
