package codec

import (
	"bytes"
	"encoding/json"
)

// JSON is the standard-library codec. It does not escape HTML characters.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encode terminates every value with a newline; WriteLine adds its own.
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }
