package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// TextData is the typed view of a text node's data fields.
// It uses "mapstructure" tags so records coming back from JSON or Redis
// (where variables decode as []any) map onto the same struct.
type TextData struct {
	Text      string   `json:"text" mapstructure:"text"`
	Variables []string `json:"variables" mapstructure:"variables"`
}

// DecodeTextData decodes a node's data map into TextData.
// Unknown keys are ignored; a nil map yields the zero value.
func DecodeTextData(data map[string]any) (TextData, error) {
	var td TextData
	if data == nil {
		return td, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &td,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return td, fmt.Errorf("failed to create text data decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return td, fmt.Errorf("failed to decode text data: %w", err)
	}
	return td, nil
}
