package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when the model output contains no usable
// JSON array.
var ErrMalformedResponse = errors.New("malformed model response")

// firstJSONArray scans the model output for the first JSON array that
// unmarshals into out. Models routinely wrap JSON in prose or markdown fences,
// so everything around the array is ignored, as are arrays of the wrong shape
// such as citation brackets.
func firstJSONArray(text string, out any) error {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		if err := json.Unmarshal(raw, out); err != nil {
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: no JSON array found", ErrMalformedResponse)
}
