package interactions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
)

// Options are the flattened leaf options of a command, keyed by name and
// holding the raw JSON value.
type Options map[string]json.RawMessage

// String returns a string option, or "" when absent.
func (o Options) String(name string) string {
	raw, ok := o[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Autocomplete sends partially typed integers as strings; plain integers
	// are rendered back as text.
	return strings.Trim(string(raw), `"`)
}

// Decode copies the options into dst (a pointer to a struct with json tags)
// and validates it with binding tags, as gin does for request bodies.
func (o Options) Decode(dst any) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	if binding.Validator == nil {
		return nil
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}
