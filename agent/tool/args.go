package tool

import (
	"encoding/json"
	"fmt"
)

// decodeArgs maps loosely typed model arguments onto a request struct through its
// json tags.
func decodeArgs(args map[string]any, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode tool args: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid tool args: %w", err)
	}
	return nil
}
