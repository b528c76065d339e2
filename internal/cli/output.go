package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrReported marks a failure whose details were already written to the
// command output.
var ErrReported = errors.New("drawsim: failed")

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
