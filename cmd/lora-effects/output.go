package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// writeJSONLines writes one JSON document per line.
func writeJSONLines[T any](w io.Writer, items ...T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("json encode line %d: %w", i+1, err)
		}
	}
	return nil
}
