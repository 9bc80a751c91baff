package store

import (
	"encoding/json"
	"fmt"
	"io"
)

// Export writes a single JSON document containing every backup key present
// in the store. Values that are themselves JSON are embedded structurally;
// bare scalars are embedded as strings, matching what Import expects.
func (s *Store) Export(w io.Writer) error {
	doc := make(map[string]json.RawMessage)
	for _, key := range BackupKeys {
		raw, ok, err := s.Get(key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if json.Valid([]byte(raw)) {
			doc[key] = json.RawMessage(raw)
		} else {
			quoted, _ := json.Marshal(raw)
			doc[key] = quoted
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Import reads a backup document and overwrites every matching store key.
// Unknown keys in the document are ignored; keys absent from the document are
// left alone.
func (s *Store) Import(r io.Reader) error {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("invalid backup document: %w", err)
	}

	known := make(map[string]bool, len(BackupKeys))
	for _, key := range BackupKeys {
		known[key] = true
	}

	for key, raw := range doc {
		if !known[key] {
			continue
		}
		// Strings round-trip back to their bare form; everything else is
		// stored as the JSON text itself.
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			if err := s.Set(key, str); err != nil {
				return err
			}
			continue
		}
		if err := s.Set(key, string(raw)); err != nil {
			return err
		}
	}
	return nil
}
