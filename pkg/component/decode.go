package component

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeRecords reads a JSON array of records. Unknown fields are
// rejected so typos in hand-written inputs surface early.
func DecodeRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var recs []Record
	if err := dec.Decode(&recs); err != nil {
		return nil, fmt.Errorf("component: decode records: %w", err)
	}
	return recs, nil
}
