package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Indices is a list of 1-based option indices. A single index is written
// to JSON as a bare number and a longer list as an array; both forms are
// accepted on read.
type Indices []int

// Equal reports whether both lists hold the same indices in the same order.
func (ix Indices) Equal(other Indices) bool {
	if len(ix) != len(other) {
		return false
	}
	for i := range ix {
		if ix[i] != other[i] {
			return false
		}
	}
	return true
}

func (ix Indices) MarshalJSON() ([]byte, error) {
	if len(ix) == 1 {
		return json.Marshal(ix[0])
	}
	if ix == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(ix))
}

func (ix *Indices) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []int
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("indices: %w", err)
		}
		*ix = list
		return nil
	}
	var single int
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	*ix = Indices{single}
	return nil
}
