package product

import (
	"encoding/json"
	"fmt"
)

// MarshalFiltered serializes the snapshot while omitting the named wire
// fields. Omitting large fields (typically picUrl) keeps persisted payloads
// small without breaking the round-trip of the remaining fields.
func (s Snapshot) MarshalFiltered(exclude ...string) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return filterFields(raw, exclude)
}

// MarshalFiltered serializes the catalog while omitting the named wire
// fields from every contained snapshot.
func (c *Catalog) MarshalFiltered(exclude ...string) ([]byte, error) {
	if len(exclude) == 0 {
		return json.Marshal(c)
	}

	products := make([]json.RawMessage, 0, c.Len())
	for _, s := range c.Snapshots() {
		filtered, err := s.MarshalFiltered(exclude...)
		if err != nil {
			return nil, err
		}
		products = append(products, filtered)
	}

	return json.Marshal(struct {
		LocationID   int               `json:"locationId"`
		LocationName string            `json:"locationName"`
		Fingerprint  string            `json:"fingerprint"`
		Products     []json.RawMessage `json:"products"`
	}{
		LocationID:   c.locationID,
		LocationName: c.locationName,
		Fingerprint:  c.fingerprint,
		Products:     products,
	})
}

func filterFields(raw []byte, exclude []string) ([]byte, error) {
	if len(exclude) == 0 {
		return raw, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to filter fields: %w", err)
	}
	for _, field := range exclude {
		delete(fields, field)
	}
	return json.Marshal(fields)
}
