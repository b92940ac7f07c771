package query

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Project applies the Spec's field selection to records. Each record is
// encoded to a JSON object and only the selected keys are kept. Records
// are returned unchanged when the Spec selects everything.
func Project[T any](records []*T, spec Spec) ([]any, error) {
	out := make([]any, 0, len(records))
	if !spec.Selects() {
		for _, r := range records {
			out = append(out, r)
		}
		return out, nil
	}

	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record for projection: %w", err)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode record for projection: %w", err)
		}
		for key := range obj {
			if !spec.Selected(key) {
				delete(obj, key)
			}
		}
		out = append(out, obj)
	}
	return out, nil
}
