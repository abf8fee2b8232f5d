package baseline

import (
	"fmt"
	"strconv"
)

// Export flattens the table to the interchange form consumed by the external
// config and script generation: "{dayOfWeek}_{hour}" keys mapping to the
// slot's stringified median rate. Only populated slots appear.
func (t *Table) Export() map[string]string {
	out := make(map[string]string, t.PopulatedCount())
	t.Each(func(dayOfWeek, hour int, b Bucket) {
		key := fmt.Sprintf("%d_%d", dayOfWeek, hour)
		out[key] = strconv.FormatFloat(b.Median, 'f', -1, 64)
	})
	return out
}

// Import builds a table from the flat interchange form, replacing any prior
// table wholesale. Every statistic of an imported bucket is seeded from the
// median value, since the interchange form carries nothing else. Malformed
// keys or values are rejected.
func Import(flat map[string]string) (*Table, error) {
	t := NewTable()
	for key, value := range flat {
		var dayOfWeek, hour int
		if _, err := fmt.Sscanf(key, "%d_%d", &dayOfWeek, &hour); err != nil {
			return nil, fmt.Errorf("baseline import: bad key %q: %w", key, err)
		}
		median, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("baseline import: bad rate for %q: %w", key, err)
		}
		b := Bucket{Mean: median, Median: median, Min: median, Max: median}
		if err := t.SetBucket(dayOfWeek, hour, b); err != nil {
			return nil, fmt.Errorf("baseline import: %w", err)
		}
	}
	return t, nil
}
