package schema

import (
	"sort"
	"time"
)

// DefaultNow is the sentinel default that resolves to the call-time
// timestamp when applied.
const DefaultNow = "now"

// ValidateKeyOrder checks that every required (no-default) field of the
// table appears in keyOrder. The returned error lists the missing fields.
func (t *Table) ValidateKeyOrder(keyOrder []string) error {
	present := make(map[string]bool, len(keyOrder))
	for _, k := range keyOrder {
		present[k] = true
	}

	var missing []string
	for _, f := range t.Fields {
		if f.Required() && !present[f.Name] {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Table: t.Name, Missing: missing}
	}
	return nil
}

// MissingKeys returns the keyOrder entries that are absent from data and
// carry no default. The result is sorted for stable error messages.
func (t *Table) MissingKeys(data map[string]any, keyOrder []string) []string {
	var missing []string
	for _, k := range keyOrder {
		if _, ok := data[k]; ok {
			continue
		}
		f, known := t.Field(k)
		if !known || !f.HasDefault {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

// ApplyDefaults returns a copy of data with defaults substituted for every
// keyOrder entry whose value is missing per its field's policy: an absent
// key always counts, nil and empty string only when the field flags them.
// The "now" default resolves to the call-time timestamp; a nil default
// coalesces to the empty string. The second return lists the fields that
// received a default, for observability.
func (t *Table) ApplyDefaults(data map[string]any, keyOrder []string) (map[string]any, []string) {
	filled := make(map[string]any, len(data))
	for k, v := range data {
		filled[k] = v
	}

	var applied []string
	now := time.Now()
	for _, k := range keyOrder {
		f, known := t.Field(k)
		if !known || !f.HasDefault {
			continue
		}
		v, present := filled[k]
		if !f.missing(v, present) {
			continue
		}
		filled[k] = resolveDefault(f.Default, now)
		applied = append(applied, k)
	}
	return filled, applied
}

func resolveDefault(def any, now time.Time) any {
	if def == nil {
		return ""
	}
	if s, ok := def.(string); ok && s == DefaultNow {
		return now
	}
	return def
}
