// Package cachekey computes cache keys for table scans.
package cachekey

import (
	"fmt"
	"strconv"
)

// TableAll returns the cache key for a full-table scan.
func TableAll(table string) string {
	return table + "_all"
}

// ForeignKeyAll returns the cache key for a scan filtered by a foreign-key
// value. Numeric values format without a trailing fraction so float and
// integer forms of the same id produce the same key.
func ForeignKeyAll(table string, value any) string {
	return fmt.Sprintf("%s_FK_%s_all", table, formatValue(value))
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprintf("%v", value)
}
