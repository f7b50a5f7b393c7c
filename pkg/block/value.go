package block

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatValue renders a collaborator-supplied parameter value as the string
// stored in Params. Integers print as is and floats use their shortest
// decimal form, keeping one decimal for whole values (0.5, 2.0), so a
// decoded "dpr = 1.0" still emits dpr_1.0. true becomes "true", and nil or
// false become "" (unset). String slices are joined with "," so an effects
// list can be passed whole.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return ""
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := FormatValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64, bitSize int) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 1, bitSize)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}
