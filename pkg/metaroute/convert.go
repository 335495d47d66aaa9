package metaroute

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ConvertSimpleType coerces input to a "string", "number" or "boolean" value.
// Numbers that do not parse, and nil, become NaN; only the string "true" (any case) is true.
func ConvertSimpleType(kind string, input any) (any, error) {
	switch strings.ToLower(kind) {
	case "string":
		return fmt.Sprint(input), nil
	case "number":
		switch v := input.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case bool:
			if v {
				return 1.0, nil
			}
			return 0.0, nil
		}
		if input == nil {
			return math.NaN(), nil
		}
		s := strings.TrimSpace(fmt.Sprint(input))
		if s == "" {
			return 0.0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN(), nil
		}
		return f, nil
	case "boolean":
		s, ok := input.(string)
		return ok && strings.ToLower(s) == "true", nil
	default:
		return nil, fmt.Errorf("invalid simple type, type = [%s]", kind)
	}
}

