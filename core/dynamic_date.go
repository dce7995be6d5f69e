package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DatePrefix marks a variable value computed relative to the generation time:
// "$date:<format>:<unit>:<offset>", e.g. "$date:month:month:-1" for last month.
const DatePrefix = "$date:"

var dateFormats = map[string]string{
	"day":      "2006-01-02",
	"month":    "2006-01",
	"year":     "2006",
	"datetime": "2006-01-02 15:04:05",
	"compact":  "20060102",
}

// ResolveDynamicDate evaluates a $date expression against base. Values without the
// prefix are returned unchanged.
func ResolveDynamicDate(expression string, base time.Time) (string, error) {
	if !strings.HasPrefix(expression, DatePrefix) {
		return expression, nil
	}

	parts := strings.Split(strings.TrimPrefix(expression, DatePrefix), ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid date expression %q: want %sformat:unit:offset", expression, DatePrefix)
	}
	layout, ok := dateFormats[parts[0]]
	if !ok {
		layout = dateFormats["day"]
	}
	offset, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("invalid offset in date expression %q: %w", expression, err)
	}

	switch parts[1] {
	case "day":
		base = base.AddDate(0, 0, offset)
	case "week":
		base = base.AddDate(0, 0, 7*offset)
	case "month":
		base = base.AddDate(0, offset, 0)
	case "year":
		base = base.AddDate(offset, 0, 0)
	default:
		return "", fmt.Errorf("unsupported unit %q in date expression %q", parts[1], expression)
	}
	return base.Format(layout), nil
}
