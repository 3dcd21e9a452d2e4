package utils

import (
	"fmt"
	"strings"
)

// StringStyle controls how booleans and absent values are rendered.
// The JSON config format uses yes/no, iocage-legacy files use on/off.
type StringStyle struct {
	True  string
	False string
	None  string
}

var (
	DefaultStyle = StringStyle{True: "yes", False: "no", None: "none"}
	LegacyStyle  = StringStyle{True: "on", False: "off", None: "none"}
)

// ParseUserInput coerces free-form input to its canonical internal shape:
// boolean-like strings become bool, none-like strings become nil, other
// values pass through unchanged.
func ParseUserInput(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch strings.ToLower(s) {
	case "yes", "true", "on":
		return true
	case "no", "false", "off":
		return false
	case "none", "-", "":
		return nil
	}
	return value
}

// ToString renders a canonical value to its string form: booleans to the
// style tokens, nil to the none token, lists joined by a single space.
func ToString(value interface{}, style StringStyle) string {
	switch v := value.(type) {
	case nil:
		return style.None
	case bool:
		if v {
			return style.True
		}
		return style.False
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = ToString(item, style)
		}
		return strings.Join(parts, " ")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func InList(list []string, item string) bool {
	for _, entry := range list {
		if entry == item {
			return true
		}
	}
	return false
}
