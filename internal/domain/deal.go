package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Deal is a CRM record keyed by field name. Values come straight from the
// CRM JSON payload, so scalars may be strings, numbers or nil.
type Deal map[string]any

const (
	FieldID       = "ID"
	FieldStage    = "STAGE_ID"
	FieldCategory = "CATEGORY_ID"
)

func (d Deal) ID() string {
	return d.String(FieldID)
}

func (d Deal) Stage() string {
	return d.String(FieldStage)
}

// String renders a field as text. Missing and nil fields are "".
func (d Deal) String(field string) string {
	if d == nil {
		return ""
	}
	return scalarString(d[field])
}

// Raw returns the field value as stored, nil when missing.
func (d Deal) Raw(field string) any {
	if d == nil {
		return nil
	}
	return d[field]
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "Y"
		}
		return "N"
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, scalarString(item))
		}
		return strings.Join(parts, ",")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
