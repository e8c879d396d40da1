// Package fieldmap turns submitted form fields into the flat formFields map
// of a dataLayer event. Every function here is pure: the same field always
// yields the same entries.
package fieldmap

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type FieldType string

const (
	FieldTypeText            FieldType = "text"
	FieldTypeCheckbox        FieldType = "checkbox"
	FieldTypeSelect          FieldType = "select"
	FieldTypeRadio           FieldType = "radio"
	FieldTypePaymentCheckbox FieldType = "payment-checkbox"
	FieldTypePaymentMultiple FieldType = "payment-multiple"
	FieldTypeFileUpload      FieldType = "file-upload"
	FieldTypeDate            FieldType = "date"
	FieldTypeDateTime        FieldType = "date-time"
	FieldTypeTime            FieldType = "time"
	FieldTypePaymentSingle   FieldType = "payment-single"
	FieldTypePaymentTotal    FieldType = "payment-total"
	FieldTypePaymentQuantity FieldType = "payment-quantity"
	FieldTypeCreditCard      FieldType = "credit-card"
	FieldTypeName            FieldType = "name"
	FieldTypeAddress         FieldType = "address"
	FieldTypeEmail           FieldType = "email"
	FieldTypePhone           FieldType = "phone"
)

// Field is one submitted field as reported by the form host.
type Field struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
	Value any       `json:"value"`
}

// Key is the formFields key for the field: its label, or "Field <id>" when
// the label is empty. Two fields sharing a label share a key.
func (f Field) Key() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return "Field " + f.ID
}

// Result holds what a single field contributes to formFields.
type Result struct {
	Key     string
	Entries map[string]any
	Tag     Tag
	// Unclassified is set when the label matched no semantic tag.
	Unclassified bool
	Warnings     []string
}

func newResult() *Result {
	return &Result{Entries: make(map[string]any)}
}

func (r *Result) set(key string, value any) {
	r.Entries[key] = value
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// scalarString renders a decoded JSON scalar as text.
func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "1"
		}
		return ""
	case []any, []string, map[string]any, map[string]string:
		return strings.Join(listStrings(v), ", ")
	default:
		return fmt.Sprint(v)
	}
}

// asList reports whether value is a list and returns its elements as text.
func asList(value any) ([]string, bool) {
	switch v := value.(type) {
	case []any:
		return listStrings(v), true
	case []string:
		return listStrings(v), true
	default:
		return nil, false
	}
}

// asObject reports whether value is an object and returns its string parts.
func asObject(value any) (map[string]string, bool) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, part := range v {
			out[k] = scalarString(part)
		}
		return out, true
	case map[string]string:
		return v, true
	default:
		return nil, false
	}
}

func listStrings(value any) []string {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, scalarString(item))
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case map[string]any:
		keys := sortedKeys(v)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, scalarString(v[k]))
		}
		return out
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, v[k])
		}
		return out
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
