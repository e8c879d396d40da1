package fieldmap

import (
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
)

// MapField converts one submitted field into formFields entries.
func MapField(f Field) Result {
	r := newResult()
	key := f.Key()
	r.Key = key

	r.Tag = Classify(f.Label)
	r.Unclassified = r.Tag == TagNone

	if r.Tag == TagFullName || f.Type == FieldTypeName {
		mapName(key, f.Value, r)
	} else {
		mapByType(key, f, r)
	}

	switch r.Tag {
	case TagCity:
		// address fields already normalize their city part
		if f.Type != FieldTypeAddress {
			mapCity(key, f.Value, r)
		}
	case TagBirthdate:
		mapBirthdate(key, f.Value, r)
	}

	return *r
}

// MapFields maps fields in order into one formFields map, skipping ids in
// excluded. A later field with the same key overwrites an earlier one.
func MapFields(fields []Field, excluded map[string]struct{}) (map[string]any, []Result) {
	formFields := make(map[string]any)
	results := make([]Result, 0, len(fields))
	for _, f := range fields {
		if _, skip := excluded[f.ID]; skip {
			continue
		}
		res := MapField(f)
		for k, v := range res.Entries {
			formFields[k] = v
		}
		results = append(results, res)
	}
	return formFields, results
}

func mapByType(key string, f Field, r *Result) {
	switch f.Type {
	case FieldTypeCheckbox, FieldTypeSelect, FieldTypeRadio, FieldTypePaymentCheckbox, FieldTypePaymentMultiple:
		if list, ok := asList(f.Value); ok {
			clean := SanitizeTextList(list)
			r.set(key, clean)
			r.set(key+"_text", strings.Join(clean, ", "))
			return
		}
		r.set(key, SanitizeText(scalarString(f.Value)))

	case FieldTypeFileUpload:
		if list, ok := asList(f.Value); ok {
			urls := make([]string, 0, len(list))
			for _, u := range list {
				urls = append(urls, SanitizeURL(u))
			}
			r.set(key, urls)
			r.set(key+"_count", len(urls))
			return
		}
		r.set(key, SanitizeURL(scalarString(f.Value)))

	case FieldTypeDate, FieldTypeDateTime:
		raw := SanitizeText(scalarString(f.Value))
		r.set(key, raw)
		if t, ok := ParseDate(raw); ok {
			r.set(key+"_timestamp", t.Unix())
			r.set(key+"_iso", t.Format("2006-01-02"))
		} else if raw != "" {
			r.warn("field %s: unparseable date %q", f.ID, raw)
		}

	case FieldTypeTime:
		r.set(key, SanitizeText(scalarString(f.Value)))

	case FieldTypePaymentSingle, FieldTypePaymentTotal, FieldTypePaymentQuantity, FieldTypeCreditCard:
		raw := scalarString(f.Value)
		r.set(key, SanitizeText(raw))
		r.set(key+"_numeric", ParseAmount(raw))

	case FieldTypeAddress:
		mapAddress(key, f.Value, r)

	case FieldTypeEmail:
		mapEmail(key, f, r)

	case FieldTypePhone:
		raw := scalarString(f.Value)
		clean := SanitizeText(raw)
		r.set(key, clean)
		if numeric := PhoneNumeric(raw); numeric != clean {
			r.set(key+"_numeric", numeric)
		}
		if national := NationalNumber(raw); national != "" {
			r.set(key+"_hash", HashSHA256(national))
		}

	default:
		if list, ok := asList(f.Value); ok {
			r.set(key, SanitizeTextList(list))
			return
		}
		r.set(key, SanitizeText(scalarString(f.Value)))
	}
}

func mapEmail(key string, f Field, r *Result) {
	raw := strings.TrimSpace(scalarString(f.Value))
	r.set(key, SanitizeEmail(raw))
	if raw == "" {
		return
	}

	if at := strings.Index(raw, "@"); at >= 0 {
		r.set(key+"_domain", SanitizeText(raw[at+1:]))
	}
	r.set(key+"_hash", HashPII(raw))

	if validation := mailvalidate.ValidateEmailSyntax(raw); !validation.IsValid {
		r.warn("field %s: invalid email syntax", f.ID)
	}
}

func mapCity(key string, value any, r *Result) {
	token := FoldToken(SanitizeText(scalarString(value)))
	if token == "" {
		return
	}
	r.set(key+"_normalized", token)
	r.set(key+"_hash", HashSHA256(token))
}

func mapBirthdate(key string, value any, r *Result) {
	t, ok := ParseDate(SanitizeText(scalarString(value)))
	if !ok {
		return
	}
	normalized := t.Format("20060102")
	r.set(key+"_normalized", normalized)
	r.set(key+"_hash", HashSHA256(normalized))
}
