package fieldmap

import "strings"

const (
	FirstNameKey  = "nome"
	MiddleNameKey = "secondo_nome"
	LastNameKey   = "cognome"
)

// mapName splits a name into first and last name entries. Structured
// values are taken as given, with the middle name both folded into nome
// and hashed on its own; a plain string is split on whitespace, first
// token as first name and the rest as last name. The split is a heuristic
// and is wrong for compound given names.
func mapName(key string, value any, r *Result) {
	if parts, ok := asObject(value); ok {
		first := SanitizeText(parts["first"])
		middle := SanitizeText(parts["middle"])
		last := SanitizeText(parts["last"])

		given := strings.TrimSpace(first + " " + middle)
		setNamePart(r, FirstNameKey, given)
		setNamePart(r, MiddleNameKey, middle)
		setNamePart(r, LastNameKey, last)

		var full []string
		for _, p := range []string{first, middle, last} {
			if p != "" {
				full = append(full, p)
			}
		}
		r.set(key, strings.Join(full, " "))
		return
	}

	clean := SanitizeText(scalarString(value))
	r.set(key, clean)

	tokens := strings.Fields(clean)
	if len(tokens) == 0 {
		return
	}
	setNamePart(r, FirstNameKey, tokens[0])
	if len(tokens) > 1 {
		setNamePart(r, LastNameKey, strings.Join(tokens[1:], " "))
	}
}

func setNamePart(r *Result, key, value string) {
	if value == "" {
		return
	}
	r.set(key, value)
	r.set(key+"_hash", HashPII(value))
}
