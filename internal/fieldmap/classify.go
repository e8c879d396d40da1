package fieldmap

import (
	"strings"
	"unicode"
)

// Tag is the semantic class of a field label.
type Tag string

const (
	TagNone      Tag = "none"
	TagFullName  Tag = "full_name"
	TagCity      Tag = "city"
	TagBirthdate Tag = "birthdate"
)

// Keywords are matched case-insensitively, Italian and English. City
// keywords must match whole words so "Cittadinanza" or "Electricity bill"
// stay unclassified. Order matters: "data di nascita" must win over a city
// keyword in "luogo e data di nascita".
var labelKeywords = []struct {
	tag       Tag
	wholeWord bool
	keywords  []string
}{
	{TagFullName, false, []string{"nome e cognome", "nome completo", "full name"}},
	{TagBirthdate, false, []string{"data di nascita", "data nascita", "date of birth", "birth date", "birthdate", "birthday", "compleanno"}},
	{TagCity, true, []string{"città", "citta", "comune di residenza", "city", "town"}},
}

// Classify maps a field label onto the closed tag set. Labels that match
// nothing come back as TagNone; callers report those instead of guessing.
func Classify(label string) Tag {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return TagNone
	}
	words := " " + strings.Join(strings.FieldsFunc(lower, isWordSeparator), " ") + " "
	for _, group := range labelKeywords {
		for _, keyword := range group.keywords {
			if group.wholeWord && strings.Contains(words, " "+keyword+" ") {
				return group.tag
			}
			if !group.wholeWord && strings.Contains(lower, keyword) {
				return group.tag
			}
		}
	}
	return TagNone
}

func isWordSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
