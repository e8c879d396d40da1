package fieldmap

import "strings"

// Country calling codes are prefix free. One and two digit codes are
// listed here; anything else is three digits.
var (
	oneDigitCountryCodes = map[string]struct{}{"1": {}, "7": {}}
	twoDigitCountryCodes = map[string]struct{}{
		"20": {}, "27": {}, "30": {}, "31": {}, "32": {}, "33": {}, "34": {}, "36": {}, "39": {},
		"40": {}, "41": {}, "43": {}, "44": {}, "45": {}, "46": {}, "47": {}, "48": {}, "49": {},
		"51": {}, "52": {}, "53": {}, "54": {}, "55": {}, "56": {}, "57": {}, "58": {},
		"60": {}, "61": {}, "62": {}, "63": {}, "64": {}, "65": {}, "66": {},
		"81": {}, "82": {}, "84": {}, "86": {}, "90": {}, "91": {}, "92": {}, "93": {}, "94": {}, "95": {}, "98": {},
	}
)

// PhoneNumeric keeps digits and "+".
func PhoneNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NationalNumber strips an international prefix ("+" or "00") with its
// country code, then leading zeros. "+39 333 1234567" gives "3331234567".
func NationalNumber(s string) string {
	numeric := PhoneNumeric(strings.TrimSpace(s))
	international := false
	switch {
	case strings.HasPrefix(numeric, "+"):
		numeric = numeric[1:]
		international = true
	case strings.HasPrefix(numeric, "00"):
		numeric = numeric[2:]
		international = true
	}

	digits := digitsOnly(numeric)
	if international {
		digits = stripCountryCode(digits)
	}
	return strings.TrimLeft(digits, "0")
}

func stripCountryCode(digits string) string {
	if len(digits) >= 1 {
		if _, ok := oneDigitCountryCodes[digits[:1]]; ok {
			return digits[1:]
		}
	}
	if len(digits) >= 2 {
		if _, ok := twoDigitCountryCodes[digits[:2]]; ok {
			return digits[2:]
		}
	}
	if len(digits) > 3 {
		return digits[3:]
	}
	return digits
}
