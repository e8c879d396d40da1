package fieldmap

import (
	"sort"
	"strings"
)

var addressPartOrder = []string{"address1", "address2", "city", "state", "postal", "country"}

// orderedAddressParts returns the part names of an address value in a
// stable order: known parts first, the rest alphabetically.
func orderedAddressParts(parts map[string]string) []string {
	known := make(map[string]struct{}, len(addressPartOrder))
	out := make([]string, 0, len(parts))
	for _, name := range addressPartOrder {
		known[name] = struct{}{}
		if _, ok := parts[name]; ok {
			out = append(out, name)
		}
	}

	var rest []string
	for name := range parts {
		if _, ok := known[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func mapAddress(key string, value any, r *Result) {
	parts, ok := asObject(value)
	if !ok {
		r.set(key, SanitizeText(scalarString(value)))
		return
	}

	var full []string
	for _, name := range orderedAddressParts(parts) {
		clean := SanitizeText(parts[name])
		r.set(key+"_"+name, clean)
		if clean != "" {
			full = append(full, clean)
		}
	}
	r.set(key, strings.Join(full, ", "))

	if city := SanitizeText(parts["city"]); city != "" {
		if token := FoldToken(city); token != "" {
			r.set(key+"_city_normalized", token)
			r.set(key+"_city_hash", HashSHA256(token))
		}
	}
}
