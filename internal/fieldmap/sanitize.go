package fieldmap

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	octetRegex      = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	tagRegex        = regexp.MustCompile(`<[^>]*>`)

	emailLocalRegex = regexp.MustCompile("[^a-zA-Z0-9!#$%&'*+/=?^_`{|}~.-]")
	emailLabelRegex = regexp.MustCompile(`[^a-zA-Z0-9-]`)

	urlCharsRegex = regexp.MustCompile(`[^a-zA-Z0-9\-~+_.?#=!&;,/:%@$|*'()\[\]\x{80}-\x{10FFFF}]`)
)

var allowedURLSchemes = map[string]struct{}{
	"http": {}, "https": {}, "ftp": {}, "ftps": {}, "mailto": {}, "news": {}, "irc": {}, "irc6": {},
	"ircs": {}, "gopher": {}, "nntp": {}, "feed": {}, "telnet": {}, "mms": {}, "rtsp": {}, "sms": {},
	"svn": {}, "tel": {}, "fax": {}, "xmpp": {}, "webcal": {}, "urn": {},
}

// SanitizeText strips markup and control whitespace from a user supplied string.
func SanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	if strings.Contains(s, "<") {
		s = stripTags(s)
	}
	for octetRegex.MatchString(s) {
		s = octetRegex.ReplaceAllString(s, "")
	}
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripTags(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return tagRegex.ReplaceAllString(s, "")
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

// SanitizeTextList sanitizes each element and keeps the list shape.
func SanitizeTextList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, SanitizeText(v))
	}
	return out
}

// SanitizeEmail drops characters not allowed in an address. Case is preserved.
// An address that cannot be repaired comes back empty.
func SanitizeEmail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return ""
	}
	at := strings.Index(s, "@")
	if at < 1 {
		return ""
	}

	local := emailLocalRegex.ReplaceAllString(s[:at], "")
	if local == "" {
		return ""
	}

	domain := strings.Trim(s[at+1:], " \t\n\r\x00\x0B.")
	for strings.Contains(domain, "..") {
		domain = strings.ReplaceAll(domain, "..", ".")
	}
	var labels []string
	for _, label := range strings.Split(domain, ".") {
		label = strings.Trim(label, " \t\n\r\x00\x0B-")
		label = emailLabelRegex.ReplaceAllString(label, "")
		if label != "" {
			labels = append(labels, label)
		}
	}
	if len(labels) < 2 {
		return ""
	}

	return local + "@" + strings.Join(labels, ".")
}

// SanitizeURL keeps URLs with a known scheme; relative references pass through.
func SanitizeURL(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "%20")
	s = urlCharsRegex.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}

	if !strings.Contains(s, ":") && !strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "#") && !strings.HasPrefix(s, "?") {
		s = "http://" + s
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" {
		if _, ok := allowedURLSchemes[strings.ToLower(parsed.Scheme)]; !ok {
			return ""
		}
	}
	return s
}
