package imagemeta

import (
	"bytes"
	"strings"
)

// ValidSVG reports whether the data looks like an SVG document: after
// any leading XML declaration, DOCTYPE, and comments, the root element
// must be <svg>, either self-closing or opened normally. This is a
// structural sniff, not XML validation.
func ValidSVG(data []byte) bool {
	s := strings.TrimSpace(string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))

	for {
		switch {
		case strings.HasPrefix(s, "<?"):
			end := strings.Index(s, "?>")
			if end == -1 {
				return false
			}
			s = strings.TrimSpace(s[end+2:])
		case strings.HasPrefix(s, "<!--"):
			end := strings.Index(s, "-->")
			if end == -1 {
				return false
			}
			s = strings.TrimSpace(s[end+3:])
		case strings.HasPrefix(s, "<!"):
			// DOCTYPE declaration.
			end := strings.Index(s, ">")
			if end == -1 {
				return false
			}
			s = strings.TrimSpace(s[end+1:])
		default:
			if !strings.HasPrefix(s, "<svg") {
				return false
			}
			rest := s[len("<svg"):]
			if rest == "" {
				return false
			}
			// The tag name must end here: "<svga>" is not SVG.
			switch rest[0] {
			case ' ', '\t', '\n', '\r', '>', '/':
				return strings.Contains(rest, ">")
			}
			return false
		}
	}
}
