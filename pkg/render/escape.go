package render

import (
	"strings"
)

// htmlEscaper maps every character that can change meaning inside HTML to
// its entity form. The colon blunts javascript:-style URL injection. The
// equals sign is escaped unconditionally, with no contextual heuristic and
// no already-escaped carve-out.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	":", "&#x3A;",
	"=", "&#x3D;",
)

// EscapeHTML escapes a stringified variable value for safe interpolation
// into HTML-shaped output. Literal template text is never escaped.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
