package expr

import (
	"regexp"
)

// The denylist is a conservative string-pattern scan over the raw expression
// text, run before any parsing. It rejects obfuscated attempts outright, even
// inside string literals. The restricted grammar behind it only binds the
// context's own keys, so the scan is a second layer, not the only one.
type denyRule struct {
	name string
	re   *regexp.Regexp
}

var denyRules = []denyRule{
	{
		name: "runtime internals",
		re:   regexp.MustCompile(`\b(process|require|module|exports|__dirname|__filename|Buffer|setTimeout|setInterval|setImmediate|clearTimeout|clearInterval|eval|Function|console)\b`),
	},
	{
		name: "prototype escape",
		re:   regexp.MustCompile(`\b(constructor|__proto__|prototype)\b`),
	},
	{
		name: "implicit receiver",
		re:   regexp.MustCompile(`\bthis\b`),
	},
	{
		name: "global access",
		re:   regexp.MustCompile(`\bglobal\s*\.`),
	},
	{
		// Bracket access is only allowed with numeric or quoted string
		// literal keys. A bare identifier key is an indirection attack.
		name: "computed bracket key",
		re:   regexp.MustCompile(`\[\s*[A-Za-z_$]`),
	},
	{
		name: "function syntax",
		re:   regexp.MustCompile(`\bfunction\b|=>`),
	},
	{
		name: "declaration keywords",
		re:   regexp.MustCompile(`\b(var|let|const|class|new|delete|import|export)\b`),
	},
}

var bareGlobalRe = regexp.MustCompile(`\bglobal\b`)

// denied reports the first denylist rule the expression matches. The bare
// identifier "global" is only tolerated when the context itself declares a
// key of that name; otherwise it is an attempt to reach the ambient global
// object.
func denied(expression string, context map[string]any) (string, bool) {
	for _, rule := range denyRules {
		if rule.re.MatchString(expression) {
			return rule.name, true
		}
	}
	if bareGlobalRe.MatchString(expression) {
		if _, ok := context["global"]; !ok {
			return "global access", true
		}
	}
	return "", false
}
