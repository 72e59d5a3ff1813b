package template

import (
	"regexp"
	"strings"
)

// space matches what ECMAScript treats as whitespace: ASCII whitespace,
// vertical tab, Unicode space separators, line and paragraph separators and BOM.
const space = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`

// Pattern is the regular expression for a variable reference.
// Group 1 captures the identifier.
const Pattern = `\{\{` + space + `*([a-zA-Z_$][a-zA-Z0-9_$]*)` + space + `*\}\}`

var variablePattern = regexp.MustCompile(Pattern)

// ExtractVariables returns the distinct variable names referenced in text,
// ordered by first appearance. The result is never nil.
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	variables := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))

	for _, m := range matches {
		name := m[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		variables = append(variables, name)
	}
	return variables
}

// ContainsVariables reports whether text references at least one variable.
func ContainsVariables(text string) bool {
	return variablePattern.MatchString(text)
}

// Summary returns the line shown under the text area, e.g. "Variables detected: a, b".
// It is empty when there are no variables.
func Summary(variables []string) string {
	if len(variables) == 0 {
		return ""
	}
	return "Variables detected: " + strings.Join(variables, ", ")
}
