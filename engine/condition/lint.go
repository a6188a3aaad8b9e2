package condition

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	doubleAnd    = regexp.MustCompile(`&&\s*&&`)
	doubleOr     = regexp.MustCompile(`\|\|\s*\|\|`)
	itemNoColon  = regexp.MustCompile(`\bhas_item\s+\w+`)
	compNoColon  = regexp.MustCompile(`\bcompanion\s+\w+`)
	singleEquals = regexp.MustCompile(`(^|[^!<>=])=([^=]|$)`)
)

// Lint reports common authoring mistakes in a condition without evaluating
// it. Messages carry no line prefix; callers add one.
func Lint(expr string) []string {
	var out []string
	cond := strings.TrimSpace(expr)
	if cond == "" {
		return nil
	}

	if strings.Count(cond, "{") != strings.Count(cond, "}") {
		out = append(out, fmt.Sprintf("Unbalanced braces in condition '%s'", cond))
	}
	if strings.Count(cond, "(") != strings.Count(cond, ")") {
		out = append(out, fmt.Sprintf("Unbalanced parentheses in condition '%s'", cond))
	}
	if doubleAnd.MatchString(cond) {
		out = append(out, "Double && operator in condition")
	}
	if doubleOr.MatchString(cond) {
		out = append(out, "Double || operator in condition")
	}
	if itemNoColon.MatchString(cond) {
		out = append(out, "'has_item' should use colon syntax: has_item:item_name")
	}
	if compNoColon.MatchString(cond) {
		out = append(out, "'companion' should use colon syntax: companion:name")
	}
	if singleEquals.MatchString(cond) {
		out = append(out, "Use '==' for comparison, not '=' in condition")
	}

	if len(out) == 0 {
		if _, err := Compile(cond); err != nil {
			out = append(out, fmt.Sprintf("Invalid condition '%s': %v", cond, err))
		}
	}
	return out
}

// Refs lists what a condition reads.
type Refs struct {
	Variables  []string
	Items      []string
	Companions []string
}

// References extracts the variables, items and companions a condition
// refers to, in order of first appearance. It works on malformed input too,
// using every token read before the first lexical error.
func References(expr string) Refs {
	var r Refs
	toks, _ := lex(Strip(expr))
	seen := map[string]bool{}
	add := func(list *[]string, prefix, name string) {
		if seen[prefix+name] {
			return
		}
		seen[prefix+name] = true
		*list = append(*list, name)
	}
	for _, t := range toks {
		switch t.kind {
		case tokIdent:
			if t.text == "has_item" || t.text == "companion" {
				continue
			}
			add(&r.Variables, "v:", t.text)
		case tokHasItem:
			add(&r.Items, "i:", t.text)
		case tokCompanion:
			add(&r.Companions, "c:", t.text)
		}
	}
	return r
}
