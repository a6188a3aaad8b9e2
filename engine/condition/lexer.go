package condition

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokBool
	tokHasItem   // has_item:ID
	tokCompanion // companion:ID
	tokNot
	tokAnd
	tokOr
	tokEq
	tokNe
	tokGt
	tokLt
	tokGe
	tokLe
	tokLParen
	tokRParen
)

var tokenNames = map[tokenKind]string{
	tokEOF:       "end of condition",
	tokIdent:     "identifier",
	tokNumber:    "number",
	tokString:    "string",
	tokBool:      "boolean",
	tokHasItem:   "has_item",
	tokCompanion: "companion",
	tokNot:       "'!'",
	tokAnd:       "'&&'",
	tokOr:        "'||'",
	tokEq:        "'=='",
	tokNe:        "'!='",
	tokGt:        "'>'",
	tokLt:        "'<'",
	tokGe:        "'>='",
	tokLe:        "'<='",
	tokLParen:    "'('",
	tokRParen:    "')'",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind tokenKind
	text string
	pos  int
}

// operand reports whether a token ends an operand, which decides whether a
// following '-' is a sign or a syntax error.
func (t token) operand() bool {
	switch t.kind {
	case tokIdent, tokNumber, tokString, tokBool, tokHasItem, tokCompanion, tokRParen:
		return true
	}
	return false
}

// lex splits a condition into tokens. On error it returns the tokens read so
// far together with the error.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++

		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++

		case c == '&':
			if !strings.HasPrefix(src[i:], "&&") {
				return toks, fmt.Errorf("col %d: expected '&&'", i+1)
			}
			toks = append(toks, token{tokAnd, "&&", i})
			i += 2
		case c == '|':
			if !strings.HasPrefix(src[i:], "||") {
				return toks, fmt.Errorf("col %d: expected '||'", i+1)
			}
			toks = append(toks, token{tokOr, "||", i})
			i += 2

		case c == '!':
			if strings.HasPrefix(src[i:], "!=") {
				toks = append(toks, token{tokNe, "!=", i})
				i += 2
			} else {
				toks = append(toks, token{tokNot, "!", i})
				i++
			}
		case c == '=':
			if !strings.HasPrefix(src[i:], "==") {
				return toks, fmt.Errorf("col %d: use '==' for comparison, not '='", i+1)
			}
			toks = append(toks, token{tokEq, "==", i})
			i += 2
		case c == '>':
			if strings.HasPrefix(src[i:], ">=") {
				toks = append(toks, token{tokGe, ">=", i})
				i += 2
			} else {
				toks = append(toks, token{tokGt, ">", i})
				i++
			}
		case c == '<':
			if strings.HasPrefix(src[i:], "<=") {
				toks = append(toks, token{tokLe, "<=", i})
				i += 2
			} else {
				toks = append(toks, token{tokLt, "<", i})
				i++
			}

		case c == '"' || c == '\'':
			end := strings.IndexByte(src[i+1:], c)
			if end < 0 {
				return toks, fmt.Errorf("col %d: unterminated string", i+1)
			}
			toks = append(toks, token{tokString, src[i+1 : i+1+end], i})
			i += end + 2

		case isDigit(c) || (c == '-' && i+1 < len(src) && isDigit(src[i+1]) && !lastIsOperand(toks)):
			start := i
			i++
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				return toks, fmt.Errorf("col %d: fractional numbers are not supported", start+1)
			}
			if i < len(src) && isWordChar(src[i]) {
				return toks, fmt.Errorf("col %d: malformed number %q", start+1, src[start:i+1])
			}
			toks = append(toks, token{tokNumber, src[start:i], start})

		case isIdentStart(c):
			start := i
			for i < len(src) && isWordChar(src[i]) {
				i++
			}
			word := src[start:i]
			if (word == "has_item" || word == "companion") && i < len(src) && src[i] == ':' {
				j := i + 1
				for j < len(src) && isWordChar(src[j]) {
					j++
				}
				if j == i+1 {
					return toks, fmt.Errorf("col %d: %s: needs an id", start+1, word)
				}
				kind := tokHasItem
				if word == "companion" {
					kind = tokCompanion
				}
				toks = append(toks, token{kind, src[i+1 : j], start})
				i = j
				continue
			}
			toks = append(toks, keyword(word, start))

		default:
			return toks, fmt.Errorf("col %d: unexpected character %q", i+1, c)
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

func keyword(word string, pos int) token {
	switch strings.ToLower(word) {
	case "true", "false":
		return token{tokBool, strings.ToLower(word), pos}
	}
	switch word {
	case "and":
		return token{tokAnd, word, pos}
	case "or":
		return token{tokOr, word, pos}
	case "not":
		return token{tokNot, word, pos}
	}
	return token{tokIdent, word, pos}
}

func lastIsOperand(toks []token) bool {
	return len(toks) > 0 && toks[len(toks)-1].operand()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c byte) bool { return isIdentStart(c) || isDigit(c) }
