package parser

import "strings"

// quoted reads quoted text plus an optional tag block and condition, starting
// with rest on the current line. When the quote stays open, following lines
// are joined with single spaces until the closing quote; blank lines and
// comments in between are skipped. It leaves p.pos on the line after the
// last one consumed. Unquoted text is accepted as-is.
func (p *parser) quoted(rest string, lineNo int) (text string, tags []string, cond string) {
	p.pos++
	if !strings.HasPrefix(rest, `"`) {
		text, cond = trailingCondition(rest)
		text, tags = trailingTags(text)
		return text, tags, cond
	}

	body := rest[1:]
	if end := closingQuote(body); end >= 0 {
		tags, cond = trailer(body[end+1:])
		return unescape(body[:end]), tags, cond
	}

	parts := []string{strings.TrimSpace(body)}
	for p.pos < len(p.lines) {
		line := strings.TrimSpace(p.lines[p.pos])
		p.pos++
		if skip(line) {
			continue
		}
		if end := closingQuote(line); end >= 0 {
			if before := strings.TrimSpace(line[:end]); before != "" {
				parts = append(parts, before)
			}
			tags, cond = trailer(line[end+1:])
			return unescape(joinNonEmpty(parts)), tags, cond
		}
		parts = append(parts, line)
	}
	p.warnf(lineNo, "Unterminated quoted text")
	return unescape(joinNonEmpty(parts)), nil, ""
}

// trailer parses what follows a closing quote: [tag, tag] {condition}.
func trailer(s string) (tags []string, cond string) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if end := strings.Index(s, "]"); end > 0 {
			tags = splitTags(s[1:end])
			s = strings.TrimSpace(s[end+1:])
		}
	}
	if i := strings.Index(s, "{"); i >= 0 {
		cond = unbrace(s[i:])
	}
	return tags, cond
}

// trailingCondition splits unquoted text from a final {condition}.
func trailingCondition(s string) (string, string) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "}") {
		return s, ""
	}
	i := strings.LastIndex(s, "{")
	if i < 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:i]), unbrace(s[i:])
}

func trailingTags(s string) (string, []string) {
	if !strings.HasSuffix(s, "]") {
		return s, nil
	}
	i := strings.LastIndex(s, "[")
	if i < 0 {
		return s, nil
	}
	return strings.TrimSpace(s[:i]), splitTags(s[i+1 : len(s)-1])
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// unbrace strips the braces of "{...}". Unbalanced input is returned as-is
// so that condition lint reports it.
func unbrace(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// closingQuote returns the index of the first unescaped '"' in s, or -1.
func closingQuote(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func unescape(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

func joinNonEmpty(parts []string) string {
	out := parts[:0:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}
