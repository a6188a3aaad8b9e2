// Package resolve maps player input to one of the choices offered at a node.
package resolve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/dlgforge/types"
)

var (
	ErrNoChoice  = errors.New("no matching choice")
	ErrAmbiguous = errors.New("ambiguous choice")
)

// AmbiguityError indicates several enabled choices matched the input.
type AmbiguityError struct {
	Input      string
	Candidates []int // 1-based indexes
}

func (e *AmbiguityError) Error() string {
	idx := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		idx[i] = strconv.Itoa(c)
	}
	return fmt.Sprintf("which %q? (%s)", e.Input, strings.Join(idx, ", "))
}

func (e *AmbiguityError) Unwrap() error { return ErrAmbiguous }

// NotFoundError indicates nothing offered matched the input.
type NotFoundError struct {
	Input string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no choice matches %q", e.Input)
}

func (e *NotFoundError) Unwrap() error { return ErrNoChoice }

// Resolve picks the option the input refers to. A number selects by its
// 1-based display index, disabled or not, so the caller can explain why it
// is inert. Text matches enabled options only: an exact (case-insensitive)
// match first, then a prefix, then a whole word of the choice text.
func Resolve(options []types.ChoiceOption, input string) (types.ChoiceOption, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.ChoiceOption{}, &NotFoundError{Input: input}
	}
	if n, err := strconv.Atoi(input); err == nil {
		for _, o := range options {
			if o.Index == n {
				return o, nil
			}
		}
		return types.ChoiceOption{}, &NotFoundError{Input: input}
	}

	lower := strings.ToLower(input)
	for _, match := range []func(text string) bool{
		func(text string) bool { return text == lower },
		func(text string) bool { return strings.HasPrefix(text, lower) },
		func(text string) bool { return hasWord(text, lower) },
	} {
		var hits []types.ChoiceOption
		for _, o := range options {
			if o.Enabled && match(strings.ToLower(o.Choice.Text)) {
				hits = append(hits, o)
			}
		}
		switch len(hits) {
		case 0:
			continue
		case 1:
			return hits[0], nil
		default:
			amb := &AmbiguityError{Input: input}
			for _, h := range hits {
				amb.Candidates = append(amb.Candidates, h.Index)
			}
			return types.ChoiceOption{}, amb
		}
	}
	return types.ChoiceOption{}, &NotFoundError{Input: input}
}

func hasWord(text, word string) bool {
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	}) {
		if w == word {
			return true
		}
	}
	return false
}
