package server

import (
	"errors"
	"fmt"
	"strings"
)

// Named carries keyword substitutions for Notify and Broadcast. Values are
// substituted for {key} placeholders in the text.
type Named map[string]any

// ErrMixedFormat is returned when a single Notify or Broadcast call mixes
// positional arguments with a Named map. Exactly one style is allowed per
// call.
var ErrMixedFormat = errors.New("cannot mix positional and named formatting arguments")

// Format renders text for delivery. With no arguments the text passes
// through untouched. Positional arguments are applied printf-style; a
// single Named argument substitutes {key} placeholders instead.
func Format(text string, args ...any) (string, error) {
	if len(args) == 0 {
		return text, nil
	}
	if vars, ok := args[0].(Named); ok {
		if len(args) > 1 {
			return "", ErrMixedFormat
		}
		return expandNamed(text, vars)
	}
	for _, a := range args[1:] {
		if _, ok := a.(Named); ok {
			return "", ErrMixedFormat
		}
	}
	return fmt.Sprintf(text, args...), nil
}

// expandNamed substitutes {key} placeholders from vars. Every placeholder
// must have a value; a missing key is a usage error, not a silent pass.
func expandNamed(text string, vars Named) (string, error) {
	var b strings.Builder
	for len(text) > 0 {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:open])
		text = text[open:]
		end := strings.IndexByte(text, '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in %q", text)
		}
		name := text[1:end]
		v, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("no value for placeholder {%s}", name)
		}
		fmt.Fprint(&b, v)
		text = text[end+1:]
	}
	return b.String(), nil
}
