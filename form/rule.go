package form

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule checks a single value and returns a message, or empty when valid
type Rule[V any] func(value V) string

// FieldRule validates one field of values T
type FieldRule[T any] func(values T) []string

// Field binds rules to a field accessor
func Field[T, V any](get func(values T) V, rules ...Rule[V]) FieldRule[T] {
	return func(values T) []string {
		value := get(values)
		var ret []string
		for _, rule := range rules {
			if message := rule(value); message != "" {
				ret = append(ret, message)
			}
		}
		return ret
	}
}

var emailExpr = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Required rejects blank strings
func Required(value string) string {
	if strings.TrimSpace(value) == "" {
		return "required"
	}
	return ""
}

// Email rejects a non-empty value that is not an email address
func Email(value string) string {
	if value == "" || emailExpr.MatchString(value) {
		return ""
	}
	return "invalid email"
}

// MinLength rejects a non-empty value shorter than n characters
func MinLength(n int) Rule[string] {
	return func(value string) string {
		if value == "" || utf8.RuneCountInString(value) >= n {
			return ""
		}
		return fmt.Sprintf("must be at least %d characters", n)
	}
}

// MaxLength rejects a value longer than n characters
func MaxLength(n int) Rule[string] {
	return func(value string) string {
		if utf8.RuneCountInString(value) <= n {
			return ""
		}
		return fmt.Sprintf("must be at most %d characters", n)
	}
}

// Match rejects a non-empty value not matching expr
func Match(expr *regexp.Regexp, message string) Rule[string] {
	return func(value string) string {
		if value == "" || expr.MatchString(value) {
			return ""
		}
		return message
	}
}

// OneOf rejects a non-empty value outside the allowed set
func OneOf(allowed ...string) Rule[string] {
	return func(value string) string {
		if value == "" {
			return ""
		}
		for _, candidate := range allowed {
			if candidate == value {
				return ""
			}
		}
		return "must be one of: " + strings.Join(allowed, ", ")
	}
}

// Schema holds per-field rules for keystroke validation and an optional full-form validator
type Schema[T any] struct {
	Fields   map[string]FieldRule[T]
	Validate func(values T) FieldErrors
}

// ValidateField runs the rules of a single field
func (s *Schema[T]) ValidateField(name string, values T) []string {
	if s == nil {
		return nil
	}
	rule, ok := s.Fields[name]
	if !ok || rule == nil {
		return nil
	}
	return rule(values)
}

// ValidateAll runs every field rule and the full-form validator, grouped by field
func (s *Schema[T]) ValidateAll(values T) FieldErrors {
	ret := FieldErrors{}
	if s == nil {
		return ret
	}
	for name, rule := range s.Fields {
		if rule == nil {
			continue
		}
		for _, message := range rule(values) {
			ret.Add(name, message)
		}
	}
	if s.Validate != nil {
		for name, messages := range s.Validate(values) {
			for _, message := range messages {
				ret.Add(name, message)
			}
		}
	}
	return ret
}
