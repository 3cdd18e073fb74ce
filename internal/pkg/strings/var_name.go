// Package strings provides string utility functions for variable and registration naming.
package strings

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToLowerCamel lowers the leading run of upper-case letters.
func ToLowerCamel(s string) string {
	i := 0
	for i < len(s) && unicode.IsUpper(rune(s[i])) {
		i++
	}

	return strings.ToLower(s[:i]) + s[i:]
}

// BeanName derives a registration name from a type name. The first letter is lowered unless the
// first two letters are both upper case, so "MyService" becomes "myService" and "URLService"
// stays as is.
func BeanName(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}

	if second, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(first) && unicode.IsUpper(second) {
		return s
	}

	return string(unicode.ToLower(first)) + s[size:]
}
