package host

import (
	"regexp"
	"strconv"
)

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

// Format replaces {n} with args[n]. Placeholders without a matching
// argument are left as they are.
func Format(s string, args ...string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n >= len(args) {
			return m
		}
		return args[n]
	})
}
