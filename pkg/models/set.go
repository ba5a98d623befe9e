package models

import (
	"sort"
	"strings"
)

// NormalizeSet lower-cases, trims and de-duplicates values and returns them sorted.
// Empty strings are dropped. The result is never nil.
func NormalizeSet(values ...[]string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, list := range values {
		for _, v := range list {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Contains reports whether set holds v.
func Contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// NameSet trims and de-duplicates component names and returns them sorted.
// Case is kept so names still match the registry keys they refer to.
// Empty strings are dropped. The result is never nil.
func NameSet(values ...[]string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, list := range values {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
