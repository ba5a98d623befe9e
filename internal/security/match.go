package security

import (
	"path"
	"strings"
)

// matchGlob matches a slash-separated path against a pattern in which "**"
// spans any number of segments and other segments follow path.Match.
func matchGlob(name, pattern string) bool {
	return matchSegments(strings.Split(name, "/"), strings.Split(pattern, "/"))
}

func matchSegments(name, pattern []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == "**" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if matchSegments(name[i:], rest) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, err := path.Match(head, name[0]); err != nil || !ok {
			return false
		}
		name, pattern = name[1:], pattern[1:]
	}
	return len(name) == 0
}
