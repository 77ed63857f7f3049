// Package wordexpand implements spec.md §4.1's word expander: tilde-prefix
// expansion and glob matching relative to a directory handle.
package wordexpand

import (
	"os"
	"os/user"
	"strings"
)

// ExpandTilde implements spec.md §4.1's expand_tilde: if s begins with
// "~" followed by nothing or "/", it resolves against $HOME, falling
// through to the current uid's passwd entry when $HOME is unset (not an
// error — spec.md is explicit that this is a fallthrough). If s begins
// with "~user/…" it resolves against that user's passwd home directory.
// A bare word with no leading "~" is returned unexpanded with an identity
// reverse function.
//
// The returned reverse function maps a path back to "~…" form when it has
// the resolved home directory as a prefix; otherwise it is the identity.
func ExpandTilde(s string) (expanded string, reverse func(string) string) {
	identity := func(p string) string { return p }

	if !strings.HasPrefix(s, "~") {
		return s, identity
	}

	rest := s[1:]
	name, suffix, hasSlash := cutFirstSlash(rest)

	var home string
	if name == "" {
		home = currentHome()
	} else {
		u, err := user.Lookup(name)
		if err != nil {
			// Unknown user: spec.md doesn't define this case beyond "falls
			// through to passwd lookup" for the no-name case; for a named
			// user that doesn't exist, leave the word unexpanded.
			return s, identity
		}
		home = u.HomeDir
	}

	if home == "" {
		return s, identity
	}

	if !hasSlash {
		expanded = home
	} else {
		expanded = home + "/" + suffix
	}

	reverse = func(p string) string {
		if p == home {
			return "~"
		}
		if strings.HasPrefix(p, home+"/") {
			return "~" + strings.TrimPrefix(p, home)
		}
		return p
	}
	return expanded, reverse
}

// currentHome implements the "$HOME or fall through to the current uid's
// passwd entry" rule for a bare "~" or "~/…".
func currentHome() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.HomeDir
}

func cutFirstSlash(s string) (name, suffix string, hasSlash bool) {
	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}
