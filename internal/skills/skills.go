package skills

import "strings"

// Normalize lower-cases and trims a skill. It is idempotent.
func Normalize(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// Set is an ordered list of unique normalized skills.
type Set []string

// NewSet normalizes the provided skills, dropping empty entries and keeping the
// first occurrence of every duplicate.
func NewSet(raw ...string) Set {
	set := make(Set, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		n := Normalize(s)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		set = append(set, n)
	}
	return set
}

// Contains reports whether the normalized form of skill is in the set.
func (s Set) Contains(skill string) bool {
	n := Normalize(skill)
	for _, v := range s {
		if v == n {
			return true
		}
	}
	return false
}

// Index returns the set as a lookup map.
func (s Set) Index() map[string]struct{} {
	idx := make(map[string]struct{}, len(s))
	for _, v := range s {
		idx[v] = struct{}{}
	}
	return idx
}

// Split parses a comma separated skill list as stored in records. The "NA"
// placeholder yields an empty list.
func Split(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" || strings.EqualFold(list, "NA") {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Dedupe removes duplicates by normalized form while keeping the first-seen
// original spelling (trimmed).
func Dedupe(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		n := Normalize(s)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
