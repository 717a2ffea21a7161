package audit

import "strings"

// Exclude holds resource exclusion rules shared by every check.
type Exclude struct {
	ResourceIDs map[string]bool
	// Tags maps tag key to required value; an empty value matches any value.
	Tags map[string]string
}

// ShouldExclude reports whether a resource matches the exclusion rules.
func (e Exclude) ShouldExclude(id string, tags map[string]string) bool {
	if e.ResourceIDs[id] {
		return true
	}
	for k, want := range e.Tags {
		got, ok := tags[k]
		if !ok {
			continue
		}
		if want == "" || got == want {
			return true
		}
	}
	return false
}

// TagMatcher matches a single "Key=Value" or "Key" tag rule.
type TagMatcher struct {
	Key   string
	Value string
	// AnyValue is set for key-only rules.
	AnyValue bool
}

// ParseTagMatcher parses "Key=Value" (exact match) or "Key" (presence).
func ParseTagMatcher(s string) TagMatcher {
	if k, v, ok := strings.Cut(s, "="); ok {
		return TagMatcher{Key: k, Value: v}
	}
	return TagMatcher{Key: s, AnyValue: true}
}

// Matches reports whether tags satisfy the rule.
func (m TagMatcher) Matches(tags map[string]string) bool {
	if m.Key == "" {
		return false
	}
	v, ok := tags[m.Key]
	if !ok {
		return false
	}
	return m.AnyValue || v == m.Value
}

// hasAnyKey reports whether tags contains any of keys, regardless of value.
func hasAnyKey(tags map[string]string, keys []string) bool {
	for _, k := range keys {
		if _, ok := tags[k]; ok {
			return true
		}
	}
	return false
}

func copyTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
