package garden

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is an ordered list of labels. On the wire it is always a JSON array,
// but it also decodes from a comma-separated string so every write path ends
// up with the same canonical list.
type Tags []string

// ParseTags splits s on commas, trims each element and drops empty ones.
func ParseTags(s string) Tags {
	out := Tags{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinTags is the storage form of a tag list.
func JoinTags(tags []string) string {
	return strings.Join(Normalize(tags), ",")
}

// Normalize trims every element, splits elements that themselves contain
// commas and drops empties. The result is never nil.
func Normalize(tags []string) Tags {
	return ParseTags(strings.Join(tags, ","))
}

// UnmarshalJSON accepts `["a","b"]`, `"a, b"` or null.
func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Tags{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = ParseTags(s)
		return nil
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return NewFieldError("tags", "must be a list of strings")
		}
		*t = Normalize(list)
		return nil
	default:
		return NewFieldError("tags", "must be a list or a comma-separated string, got %s", truncate(string(data), 20))
	}
}

// MarshalJSON never emits null.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// ContainsFold reports whether any tag contains needle, case-insensitively.
func (t Tags) ContainsFold(needle string) bool {
	needle = strings.ToLower(needle)
	for _, tag := range t {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
