package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is fixed width so stored timestamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// StringList is a set of string tags stored as a JSON array. Older rows hold
// a bare string, a quoted string or a comma separated list; Scan accepts all
// of them.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *StringList) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("StringList: unsupported type %T", src)
	}
	*l = ParseStringList(s)
	return nil
}

// ParseStringList normalises a stored or submitted tag value.
func ParseStringList(s string) StringList {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	var arr []string
	if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &arr) == nil {
		return compact(arr)
	}
	s = strings.Trim(s, "[]")
	return compact(strings.Split(s, ","))
}

func compact(in []string) StringList {
	var out StringList
	seen := map[string]bool{}
	for _, v := range in {
		v = strings.Trim(strings.TrimSpace(v), `"'`)
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// ImageRef points at an uploaded file in the object store.
type ImageRef struct {
	URL          string `json:"url"`
	Path         string `json:"path,omitempty"`
	OriginalName string `json:"original_name,omitempty"`
}

// ImageRefs is stored as a JSON array. Entries written as bare URLs decode to
// refs with only URL set.
type ImageRefs []ImageRef

func (r ImageRefs) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]ImageRef(r))
	return string(b), err
}

func (r *ImageRefs) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("ImageRefs: unsupported type %T", src)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		*r = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("ImageRefs: %w", err)
	}
	out := make(ImageRefs, 0, len(raw))
	for _, m := range raw {
		var ref ImageRef
		if err := json.Unmarshal(m, &ref); err != nil {
			var url string
			if json.Unmarshal(m, &url) != nil {
				continue
			}
			ref.URL = url
		}
		if ref.URL == "" && ref.Path == "" {
			continue
		}
		out = append(out, ref)
	}
	*r = out
	return nil
}
