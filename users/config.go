package users

import (
	"encoding/json"
	"fmt"
	"strings"
)

type entry struct {
	username string
	password string
	pages    []string
}

// listEntry is one element of the list form:
//
//	[{"username": "alice", "password": "...", "pages": ["survey"]}]
type listEntry struct {
	Username     string          `json:"username"`
	Password     string          `json:"password"`
	Pages        json.RawMessage `json:"pages"`
	AllowedPages json.RawMessage `json:"allowedPages"`
}

// objectEntry is one value of the keyed form:
//
//	{"alice": {"password": "...", "pages": "survey,report"}}
type objectEntry struct {
	Password     string          `json:"password"`
	Pages        json.RawMessage `json:"pages"`
	AllowedPages json.RawMessage `json:"allowedPages"`
}

func parseUsersJSON(raw string) ([]entry, error) {
	raw = strings.TrimSpace(raw)
	switch raw[0] {
	case '[':
		var list []listEntry
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
		}
		entries := make([]entry, 0, len(list))
		for i, le := range list {
			if le.Username == "" || le.Password == "" {
				return nil, fmt.Errorf("%w: entry %d requires username and password", ErrMalformedConfig, i)
			}
			entries = append(entries, entry{
				username: le.Username,
				password: le.Password,
				pages:    pagesFrom(le.AllowedPages, le.Pages),
			})
		}
		return entries, nil
	case '{':
		var obj map[string]objectEntry
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
		}
		entries := make([]entry, 0, len(obj))
		for username, oe := range obj {
			if username == "" || oe.Password == "" {
				return nil, fmt.Errorf("%w: user %q requires a password", ErrMalformedConfig, username)
			}
			entries = append(entries, entry{
				username: username,
				password: oe.Password,
				pages:    pagesFrom(oe.AllowedPages, oe.Pages),
			})
		}
		return entries, nil
	}
	return nil, fmt.Errorf("%w: expected a JSON list or object", ErrMalformedConfig)
}

// pagesFrom returns the first non-empty page list among candidates.
func pagesFrom(candidates ...json.RawMessage) []string {
	for _, c := range candidates {
		if pages := normalizePages(c); pages != nil {
			return pages
		}
	}
	return []string{DefaultPage}
}

// normalizePages accepts a JSON list of scalars or a comma-separated string.
// It returns nil when nothing usable is present.
func normalizePages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		var pages []string
		for _, item := range list {
			if item == nil {
				continue
			}
			if p := strings.TrimSpace(fmt.Sprint(item)); p != "" {
				pages = append(pages, p)
			}
		}
		return pages
	}
	var csv string
	if err := json.Unmarshal(raw, &csv); err == nil {
		return splitPages(csv)
	}
	return nil
}

// ParsePages splits a comma-separated page list, falling back to the
// sentinel page when it yields nothing.
func ParsePages(raw string) []string {
	if pages := splitPages(raw); pages != nil {
		return pages
	}
	return []string{DefaultPage}
}

func splitPages(raw string) []string {
	var pages []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			pages = append(pages, item)
		}
	}
	return pages
}
