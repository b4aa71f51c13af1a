package corpus

import "strings"

// Entry is one source document. Value is UTF-8 text.
type Entry struct {
	Key   string
	Value []byte
}

// Category returns the first path segment of the key, or "" for keys at
// the namespace root.
func (e Entry) Category() string {
	head, _, found := strings.Cut(e.Key, "/")
	if !found {
		return ""
	}
	return head
}
