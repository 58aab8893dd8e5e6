package redis

import (
	"fmt"
	"strings"
)

// SequenceKey returns the key of a stored command sequence (list)
// Pattern: led:sequence:{name}
func SequenceKey(name string) string {
	return fmt.Sprintf("led:sequence:%s", name)
}

// ResolveSequenceKey accepts either a bare sequence name or a full key
func ResolveSequenceKey(nameOrKey string) string {
	if strings.Contains(nameOrKey, ":") {
		return nameOrKey
	}
	return SequenceKey(nameOrKey)
}
