package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "scjn:doc"

// Key identifies a cached document request.
type Key struct {
	// Path is the request path, e.g. "/tesis/2031234".
	Path string

	// Query holds the query parameters, e.g. hostName.
	Query url.Values
}

// String renders a deterministic key.
//
//	scjn:doc:tesis/2031234:hostName=https://sjf2.scjn.gob.mx
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(KeyPrefix)

	if path := strings.Trim(k.Path, "/"); path != "" {
		b.WriteByte(':')
		b.WriteString(path)
	}

	names := make([]string, 0, len(k.Query))
	for name := range k.Query {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values := append([]string(nil), k.Query[name]...)
		sort.Strings(values)
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(values, ","))
	}

	return b.String()
}
