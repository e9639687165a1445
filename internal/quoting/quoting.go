// Package quoting implements the text codecs used around the queue: the
// urlencoded field-map format of event payloads (a flat string-to-string
// mapping serialized as "k1=v1&k2=v2" with percent-escaping; a key with no
// '=' decodes to the empty string), C-style backslash unescaping for
// COPY-format text, and PostgreSQL identifier quoting.
package quoting

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// URLEncode serializes a field map. Keys are emitted in sorted order so the
// encoding is deterministic.
func URLEncode(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fields[k]))
	}
	return b.String()
}

// URLDecode parses an urlencoded field map. The empty string decodes to an
// empty map. Duplicate keys keep the last value.
func URLDecode(data string) (map[string]string, error) {
	fields := make(map[string]string)
	if data == "" {
		return fields, nil
	}
	for _, pair := range strings.Split(data, "&") {
		if pair == "" {
			continue
		}
		key, val, found := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, fmt.Errorf("decode payload key %q: %w", key, err)
		}
		v := ""
		if found {
			v, err = url.QueryUnescape(val)
			if err != nil {
				return nil, fmt.Errorf("decode payload value for %q: %w", k, err)
			}
		}
		fields[k] = v
	}
	return fields, nil
}
