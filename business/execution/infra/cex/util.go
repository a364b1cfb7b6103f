package cex

import (
	"encoding/json"
	"sort"
	"strings"
)

// buildQueryString renders params as a sorted "k=v&k=v" string, the form
// both Bybit and MEXC require the HMAC signature to be computed over.
func buildQueryString(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	return sb.String()
}

// jsonCompact marshals body the same way the HTTP client will when it goes
// out over the wire, so the signature is computed over identical bytes.
func jsonCompact(body map[string]any) string {
	if body == nil {
		return ""
	}
	b, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return string(b)
}
