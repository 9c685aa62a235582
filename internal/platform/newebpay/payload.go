package newebpay

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// Payload is the decoded TradeInfo plaintext. Result is never nil.
type Payload struct {
	Status  string
	Message string
	Result  map[string]any
	// Fields holds the top-level keys other than Result.
	Fields map[string]any
}

// Normalize parses a decrypted plaintext. JSON is tried first, then the
// query-string form; in both cases a Result that is itself a string is
// re-parsed as JSON, falling back to a query string.
func Normalize(plaintext string) *Payload {
	plaintext = strings.TrimSpace(plaintext)
	top, ok := parseJSONObject(plaintext)
	if !ok {
		top = parseQuery(plaintext)
	}

	p := &Payload{Result: map[string]any{}, Fields: map[string]any{}}
	for k, v := range top {
		if k == "Result" {
			continue
		}
		p.Fields[k] = v
	}
	p.Status = cast.ToString(top["Status"])
	p.Message = cast.ToString(top["Message"])

	switch r := top["Result"].(type) {
	case map[string]any:
		p.Result = r
	case string:
		p.Result = parseNested(r)
	}
	return p
}

func parseNested(s string) map[string]any {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]any{}
	}
	if m, ok := parseJSONObject(s); ok {
		return m
	}
	return parseQuery(s)
}

func parseJSONObject(s string) (map[string]any, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func parseQuery(s string) map[string]any {
	out := map[string]any{}
	values, err := url.ParseQuery(s)
	if err != nil && len(values) == 0 {
		return out
	}
	for k, v := range values {
		if k == "" || len(v) == 0 {
			continue
		}
		out[k] = v[0]
	}
	return out
}
