package query

import (
	"net/url"
	"strconv"
)

// Reserved URL keys.
const (
	SearchKey = "search"
	PageKey   = "page"
)

// URLCodec maps State to and from a flat key/value URL representation.
// The search term is written only when non-empty, the page only when > 1 and
// filters only when set.
type URLCodec struct {
	fields map[string]struct{}
}

// NewURLCodec returns a codec. With no fields every non-reserved key is read
// as a filter; otherwise only the listed filter keys are.
func NewURLCodec(fields ...string) *URLCodec {
	c := &URLCodec{}
	if len(fields) > 0 {
		c.fields = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			c.fields[f] = struct{}{}
		}
	}
	return c
}

// Accepts reports whether key is a filter this codec reads and writes.
func (c *URLCodec) Accepts(key string) bool {
	if key == SearchKey || key == PageKey || key == "" {
		return false
	}
	if c == nil || c.fields == nil {
		return true
	}
	_, ok := c.fields[key]
	return ok
}

// Encode renders s as a flat map.
func (c *URLCodec) Encode(s State) map[string]string {
	out := make(map[string]string, len(s.Filters)+2)
	if s.Search != "" {
		out[SearchKey] = s.Search
	}
	if s.Page > 1 {
		out[PageKey] = strconv.Itoa(s.Page)
	}
	for k, v := range s.Filters {
		if v != "" && c.Accepts(k) {
			out[k] = v
		}
	}
	return out
}

// Decode parses a flat map. A missing, malformed or non-positive page
// decodes to 1; empty values are unset.
func (c *URLCodec) Decode(params map[string]string) State {
	s := NewState()
	s.Search = params[SearchKey]
	if raw, ok := params[PageKey]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			s.Page = n
		}
	}
	for k, v := range params {
		if v == "" || !c.Accepts(k) {
			continue
		}
		if s.Filters == nil {
			s.Filters = make(map[string]string)
		}
		s.Filters[k] = v
	}
	return s
}

// EncodeValues renders s as url.Values.
func (c *URLCodec) EncodeValues(s State) url.Values {
	values := make(url.Values)
	for k, v := range c.Encode(s) {
		values.Set(k, v)
	}
	return values
}

// DecodeValues parses url.Values, taking the first value of each key.
func (c *URLCodec) DecodeValues(values url.Values) State {
	flat := make(map[string]string, len(values))
	for k := range values {
		flat[k] = values.Get(k)
	}
	return c.Decode(flat)
}

// EncodeQuery renders s as a raw query string with sorted keys.
func (c *URLCodec) EncodeQuery(s State) string {
	return c.EncodeValues(s).Encode()
}

// DecodeQuery parses a raw query string, with or without a leading '?'.
// Malformed pairs are skipped.
func (c *URLCodec) DecodeQuery(raw string) State {
	if len(raw) > 0 && raw[0] == '?' {
		raw = raw[1:]
	}
	values, _ := url.ParseQuery(raw)
	return c.DecodeValues(values)
}

// Link joins a path and the encoded state, e.g. "/courses?university=3".
func (c *URLCodec) Link(path string, s State) string {
	q := c.EncodeQuery(s)
	if q == "" {
		return path
	}
	return path + "?" + q
}
