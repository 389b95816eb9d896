package redirect

import (
	"net/url"
	"strings"
)

// Param is one query key/value pair. Query parameters travel as an ordered
// pair list instead of url.Values so the merge below preserves the order the
// client sent and the order overrides are appended in.
type Param struct {
	Key   string
	Value string
}

// ParseQuery decodes a raw query string into an ordered pair list. Pairs that
// fail to decode are dropped; multi-valued keys stay as separate pairs in
// their original positions.
func ParseQuery(raw string) []Param {
	if len(raw) == 0 {
		return nil
	}
	var params []Param
	for _, piece := range strings.Split(raw, "&") {
		if len(piece) == 0 {
			continue
		}
		key, value := piece, ""
		if eq := strings.Index(piece, "="); eq != -1 {
			key, value = piece[:eq], piece[eq+1:]
		}
		k, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		params = append(params, Param{Key: k, Value: v})
	}
	return params
}

// EncodeParams re-encodes an ordered pair list into a query string without
// reordering it.
func EncodeParams(params []Param) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// BuildDestination expands the rule's destination template with the captured
// substrings and merges the request's query parameters with the rule's
// overrides into an absolute URL.
//
// Merge semantics: pairs declared on the template itself come first, then the
// request's pairs in their original order. Each override then replaces the
// value of an existing key in place (discarding the request's value for that
// key) or is appended at the end.
func BuildDestination(r *Rule, captures []string, requestQuery []Param) string {
	template := r.template
	templateQuery := ""
	if q := strings.Index(template, "?"); q != -1 {
		template, templateQuery = template[:q], template[q+1:]
	}

	base := expandTemplate(template, captures)

	params := append(ParseQuery(expandTemplate(templateQuery, captures)), requestQuery...)
	for _, o := range r.overrides {
		params = applyOverride(params, o)
	}

	if len(params) == 0 {
		return base
	}
	return base + "?" + EncodeParams(params)
}

// applyOverride replaces the first occurrence of the key in place and drops
// any later duplicates, or appends the pair when the key is absent.
func applyOverride(params []Param, o Param) []Param {
	found := false
	out := params[:0]
	for _, p := range params {
		if p.Key == o.Key {
			if found {
				continue
			}
			p.Value = o.Value
			found = true
		}
		out = append(out, p)
	}
	if !found {
		out = append(out, o)
	}
	return out
}

// expandTemplate substitutes $N references with the corresponding capture
// (1-indexed). A backslash escapes the next character, so \$1 stays literal.
func expandTemplate(template string, captures []string) string {
	if !strings.ContainsAny(template, `$\`) {
		return template
	}
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '\\' && i+1 < len(template) {
			b.WriteByte(template[i+1])
			i++
			continue
		}
		if c == '$' {
			n, width := scanIndex(template[i+1:])
			if width > 0 {
				if n >= 1 && n <= len(captures) {
					b.WriteString(captures[n-1])
				}
				i += width
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// maxTemplateIndex returns the highest unescaped $N reference in the
// template, or 0 when it has none.
func maxTemplateIndex(template string) int {
	max := 0
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '\\' {
			i++
			continue
		}
		if c == '$' {
			n, width := scanIndex(template[i+1:])
			if width > 0 {
				if n > max {
					max = n
				}
				i += width
			}
		}
	}
	return max
}

func scanIndex(s string) (n int, width int) {
	for width < len(s) && s[width] >= '0' && s[width] <= '9' {
		n = n*10 + int(s[width]-'0')
		width++
	}
	return n, width
}
