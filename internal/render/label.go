package render

import (
	"errors"
	"strings"

	"mobkml.dev/cellmap/internal/dataset"
)

var errTemplate = errors.New("malformed label template")

// Label returns the text for a label: the expanded template when one is set,
// otherwise the value of field in row. A template that references an unknown
// column or has unbalanced braces yields an empty label.
func Label(t *dataset.Table, row dataset.Row, field, template string) string {
	if template != "" {
		s, err := expandTemplate(template, func(name string) (string, bool) {
			return t.Lookup(row, name)
		})
		if err != nil {
			return ""
		}
		return s
	}
	if field == "" {
		return ""
	}
	return t.Get(row, field)
}

// expandTemplate replaces {Column} placeholders. "{{" and "}}" produce
// literal braces.
func expandTemplate(template string, lookup func(string) (string, bool)) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", errTemplate
			}
			name := template[i+1 : i+1+end]
			if strings.ContainsRune(name, '{') {
				return "", errTemplate
			}
			v, ok := lookup(name)
			if !ok {
				return "", errTemplate
			}
			b.WriteString(v)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", errTemplate
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
