package services

import (
	"bytes"
	"strconv"
	"strings"
)

// Document is a markdown file split into an ordered front matter field list
// and a free-text body.
//
// The codec is deliberately narrow: it round-trips plain strings, integers,
// floats, booleans and flat string lists, in the declared field order, and
// nothing else. Values containing raw newlines, nested objects or multi-line
// scalars are unsupported; unknown YAML constructs are dropped on decode.
// It is not a general YAML implementation and must not grow into one.
type Document struct {
	Fields []Field
	Body   string
}

// Field is one front matter entry. Value is one of: string (emitted quoted),
// Literal (emitted bare, for dates), bool, int, int64, float64 or []string
// (emitted as an indented bullet list).
type Field struct {
	Key   string
	Value any
}

// Literal is a scalar emitted without quotes, e.g. a date.
type Literal string

const frontMatterDelim = "---"

// Set appends a field. Nil values and empty lists are skipped so optional
// fields can be passed through unconditionally.
func (d *Document) Set(key string, value any) {
	if value == nil {
		return
	}
	if list, ok := value.([]string); ok && len(list) == 0 {
		return
	}
	d.Fields = append(d.Fields, Field{Key: key, Value: value})
}

// Get returns the value of the first field with the given key.
func (d *Document) Get(key string) (any, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// StringField returns the string value of a field, or "" when the field is
// absent or not string-valued.
func (d *Document) StringField(key string) string {
	v, ok := d.Get(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case Literal:
		return string(s)
	}
	return ""
}

// FieldMap returns the fields as a map for JSON serialization. Literals
// flatten to plain strings.
func (d *Document) FieldMap() map[string]any {
	m := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		if lit, ok := f.Value.(Literal); ok {
			m[f.Key] = string(lit)
			continue
		}
		m[f.Key] = f.Value
	}
	return m
}

// Encode renders the document: delimiter, one line per field in declared
// order, delimiter, blank line, body.
func (d *Document) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim)
	buf.WriteByte('\n')

	for _, f := range d.Fields {
		switch v := f.Value.(type) {
		case string:
			buf.WriteString(f.Key)
			buf.WriteString(": ")
			buf.WriteString(quoteScalar(v))
		case Literal:
			buf.WriteString(f.Key)
			buf.WriteString(": ")
			buf.WriteString(string(v))
		case bool:
			buf.WriteString(f.Key)
			buf.WriteString(": ")
			buf.WriteString(strconv.FormatBool(v))
		case int:
			buf.WriteString(f.Key)
			buf.WriteString(": ")
			buf.WriteString(strconv.Itoa(v))
		case int64:
			buf.WriteString(f.Key)
			buf.WriteString(": ")
			buf.WriteString(strconv.FormatInt(v, 10))
		case float64:
			buf.WriteString(f.Key)
			buf.WriteString(": ")
			buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		case []string:
			buf.WriteString(f.Key)
			buf.WriteByte(':')
			for _, item := range v {
				buf.WriteString("\n  - ")
				buf.WriteString(quoteScalar(strings.TrimSpace(item)))
			}
		default:
			continue
		}
		buf.WriteByte('\n')
	}

	buf.WriteString(frontMatterDelim)
	buf.WriteByte('\n')

	if d.Body != "" {
		buf.WriteByte('\n')
		buf.WriteString(d.Body)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// DecodeDocument parses a markdown file into front matter fields and body.
// Content without a leading delimiter decodes to an empty field set with the
// whole text as body.
func DecodeDocument(content []byte) *Document {
	str := strings.ReplaceAll(string(content), "\r\n", "\n")

	doc := &Document{}
	if !strings.HasPrefix(str, frontMatterDelim+"\n") {
		doc.Body = strings.TrimSpace(str)
		return doc
	}

	rest := str[len(frontMatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	if end < 0 {
		doc.Body = strings.TrimSpace(str)
		return doc
	}

	header := rest[:end]
	doc.Body = strings.TrimSpace(rest[end+len(frontMatterDelim)+1:])

	listKey := -1
	for _, line := range strings.Split(header, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Bullet item belonging to the list field opened above.
		if strings.HasPrefix(trimmed, "- ") && listKey >= 0 {
			item := unquoteScalar(strings.TrimSpace(trimmed[2:]))
			list, _ := doc.Fields[listKey].Value.([]string)
			doc.Fields[listKey].Value = append(list, item)
			continue
		}
		listKey = -1

		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		key := strings.TrimSpace(line[:colon])
		raw := strings.TrimSpace(line[colon+1:])
		if key == "" {
			continue
		}

		if raw == "" {
			// A bare "key:" opens a bullet list.
			doc.Fields = append(doc.Fields, Field{Key: key, Value: []string{}})
			listKey = len(doc.Fields) - 1
			continue
		}
		doc.Fields = append(doc.Fields, Field{Key: key, Value: parseScalar(raw)})
	}
	return doc
}

func quoteScalar(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func unquoteScalar(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			inner := s[1 : len(s)-1]
			return strings.ReplaceAll(inner, `\"`, `"`)
		}
	}
	return s
}

func parseScalar(raw string) any {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') {
		return unquoteScalar(raw)
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
