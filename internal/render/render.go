// Package render turns a named-placeholder statement template plus one event
// into a driver-bindable statement. Placeholders look like :name and resolve
// against the event's special fields (id, type, timestamp) and its payload
// mapping; values travel as bound parameters, never as spliced text.
package render

import (
	"fmt"
	"strings"

	"github.com/erum21/skytools/internal/model"
)

// Statement is a one-shot rendered statement: positional-parameter SQL plus
// the arguments bound for a single event. It has no identity beyond its
// point of execution.
type Statement struct {
	SQL  string
	Args []any
}

// segment is either literal template text or a reference to an event field.
type segment struct {
	text  string
	field string // non-empty for field references
}

// Renderer renders one parsed template against events. Parsing happens once
// at construction; a malformed template is a startup error. Render itself is
// a pure function of (template, event).
type Renderer struct {
	segments []segment
	fields   []string       // unique bound fields in first-seen order
	argIndex map[string]int // field -> 1-based positional parameter
}

// New parses the template. When fieldMap is non-empty it both remaps and
// restricts: only mapped placeholders and the special fields bind, anything
// else stays literal text. With an empty map every syntactically valid
// placeholder binds, resolving unknown payload fields to the empty string.
func New(template string, fieldMap map[string]string) (*Renderer, error) {
	rawSegs, err := parse(template)
	if err != nil {
		return nil, err
	}

	r := &Renderer{argIndex: make(map[string]int)}
	for _, seg := range rawSegs {
		if seg.field == "" {
			r.appendText(seg.text)
			continue
		}
		field, ok := resolveField(seg.field, fieldMap)
		if !ok {
			// Unmapped placeholder: pass through as literal text.
			r.appendText(":" + seg.field)
			continue
		}
		if _, seen := r.argIndex[field]; !seen {
			r.fields = append(r.fields, field)
			r.argIndex[field] = len(r.fields)
		}
		r.segments = append(r.segments, segment{field: field})
	}
	return r, nil
}

func (r *Renderer) appendText(text string) {
	n := len(r.segments)
	if n > 0 && r.segments[n-1].field == "" {
		r.segments[n-1].text += text
		return
	}
	r.segments = append(r.segments, segment{text: text})
}

func resolveField(placeholder string, fieldMap map[string]string) (string, bool) {
	if len(fieldMap) == 0 {
		return placeholder, true
	}
	if mapped, ok := fieldMap[placeholder]; ok {
		return mapped, true
	}
	switch placeholder {
	case model.FieldID, model.FieldType, model.FieldTimestamp:
		return placeholder, true
	}
	return "", false
}

// Render produces the statement for one event. Repeated placeholders share
// one positional parameter; payload fields the event lacks bind as the empty
// string.
func (r *Renderer) Render(ev *model.Event) Statement {
	var sql strings.Builder
	for _, seg := range r.segments {
		if seg.field == "" {
			sql.WriteString(seg.text)
			continue
		}
		fmt.Fprintf(&sql, "$%d", r.argIndex[seg.field])
	}

	args := make([]any, len(r.fields))
	for i, field := range r.fields {
		args[i] = ev.FieldValue(field)
	}
	return Statement{SQL: sql.String(), Args: args}
}

// parse splits the template into literal text and placeholder references.
// A :name placeholder starts with a letter or underscore; :: stays literal
// (PostgreSQL cast syntax), as does anything inside quoted text.
func parse(template string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(template); {
		c := template[i]
		switch c {
		case '\'', '"':
			end, err := scanQuoted(template, i)
			if err != nil {
				return nil, err
			}
			lit.WriteString(template[i:end])
			i = end
		case ':':
			if i+1 < len(template) && template[i+1] == ':' {
				lit.WriteString("::")
				i += 2
				continue
			}
			name := scanName(template[i+1:])
			if name == "" {
				lit.WriteByte(':')
				i++
				continue
			}
			flush()
			segs = append(segs, segment{field: name})
			i += 1 + len(name)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return segs, nil
}

// scanQuoted returns the index just past the quoted region starting at
// start. Doubled quote characters escape themselves.
func scanQuoted(template string, start int) (int, error) {
	quote := template[start]
	for i := start + 1; i < len(template); i++ {
		if template[i] != quote {
			continue
		}
		if i+1 < len(template) && template[i+1] == quote {
			i++
			continue
		}
		return i + 1, nil
	}
	return 0, fmt.Errorf("unterminated %c-quoted text starting at offset %d", quote, start)
}

func scanName(s string) string {
	if len(s) == 0 || !isNameStart(s[0]) {
		return ""
	}
	i := 1
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	return s[:i]
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
