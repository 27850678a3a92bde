package openrouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"blog_generator/internal/domain"
)

var errNotObject = errors.New("completion is not a JSON object")

// StripCodeFence removes a ```json ... ``` or ``` ... ``` wrapper around the
// completion text. Unfenced text is only trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	default:
		return s
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseContent decodes the completion text into BlogContent. Only JSON
// syntax is checked: numbers and booleans in text fields are kept as their
// literal text, a single value where a list is expected becomes a one-item
// list, and values of any other unexpected shape are dropped.
func ParseContent(raw string) (*domain.BlogContent, error) {
	text := StripCodeFence(raw)

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &domain.ParseError{Raw: text, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &domain.ParseError{Raw: text, Err: errors.New("invalid data after top-level value")}
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, &domain.ParseError{Raw: text, Err: errNotObject}
	}

	normalized, err := json.Marshal(conform(doc, reflect.TypeOf(domain.BlogContent{})))
	if err != nil {
		return nil, &domain.ParseError{Raw: text, Err: err}
	}

	var content domain.BlogContent
	dec = json.NewDecoder(bytes.NewReader(normalized))
	if err := dec.Decode(&content); err != nil {
		return nil, &domain.ParseError{Raw: text, Err: err}
	}

	return &content, nil
}

// conform reshapes a generically decoded JSON value so it decodes into t.
// A nil result means the value has no usable form for t.
func conform(v any, t reflect.Type) any {
	if v == nil {
		return nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		return conform(v, t.Elem())

	case reflect.String:
		switch x := v.(type) {
		case string:
			return x
		case json.Number:
			return x.String()
		case bool:
			if x {
				return "true"
			}
			return "false"
		}
		return nil

	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			items = []any{v}
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			if c := conform(item, t.Elem()); c != nil {
				out = append(out, c)
			}
		}
		return out

	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		out := make(map[string]any, len(obj))
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				continue
			}
			fv, ok := lookup(obj, name)
			if !ok {
				continue
			}
			if c := conform(fv, field.Type); c != nil {
				out[name] = c
			}
		}
		return out
	}

	return v
}

// lookup finds key in obj, falling back to a case-insensitive match the way
// encoding/json does.
func lookup(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
