package raiplay

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

// Metadata is the JSON document the portal publishes next to every video page.
//
// Only a handful of fields are read, but the whole document is retained so
// it can be written back without loss.
type Metadata struct {
	fields map[string]json.RawMessage
}

// ParseMetadata decodes a metadata document.
func ParseMetadata(data []byte) (*Metadata, error) {
	m := &Metadata{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("metadata document is null")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	m.fields = fields
	return nil
}

func (m *Metadata) MarshalJSON() ([]byte, error) {
	if m.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.fields)
}

// Keys lists the top level fields of the document.
func (m *Metadata) Keys() []string {
	return lo.Keys(m.fields)
}

// Lookup follows path through nested objects and returns the string found
// there. Missing fields and values of another type yield "".
func (m *Metadata) Lookup(path ...string) string {
	if len(path) == 0 {
		return ""
	}

	current := m.fields
	for _, name := range path[:len(path)-1] {
		raw, ok := current[name]
		if !ok {
			return ""
		}

		var next map[string]json.RawMessage
		if err := json.Unmarshal(raw, &next); err != nil {
			return ""
		}
		current = next
	}

	raw, ok := current[path[len(path)-1]]
	if !ok {
		return ""
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

func (m *Metadata) ID() string            { return m.Lookup("id") }
func (m *Metadata) Name() string          { return m.Lookup("name") }
func (m *Metadata) Subtitle() string      { return m.Lookup("subtitle") }
func (m *Metadata) Description() string   { return m.Lookup("description") }
func (m *Metadata) DatePublished() string { return m.Lookup("date_published") }
func (m *Metadata) Channel() string       { return m.Lookup("channel") }
func (m *Metadata) ContentURL() string    { return m.Lookup("video", "content_url") }
func (m *Metadata) Duration() string      { return m.Lookup("video", "duration") }
func (m *Metadata) ProgramName() string   { return m.Lookup("program_info", "name") }

// JSONSchema describes the fields that are read. Everything else passes through.
func (Metadata) JSONSchema() *jsonschema.Schema {
	str := func(description string) *jsonschema.Schema {
		return &jsonschema.Schema{Type: "string", Description: description}
	}

	object := func(description string, props ...lo.Tuple2[string, *jsonschema.Schema]) *jsonschema.Schema {
		schema := &jsonschema.Schema{
			Type:        "object",
			Description: description,
			Properties:  jsonschema.NewProperties(),
		}
		for _, p := range props {
			schema.Properties.Set(p.A, p.B)
		}
		return schema
	}

	return object("Metadata document as published by the portal, all fields preserved",
		lo.T2("id", str("Portal identifier")),
		lo.T2("name", str("Episode title, used for the output file name")),
		lo.T2("subtitle", str("")),
		lo.T2("description", str("")),
		lo.T2("date_published", str("")),
		lo.T2("channel", str("")),
		lo.T2("video", object("",
			lo.T2("content_url", str("Master playlist URL")),
			lo.T2("duration", str("")),
		)),
		lo.T2("program_info", object("",
			lo.T2("name", str("Program title")),
		)),
	)
}
