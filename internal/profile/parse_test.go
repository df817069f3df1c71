package profile

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

const validResponse = `{
  "headers": ["Date", "Item", "Amount"],
  "column_count": 3,
  "column_notes": ["YYYY-MM-DD as written", "free text", "keep the sign"],
  "row_rules": ["skip subtotal rows"],
  "output_rules": ["no thousands separators"]
}`

func TestParse(t *testing.T) {
	t.Run("plain object", func(t *testing.T) {
		p, err := Parse(validResponse)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !reflect.DeepEqual(p.Headers, []string{"Date", "Item", "Amount"}) {
			t.Errorf("Headers = %v", p.Headers)
		}
		if p.ColumnCount != 3 {
			t.Errorf("ColumnCount = %d", p.ColumnCount)
		}
		if len(p.ColumnNotes) != 3 || len(p.RowRules) != 1 || len(p.OutputRules) != 1 {
			t.Errorf("rules not decoded: %+v", p)
		}
	})

	t.Run("commentary and fence around object", func(t *testing.T) {
		text := "Here is the schema:\n```json\n" + validResponse + "\n```\nLet me know if you need changes."
		p, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if p.ColumnCount != len(p.Headers) {
			t.Errorf("ColumnCount = %d, headers = %d", p.ColumnCount, len(p.Headers))
		}
	})

	t.Run("optional lists may be absent", func(t *testing.T) {
		p, err := Parse(`{"headers":["a","b"],"column_count":2}`)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if len(p.RowRules) != 0 {
			t.Errorf("RowRules = %v", p.RowRules)
		}
	})

	t.Run("column count disagrees with headers", func(t *testing.T) {
		_, err := Parse(`{"headers":["x"],"column_count":2,"column_notes":[],"row_rules":[],"output_rules":[]}`)
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("error = %v, want *SchemaError", err)
		}
	})

	t.Run("schema failures", func(t *testing.T) {
		inputs := map[string]string{
			"missing headers":  `{"column_count":2}`,
			"empty headers":    `{"headers":[],"column_count":0}`,
			"headers not list": `{"headers":"a,b","column_count":2}`,
			"non-string notes": `{"headers":["a"],"column_count":1,"column_notes":[{"a":1}]}`,
		}
		for name, in := range inputs {
			var schemaErr *SchemaError
			if _, err := Parse(in); !errors.As(err, &schemaErr) {
				t.Errorf("%s: error = %v, want *SchemaError", name, err)
			}
		}
	})

	t.Run("parse failures", func(t *testing.T) {
		inputs := map[string]string{
			"no braces":      "I could not find a table in this image.",
			"broken object":  `{"headers": ["a", "column_count": 1}`,
			"reversed brace": "} nothing {",
			"empty":          "",
		}
		for name, in := range inputs {
			var parseErr *ParseError
			if _, err := Parse(in); !errors.As(err, &parseErr) {
				t.Errorf("%s: error = %v, want *ParseError", name, err)
			}
		}
	})
}

func TestSaveLoad(t *testing.T) {
	p, err := Parse(validResponse)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for _, name := range []string{"profile.yaml", "profile.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			if err := Save(path, p); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(loaded, p) {
				t.Errorf("Load() = %+v, want %+v", loaded, p)
			}
		})
	}

	t.Run("invalid profile is not saved", func(t *testing.T) {
		bad := &Profile{Headers: []string{"a"}, ColumnCount: 2}
		if err := Save(filepath.Join(t.TempDir(), "bad.yaml"), bad); err == nil {
			t.Error("expected error")
		}
	})
}

func TestClone(t *testing.T) {
	p := &Profile{Headers: []string{"a"}, ColumnCount: 1, RowRules: []string{"r"}}
	c := p.Clone()
	c.Headers[0] = "changed"
	if p.Headers[0] != "a" {
		t.Error("Clone shares header storage with original")
	}
}
