package config

import "testing"

func TestJSONSchemaProducesValidJSON(t *testing.T) {
	raw, err := JSONSchema()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected non-empty schema bytes")
	}
}
