package encodedcol

import (
	"testing"
)

const columnsYAML = `
Password:
  encode_column: true
  encode_class: digest
  encode_args:
    algorithm: SHA-1
    format: hex
    salt_length: 10
  encode_check_method: CheckPassword
Name:
  encode_column: false
`

func TestLoadColumnOptions(t *testing.T) {
	opts, err := LoadColumnOptions([]byte(columnsYAML))
	if err != nil {
		t.Fatalf("LoadColumnOptions() error: %v", err)
	}

	password, ok := opts["Password"]
	if !ok {
		t.Fatal("missing Password options")
	}
	if !password.EncodeColumn {
		t.Error("EncodeColumn = false, want true")
	}
	if password.EncodeClass != "digest" {
		t.Errorf("EncodeClass = %q, want digest", password.EncodeClass)
	}
	if password.EncodeCheckMethod != "CheckPassword" {
		t.Errorf("EncodeCheckMethod = %q, want CheckPassword", password.EncodeCheckMethod)
	}

	saltLen, err := password.EncodeArgs.Int("salt_length", 0)
	if err != nil || saltLen != 10 {
		t.Errorf("salt_length = %d, %v, want 10, nil", saltLen, err)
	}

	if name := opts["Name"]; name.EncodeColumn {
		t.Error("Name should not be encoded")
	}
}

func TestLoadColumnOptions_Invalid(t *testing.T) {
	if _, err := LoadColumnOptions([]byte("[not: a: mapping")); err == nil {
		t.Error("LoadColumnOptions() should fail on malformed YAML")
	}
}

type yamlAccount struct {
	Name     string
	Password string
}

func TestLoadColumnOptions_IntoSchema(t *testing.T) {
	ResetSchemas()

	opts, err := LoadColumnOptions([]byte(columnsYAML))
	if err != nil {
		t.Fatalf("LoadColumnOptions() error: %v", err)
	}

	schema, err := RegisterSchema[yamlAccount](WithColumns(opts))
	if err != nil {
		t.Fatalf("RegisterSchema() error: %v", err)
	}

	rec, err := NewRecord(schema, map[string]any{"Password": "hunter2"})
	if err != nil {
		t.Fatalf("NewRecord() error: %v", err)
	}
	if len(rec.Object().Password) != 60 {
		t.Errorf("stored length = %d, want 60", len(rec.Object().Password))
	}
	if ok, _ := rec.CheckMethod("CheckPassword", "hunter2"); !ok {
		t.Error("CheckMethod(hunter2) = false, want true")
	}
}
