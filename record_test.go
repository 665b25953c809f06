package encodedcol

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

type digestAccount struct {
	Name     string
	Password string `encode:"digest" encode_args:"algorithm=SHA-1,format=hex"`
}

func TestRecord_SetEncodesDeterministic(t *testing.T) {
	ResetSchemas()

	schema, err := RegisterSchema[digestAccount]()
	if err != nil {
		t.Fatalf("RegisterSchema() error: %v", err)
	}

	rec, err := NewRecord(schema, map[string]any{"Password": "hunter2"})
	if err != nil {
		t.Fatalf("NewRecord() error: %v", err)
	}

	// Fixed 40-character hex SHA-1 of "hunter2".
	want := "f3bbbd66a63d4bf1747940578ec3d0103530e21d"
	if rec.Object().Password != want {
		t.Errorf("Password = %q, want %q", rec.Object().Password, want)
	}

	// A second instance produces the identical string.
	other, _ := NewRecord(schema, map[string]any{"Password": "hunter2"})
	if other.Object().Password != want {
		t.Errorf("Password = %q, want %q", other.Object().Password, want)
	}
}

type saltedAccount struct {
	Password string `encode:"digest" encode_args:"algorithm=SHA-1,format=hex,salt_length=10" encode_check:"CheckPassword"`
}

func TestRecord_SaltedCheck(t *testing.T) {
	ResetSchemas()

	schema, err := RegisterSchema[saltedAccount]()
	if err != nil {
		t.Fatalf("RegisterSchema() error: %v", err)
	}

	a, _ := NewRecord(schema, map[string]any{"Password": "hunter2"})
	b, _ := NewRecord(schema, map[string]any{"Password": "hunter2"})

	if a.Object().Password == b.Object().Password {
		t.Error("two instances should store different salted values")
	}

	hexish := regexp.MustCompile(`^[0-9a-f]{60}$`)
	for _, rec := range []*Record[saltedAccount]{a, b} {
		stored := rec.Object().Password
		if !hexish.MatchString(stored) {
			t.Errorf("stored = %q, want 40 digest + 20 salt hex chars", stored)
		}

		ok, err := rec.CheckMethod("CheckPassword", "hunter2")
		if err != nil {
			t.Fatalf("CheckMethod() error: %v", err)
		}
		if !ok {
			t.Error("CheckMethod(hunter2) = false, want true")
		}

		ok, _ = rec.CheckMethod("CheckPassword", "wrong")
		if ok {
			t.Error("CheckMethod(wrong) = true, want false")
		}
	}
}

type bcryptAccount struct {
	Password string `encode:"bcrypt" encode_args:"cost=8" encode_check:"CheckPassword"`
}

func TestRecord_BcryptCheck(t *testing.T) {
	ResetSchemas()

	schema, err := RegisterSchema[bcryptAccount]()
	if err != nil {
		t.Fatalf("RegisterSchema() error: %v", err)
	}

	rec, _ := NewRecord(schema, map[string]any{"Password": "hunter2"})

	if ok, err := rec.Check("Password", "hunter2"); err != nil || !ok {
		t.Errorf("Check(hunter2) = %t, %v, want true, nil", ok, err)
	}
	if ok, _ := rec.Check("Password", "hunter3"); ok {
		t.Error("Check(hunter3) = true, want false")
	}

	// Fresh salt per assignment: re-setting the same plaintext changes
	// the stored value but both verify.
	first := rec.Object().Password
	if err := rec.SetString("Password", "hunter2"); err != nil {
		t.Fatalf("SetString() error: %v", err)
	}
	if rec.Object().Password == first {
		t.Error("re-encode should use a fresh salt")
	}
	if ok, _ := rec.Check("Password", "hunter2"); !ok {
		t.Error("Check(hunter2) = false after re-encode, want true")
	}
}

func TestRecord_LoadDoesNotReencode(t *testing.T) {
	ResetSchemas()

	schema, _ := RegisterSchema[saltedAccount]()

	rec, _ := NewRecord(schema, map[string]any{"Password": "hunter2"})
	stored := rec.Object().Password

	// Store, reload: the stored value must come back byte for byte.
	loaded, err := LoadRecord(schema, map[string]any{"Password": stored})
	if err != nil {
		t.Fatalf("LoadRecord() error: %v", err)
	}
	if loaded.Object().Password != stored {
		t.Errorf("loaded = %q, want stored value untouched", loaded.Object().Password)
	}

	// And still verifies against the original plaintext.
	if ok, _ := loaded.Check("Password", "hunter2"); !ok {
		t.Error("Check() = false after reload, want true")
	}
}

func TestRecord_Wrap(t *testing.T) {
	ResetSchemas()

	schema, _ := RegisterSchema[saltedAccount]()

	fresh, _ := NewRecord(schema, map[string]any{"Password": "hunter2"})
	obj := &saltedAccount{Password: fresh.Object().Password}

	rec := Wrap(schema, obj)
	if rec.Object().Password != obj.Password {
		t.Error("Wrap() must not touch existing values")
	}
	if ok, _ := rec.Check("Password", "hunter2"); !ok {
		t.Error("Check() = false on wrapped instance, want true")
	}
}

func TestRecord_PlainColumnPassesThrough(t *testing.T) {
	ResetSchemas()

	schema, _ := RegisterSchema[digestAccount]()

	rec, err := NewRecord(schema, map[string]any{"Name": "alice", "Password": "hunter2"})
	if err != nil {
		t.Fatalf("NewRecord() error: %v", err)
	}
	if rec.Object().Name != "alice" {
		t.Errorf("Name = %q, want %q", rec.Object().Name, "alice")
	}

	got, err := rec.Get("Name")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != "alice" {
		t.Errorf("Get(Name) = %v, want alice", got)
	}
}

func TestRecord_CheckMissingValue(t *testing.T) {
	ResetSchemas()

	schema, _ := RegisterSchema[saltedAccount]()

	rec, _ := LoadRecord(schema, nil)
	_, err := rec.Check("Password", "hunter2")
	if !errors.Is(err, ErrMissingValue) {
		t.Errorf("Check() error = %v, want ErrMissingValue", err)
	}
}

func TestRecord_CheckUnsupportedColumn(t *testing.T) {
	ResetSchemas()

	schema, _ := RegisterSchema[digestAccount]()

	rec, _ := NewRecord(schema, map[string]any{"Name": "alice"})
	_, err := rec.Check("Name", "alice")
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Check() on plain column error = %v, want ErrUnsupportedOperation", err)
	}
}

func TestRecord_UnknownColumnAndMethod(t *testing.T) {
	ResetSchemas()

	schema, _ := RegisterSchema[digestAccount]()
	rec, _ := NewRecord(schema, nil)

	if err := rec.Set("Nickname", "x"); err == nil {
		t.Error("Set() on unknown column should fail")
	}
	if _, err := rec.Get("Nickname"); err == nil {
		t.Error("Get() on unknown column should fail")
	}
	if _, err := rec.CheckMethod("CheckNothing", "x"); err == nil {
		t.Error("CheckMethod() on unknown method should fail")
	}
	if _, err := NewRecord(schema, map[string]any{"Nickname": "x"}); err == nil {
		t.Error("NewRecord() with unknown attribute should fail")
	}
}

func TestRecord_NilStillEncodes(t *testing.T) {
	ResetSchemas()

	schema, _ := RegisterSchema[digestAccount]()

	rec, err := NewRecord(schema, map[string]any{"Password": nil})
	if err != nil {
		t.Fatalf("NewRecord() error: %v", err)
	}
	// Absence is not exempt: the empty input digest lands in the field.
	if rec.Object().Password != "da39a3ee5e6b4b0d3255bfef95601890afd80709" {
		t.Errorf("Password = %q, want SHA-1 of empty input", rec.Object().Password)
	}
}

func TestRecord_UnsupportedPlaintextType(t *testing.T) {
	ResetSchemas()

	schema, _ := RegisterSchema[digestAccount]()
	rec, _ := NewRecord(schema, nil)

	err := rec.Set("Password", 42)
	if !errors.Is(err, ErrEncode) {
		t.Errorf("Set(int) error = %v, want ErrEncode", err)
	}
}

type bytesAccount struct {
	Token []byte `encode:"digest" encode_args:"algorithm=SHA-256,format=hex"`
}

func TestRecord_BytesColumn(t *testing.T) {
	ResetSchemas()

	schema, err := RegisterSchema[bytesAccount]()
	if err != nil {
		t.Fatalf("RegisterSchema() error: %v", err)
	}

	rec, err := NewRecord(schema, map[string]any{"Token": []byte("hello")})
	if err != nil {
		t.Fatalf("NewRecord() error: %v", err)
	}

	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if string(rec.Object().Token) != want {
		t.Errorf("Token = %q, want %q", rec.Object().Token, want)
	}
}

// captureStore records materialized field writes.
type captureStore struct {
	writes map[string]any
}

func (s *captureStore) StoreField(_, column string, value any) {
	if s.writes == nil {
		s.writes = make(map[string]any)
	}
	s.writes[column] = value
}

type storeAccount struct {
	Name     string
	Password string `encode:"digest" encode_args:"algorithm=SHA-1,format=hex"`
}

func TestRecord_FieldStoreSeesEncodedOnly(t *testing.T) {
	ResetSchemas()

	store := &captureStore{}
	schema, err := RegisterSchema[storeAccount](WithFieldStore(store))
	if err != nil {
		t.Fatalf("RegisterSchema() error: %v", err)
	}

	if _, err := NewRecord(schema, map[string]any{"Name": "alice", "Password": "hunter2"}); err != nil {
		t.Fatalf("NewRecord() error: %v", err)
	}

	if store.writes["Name"] != "alice" {
		t.Errorf("store saw Name = %v, want alice", store.writes["Name"])
	}
	password, _ := store.writes["Password"].(string)
	if password == "hunter2" || strings.Contains(password, "hunter2") {
		t.Error("store must never observe plaintext")
	}
	if password != "f3bbbd66a63d4bf1747940578ec3d0103530e21d" {
		t.Errorf("store saw Password = %q, want the encoded value", password)
	}
}
