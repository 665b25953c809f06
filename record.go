package encodedcol

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Record wraps one instance of T with the value assignment interceptor.
//
// Two construction paths discriminate fresh input from stored data:
// NewRecord and Set always encode through the column's descriptor, while
// LoadRecord writes attribute values through unchanged. Re-encoding is
// never decided by inspecting a value's shape; callers pick the path.
type Record[T any] struct {
	schema *Schema[T]
	obj    *T
}

// NewRecord builds a record from user-supplied attributes. Values for
// encoded columns are encoded before they reach the instance; the
// plaintext is not retained anywhere. Attributes apply in sorted column
// order so failures are deterministic.
func NewRecord[T any](schema *Schema[T], attrs map[string]any) (*Record[T], error) {
	r := &Record[T]{schema: schema, obj: new(T)}

	columns := make([]string, 0, len(attrs))
	for col := range attrs {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		if err := r.Set(col, attrs[col]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadRecord builds a record from stored attributes. This is the storage
// path: values are already in final encoded form and are written through
// without re-encoding.
func LoadRecord[T any](schema *Schema[T], attrs map[string]any) (*Record[T], error) {
	r := &Record[T]{schema: schema, obj: new(T)}
	for col, value := range attrs {
		slot, ok := schema.fields[col]
		if !ok {
			return nil, fmt.Errorf("record %s: unknown column %q", schema.typeName, col)
		}
		if err := r.write(col, slot, value); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Wrap adopts an instance the host ORM already populated from storage.
// Like LoadRecord, wrapping performs no encoding; subsequent Set calls
// encode as usual.
func Wrap[T any](schema *Schema[T], obj *T) *Record[T] {
	return &Record[T]{schema: schema, obj: obj}
}

// Object returns the underlying instance.
func (r *Record[T]) Object() *T {
	return r.obj
}

// Set assigns a value to a column. When the column has an encoding
// descriptor the value is encoded first, nil included, and the encoded
// form is what the underlying field receives. Columns
// without a descriptor get a plain write.
func (r *Record[T]) Set(column string, value any) error {
	slot, ok := r.schema.fields[column]
	if !ok {
		return fmt.Errorf("record %s: unknown column %q", r.schema.typeName, column)
	}

	desc, ok := r.schema.cols[column]
	if !ok {
		return r.write(column, slot, value)
	}

	plaintext, err := plaintextBytes(value)
	if err != nil {
		return newColumnError(ErrEncode, r.schema.typeName, column, desc.backend, err)
	}

	start := time.Now()
	encoded, err := desc.encoder.Encode(plaintext)
	emitEncodeComplete(context.Background(), r.schema.typeName, column, desc.backend, time.Since(start), err)
	if err != nil {
		return newColumnError(ErrEncode, r.schema.typeName, column, desc.backend, err)
	}

	if slot.isBytes {
		return r.write(column, slot, []byte(encoded))
	}
	return r.write(column, slot, encoded)
}

// SetString is Set for the common string case.
func (r *Record[T]) SetString(column, value string) error {
	return r.Set(column, value)
}

// Get returns a column's current value.
func (r *Record[T]) Get(column string) (any, error) {
	slot, ok := r.schema.fields[column]
	if !ok {
		return nil, fmt.Errorf("record %s: unknown column %q", r.schema.typeName, column)
	}
	return reflect.ValueOf(r.obj).Elem().FieldByIndex(slot.index).Interface(), nil
}

// Check verifies a plaintext candidate against the column's stored value
// using the backend's own verification, never by re-encoding the
// candidate elsewhere. It fails with ErrUnsupportedOperation when the
// column has no verifier and ErrMissingValue when no value is stored.
func (r *Record[T]) Check(column, candidate string) (bool, error) {
	desc, ok := r.schema.cols[column]
	if !ok || desc.verifier == nil {
		return false, newColumnError(ErrUnsupportedOperation, r.schema.typeName, column, backendName(desc), nil)
	}

	stored, err := r.storedString(column)
	if err != nil {
		return false, err
	}
	if stored == "" {
		return false, newColumnError(ErrMissingValue, r.schema.typeName, column, desc.backend, nil)
	}

	start := time.Now()
	matched, err := desc.verifier.Verify([]byte(candidate), stored)
	emitCheckComplete(context.Background(), r.schema.typeName, column, desc.backend, time.Since(start), err)
	if err != nil {
		return false, newColumnError(ErrVerify, r.schema.typeName, column, desc.backend, err)
	}
	return matched, nil
}

// CheckMethod dispatches a declared check method by name to the column
// that owns it.
func (r *Record[T]) CheckMethod(method, candidate string) (bool, error) {
	desc, ok := r.schema.checks[method]
	if !ok {
		return false, fmt.Errorf("record %s: unknown check method %q", r.schema.typeName, method)
	}
	return r.Check(desc.column, candidate)
}

// write performs the underlying field assignment and notifies the field
// store with the final value.
func (r *Record[T]) write(column string, slot fieldSlot, value any) error {
	fv := reflect.ValueOf(r.obj).Elem().FieldByIndex(slot.index)

	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
	} else {
		rv := reflect.ValueOf(value)
		if !rv.Type().AssignableTo(fv.Type()) {
			// Allow string/[]byte interchange; anything else is a caller bug.
			if !stringish(rv.Type()) || !stringish(fv.Type()) {
				return fmt.Errorf("record %s: cannot assign %T to column %q", r.schema.typeName, value, column)
			}
			rv = rv.Convert(fv.Type())
		}
		fv.Set(rv)
	}

	if r.schema.store != nil {
		r.schema.store.StoreField(r.schema.typeName, column, value)
	}
	return nil
}

// storedString reads the column's current value as a string.
func (r *Record[T]) storedString(column string) (string, error) {
	slot := r.schema.fields[column]
	fv := reflect.ValueOf(r.obj).Elem().FieldByIndex(slot.index)
	if slot.isBytes {
		return string(fv.Bytes()), nil
	}
	if fv.Kind() != reflect.String {
		return "", fmt.Errorf("record %s: column %q is not string-valued", r.schema.typeName, column)
	}
	return fv.String(), nil
}

// plaintextBytes normalizes an assigned value for encoding. A nil value
// still encodes: absence is not exempt from the interceptor.
func plaintextBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported plaintext type %T", value)
	}
}

// stringish reports whether a type is string or []byte shaped.
func stringish(t reflect.Type) bool {
	return t.Kind() == reflect.String ||
		(t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8)
}

// backendName tolerates a nil descriptor in error paths.
func backendName(desc *colDescriptor) string {
	if desc == nil {
		return ""
	}
	return desc.backend
}
