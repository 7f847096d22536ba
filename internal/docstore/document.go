package docstore

import (
	"cmp"
	"reflect"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh document identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// Encode converts v into a BSON document and makes sure it has an "_id".
// The identifier is returned alongside the document.
func Encode(v any) (bson.M, string, error) {
	m, err := toM(v)
	if err != nil {
		return nil, "", err
	}
	id, _ := m[IDField].(string)
	if id == "" {
		id = NewID()
		m[IDField] = id
	}
	return m, id, nil
}

// Merge builds the document inserted by an upsert: filter fields first, then
// patch fields on top.
func Merge(filter Filter, patch Patch) bson.M {
	m := make(bson.M, len(filter)+len(patch))
	for k, v := range filter {
		m[k] = v
	}
	for k, v := range patch {
		m[k] = v
	}
	return m
}

// Normalize round-trips a field map through BSON so that values compare the
// same way as values read back from storage.
func Normalize[M ~map[string]any](fields M) (bson.M, error) {
	if len(fields) == 0 {
		return bson.M{}, nil
	}
	return toM(map[string]any(fields))
}

func toM(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal document")
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "unmarshal document")
	}
	return m, nil
}

// DecodeAll unmarshals raw documents into out, a pointer to a slice.
func DecodeAll(docs []bson.Raw, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return errors.Errorf("out must be a pointer to a slice, got %T", out)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()

	result := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, raw := range docs {
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return errors.Wrap(err, "decode document")
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}

// Matches reports whether doc satisfies filter. Both must be normalized.
// A nil filter value also matches a missing field.
func Matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Compare orders two normalized BSON values of the same kind. Missing and
// mismatched values sort first.
func Compare(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	case primitive.DateTime:
		if y, ok := b.(primitive.DateTime); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return cmp.Compare(x, y)
		}
	}
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return 0
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
