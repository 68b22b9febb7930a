package sections

import (
	"encoding/json"
	"reflect"
)

// Section is an immutable descriptor of a backend section: its id, the
// client-side controller that renders it, and free-form metadata.
type Section struct {
	id         string
	controller string
	metadata   map[string]any
}

// NewSection copies metadata so later changes by the caller are not observed.
func NewSection(id, controller string, metadata map[string]any) Section {
	return Section{
		id:         id,
		controller: controller,
		metadata:   cloneMap(metadata),
	}
}

func (s Section) ID() string         { return s.id }
func (s Section) Controller() string { return s.controller }

// Metadata returns a copy of the section metadata. It is never nil.
func (s Section) Metadata() map[string]any {
	return cloneMap(s.metadata)
}

func (s Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string         `json:"id"`
		Controller string         `json:"controller"`
		Metadata   map[string]any `json:"metadata"`
	}{
		ID:         s.id,
		Controller: s.controller,
		Metadata:   s.metadata,
	})
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case nil:
		return nil
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

// cloneReflect copies slices and maps of any element type. Other kinds are
// returned as is.
func cloneReflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value()))
		}
		return out
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i)))
		}
		return out
	default:
		return rv
	}
}

// cloneElem clones one element and converts it back to the element type.
func cloneElem(ev reflect.Value) reflect.Value {
	if ev.Kind() == reflect.Interface {
		if ev.IsNil() {
			return ev
		}
		c := reflect.ValueOf(cloneValue(ev.Elem().Interface()))
		out := reflect.New(ev.Type()).Elem()
		out.Set(c)
		return out
	}
	return cloneReflect(ev)
}
