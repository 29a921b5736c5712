package models

import (
	"encoding/json"
	"strconv"
)

// Document is a generic JSON object as exchanged with the Commserve: property
// snapshots, request bodies and decoded responses all use it.
type Document map[string]interface{}

// AsDocument reports whether v is a JSON object and returns it as a Document.
func AsDocument(v interface{}) (Document, bool) {
	switch m := v.(type) {
	case Document:
		return m, m != nil
	case map[string]interface{}:
		return Document(m), m != nil
	}
	return nil, false
}

// DeepCopy returns a copy of d that shares no maps or slices with it.
func (d Document) DeepCopy() Document {
	if d == nil {
		return nil
	}
	return copyValue(d).(Document)
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Document:
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	case []Document:
		out := make([]Document, len(t))
		for i, val := range t {
			out[i] = val.DeepCopy()
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(t))
		for i, val := range t {
			out[i] = copyValue(val).(map[string]interface{})
		}
		return out
	case []string:
		return append([]string(nil), t...)
	}
	return v
}

// Merge copies the top-level keys of fragment into d, replacing existing keys.
func (d Document) Merge(fragment Document) {
	for k, v := range fragment {
		d[k] = v
	}
}

// Lookup walks nested objects by key and returns the value found, or nil.
func (d Document) Lookup(keys ...string) interface{} {
	var cur interface{} = d
	for _, k := range keys {
		m, ok := AsDocument(cur)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// Object returns the nested object at keys, or nil when absent.
func (d Document) Object(keys ...string) Document {
	m, _ := AsDocument(d.Lookup(keys...))
	return m
}

// List returns the nested array at keys, or nil when absent.
func (d Document) List(keys ...string) []interface{} {
	l, _ := d.Lookup(keys...).([]interface{})
	return l
}

// String returns the nested string at keys, or "" when absent.
func (d Document) String(keys ...string) string {
	s, _ := d.Lookup(keys...).(string)
	return s
}

// Int returns the nested number at keys, or 0 when absent.
func (d Document) Int(keys ...string) int {
	return ToInt(d.Lookup(keys...))
}

// Bool returns the nested boolean at keys, or false when absent.
func (d Document) Bool(keys ...string) bool {
	b, _ := d.Lookup(keys...).(bool)
	return b
}

// Has reports whether a value (possibly null) exists at keys.
func (d Document) Has(keys ...string) bool {
	if len(keys) == 0 {
		return false
	}
	parent := d.Object(keys[:len(keys)-1]...)
	if parent == nil {
		return false
	}
	_, ok := parent[keys[len(keys)-1]]
	return ok
}

// Set assigns value at the nested path, creating intermediate objects.
// A non-object value in the way is replaced.
func (d Document) Set(path []string, value interface{}) {
	if len(path) == 0 {
		return
	}
	cur := d
	for _, k := range path[:len(path)-1] {
		next, ok := AsDocument(cur[k])
		if !ok {
			next = Document{}
			cur[k] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

// ToInt converts the numeric shapes JSON decoding produces to int.
func ToInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

// IDString renders an identifier that may arrive as a number or a string.
func IDString(v interface{}) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case json.Number:
		return n.String()
	}
	return ""
}
