package format

// Field is one key/value pair of a decoded JSON object.
type Field struct {
	Key   string
	Value any
}

// Object is a decoded JSON object that remembers the order its keys appeared
// in. The stdlib map type discards ordering, and the generic reply dump must
// show the first keys as the server sent them.
type Object struct {
	fields []Field
	index  map[string]any
}

func newObject() *Object {
	return &Object{index: make(map[string]any)}
}

func (o *Object) add(key string, value any) {
	if _, exists := o.index[key]; exists {
		// Duplicate keys keep their first position but take the last value,
		// matching encoding/json map semantics.
		for i := range o.fields {
			if o.fields[i].Key == key {
				o.fields[i].Value = value
				break
			}
		}
	} else {
		o.fields = append(o.fields, Field{Key: key, Value: value})
	}
	o.index[key] = value
}

// Get returns the value for key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.index[key]
	return v, ok
}

// Has reports whether the key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.index[key]
	return ok
}

// Len returns the number of distinct keys.
func (o *Object) Len() int {
	return len(o.fields)
}

// Fields returns the key/value pairs in source order.
func (o *Object) Fields() []Field {
	out := make([]Field, len(o.fields))
	copy(out, o.fields)
	return out
}

// GetString returns the value for key if it is a plain string.
func (o *Object) GetString(key string) (string, bool) {
	v, ok := o.index[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
