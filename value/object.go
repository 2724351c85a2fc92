package value

// Member is one key/value entry of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a string-keyed map that remembers insertion order.
// Setting an existing key replaces its value in place. The zero value is
// an empty object.
type Object struct {
	members []Member
	index   map[string]int
}

func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// ObjectOf builds an object value from members in the given order.
func ObjectOf(members ...Member) Value {
	o := NewObject()
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
	return FromObject(o)
}

func (o *Object) Set(key string, v Value) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = v
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: v})
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null(), false
	}
	i, ok := o.index[key]
	if !ok {
		return Null(), false
	}
	return o.members[i].Value, true
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	if o == nil {
		return keys
	}
	for _, m := range o.members {
		keys = append(keys, m.Key)
	}
	return keys
}

// Members returns a copy of the entries in insertion order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	out := make([]Member, len(o.members))
	copy(out, o.members)
	return out
}

// equal compares members by key. Order is ignored: a JS engine lists
// integer-like keys first, so order cannot survive every round trip.
func (o *Object) equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	for i := 0; i < o.Len(); i++ {
		m := o.members[i]
		v, ok := other.Get(m.Key)
		if !ok || !Equal(m.Value, v) {
			return false
		}
	}
	return true
}
