package jsontree

import "strconv"

// Kind tags the variant held by a Value
type Kind int

const (
	Null Kind = iota
	Bool
	Integer
	Float
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Member is one key/value pair of an Object, kept in document order
type Member struct {
	Key   string
	Value *Value
}

// Value is a read-only JSON node. Only the field matching kind is meaningful.
type Value struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	s       string
	items   []*Value
	members []Member
}

func NewNull() *Value                 { return &Value{kind: Null} }
func NewBool(b bool) *Value           { return &Value{kind: Bool, b: b} }
func NewInt(i int64) *Value           { return &Value{kind: Integer, i: i} }
func NewFloat(f float64) *Value       { return &Value{kind: Float, f: f} }
func NewString(s string) *Value       { return &Value{kind: String, s: s} }
func NewArray(items ...*Value) *Value { return &Value{kind: Array, items: items} }

// NewObject builds an object whose members keep the given order
func NewObject(members ...Member) *Value {
	return &Value{kind: Object, members: members}
}

// M is shorthand for building a Member
func M(key string, v *Value) Member {
	return Member{Key: key, Value: v}
}

// Kind returns the variant tag. A nil Value reports Null.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

// IsContainer reports whether v is an object or an array
func (v *Value) IsContainer() bool {
	k := v.Kind()
	return k == Object || k == Array
}

func (v *Value) Str() (string, bool) {
	if v.Kind() != String {
		return "", false
	}
	return v.s, true
}

func (v *Value) Int() (int64, bool) {
	if v.Kind() != Integer {
		return 0, false
	}
	return v.i, true
}

// Items returns the elements of an array, nil for any other kind
func (v *Value) Items() []*Value {
	if v.Kind() != Array {
		return nil
	}
	return v.items
}

// Members returns the members of an object in document order, nil for any other kind
func (v *Value) Members() []Member {
	if v.Kind() != Object {
		return nil
	}
	return v.members
}

// Get returns the first member of an object named key
func (v *Value) Get(key string) (*Value, bool) {
	for _, m := range v.Members() {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Scalar renders a scalar the way it is shown in dumps and file names.
// Containers and null render as "".
func (v *Value) Scalar() string {
	switch v.Kind() {
	case Bool:
		return strconv.FormatBool(v.b)
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case String:
		return v.s
	default:
		return ""
	}
}
