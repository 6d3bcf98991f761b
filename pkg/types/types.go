// Package types implements the Blend65 type system: the primitive and
// composite type lattice, compatibility rules, and storage sizes. Type
// annotations are resolved into these types by pkg/sema.
package types

import "fmt"

// Kind distinguishes the type shapes in the lattice.
type Kind int

const (
	Void Kind = iota
	Bool
	Byte
	Word
	Array
	Pointer
	Function
	Alias
	Enum
)

// Type is a value-comparable description of a Blend65 type. Array/Pointer/
// Function wrap an inner Type by pointer since Go structs can't be
// self-referential by value; Equal does structural comparison regardless.
type Type struct {
	Kind Kind

	// Array
	Elem   *Type
	Length int

	// Pointer
	Target *Type

	// Function
	Params []*Type
	Return *Type

	// Alias / Enum
	Name string
	// Underlying is the resolved type an Alias/Enum stands for; for Enum
	// it is always Byte (enum members are byte-sized constants).
	Underlying *Type
}

// Primitive singletons, shared by every reference to a primitive type.
var (
	TVoid = &Type{Kind: Void}
	TBool = &Type{Kind: Bool}
	TByte = &Type{Kind: Byte}
	TWord = &Type{Kind: Word}
)

// NewArray builds an array(elem, length) type.
func NewArray(elem *Type, length int) *Type {
	return &Type{Kind: Array, Elem: elem, Length: length}
}

// NewPointer builds a pointer(target) type.
func NewPointer(target *Type) *Type {
	return &Type{Kind: Pointer, Target: target}
}

// NewFunction builds a function(params...) -> ret type.
func NewFunction(params []*Type, ret *Type) *Type {
	return &Type{Kind: Function, Params: params, Return: ret}
}

// NewAlias builds a named alias for an underlying type.
func NewAlias(name string, underlying *Type) *Type {
	return &Type{Kind: Alias, Name: name, Underlying: underlying}
}

// NewEnum builds a named enum type (byte-backed).
func NewEnum(name string) *Type {
	return &Type{Kind: Enum, Name: name, Underlying: TByte}
}

// Resolved strips alias wrappers to reach the underlying structural type.
// Enums are NOT stripped by Resolved: an enum is a distinct nominal type
// whose storage happens to be byte-sized.
func Resolved(t *Type) *Type {
	for t != nil && t.Kind == Alias {
		t = t.Underlying
	}
	return t
}

// Equal reports structural equality between two types (aliases are
// compared through their underlying type; enums are compared nominally).
func Equal(a, b *Type) bool {
	a, b = Resolved(a), Resolved(b)
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Void, Bool, Byte, Word:
		return true
	case Array:
		return a.Length == b.Length && Equal(a.Elem, b.Elem)
	case Pointer:
		return Equal(a.Target, b.Target)
	case Function:
		if len(a.Params) != len(b.Params) || !Equal(a.Return, b.Return) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case Enum:
		return a.Name == b.Name
	default:
		return false
	}
}

// Compatibility is the result of checking whether source can be used where
// target is expected.
type Compatibility int

const (
	Identical Compatibility = iota
	Assignable
	NarrowingAllowed
	Incompatible
)

// Assignability computes the §4.C table entry for `target ← source`.
func Assignability(target, source *Type) Compatibility {
	rt, rs := Resolved(target), Resolved(source)
	if rt == nil || rs == nil {
		return Incompatible
	}
	if Equal(rt, rs) && rt.Kind != Function {
		return Identical
	}
	switch {
	case rt.Kind == Word && rs.Kind == Byte:
		return Assignable // implicit zero-extend
	case rt.Kind == Byte && rs.Kind == Word:
		return NarrowingAllowed // explicit truncate required
	case rt.Kind == Bool && rs.Kind == Byte, rt.Kind == Byte && rs.Kind == Bool:
		return Incompatible // explicit conversion opcodes only
	case rt.Kind == Array && rs.Kind == Array:
		if rt.Length != rs.Length {
			return Incompatible
		}
		if Assignability(rt.Elem, rs.Elem) == Identical {
			return Assignable
		}
		return Incompatible
	case rt.Kind == Function && rs.Kind == Function:
		if Equal(rt, rs) {
			return Assignable
		}
		return Incompatible
	default:
		return Incompatible
	}
}

// String renders a type for diagnostics and the IL printer.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Byte:
		return "byte"
	case Word:
		return "word"
	case Array:
		return fmt.Sprintf("%s[%d]", t.Elem, t.Length)
	case Pointer:
		return fmt.Sprintf("*%s", t.Target)
	case Function:
		return fmt.Sprintf("function(%v) %s", t.Params, t.Return)
	case Alias:
		return t.Name
	case Enum:
		return t.Name
	default:
		return "<unknown type>"
	}
}

// SizeOf returns the storage size in bytes of t on the 6502 target. Void has
// size 0; function types have no storage size and SizeOf panics for them,
// since a function value never occupies memory directly (only its address
// does, as a Word-sized pointer).
func SizeOf(t *Type) int {
	rt := Resolved(t)
	switch rt.Kind {
	case Void:
		return 0
	case Bool, Byte, Enum:
		return 1
	case Word, Pointer:
		return 2
	case Array:
		return SizeOf(rt.Elem) * rt.Length
	default:
		panic(fmt.Sprintf("types: SizeOf has no defined size for %s", rt))
	}
}
