package swift

import (
	"fmt"
	"strings"
)

// TypeFlags are the per-occurrence modifiers a type carries in a signature.
type TypeFlags struct {
	// Reference marks an inout parameter.
	Reference bool
	// Variadic marks the trailing element of a variadic parameter list.
	Variadic bool
}

func (f TypeFlags) prefix() string {
	var sb strings.Builder
	if f.Reference {
		sb.WriteString("inout ")
	}
	return sb.String()
}

func (f TypeFlags) suffix() string {
	if f.Variadic {
		return "..."
	}
	return ""
}

// SignatureType is one node of a decoded type tree. The set of
// implementations is closed; switch over the concrete pointer types.
type SignatureType interface {
	Flags() TypeFlags
	// WithFlags returns a copy carrying f. The receiver is unchanged.
	WithFlags(f TypeFlags) SignatureType
	String() string
	sigType()
}

// TupleElement is one, possibly labelled, tuple member.
type TupleElement struct {
	Name Identifier
	Type SignatureType
}

// TupleType is an ordered element list. The empty tuple is Void.
type TupleType struct {
	TypeFlags
	Elements []TupleElement
}

// Void returns a new empty tuple.
func Void() *TupleType { return &TupleType{} }

// Tuple builds an unlabelled tuple of ts.
func Tuple(ts ...SignatureType) *TupleType {
	t := &TupleType{Elements: make([]TupleElement, 0, len(ts))}
	for _, e := range ts {
		t.Elements = append(t.Elements, TupleElement{Type: e})
	}
	return t
}

func (t *TupleType) Flags() TypeFlags { return t.TypeFlags }
func (t *TupleType) WithFlags(f TypeFlags) SignatureType {
	c := *t
	c.TypeFlags = f
	return &c
}
func (t *TupleType) sigType() {}

// IsVoid reports whether the tuple has no elements.
func (t *TupleType) IsVoid() bool { return len(t.Elements) == 0 }

func (t *TupleType) String() string {
	var sb strings.Builder
	sb.WriteString(t.prefix())
	sb.WriteByte('(')
	for i, e := range t.Elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		if e.Name.Name != "" {
			sb.WriteString(e.Name.Name)
			sb.WriteString(": ")
		}
		sb.WriteString(e.Type.String())
	}
	sb.WriteByte(')')
	sb.WriteString(t.suffix())
	return sb.String()
}

// BuiltinKind enumerates the scalar types with dedicated mangling.
type BuiltinKind uint8

const (
	BuiltinBool BuiltinKind = iota + 1
	BuiltinInt
	BuiltinUInt
	BuiltinFloat
	BuiltinDouble
	BuiltinRawInt      // Builtin.IntN
	BuiltinRawFloat    // Builtin.FPIEEEN
	BuiltinWord        // Builtin.Word
	BuiltinNativeObj   // Builtin.NativeObject
	BuiltinUnknownObj  // Builtin.UnknownObject
	BuiltinRawPointer  // Builtin.RawPointer
	BuiltinBridgeObj   // Builtin.BridgeObject
	BuiltinUnsafeValue // Builtin.UnsafeValueBuffer
)

// BuiltinType is a scalar. Bits is set for the sized Builtin forms.
type BuiltinType struct {
	TypeFlags
	Kind BuiltinKind
	Bits int
}

func (t *BuiltinType) Flags() TypeFlags { return t.TypeFlags }
func (t *BuiltinType) WithFlags(f TypeFlags) SignatureType {
	c := *t
	c.TypeFlags = f
	return &c
}
func (t *BuiltinType) sigType() {}

// Name is the source spelling, e.g. "Int" or "Builtin.Int64".
func (t *BuiltinType) Name() string {
	switch t.Kind {
	case BuiltinBool:
		return "Bool"
	case BuiltinInt:
		return "Int"
	case BuiltinUInt:
		return "UInt"
	case BuiltinFloat:
		return "Float"
	case BuiltinDouble:
		return "Double"
	case BuiltinRawInt:
		return fmt.Sprintf("Builtin.Int%d", t.Bits)
	case BuiltinRawFloat:
		return fmt.Sprintf("Builtin.FPIEEE%d", t.Bits)
	case BuiltinWord:
		return "Builtin.Word"
	case BuiltinNativeObj:
		return "Builtin.NativeObject"
	case BuiltinUnknownObj:
		return "Builtin.UnknownObject"
	case BuiltinRawPointer:
		return "Builtin.RawPointer"
	case BuiltinBridgeObj:
		return "Builtin.BridgeObject"
	case BuiltinUnsafeValue:
		return "Builtin.UnsafeValueBuffer"
	}
	return "Builtin.?"
}

func (t *BuiltinType) String() string { return t.prefix() + t.Name() + t.suffix() }

// NominalType is a class, struct, enum or protocol named by its full path.
type NominalType struct {
	TypeFlags
	Path EntityPath
}

// Nominal returns the nominal type at path.
func Nominal(path EntityPath) *NominalType { return &NominalType{Path: path} }

// NominalKind is the kind of the named declaration.
func (t *NominalType) Kind() NominalKind { return t.Path.Kind() }

func (t *NominalType) Flags() TypeFlags { return t.TypeFlags }
func (t *NominalType) WithFlags(f TypeFlags) SignatureType {
	c := *t
	c.TypeFlags = f
	return &c
}
func (t *NominalType) sigType()       {}
func (t *NominalType) String() string { return t.prefix() + t.Path.String() + t.suffix() }

// BoundGenericType applies arguments to a generic nominal.
type BoundGenericType struct {
	TypeFlags
	Base *NominalType
	Args []SignatureType
}

func (t *BoundGenericType) Flags() TypeFlags { return t.TypeFlags }
func (t *BoundGenericType) WithFlags(f TypeFlags) SignatureType {
	c := *t
	c.TypeFlags = f
	return &c
}
func (t *BoundGenericType) sigType() {}

func (t *BoundGenericType) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.prefix() + t.Base.Path.String() + "<" + strings.Join(args, ", ") + ">" + t.suffix()
}

// ProtocolListType is an existential over zero or more protocols. The empty
// list is Any.
type ProtocolListType struct {
	TypeFlags
	Protocols []EntityPath
}

func (t *ProtocolListType) Flags() TypeFlags { return t.TypeFlags }
func (t *ProtocolListType) WithFlags(f TypeFlags) SignatureType {
	c := *t
	c.TypeFlags = f
	return &c
}
func (t *ProtocolListType) sigType() {}

func (t *ProtocolListType) String() string {
	if len(t.Protocols) == 0 {
		return t.prefix() + "Any" + t.suffix()
	}
	names := make([]string, len(t.Protocols))
	for i, p := range t.Protocols {
		names[i] = p.String()
	}
	return t.prefix() + strings.Join(names, " & ") + t.suffix()
}

// MetatypeType is T.Type, or T.Protocol-style existential metatype when
// Existential is set.
type MetatypeType struct {
	TypeFlags
	Instance    SignatureType
	Existential bool
}

func (t *MetatypeType) Flags() TypeFlags { return t.TypeFlags }
func (t *MetatypeType) WithFlags(f TypeFlags) SignatureType {
	c := *t
	c.TypeFlags = f
	return &c
}
func (t *MetatypeType) sigType() {}

func (t *MetatypeType) String() string {
	return t.prefix() + t.Instance.String() + ".Type" + t.suffix()
}

// GenericRefType refers to a generic parameter by its position, optionally
// followed by an associated type path such as T.Element.Index.
type GenericRefType struct {
	TypeFlags
	Depth     int
	Index     int
	AssocPath []Identifier
}

func (t *GenericRefType) Flags() TypeFlags { return t.TypeFlags }
func (t *GenericRefType) WithFlags(f TypeFlags) SignatureType {
	c := *t
	c.TypeFlags = f
	return &c
}
func (t *GenericRefType) sigType() {}

func (t *GenericRefType) String() string {
	var sb strings.Builder
	sb.WriteString(t.prefix())
	fmt.Fprintf(&sb, "τ_%d_%d", t.Depth, t.Index)
	for _, a := range t.AssocPath {
		sb.WriteByte('.')
		sb.WriteString(a.Name)
	}
	sb.WriteString(t.suffix())
	return sb.String()
}

// WitnessKind distinguishes the witness tables a symbol may describe.
type WitnessKind uint8

const (
	ValueWitness WitnessKind = iota + 1
	ProtocolWitness
)

// WitnessTableType describes a value or protocol witness table for Type.
// Protocol is only set for protocol witness tables.
type WitnessTableType struct {
	TypeFlags
	Kind     WitnessKind
	Type     SignatureType
	Protocol *EntityPath
}

func (t *WitnessTableType) Flags() TypeFlags { return t.TypeFlags }
func (t *WitnessTableType) WithFlags(f TypeFlags) SignatureType {
	c := *t
	c.TypeFlags = f
	return &c
}
func (t *WitnessTableType) sigType() {}

func (t *WitnessTableType) String() string {
	if t.Kind == ProtocolWitness && t.Protocol != nil {
		return "protocol witness table for " + t.Type.String() + " : " + t.Protocol.String()
	}
	return "value witness table for " + t.Type.String()
}

// FunctionType is a closure-typed value.
type FunctionType struct {
	TypeFlags
	Params SignatureType
	Result SignatureType
	Throws bool
}

func (t *FunctionType) Flags() TypeFlags { return t.TypeFlags }
func (t *FunctionType) WithFlags(f TypeFlags) SignatureType {
	c := *t
	c.TypeFlags = f
	return &c
}
func (t *FunctionType) sigType() {}

func (t *FunctionType) String() string {
	params := t.Params.String()
	if _, ok := t.Params.(*TupleType); !ok {
		params = "(" + params + ")"
	}
	arrow := " -> "
	if t.Throws {
		arrow = " throws -> "
	}
	return t.prefix() + params + arrow + t.Result.String() + t.suffix()
}

// Unwrap returns the sole element of a one-element tuple and t otherwise.
// The element keeps its own flags.
func Unwrap(t SignatureType) SignatureType {
	if tt, ok := t.(*TupleType); ok && len(tt.Elements) == 1 {
		return tt.Elements[0].Type
	}
	return t
}

// IsVoid reports whether t is the empty tuple.
func IsVoid(t SignatureType) bool {
	tt, ok := t.(*TupleType)
	return ok && tt.IsVoid()
}

// Elements returns t's tuple elements, or t as the only element of an
// unlabelled list when it is not a tuple.
func Elements(t SignatureType) []TupleElement {
	if tt, ok := t.(*TupleType); ok {
		return tt.Elements
	}
	if t == nil {
		return nil
	}
	return []TupleElement{{Type: t}}
}
