package swift

import (
	"fmt"
	"strings"
)

// MemberKind classifies what a decoded symbol is.
type MemberKind uint8

const (
	KindFunction MemberKind = iota + 1
	KindMethod
	KindStaticMethod
	KindConstructor // allocating initializer
	KindInitializer // initializing initializer
	KindDestructor
	KindDeallocator
	KindGetter
	KindSetter
	KindMaterializer
	KindSubscriptGetter
	KindSubscriptSetter
	KindSubscriptMaterializer
	KindVariable
	KindMetadata
	KindNominalTypeDescriptor
	KindMetadataAccessor
	KindProtocolDescriptor
	KindValueWitnessTable
	KindProtocolWitnessTable
)

var memberKindStrings = []intName{
	{uint8(KindFunction), "function"},
	{uint8(KindMethod), "method"},
	{uint8(KindStaticMethod), "static method"},
	{uint8(KindConstructor), "constructor"},
	{uint8(KindInitializer), "initializer"},
	{uint8(KindDestructor), "destructor"},
	{uint8(KindDeallocator), "deallocator"},
	{uint8(KindGetter), "getter"},
	{uint8(KindSetter), "setter"},
	{uint8(KindMaterializer), "materializeForSet"},
	{uint8(KindSubscriptGetter), "subscript getter"},
	{uint8(KindSubscriptSetter), "subscript setter"},
	{uint8(KindSubscriptMaterializer), "subscript materializeForSet"},
	{uint8(KindVariable), "variable"},
	{uint8(KindMetadata), "type metadata"},
	{uint8(KindNominalTypeDescriptor), "nominal type descriptor"},
	{uint8(KindMetadataAccessor), "type metadata accessor"},
	{uint8(KindProtocolDescriptor), "protocol descriptor"},
	{uint8(KindValueWitnessTable), "value witness table"},
	{uint8(KindProtocolWitnessTable), "protocol witness table"},
}

type intName struct {
	i uint8
	s string
}

func (k MemberKind) String() string {
	for _, n := range memberKindStrings {
		if n.i == uint8(k) {
			return n.s
		}
	}
	return fmt.Sprintf("MemberKind(%d)", k)
}

// IsAccessor reports whether k is a property or subscript accessor.
func (k MemberKind) IsAccessor() bool {
	return k >= KindGetter && k <= KindSubscriptMaterializer
}

// IsSubscript reports whether k is a subscript accessor.
func (k MemberKind) IsSubscript() bool {
	return k >= KindSubscriptGetter && k <= KindSubscriptMaterializer
}

// AccessorRole is "getter", "setter" or "materializeForSet" for accessor
// kinds and empty otherwise.
func (k MemberKind) AccessorRole() string {
	switch k {
	case KindGetter, KindSubscriptGetter:
		return "getter"
	case KindSetter, KindSubscriptSetter:
		return "setter"
	case KindMaterializer, KindSubscriptMaterializer:
		return "materializeForSet"
	}
	return ""
}

// IsConstructor reports whether k is either initializer entry point.
func (k MemberKind) IsConstructor() bool {
	return k == KindConstructor || k == KindInitializer
}

// IsTypeLevel reports whether the symbol describes a type rather than a
// member of one.
func (k MemberKind) IsTypeLevel() bool {
	return k >= KindMetadata
}

// GenericSignature lists the generic parameters introduced at each depth
// and the requirements placed on them.
type GenericSignature struct {
	// ParamCounts[d] is the number of parameters at depth d.
	ParamCounts  []int
	Requirements []Requirement
}

// RequirementKind says how a requirement constrains its parameter.
type RequirementKind uint8

const (
	Conformance RequirementKind = iota + 1
	BaseClass
	SameType
)

// Requirement constrains Param to conform to, inherit from, or equal
// Constraint.
type Requirement struct {
	Param      *GenericRefType
	Kind       RequirementKind
	Constraint SignatureType
}

// DecodedSymbol is one mangled symbol turned into structure.
type DecodedSymbol struct {
	Owner EntityPath
	Kind  MemberKind
	// Name is the member's base name. Accessors carry the property name,
	// constructors "init" and destructors "deinit".
	Name   Identifier
	Static bool
	// Params is the parameter tuple (a bare type when the single parameter
	// was not wrapped). Return is the result type.
	Params SignatureType
	Return SignatureType
	// Self is the receiver type of methods and accessors on a nominal.
	Self     SignatureType
	Generics *GenericSignature
	Throws   bool

	Mangled string
	Value   uint64
	Offset  int64
	// Imported marks undefined references to another image's definition.
	Imported bool
	Weak     bool
}

// Module is the owning module's name.
func (s *DecodedSymbol) Module() string { return s.Owner.Module.Name }

// IsTopLevel reports whether the symbol sits directly in its module.
func (s *DecodedSymbol) IsTopLevel() bool { return s.Owner.IsModuleScope() }

// IsOperator reports whether the symbol's name spells an operator.
func (s *DecodedSymbol) IsOperator() bool { return s.Name.IsOperator() }

// QualifiedName is Owner.Name, omitting the name for type-level symbols.
func (s *DecodedSymbol) QualifiedName() string {
	if s.Kind.IsTypeLevel() || s.Name.Name == "" {
		return s.Owner.String()
	}
	return s.Owner.String() + "." + s.Name.Name
}

func (s *DecodedSymbol) String() string {
	var sb strings.Builder
	if s.Static {
		sb.WriteString("static ")
	}
	switch {
	case s.Kind.IsTypeLevel():
		if wt, ok := s.Return.(*WitnessTableType); ok {
			return wt.String()
		}
		sb.WriteString(s.Kind.String())
		sb.WriteString(" for ")
		if s.Return != nil {
			sb.WriteString(s.Return.String())
		} else {
			sb.WriteString(s.Owner.String())
		}
		return sb.String()
	case s.Kind.IsAccessor():
		sb.WriteString(s.QualifiedName())
		sb.WriteByte('.')
		sb.WriteString(s.Kind.AccessorRole())
	default:
		sb.WriteString(s.QualifiedName())
	}
	if s.Params != nil {
		if _, ok := s.Params.(*TupleType); ok {
			sb.WriteString(s.Params.String())
		} else {
			sb.WriteString("(" + s.Params.String() + ")")
		}
	}
	if s.Throws {
		sb.WriteString(" throws")
	}
	if s.Return != nil {
		sb.WriteString(" -> ")
		sb.WriteString(s.Return.String())
	}
	return sb.String()
}

// Accessor name prefixes used when a property accessor is listed by its
// flat member name.
const (
	GetterPrefix       = "get_"
	SetterPrefix       = "set_"
	MaterializerPrefix = "materializeforset_"
)

// AccessorName returns the flat member name of an accessor, e.g. "get_count".
// Non-accessor kinds return name unchanged.
func AccessorName(kind MemberKind, name string) string {
	switch kind {
	case KindGetter, KindSubscriptGetter:
		return GetterPrefix + name
	case KindSetter, KindSubscriptSetter:
		return SetterPrefix + name
	case KindMaterializer, KindSubscriptMaterializer:
		return MaterializerPrefix + name
	}
	return name
}

// SplitAccessorName reverses AccessorName. ok is false when flat carries no
// accessor prefix or nothing follows it.
func SplitAccessorName(flat string) (kind MemberKind, name string, ok bool) {
	for _, p := range []struct {
		prefix string
		kind   MemberKind
	}{
		{MaterializerPrefix, KindMaterializer},
		{GetterPrefix, KindGetter},
		{SetterPrefix, KindSetter},
	} {
		if rest, found := strings.CutPrefix(flat, p.prefix); found && rest != "" {
			return p.kind, rest, true
		}
	}
	return 0, flat, false
}
