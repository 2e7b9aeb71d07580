package match

import (
	"strings"

	"github.com/appsworld/swiftbind/swift"
)

// Role is what a declaration declares.
type Role uint8

const (
	RoleFunction Role = iota + 1
	RoleConstructor
	RoleInitializer
	RoleDestructor
	RoleGetter
	RoleSetter
	RoleMaterializer
	RoleSubscriptGetter
	RoleSubscriptSetter
	RoleSubscriptMaterializer
	RoleVariable
)

func (r Role) String() string {
	switch r {
	case RoleFunction:
		return "function"
	case RoleConstructor:
		return "constructor"
	case RoleInitializer:
		return "initializer"
	case RoleDestructor:
		return "destructor"
	case RoleGetter:
		return "getter"
	case RoleSetter:
		return "setter"
	case RoleMaterializer:
		return "materializeForSet"
	case RoleSubscriptGetter:
		return "subscript getter"
	case RoleSubscriptSetter:
		return "subscript setter"
	case RoleSubscriptMaterializer:
		return "subscript materializeForSet"
	case RoleVariable:
		return "variable"
	}
	return "unknown"
}

// OwnerEntry is one level of the type nesting a declaration sits in.
type OwnerEntry struct {
	Kind swift.NominalKind
	Name string
}

// TypeKind selects which TypeSpec fields are meaningful.
type TypeKind uint8

const (
	TypeNamed TypeKind = iota + 1
	TypeTuple
	TypeFunction
	TypeProtocolList
)

// TypeSpec is a type as written in a module interface.
//
// Named types use Name (optionally dotted, e.g. "Swift.Int", "T.Element",
// "Any.Type") plus GenericArgs. Tuples use Elements and Labels. Functions
// use Elements for their parameters and Result. Protocol lists use Elements,
// each a named protocol.
type TypeSpec struct {
	Kind        TypeKind
	Name        string
	GenericArgs []*TypeSpec
	Elements    []*TypeSpec
	Labels      []string
	Result      *TypeSpec
	InOut       bool
}

// Named returns a named type with optional generic arguments.
func Named(name string, args ...*TypeSpec) *TypeSpec {
	return &TypeSpec{Kind: TypeNamed, Name: name, GenericArgs: args}
}

// TupleOf returns an unlabelled tuple type.
func TupleOf(elems ...*TypeSpec) *TypeSpec {
	return &TypeSpec{Kind: TypeTuple, Elements: elems}
}

// FuncOf returns a function type.
func FuncOf(params []*TypeSpec, result *TypeSpec) *TypeSpec {
	return &TypeSpec{Kind: TypeFunction, Elements: params, Result: result}
}

// ProtocolsOf returns a protocol composition of the named protocols.
func ProtocolsOf(names ...string) *TypeSpec {
	ts := &TypeSpec{Kind: TypeProtocolList}
	for _, n := range names {
		ts.Elements = append(ts.Elements, Named(n))
	}
	return ts
}

func (ts *TypeSpec) String() string {
	if ts == nil {
		return "()"
	}
	var sb strings.Builder
	if ts.InOut {
		sb.WriteString("inout ")
	}
	switch ts.Kind {
	case TypeTuple:
		sb.WriteByte('(')
		for i, e := range ts.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			if i < len(ts.Labels) && ts.Labels[i] != "" {
				sb.WriteString(ts.Labels[i] + ": ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(')')
	case TypeFunction:
		sb.WriteByte('(')
		for i, e := range ts.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteString(") -> ")
		sb.WriteString(ts.Result.String())
	case TypeProtocolList:
		if len(ts.Elements) == 0 {
			sb.WriteString("Any")
		}
		for i, e := range ts.Elements {
			if i > 0 {
				sb.WriteString(" & ")
			}
			sb.WriteString(e.String())
		}
	default:
		sb.WriteString(ts.Name)
		if len(ts.GenericArgs) > 0 {
			sb.WriteByte('<')
			for i, a := range ts.GenericArgs {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(a.String())
			}
			sb.WriteByte('>')
		}
	}
	return sb.String()
}

// Parameter is one declared parameter.
type Parameter struct {
	// PublicName is the argument label; "" and "_" both mean unlabelled.
	PublicName string
	Type       *TypeSpec
	Variadic   bool
	InOut      bool
	// Implicit marks the receiver and other parameters that do not appear
	// in the mangled parameter list.
	Implicit bool
}

func (p Parameter) label() string { return argLabel(p.PublicName) }

// argLabel maps the wildcard label to no label. Other labels, including
// ones that merely start with an underscore, are kept.
func argLabel(name string) string {
	if name == "_" {
		return ""
	}
	return name
}

// GenericParam places a declared type variable in the generic context.
type GenericParam struct {
	Name  string
	Depth int
	Index int
}

// Declaration is a declaration parsed from a module interface.
type Declaration struct {
	Module   string
	Owner    []OwnerEntry
	Name     string
	Role     Role
	Operator swift.OperatorKind
	Static   bool
	Params   []Parameter
	// Return is nil for Void.
	Return   *TypeSpec
	Generics []GenericParam
}

// Path is the entity path of the declaration's owner.
func (d *Declaration) Path() swift.EntityPath {
	p := swift.ModulePath(d.Module)
	for _, o := range d.Owner {
		p = p.Child(o.Kind, swift.Ident(o.Name))
	}
	return p
}

// IsTopLevel reports whether the declaration sits directly in its module.
func (d *Declaration) IsTopLevel() bool { return len(d.Owner) == 0 }

// IsOperator reports whether the declaration is operator-shaped.
func (d *Declaration) IsOperator() bool { return d.Operator != swift.NotOperator }

// BaseName is the name symbols for the declaration are filed under.
func (d *Declaration) BaseName() string {
	switch d.Role {
	case RoleConstructor, RoleInitializer:
		return "init"
	case RoleDestructor:
		return "deinit"
	case RoleSubscriptGetter, RoleSubscriptSetter, RoleSubscriptMaterializer:
		return "subscript"
	}
	return d.Name
}

// explicitParams drops the implicit parameters.
func (d *Declaration) explicitParams() []Parameter {
	out := make([]Parameter, 0, len(d.Params))
	for _, p := range d.Params {
		if !p.Implicit {
			out = append(out, p)
		}
	}
	return out
}

func (d *Declaration) generic(name string) (GenericParam, bool) {
	for _, g := range d.Generics {
		if g.Name == name {
			return g, true
		}
	}
	return GenericParam{}, false
}

// String renders the declaration as Module.Owner.name(label:label:).
func (d *Declaration) String() string {
	var sb strings.Builder
	sb.WriteString(d.Path().String())
	sb.WriteByte('.')
	sb.WriteString(d.BaseName())
	if d.Role == RoleVariable || d.Role == RoleGetter || d.Role == RoleSetter || d.Role == RoleMaterializer {
		return sb.String()
	}
	sb.WriteByte('(')
	for _, p := range d.explicitParams() {
		if l := p.label(); l != "" {
			sb.WriteString(l)
		} else {
			sb.WriteByte('_')
		}
		sb.WriteByte(':')
	}
	sb.WriteByte(')')
	return sb.String()
}
