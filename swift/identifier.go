// Package swift models what a mangled Swift symbol says: which module and
// nominal types own it, what kind of member it is and its signature.
package swift

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// OperatorKind tags identifiers that spell an operator.
type OperatorKind uint8

const (
	NotOperator OperatorKind = iota
	PrefixOperator
	PostfixOperator
	InfixOperator
)

func (k OperatorKind) String() string {
	switch k {
	case PrefixOperator:
		return "prefix"
	case PostfixOperator:
		return "postfix"
	case InfixOperator:
		return "infix"
	}
	return ""
}

// Identifier is a name recovered from a mangled symbol.
type Identifier struct {
	Name string
	// Compressed is set when the name was Punycode-encoded and decoding
	// changed it.
	Compressed bool
	Operator   OperatorKind
}

// Ident is shorthand for a plain identifier.
func Ident(name string) Identifier { return Identifier{Name: name} }

func (i Identifier) String() string { return i.Name }

// IsOperator reports whether the identifier names an operator.
func (i Identifier) IsOperator() bool { return i.Operator != NotOperator }

// Equal compares names after NFC normalisation so precomposed and
// decomposed spellings of the same identifier match.
func (i Identifier) Equal(o Identifier) bool {
	return i.Operator == o.Operator && EqualNames(i.Name, o.Name)
}

// EqualNames compares two identifier spellings after NFC normalisation.
func EqualNames(a, b string) bool {
	if a == b {
		return true
	}
	return norm.NFC.String(a) == norm.NFC.String(b)
}

// Key is the normalised spelling used for map lookups.
func (i Identifier) Key() string { return norm.NFC.String(i.Name) }

// NominalKind is the declaration kind of a nesting level.
type NominalKind uint8

const (
	Class NominalKind = iota + 1
	Struct
	Enum
	Protocol
)

func (k NominalKind) String() string {
	switch k {
	case Class:
		return "class"
	case Struct:
		return "struct"
	case Enum:
		return "enum"
	case Protocol:
		return "protocol"
	}
	return "unknown"
}

// EntityPath names a scope: a module followed by zero or more nominal types.
type EntityPath struct {
	Module  Identifier
	Nesting []NominalKind
	Names   []Identifier
}

// ModulePath returns the path of the module scope itself.
func ModulePath(module string) EntityPath {
	return EntityPath{Module: Ident(module)}
}

// IsModuleScope reports whether the path has no nominal nesting.
func (p EntityPath) IsModuleScope() bool { return len(p.Nesting) == 0 }

// Depth is the number of nominal levels below the module.
func (p EntityPath) Depth() int { return len(p.Nesting) }

// Kind is the kind of the innermost nominal, or zero at module scope.
func (p EntityPath) Kind() NominalKind {
	if len(p.Nesting) == 0 {
		return 0
	}
	return p.Nesting[len(p.Nesting)-1]
}

// Name is the innermost identifier: the type name, or the module name at
// module scope.
func (p EntityPath) Name() Identifier {
	if len(p.Names) == 0 {
		return p.Module
	}
	return p.Names[len(p.Names)-1]
}

// Child returns a new path one level deeper. The receiver is not modified.
func (p EntityPath) Child(kind NominalKind, name Identifier) EntityPath {
	c := EntityPath{
		Module:  p.Module,
		Nesting: make([]NominalKind, len(p.Nesting), len(p.Nesting)+1),
		Names:   make([]Identifier, len(p.Names), len(p.Names)+1),
	}
	copy(c.Nesting, p.Nesting)
	copy(c.Names, p.Names)
	c.Nesting = append(c.Nesting, kind)
	c.Names = append(c.Names, name)
	return c
}

// Parent drops the innermost level. The parent of a module scope is itself.
func (p EntityPath) Parent() EntityPath {
	if len(p.Nesting) == 0 {
		return p
	}
	return EntityPath{
		Module:  p.Module,
		Nesting: p.Nesting[:len(p.Nesting)-1:len(p.Nesting)-1],
		Names:   p.Names[:len(p.Names)-1 : len(p.Names)-1],
	}
}

// Equal compares module and every level, kinds included.
func (p EntityPath) Equal(o EntityPath) bool {
	if !p.Module.Equal(o.Module) || len(p.Nesting) != len(o.Nesting) {
		return false
	}
	for i := range p.Nesting {
		if p.Nesting[i] != o.Nesting[i] || !p.Names[i].Equal(o.Names[i]) {
			return false
		}
	}
	return true
}

// Key is the dotted, normalised spelling used to index type contents.
func (p EntityPath) Key() string {
	parts := make([]string, 0, len(p.Names)+1)
	parts = append(parts, p.Module.Key())
	for _, n := range p.Names {
		parts = append(parts, n.Key())
	}
	return strings.Join(parts, ".")
}

func (p EntityPath) String() string {
	parts := make([]string, 0, len(p.Names)+1)
	parts = append(parts, p.Module.Name)
	for _, n := range p.Names {
		parts = append(parts, n.Name)
	}
	return strings.Join(parts, ".")
}

const (
	// StdlibModule is the module the 's' shorthand refers to.
	StdlibModule = "Swift"
	// ClangModule holds imported C declarations.
	ClangModule = "__C"
	// ObjCModule holds imported Objective-C declarations.
	ObjCModule = "__ObjC"
)
