// Package index groups decoded Swift symbols by module and owning type so a
// declaration can be matched against only the symbols it could bind to.
package index

import (
	"iter"
	"slices"
	"sort"

	"github.com/appsworld/swiftbind/swift"
)

// Bucket is an ordered list of symbols sharing a base name.
type Bucket []*swift.DecodedSymbol

// PropertyContents holds the accessors of one property, or of all
// subscripts of a type. Subscripts may be overloaded, so each accessor kind
// is a list.
type PropertyContents struct {
	Name         string
	Getter       Bucket
	Setter       Bucket
	Materializer Bucket
}

func (pc *PropertyContents) add(kind swift.MemberKind, sym *swift.DecodedSymbol) {
	switch kind {
	case swift.KindGetter, swift.KindSubscriptGetter:
		pc.Getter = append(pc.Getter, sym)
	case swift.KindSetter, swift.KindSubscriptSetter:
		pc.Setter = append(pc.Setter, sym)
	case swift.KindMaterializer, swift.KindSubscriptMaterializer:
		pc.Materializer = append(pc.Materializer, sym)
	}
}

// Accessors returns the bucket for one accessor kind.
func (pc *PropertyContents) Accessors(kind swift.MemberKind) Bucket {
	if pc == nil {
		return nil
	}
	switch kind {
	case swift.KindGetter, swift.KindSubscriptGetter:
		return pc.Getter
	case swift.KindSetter, swift.KindSubscriptSetter:
		return pc.Setter
	case swift.KindMaterializer, swift.KindSubscriptMaterializer:
		return pc.Materializer
	}
	return nil
}

// ClassContents is everything filed under one nominal type.
type ClassContents struct {
	Path             swift.EntityPath
	Methods          map[string]Bucket
	StaticMethods    map[string]Bucket
	Constructors     Bucket
	Destructors      Bucket
	Properties       map[string]*PropertyContents
	StaticProperties map[string]*PropertyContents
	Variables        map[string]Bucket
	Subscripts       *PropertyContents
	Metadata         Bucket
}

func newClassContents(path swift.EntityPath) *ClassContents {
	return &ClassContents{
		Path:             path,
		Methods:          make(map[string]Bucket),
		StaticMethods:    make(map[string]Bucket),
		Properties:       make(map[string]*PropertyContents),
		StaticProperties: make(map[string]*PropertyContents),
		Variables:        make(map[string]Bucket),
		Subscripts:       &PropertyContents{Name: "subscript"},
	}
}

// ModuleContents is everything filed under one module.
type ModuleContents struct {
	Name       string
	Functions  map[string]Bucket
	Operators  map[string]Bucket
	Variables  map[string]Bucket
	Properties map[string]*PropertyContents
	Metadata   Bucket
	// Types is keyed by swift.EntityPath.Key.
	Types map[string]*ClassContents
}

func newModuleContents(name string) *ModuleContents {
	return &ModuleContents{
		Name:       name,
		Functions:  make(map[string]Bucket),
		Operators:  make(map[string]Bucket),
		Variables:  make(map[string]Bucket),
		Properties: make(map[string]*PropertyContents),
		Types:      make(map[string]*ClassContents),
	}
}

// Type returns the contents of the nominal at path, or nil.
func (mc *ModuleContents) Type(path swift.EntityPath) *ClassContents {
	if mc == nil {
		return nil
	}
	return mc.Types[path.Key()]
}

// TypeNames returns the dotted names of every indexed type, sorted.
func (mc *ModuleContents) TypeNames() []string {
	names := make([]string, 0, len(mc.Types))
	for _, cc := range mc.Types {
		names = append(names, cc.Path.String())
	}
	sort.Strings(names)
	return names
}

// Index is the module-level lookup structure. It is read-only once built;
// Merge must not run concurrently with lookups.
type Index struct {
	modules map[string]*ModuleContents
	syms    []*swift.DecodedSymbol
}

// New returns an empty index.
func New() *Index {
	return &Index{modules: make(map[string]*ModuleContents)}
}

// Build files every symbol in syms.
func Build(syms []*swift.DecodedSymbol) *Index {
	ix := New()
	for _, sym := range syms {
		ix.Add(sym)
	}
	return ix
}

// Merge files every symbol of other into ix, after ix's own symbols.
func (ix *Index) Merge(other *Index) {
	if other == nil {
		return
	}
	for _, sym := range other.syms {
		ix.Add(sym)
	}
}

// Len is the number of indexed symbols.
func (ix *Index) Len() int { return len(ix.syms) }

// All yields every indexed symbol in insertion order.
func (ix *Index) All() iter.Seq[*swift.DecodedSymbol] {
	return slices.Values(ix.syms)
}

// Module returns the contents of the named module, or nil.
func (ix *Index) Module(name string) *ModuleContents {
	return ix.modules[swift.Ident(name).Key()]
}

// Modules returns the indexed module names, sorted.
func (ix *Index) Modules() []string {
	names := make([]string, 0, len(ix.modules))
	for _, mc := range ix.modules {
		names = append(names, mc.Name)
	}
	sort.Strings(names)
	return names
}

// Type returns the contents of the nominal at path, or nil.
func (ix *Index) Type(path swift.EntityPath) *ClassContents {
	return ix.modules[path.Module.Key()].Type(path)
}

func (ix *Index) module(id swift.Identifier) *ModuleContents {
	key := id.Key()
	mc, ok := ix.modules[key]
	if !ok {
		mc = newModuleContents(id.Name)
		ix.modules[key] = mc
	}
	return mc
}

func (mc *ModuleContents) class(path swift.EntityPath) *ClassContents {
	key := path.Key()
	cc, ok := mc.Types[key]
	if !ok {
		cc = newClassContents(path)
		mc.Types[key] = cc
	}
	return cc
}

// classify returns the kind and base name a symbol is filed under. Methods
// and functions whose flat name carries an accessor prefix are filed as
// that accessor of the named property.
func classify(sym *swift.DecodedSymbol) (swift.MemberKind, string) {
	kind := sym.Kind
	name := sym.Name.Key()
	switch kind {
	case swift.KindFunction, swift.KindMethod, swift.KindStaticMethod:
		if sym.IsOperator() {
			break
		}
		if k, prop, ok := swift.SplitAccessorName(name); ok {
			return k, prop
		}
	}
	return kind, name
}

func property(m map[string]*PropertyContents, name string) *PropertyContents {
	pc, ok := m[name]
	if !ok {
		pc = &PropertyContents{Name: name}
		m[name] = pc
	}
	return pc
}

// Add files one symbol.
func (ix *Index) Add(sym *swift.DecodedSymbol) {
	if sym == nil {
		return
	}
	ix.syms = append(ix.syms, sym)
	mc := ix.module(sym.Owner.Module)
	kind, name := classify(sym)

	if sym.Owner.IsModuleScope() {
		switch {
		case kind.IsTypeLevel():
			mc.Metadata = append(mc.Metadata, sym)
		case kind == swift.KindVariable:
			mc.Variables[name] = append(mc.Variables[name], sym)
		case kind.IsAccessor():
			property(mc.Properties, name).add(kind, sym)
		case sym.IsOperator():
			mc.Operators[name] = append(mc.Operators[name], sym)
		default:
			mc.Functions[name] = append(mc.Functions[name], sym)
		}
		return
	}

	cc := mc.class(sym.Owner)
	switch {
	case kind.IsTypeLevel():
		cc.Metadata = append(cc.Metadata, sym)
	case kind.IsConstructor():
		cc.Constructors = append(cc.Constructors, sym)
	case kind == swift.KindDestructor || kind == swift.KindDeallocator:
		cc.Destructors = append(cc.Destructors, sym)
	case kind.IsSubscript():
		cc.Subscripts.add(kind, sym)
	case kind.IsAccessor() && sym.Static:
		property(cc.StaticProperties, name).add(kind, sym)
	case kind.IsAccessor():
		property(cc.Properties, name).add(kind, sym)
	case kind == swift.KindVariable:
		cc.Variables[name] = append(cc.Variables[name], sym)
	case kind == swift.KindStaticMethod || sym.Static:
		cc.StaticMethods[name] = append(cc.StaticMethods[name], sym)
	default:
		cc.Methods[name] = append(cc.Methods[name], sym)
	}
}

// Query selects the bucket a declaration's symbol would be filed in.
type Query struct {
	Owner  swift.EntityPath
	Kind   swift.MemberKind
	Name   string
	Static bool
}

// Lookup returns the candidates for q. The result aliases the index and
// must not be modified.
func (ix *Index) Lookup(q Query) Bucket {
	mc := ix.modules[q.Owner.Module.Key()]
	if mc == nil {
		return nil
	}
	name := swift.Ident(q.Name).Key()

	if q.Owner.IsModuleScope() {
		switch {
		case q.Kind.IsTypeLevel():
			return mc.Metadata
		case q.Kind == swift.KindVariable:
			return mc.Variables[name]
		case q.Kind.IsAccessor():
			return mc.Properties[name].Accessors(q.Kind)
		}
		if b, ok := mc.Operators[name]; ok {
			return b
		}
		return mc.Functions[name]
	}

	cc := mc.Type(q.Owner)
	if cc == nil {
		return nil
	}
	switch {
	case q.Kind.IsTypeLevel():
		return cc.Metadata
	case q.Kind.IsConstructor():
		return cc.Constructors
	case q.Kind == swift.KindDestructor || q.Kind == swift.KindDeallocator:
		return cc.Destructors
	case q.Kind.IsSubscript():
		return cc.Subscripts.Accessors(q.Kind)
	case q.Kind.IsAccessor() && q.Static:
		return cc.StaticProperties[name].Accessors(q.Kind)
	case q.Kind.IsAccessor():
		return cc.Properties[name].Accessors(q.Kind)
	case q.Kind == swift.KindVariable:
		return cc.Variables[name]
	case q.Kind == swift.KindStaticMethod || q.Static:
		return cc.StaticMethods[name]
	}
	return cc.Methods[name]
}
