// Package match binds declarations parsed from module interfaces to the
// decoded binary symbols that implement them.
//
// Matching is structural: a declaration and a symbol are equivalent when
// their classification, parameter list and (except for constructors) return
// type agree under the ABI rules the compiler applies when mangling, such as
// one-element tuple collapsing and single-protocol existential unwrapping.
package match

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/appsworld/swiftbind/index"
	"github.com/appsworld/swiftbind/swift"
)

var (
	// ErrNotFound reports a declaration with no structurally equivalent
	// symbol. Callers treat it as an unresolved binding.
	ErrNotFound = errors.New("match: no symbol matches declaration")
	// ErrAmbiguous reports a declaration that matched more than one symbol.
	ErrAmbiguous = errors.New("match: declaration matches more than one symbol")
)

// Result is the first matching symbol plus any later candidates that also
// matched.
type Result struct {
	Symbol       *swift.DecodedSymbol
	Alternatives []*swift.DecodedSymbol
}

// Ambiguous reports whether more than one candidate matched.
func (r Result) Ambiguous() bool { return len(r.Alternatives) > 0 }

// Kinds returns the member kinds symbols for d may have.
func (d *Declaration) Kinds() []swift.MemberKind {
	switch d.Role {
	case RoleFunction:
		switch {
		case d.IsTopLevel():
			return []swift.MemberKind{swift.KindFunction}
		case d.Static:
			return []swift.MemberKind{swift.KindStaticMethod}
		}
		return []swift.MemberKind{swift.KindMethod}
	case RoleConstructor:
		return []swift.MemberKind{swift.KindConstructor}
	case RoleInitializer:
		return []swift.MemberKind{swift.KindInitializer}
	case RoleDestructor:
		return []swift.MemberKind{swift.KindDeallocator, swift.KindDestructor}
	case RoleGetter:
		return []swift.MemberKind{swift.KindGetter}
	case RoleSetter:
		return []swift.MemberKind{swift.KindSetter}
	case RoleMaterializer:
		return []swift.MemberKind{swift.KindMaterializer}
	case RoleSubscriptGetter:
		return []swift.MemberKind{swift.KindSubscriptGetter}
	case RoleSubscriptSetter:
		return []swift.MemberKind{swift.KindSubscriptSetter}
	case RoleSubscriptMaterializer:
		return []swift.MemberKind{swift.KindSubscriptMaterializer}
	case RoleVariable:
		return []swift.MemberKind{swift.KindVariable}
	}
	return nil
}

// Match returns the first candidate structurally equivalent to decl. Later
// equivalent candidates are reported in Result.Alternatives. Unqualified type
// names bind to the declaration's own module, the standard library or
// imported Objective-C first; candidates that only match through a
// same-named type from another module rank after those. It is safe for
// concurrent use.
func Match(decl *Declaration, candidates []*swift.DecodedSymbol) (Result, bool) {
	var res Result
	var foreign []*swift.DecodedSymbol
	add := func(c *swift.DecodedSymbol) {
		if res.Symbol == nil {
			res.Symbol = c
		} else {
			res.Alternatives = append(res.Alternatives, c)
		}
	}
	for _, c := range candidates {
		if c == nil || !classifies(decl, c) {
			continue
		}
		m := matcher{decl: decl, skipLabels: decl.IsOperator() || c.Kind.IsAccessor(), homeOnly: true}
		if m.equivalent(c) {
			add(c)
			continue
		}
		m.homeOnly = false
		if m.equivalent(c) {
			foreign = append(foreign, c)
		}
	}
	for _, c := range foreign {
		add(c)
	}
	return res, res.Symbol != nil
}

// Resolve looks decl's candidates up in idx and matches them.
func Resolve(decl *Declaration, idx *index.Index) (Result, error) {
	var candidates []*swift.DecodedSymbol
	seen := make(map[*swift.DecodedSymbol]bool)
	for _, k := range decl.Kinds() {
		q := index.Query{Owner: decl.Path(), Kind: k, Name: decl.BaseName(), Static: decl.Static}
		for _, s := range idx.Lookup(q) {
			if !seen[s] {
				seen[s] = true
				candidates = append(candidates, s)
			}
		}
	}
	res, ok := Match(decl, candidates)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s (%d candidates)", ErrNotFound, decl, len(candidates))
	}
	return res, nil
}

// classifies filters candidates by kind, scope, owner and name.
func classifies(d *Declaration, c *swift.DecodedSymbol) bool {
	if d.IsTopLevel() != c.IsTopLevel() {
		return false
	}
	if !slices.Contains(d.Kinds(), c.Kind) {
		return false
	}
	if c.Owner.Key() != d.Path().Key() {
		return false
	}
	if (c.Kind == swift.KindVariable || (c.Kind.IsAccessor() && !c.Kind.IsSubscript())) && c.Static != d.Static {
		return false
	}
	if d.IsOperator() && c.Name.Operator != d.Operator {
		return false
	}
	return swift.EqualNames(c.Name.Name, d.BaseName())
}

type matcher struct {
	decl       *Declaration
	skipLabels bool
	// homeOnly restricts unqualified type names to home modules.
	homeOnly bool
}

func (m matcher) equivalent(c *swift.DecodedSymbol) bool {
	if !m.params(c.Params) {
		return false
	}
	if c.Kind.IsConstructor() || c.Kind == swift.KindDestructor || c.Kind == swift.KindDeallocator {
		return true
	}
	return m.typeEq(m.decl.Return, c.Return)
}

func isVoidSpec(ts *TypeSpec) bool {
	if ts == nil {
		return true
	}
	switch ts.Kind {
	case TypeTuple:
		return len(ts.Elements) == 0
	case TypeNamed:
		switch ts.Name {
		case "Void", "Swift.Void", "()":
			return len(ts.GenericArgs) == 0
		}
	}
	return false
}

func (m matcher) params(cand swift.SignatureType) bool {
	params := m.decl.explicitParams()
	if cand == nil {
		return len(params) == 0
	}
	if len(params) == 1 && isVoidSpec(params[0].Type) && !params[0].Variadic {
		return swift.IsVoid(cand)
	}
	elems := swift.Elements(cand)
	if len(params) == 1 && params[0].Type != nil && params[0].Type.Kind == TypeTuple && len(elems) != 1 {
		return m.typeEq(params[0].Type, cand)
	}
	if len(params) != len(elems) {
		return false
	}
	for i := range params {
		if !m.param(params[i], elems[i]) {
			return false
		}
	}
	return true
}

func (m matcher) param(p Parameter, el swift.TupleElement) bool {
	if !m.skipLabels && !swift.EqualNames(p.label(), el.Name.Name) {
		return false
	}
	flags := el.Type.Flags()
	if p.Variadic != flags.Variadic {
		return false
	}
	inout := p.InOut || (p.Type != nil && p.Type.InOut)
	if inout != flags.Reference {
		return false
	}
	if p.Variadic {
		if elem, ok := arrayElement(el.Type); ok && m.typeEq(p.Type, elem) {
			return true
		}
	}
	return m.typeEq(p.Type, el.Type)
}

// arrayElement returns the element type of a Swift.Array, the form a
// variadic parameter takes in a mangled signature.
func arrayElement(t swift.SignatureType) (swift.SignatureType, bool) {
	bg, ok := t.(*swift.BoundGenericType)
	if !ok || len(bg.Args) != 1 || bg.Base.Path.String() != "Swift.Array" {
		return nil, false
	}
	return bg.Args[0], true
}

func (m matcher) typeEq(spec *TypeSpec, t swift.SignatureType) bool {
	if t == nil {
		return isVoidSpec(spec)
	}
	if spec == nil {
		return swift.IsVoid(t)
	}
	switch spec.Kind {
	case TypeTuple:
		if len(spec.Elements) == 1 {
			return m.typeEq(spec.Elements[0], swift.Unwrap(t))
		}
		tt, ok := t.(*swift.TupleType)
		if !ok || len(tt.Elements) != len(spec.Elements) {
			return false
		}
		for i, e := range spec.Elements {
			if i < len(spec.Labels) && !swift.EqualNames(argLabel(spec.Labels[i]), tt.Elements[i].Name.Name) {
				return false
			}
			if !m.typeEq(e, tt.Elements[i].Type) {
				return false
			}
		}
		return true
	case TypeFunction:
		ft, ok := t.(*swift.FunctionType)
		if !ok {
			return false
		}
		el := swift.Elements(ft.Params)
		switch {
		case len(spec.Elements) == len(el):
			for i, e := range spec.Elements {
				if e.InOut != el[i].Type.Flags().Reference || !m.typeEq(e, el[i].Type) {
					return false
				}
			}
		case len(spec.Elements) == 0:
			if !swift.IsVoid(ft.Params) {
				return false
			}
		case len(spec.Elements) == 1:
			if !m.typeEq(spec.Elements[0], ft.Params) {
				return false
			}
		default:
			return false
		}
		return m.typeEq(spec.Result, ft.Result)
	case TypeProtocolList:
		return m.protocolListEq(spec.Elements, t)
	}
	return m.namedEq(spec, t)
}

func (m matcher) protocolListEq(members []*TypeSpec, t swift.SignatureType) bool {
	switch t := t.(type) {
	case *swift.ProtocolListType:
		if len(members) == 1 && len(t.Protocols) == 1 {
			return m.pathMatches(members[0].Name, t.Protocols[0])
		}
		if len(members) != len(t.Protocols) {
			return false
		}
		for i, p := range t.Protocols {
			if !m.pathMatches(members[i].Name, p) {
				return false
			}
		}
		return true
	case *swift.NominalType:
		return len(members) == 1 && t.Kind() == swift.Protocol && m.pathMatches(members[0].Name, t.Path)
	}
	return false
}

func (m matcher) namedEq(spec *TypeSpec, t swift.SignatureType) bool {
	name := strings.TrimSpace(spec.Name)
	switch {
	case isVoidSpec(spec):
		return swift.IsVoid(t)
	case name == "Any" || name == "Swift.Any":
		pl, ok := t.(*swift.ProtocolListType)
		return ok && len(pl.Protocols) == 0
	case strings.HasSuffix(name, ".Type"):
		return m.metatypeEq(strings.TrimSuffix(name, ".Type"), t)
	case strings.HasSuffix(name, "?"):
		return m.typeEq(Named("Swift.Optional", Named(strings.TrimSuffix(name, "?"))), t)
	case strings.HasSuffix(name, "!"):
		return m.typeEq(Named("Swift.ImplicitlyUnwrappedOptional", Named(strings.TrimSuffix(name, "!"))), t)
	case strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]"):
		inner := name[1 : len(name)-1]
		if k, v, ok := splitDictionary(inner); ok {
			return m.typeEq(Named("Swift.Dictionary", Named(k), Named(v)), t)
		}
		return m.typeEq(Named("Swift.Array", Named(inner)), t)
	}

	if g, assoc, ok := m.genericRef(name); ok {
		ref, ok := t.(*swift.GenericRefType)
		if !ok || ref.Depth != g.Depth || ref.Index != g.Index || len(ref.AssocPath) != len(assoc) {
			return false
		}
		for i, a := range assoc {
			if !swift.EqualNames(a, ref.AssocPath[i].Name) {
				return false
			}
		}
		return true
	}

	switch t := t.(type) {
	case *swift.BuiltinType:
		return len(spec.GenericArgs) == 0 && (name == t.Name() || name == swift.StdlibModule+"."+t.Name())
	case *swift.NominalType:
		return len(spec.GenericArgs) == 0 && m.pathMatches(name, t.Path)
	case *swift.BoundGenericType:
		if !m.pathMatches(name, t.Base.Path) || len(spec.GenericArgs) != len(t.Args) {
			return false
		}
		for i, a := range spec.GenericArgs {
			if !m.typeEq(a, t.Args[i]) {
				return false
			}
		}
		return true
	case *swift.ProtocolListType:
		return len(spec.GenericArgs) == 0 && len(t.Protocols) == 1 && m.pathMatches(name, t.Protocols[0])
	}
	return false
}

// metatypeEq matches "Any.Type" against the existential metatype of the
// empty composition and "X.Type" against the metatype of X, or the
// existential metatype when X is a protocol.
func (m matcher) metatypeEq(base string, t swift.SignatureType) bool {
	mt, ok := t.(*swift.MetatypeType)
	if !ok {
		return false
	}
	if base == "Any" || base == "Swift.Any" {
		pl, ok := mt.Instance.(*swift.ProtocolListType)
		return mt.Existential && ok && len(pl.Protocols) == 0
	}
	if mt.Existential {
		return m.protocolListEq([]*TypeSpec{Named(base)}, mt.Instance)
	}
	return m.typeEq(Named(base), mt.Instance)
}

// genericRef resolves the leading segment of a dotted name against the
// declaration's generic context and returns the associated type path.
func (m matcher) genericRef(name string) (GenericParam, []string, bool) {
	parts := strings.Split(name, ".")
	g, ok := m.decl.generic(parts[0])
	if !ok {
		return GenericParam{}, nil, false
	}
	return g, parts[1:], true
}

// spells reports whether name spells path, fully or by a suffix that
// starts at a component boundary.
func spells(name string, path swift.EntityPath) bool {
	full := norm.NFC.String(path.String())
	n := norm.NFC.String(name)
	return full == n || strings.HasSuffix(full, "."+n)
}

// pathMatches is spells narrowed by homeOnly: an unqualified name then
// only spells types from the declaration's module, the standard library or
// imported Objective-C.
func (m matcher) pathMatches(name string, path swift.EntityPath) bool {
	if !spells(name, path) {
		return false
	}
	if !m.homeOnly || strings.Contains(name, ".") {
		return true
	}
	switch path.Module.Key() {
	case swift.Ident(m.decl.Module).Key(), swift.StdlibModule, swift.ObjCModule:
		return true
	}
	return false
}

// splitDictionary splits "K: V" at its top-level colon.
func splitDictionary(s string) (string, string, bool) {
	depth := 0
	for i, r := range s {
		switch r {
		case '[', '<', '(':
			depth++
		case ']', '>', ')':
			depth--
		case ':':
			if depth == 0 {
				return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
			}
		}
	}
	return "", "", false
}
