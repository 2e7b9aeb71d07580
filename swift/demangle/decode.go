// Package demangle decodes legacy ("_T"-prefixed) Swift mangled symbols into
// swift.DecodedSymbol values.
//
// Only the entry points needed to bind declarations to code are decoded:
// functions, methods, constructors, destructors, accessors, variables, type
// metadata and witness tables. Thunks, specialisations, closures and the
// other compiler-generated forms return ErrNotASymbol.
package demangle

import (
	"errors"
	"strings"

	"github.com/appsworld/swiftbind/swift"
)

// IsMangled reports whether name carries the legacy Swift symbol prefix,
// with or without the extra Mach-O underscore.
func IsMangled(name string) bool {
	return strings.HasPrefix(name, "_T") || strings.HasPrefix(name, "__T")
}

// Decode parses one symbol name. It returns ErrNotASymbol for names that are
// not decodable entry points and a *Error for malformed ones.
func Decode(name string) (*swift.DecodedSymbol, error) {
	start := 2
	switch {
	case strings.HasPrefix(name, "__T"):
		start = 3
	case strings.HasPrefix(name, "_T"):
	default:
		return nil, ErrNotASymbol
	}

	p := newParser(name, start)
	sym, err := p.parseGlobal()
	if err != nil {
		if errors.Is(err, ErrNotASymbol) {
			return nil, ErrNotASymbol
		}
		return nil, err
	}
	if !p.eof() {
		return nil, p.fail(ErrTrailing)
	}
	sym.Mangled = name
	return sym, nil
}

func (p *parser) parseGlobal() (*swift.DecodedSymbol, error) {
	switch p.consume() {
	case 'F':
		return p.parseFunctionEntity(false)
	case 'v':
		return p.parseVariable(false)
	case 'Z':
		switch p.consume() {
		case 'F':
			return p.parseFunctionEntity(true)
		case 'v':
			return p.parseVariable(true)
		}
	case 'M':
		return p.parseMetadata()
	case 'W':
		return p.parseWitnessTable()
	}
	return nil, ErrNotASymbol
}

// entityType is the type that follows an entity name, split into its
// generic signature and, for uncurried 'f' forms, the self parameter.
// ownerSelf is set for the 'f' form that omits self and spells the
// parameters and result directly.
type entityType struct {
	generics  *swift.GenericSignature
	self      swift.SignatureType
	typ       swift.SignatureType
	ownerSelf bool
}

func (et entityType) function() (*swift.FunctionType, bool) {
	fn, ok := et.typ.(*swift.FunctionType)
	return fn, ok
}

func (p *parser) parseEntityType() (entityType, error) {
	var et entityType
	var err error
	if p.consumeIf('u') {
		if et.generics, err = p.parseGenericSignature(); err != nil {
			return et, err
		}
	}
	if !p.consumeIf('f') {
		et.typ, err = p.parseType()
		return et, err
	}
	throws := p.consumeIf('z')
	if et.self, err = p.parseType(); err != nil {
		return et, err
	}
	if et.typ, err = p.parseType(); err != nil {
		return et, err
	}
	// Self is never a tuple, and the curried form always carries a
	// function after it. Anything else is 'f params result'.
	_, isFunc := et.typ.(*swift.FunctionType)
	_, isTuple := et.self.(*swift.TupleType)
	if throws || isTuple || !isFunc {
		et.typ = &swift.FunctionType{Params: et.self, Result: et.typ, Throws: throws}
		et.self = nil
		et.ownerSelf = true
	}
	return et, nil
}

var (
	initName   = swift.Ident("init")
	deinitName = swift.Ident("deinit")
)

func (p *parser) parseFunctionEntity(static bool) (*swift.DecodedSymbol, error) {
	owner, err := p.parseContext()
	if err != nil {
		return nil, err
	}
	sym := &swift.DecodedSymbol{Owner: owner, Static: static}

	switch c := p.peek(); c {
	case 'D', 'd':
		p.consume()
		sym.Kind = swift.KindDestructor
		if c == 'D' {
			sym.Kind = swift.KindDeallocator
		}
		sym.Name = deinitName
		sym.Self = swift.Nominal(owner)
		sym.Params = swift.Void()
		sym.Return = swift.Void()
		return sym, nil
	case 'C', 'c':
		p.consume()
		sym.Kind = swift.KindInitializer
		if c == 'C' {
			sym.Kind = swift.KindConstructor
		}
		sym.Name = initName
		return p.parseConstructorType(sym)
	case 'g', 's', 'm':
		p.consume()
		return p.parseAccessor(sym, c)
	case 'i', 'A', 'a', 'l', 'w', 'W', 'U', 'u', 'e', 'E', 'I':
		// Variable initialisers, default arguments, addressors, observers
		// and ivar initialisers.
		return nil, ErrNotASymbol
	case 0:
		return nil, p.fail(ErrUnexpectedEnd)
	}

	name, err := p.parseDeclName()
	if err != nil {
		return nil, err
	}
	sym.Name = name
	et, err := p.parseEntityType()
	if err != nil {
		return nil, err
	}
	fn, ok := et.function()
	if !ok {
		return nil, p.failf(ErrUnknownType, "%s, expected a function type", et.typ)
	}
	sym.Generics = et.generics
	sym.Params, sym.Return, sym.Throws = fn.Params, fn.Result, fn.Throws
	switch {
	case et.self == nil && owner.IsModuleScope():
		sym.Kind = swift.KindFunction
	case static:
		sym.Kind = swift.KindStaticMethod
	default:
		sym.Kind = swift.KindMethod
	}
	if et.self != nil {
		sym.Self = et.self
	} else if !owner.IsModuleScope() {
		sym.Self = swift.Nominal(owner)
	}
	return sym, nil
}

// parseConstructorType reads the curried self layer of an initializer and
// exposes the inner function's parameters and result.
func (p *parser) parseConstructorType(sym *swift.DecodedSymbol) (*swift.DecodedSymbol, error) {
	et, err := p.parseEntityType()
	if err != nil {
		return nil, err
	}
	fn, ok := et.function()
	if !ok {
		return nil, p.failf(ErrUnknownType, "%s, expected a function type", et.typ)
	}
	self := et.self
	switch {
	case et.ownerSelf:
		self = swift.Nominal(sym.Owner)
	case self == nil:
		inner, ok := fn.Result.(*swift.FunctionType)
		if !ok {
			return nil, p.failf(ErrUnknownType, "%s, expected a curried constructor", fn)
		}
		self, fn = fn.Params, inner
	}
	if mt, ok := self.(*swift.MetatypeType); ok {
		self = mt.Instance
	}
	sym.Generics = et.generics
	sym.Self = self
	sym.Params, sym.Return, sym.Throws = fn.Params, fn.Result, fn.Throws
	return sym, nil
}

var (
	propertyAccessors  = map[byte]swift.MemberKind{'g': swift.KindGetter, 's': swift.KindSetter, 'm': swift.KindMaterializer}
	subscriptAccessors = map[byte]swift.MemberKind{'g': swift.KindSubscriptGetter, 's': swift.KindSubscriptSetter, 'm': swift.KindSubscriptMaterializer}
)

// parseAccessor reads decl-name type after an accessor letter. Getters and
// materializers take no parameters and return the property type; setters
// take it and return Void. Subscript accessors additionally take the index
// parameters, after the new value for setters.
func (p *parser) parseAccessor(sym *swift.DecodedSymbol, c byte) (*swift.DecodedSymbol, error) {
	name, err := p.parseDeclName()
	if err != nil {
		return nil, err
	}
	sym.Name = name
	et, err := p.parseEntityType()
	if err != nil {
		return nil, err
	}
	sym.Generics = et.generics
	if et.self != nil {
		sym.Self = et.self
	} else if !sym.Owner.IsModuleScope() {
		sym.Self = swift.Nominal(sym.Owner)
	}

	if name.Name == "subscript" && !name.IsOperator() {
		fn, ok := et.function()
		if !ok {
			return nil, p.failf(ErrUnknownType, "%s, expected a subscript function type", et.typ)
		}
		sym.Kind = subscriptAccessors[c]
		switch sym.Kind {
		case swift.KindSubscriptSetter:
			params := &swift.TupleType{Elements: []swift.TupleElement{{Type: fn.Result}}}
			params.Elements = append(params.Elements, swift.Elements(fn.Params)...)
			sym.Params, sym.Return = params, swift.Void()
		default:
			sym.Params, sym.Return = fn.Params, fn.Result
		}
		sym.Throws = fn.Throws
		return sym, nil
	}

	sym.Kind = propertyAccessors[c]
	if sym.Kind == swift.KindSetter {
		sym.Params, sym.Return = et.typ, swift.Void()
	} else {
		sym.Params, sym.Return = swift.Void(), et.typ
	}
	return sym, nil
}

func (p *parser) parseVariable(static bool) (*swift.DecodedSymbol, error) {
	owner, err := p.parseContext()
	if err != nil {
		return nil, err
	}
	name, err := p.parseDeclName()
	if err != nil {
		return nil, err
	}
	et, err := p.parseEntityType()
	if err != nil {
		return nil, err
	}
	return &swift.DecodedSymbol{
		Owner:    owner,
		Kind:     swift.KindVariable,
		Name:     name,
		Static:   static,
		Return:   et.typ,
		Generics: et.generics,
	}, nil
}

// metadataTypeStarts are the type productions metadata can be emitted for.
const metadataTypeStarts = "BSCVOGMTFX"

func (p *parser) parseMetadata() (*swift.DecodedSymbol, error) {
	kind := swift.KindMetadata
	switch c := p.peek(); {
	case c == 'n':
		p.consume()
		kind = swift.KindNominalTypeDescriptor
	case c == 'a':
		p.consume()
		kind = swift.KindMetadataAccessor
	case c == 'd':
		p.consume()
	case c == 'p':
		p.consume()
		proto, err := p.parseProtocol()
		if err != nil {
			return nil, err
		}
		return &swift.DecodedSymbol{
			Owner:  proto,
			Kind:   swift.KindProtocolDescriptor,
			Name:   proto.Name(),
			Return: swift.Nominal(proto),
		}, nil
	case c == 'P':
		// Either a metadata pattern or metadata for a protocol composition.
		state := p.saveState()
		t, err := p.parseType()
		if err != nil || !p.eof() {
			p.restoreState(state)
			return nil, ErrNotASymbol
		}
		return typeLevelSymbol(kind, t), nil
	case c != 0 && strings.IndexByte(metadataTypeStarts, c) < 0:
		return nil, ErrNotASymbol
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return typeLevelSymbol(kind, t), nil
}

func (p *parser) parseWitnessTable() (*swift.DecodedSymbol, error) {
	switch p.consume() {
	case 'V':
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return typeLevelSymbol(swift.KindValueWitnessTable, &swift.WitnessTableType{
			Kind: swift.ValueWitness,
			Type: t,
		}), nil
	case 'P':
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		proto, err := p.parseProtocol()
		if err != nil {
			return nil, err
		}
		if _, err := p.parseModule(); err != nil {
			return nil, err
		}
		return typeLevelSymbol(swift.KindProtocolWitnessTable, &swift.WitnessTableType{
			Kind:     swift.ProtocolWitness,
			Type:     t,
			Protocol: &proto,
		}), nil
	}
	return nil, ErrNotASymbol
}

func typeLevelSymbol(kind swift.MemberKind, t swift.SignatureType) *swift.DecodedSymbol {
	owner := OwnerOf(t)
	return &swift.DecodedSymbol{
		Owner:  owner,
		Kind:   kind,
		Name:   owner.Name(),
		Return: t,
	}
}

// OwnerOf returns the entity path a type-level symbol for t belongs to.
// Structural types belong to the standard library module.
func OwnerOf(t swift.SignatureType) swift.EntityPath {
	switch t := t.(type) {
	case *swift.NominalType:
		return t.Path
	case *swift.BoundGenericType:
		return t.Base.Path
	case *swift.BuiltinType:
		if t.Kind <= swift.BuiltinDouble {
			return swift.ModulePath(swift.StdlibModule).Child(swift.Struct, swift.Ident(t.Name()))
		}
		return swift.ModulePath("Builtin")
	case *swift.ProtocolListType:
		if len(t.Protocols) == 1 {
			return t.Protocols[0]
		}
	case *swift.MetatypeType:
		return OwnerOf(t.Instance)
	case *swift.WitnessTableType:
		return OwnerOf(t.Type)
	}
	return swift.ModulePath(swift.StdlibModule)
}
