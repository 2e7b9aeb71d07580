package demangle

import (
	"github.com/appsworld/swiftbind/swift"
)

type knownType struct {
	name    string
	kind    swift.NominalKind
	builtin swift.BuiltinKind
}

// knownTypes are the standard library types with a one-letter 'S' form.
var knownTypes = map[byte]knownType{
	'a': {name: "Array", kind: swift.Struct},
	'b': {name: "Bool", kind: swift.Struct, builtin: swift.BuiltinBool},
	'c': {name: "UnicodeScalar", kind: swift.Struct},
	'd': {name: "Double", kind: swift.Struct, builtin: swift.BuiltinDouble},
	'f': {name: "Float", kind: swift.Struct, builtin: swift.BuiltinFloat},
	'i': {name: "Int", kind: swift.Struct, builtin: swift.BuiltinInt},
	'P': {name: "UnsafePointer", kind: swift.Struct},
	'p': {name: "UnsafeMutablePointer", kind: swift.Struct},
	'Q': {name: "ImplicitlyUnwrappedOptional", kind: swift.Enum},
	'q': {name: "Optional", kind: swift.Enum},
	'R': {name: "UnsafeBufferPointer", kind: swift.Struct},
	'r': {name: "UnsafeMutableBufferPointer", kind: swift.Struct},
	'S': {name: "String", kind: swift.Struct},
	'u': {name: "UInt", kind: swift.Struct, builtin: swift.BuiltinUInt},
	'V': {name: "UnsafeRawPointer", kind: swift.Struct},
	'v': {name: "UnsafeMutableRawPointer", kind: swift.Struct},
}

func (k knownType) path() swift.EntityPath {
	return swift.ModulePath(swift.StdlibModule).Child(k.kind, swift.Ident(k.name))
}

func (k knownType) typ() swift.SignatureType {
	if k.builtin != 0 {
		return &swift.BuiltinType{Kind: k.builtin}
	}
	return swift.Nominal(k.path())
}

var nominalKinds = map[byte]swift.NominalKind{
	'C': swift.Class,
	'V': swift.Struct,
	'O': swift.Enum,
	'P': swift.Protocol,
}

// parseModule reads a module reference.
func (p *parser) parseModule() (swift.EntityPath, error) {
	switch c := p.peek(); {
	case c == 's':
		p.consume()
		return swift.ModulePath(swift.StdlibModule), nil
	case c == 'S':
		p.consume()
		switch p.peek() {
		case 'o':
			p.consume()
			return swift.ModulePath(swift.ObjCModule), nil
		case 'C':
			p.consume()
			return swift.ModulePath(swift.ClangModule), nil
		case 's':
			p.consume()
			return swift.ModulePath(swift.StdlibModule), nil
		}
		s, err := p.readSubstitution()
		if err != nil {
			return swift.EntityPath{}, err
		}
		if !s.module {
			return swift.EntityPath{}, p.failf(ErrBadSubstitution, "to %s, expected a module", s.path)
		}
		return s.path, nil
	case p.canStartIdentifier():
		id, err := p.parseIdentifier()
		if err != nil {
			return swift.EntityPath{}, err
		}
		path := swift.EntityPath{Module: id}
		p.push(substitution{path: path, module: true})
		return path, nil
	case c == 0:
		return swift.EntityPath{}, p.fail(ErrUnexpectedEnd)
	default:
		return swift.EntityPath{}, p.failf(ErrUnexpectedChar, "%q, expected module", c)
	}
}

// parseContext reads the scope an entity is declared in: a module or a
// nominal type.
func (p *parser) parseContext() (swift.EntityPath, error) {
	switch c := p.peek(); c {
	case 'C', 'V', 'O', 'P':
		t, err := p.parseNominal()
		if err != nil {
			return swift.EntityPath{}, err
		}
		return t.Path, nil
	case 'S':
		if k, ok := knownTypes[p.peekAt(1)]; ok {
			p.pos += 2
			return k.path(), nil
		}
		if isDigit(p.peekAt(1)) || p.peekAt(1) == '_' {
			p.consume()
			s, err := p.readSubstitution()
			if err != nil {
				return swift.EntityPath{}, err
			}
			if s.typ != nil {
				if _, ok := s.typ.(*swift.NominalType); !ok {
					return swift.EntityPath{}, p.failf(ErrBadSubstitution, "to %s, expected a context", s.typ)
				}
			}
			return s.path, nil
		}
		return p.parseModule()
	case 'E', 'e':
		// Extensions are owned by the extended type; the declaring module
		// and any extension requirements are dropped.
		p.consume()
		if _, err := p.parseModule(); err != nil {
			return swift.EntityPath{}, err
		}
		if c == 'e' {
			if _, err := p.parseGenericSignature(); err != nil {
				return swift.EntityPath{}, err
			}
		}
		return p.parseContext()
	case 'F', 'I':
		// Function-local contexts.
		return swift.EntityPath{}, ErrNotASymbol
	}
	return p.parseModule()
}

// parseNominal reads ('C'|'V'|'O'|'P') context decl-name and records the
// result as a substitution.
func (p *parser) parseNominal() (*swift.NominalType, error) {
	kind, ok := nominalKinds[p.peek()]
	if !ok {
		if p.eof() {
			return nil, p.fail(ErrUnexpectedEnd)
		}
		return nil, p.failf(ErrUnexpectedChar, "%q, expected nominal type", p.peek())
	}
	p.consume()
	ctx, err := p.parseContext()
	if err != nil {
		return nil, err
	}
	name, err := p.parseDeclName()
	if err != nil {
		return nil, err
	}
	t := swift.Nominal(ctx.Child(kind, name))
	p.push(substitution{path: t.Path, typ: t})
	return t, nil
}

// parseProtocol reads a protocol reference: a substitution naming one, or a
// context followed by the protocol's decl-name.
func (p *parser) parseProtocol() (swift.EntityPath, error) {
	var ctx swift.EntityPath
	if p.peek() == 'S' && (isDigit(p.peekAt(1)) || p.peekAt(1) == '_') {
		p.consume()
		s, err := p.readSubstitution()
		if err != nil {
			return swift.EntityPath{}, err
		}
		if nt, ok := s.typ.(*swift.NominalType); ok && nt.Kind() == swift.Protocol {
			return nt.Path, nil
		}
		if s.typ != nil {
			if _, ok := s.typ.(*swift.NominalType); !ok {
				return swift.EntityPath{}, p.failf(ErrBadSubstitution, "to %s, expected a protocol", s.typ)
			}
		}
		ctx = s.path
	} else {
		var err error
		if ctx, err = p.parseContext(); err != nil {
			return swift.EntityPath{}, err
		}
	}
	name, err := p.parseDeclName()
	if err != nil {
		return swift.EntityPath{}, err
	}
	path := ctx.Child(swift.Protocol, name)
	p.push(substitution{path: path, typ: swift.Nominal(path)})
	return path, nil
}

// parseGenericParamIndex reads 'x' as (0,0), an index N as (0,N+1) and
// 'd' M N as (M+1,N).
func (p *parser) parseGenericParamIndex() (depth, index int, err error) {
	if p.consumeIf('x') {
		return 0, 0, nil
	}
	if p.consumeIf('d') {
		if depth, err = p.readIndex(); err != nil {
			return 0, 0, err
		}
		if index, err = p.readIndex(); err != nil {
			return 0, 0, err
		}
		return depth + 1, index, nil
	}
	if index, err = p.readIndex(); err != nil {
		return 0, 0, err
	}
	return 0, index + 1, nil
}

// parseAssocName reads one associated type name, which may be given as a
// protocol-qualified name ('P' protocol name).
func (p *parser) parseAssocName() (swift.Identifier, error) {
	if p.consumeIf('P') {
		if _, err := p.parseProtocol(); err != nil {
			return swift.Identifier{}, err
		}
	}
	return p.parseIdentifier()
}

// parseGenericSignature reads the counts, requirements and terminating 'r'
// after a 'u'.
func (p *parser) parseGenericSignature() (*swift.GenericSignature, error) {
	sig := &swift.GenericSignature{}
	for {
		c := p.peek()
		if c == 'z' {
			p.consume()
			sig.ParamCounts = append(sig.ParamCounts, 0)
			continue
		}
		if c == '_' || isDigit(c) {
			n, err := p.readIndex()
			if err != nil {
				return nil, err
			}
			sig.ParamCounts = append(sig.ParamCounts, n+1)
			continue
		}
		break
	}
	if len(sig.ParamCounts) == 0 {
		sig.ParamCounts = []int{1}
	}
	if p.consumeIf('R') {
		for p.peek() != 'r' {
			if p.eof() {
				return nil, p.fail(ErrUnexpectedEnd)
			}
			req, err := p.parseRequirement()
			if err != nil {
				return nil, err
			}
			sig.Requirements = append(sig.Requirements, req)
		}
	}
	if err := p.expect('r'); err != nil {
		return nil, err
	}
	return sig, nil
}

func (p *parser) parseRequirement() (swift.Requirement, error) {
	t, err := p.parseType()
	if err != nil {
		return swift.Requirement{}, err
	}
	param, ok := t.(*swift.GenericRefType)
	if !ok {
		return swift.Requirement{}, p.failf(ErrUnknownType, "%s as requirement subject", t)
	}
	switch p.peek() {
	case 'z':
		p.consume()
		c, err := p.parseType()
		if err != nil {
			return swift.Requirement{}, err
		}
		return swift.Requirement{Param: param, Kind: swift.SameType, Constraint: c}, nil
	case 'C':
		c, err := p.parseNominal()
		if err != nil {
			return swift.Requirement{}, err
		}
		return swift.Requirement{Param: param, Kind: swift.BaseClass, Constraint: c}, nil
	}
	proto, err := p.parseProtocol()
	if err != nil {
		return swift.Requirement{}, err
	}
	return swift.Requirement{Param: param, Kind: swift.Conformance, Constraint: swift.Nominal(proto)}, nil
}

// parseType reads one type production.
func (p *parser) parseType() (swift.SignatureType, error) {
	if p.eof() {
		return nil, p.fail(ErrUnexpectedEnd)
	}
	start := p.pos
	switch c := p.consume(); c {
	case 'B':
		return p.parseBuiltin()
	case 'S':
		if k, ok := knownTypes[p.peek()]; ok {
			p.consume()
			return k.typ(), nil
		}
		s, err := p.readSubstitution()
		if err != nil {
			return nil, err
		}
		if s.typ == nil {
			return nil, &Error{Symbol: p.symbol, Pos: start, Err: ErrBadSubstitution}
		}
		return s.typ, nil
	case 'C', 'V', 'O':
		p.pos--
		return p.parseNominal()
	case 'G':
		base, err := p.parseType()
		if err != nil {
			return nil, err
		}
		nt, ok := base.(*swift.NominalType)
		if !ok {
			return nil, &Error{Symbol: p.symbol, Pos: start, Err: ErrUnknownType}
		}
		bg := &swift.BoundGenericType{Base: nt}
		for !p.consumeIf('_') {
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			bg.Args = append(bg.Args, arg)
		}
		if len(bg.Args) == 0 {
			return nil, &Error{Symbol: p.symbol, Pos: start, Err: ErrUnknownType}
		}
		return bg, nil
	case 'P':
		if p.consumeIf('M') {
			inst, err := p.parseType()
			if err != nil {
				return nil, err
			}
			return &swift.MetatypeType{Instance: inst, Existential: true}, nil
		}
		pl := &swift.ProtocolListType{}
		for !p.consumeIf('_') {
			proto, err := p.parseProtocol()
			if err != nil {
				return nil, err
			}
			pl.Protocols = append(pl.Protocols, proto)
		}
		return pl, nil
	case 'M':
		inst, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &swift.MetatypeType{Instance: inst}, nil
	case 'T', 't':
		return p.parseTuple(c == 't')
	case 'R':
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		f := t.Flags()
		f.Reference = true
		return t.WithFlags(f), nil
	case 'F', 'K':
		ft := &swift.FunctionType{Throws: p.consumeIf('z')}
		var err error
		if ft.Params, err = p.parseType(); err != nil {
			return nil, err
		}
		if ft.Result, err = p.parseType(); err != nil {
			return nil, err
		}
		return ft, nil
	case 'f':
		self, err := p.parseType()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &swift.FunctionType{Params: self, Result: inner}, nil
	case 'x':
		return &swift.GenericRefType{}, nil
	case 'q':
		d, i, err := p.parseGenericParamIndex()
		if err != nil {
			return nil, err
		}
		return &swift.GenericRefType{Depth: d, Index: i}, nil
	case 'w', 'W':
		d, i, err := p.parseGenericParamIndex()
		if err != nil {
			return nil, err
		}
		ref := &swift.GenericRefType{Depth: d, Index: i}
		for {
			name, err := p.parseAssocName()
			if err != nil {
				return nil, err
			}
			ref.AssocPath = append(ref.AssocPath, name)
			if c == 'w' || p.consumeIf('_') {
				break
			}
		}
		p.push(substitution{typ: ref})
		return ref, nil
	case 'u':
		if _, err := p.parseGenericSignature(); err != nil {
			return nil, err
		}
		return p.parseType()
	case 'X':
		return p.parseExtendedType(start)
	}
	return nil, &Error{Symbol: p.symbol, Pos: start, Err: ErrUnknownType}
}

func (p *parser) parseBuiltin() (swift.SignatureType, error) {
	start := p.pos - 1
	switch p.consume() {
	case 'i', 'f':
		kind := swift.BuiltinRawInt
		if p.data[p.pos-1] == 'f' {
			kind = swift.BuiltinRawFloat
		}
		bits, err := p.readNatural()
		if err != nil {
			return nil, err
		}
		if err := p.expect('_'); err != nil {
			return nil, err
		}
		return &swift.BuiltinType{Kind: kind, Bits: bits}, nil
	case 'w':
		return &swift.BuiltinType{Kind: swift.BuiltinWord}, nil
	case 'o':
		return &swift.BuiltinType{Kind: swift.BuiltinNativeObj}, nil
	case 'O':
		return &swift.BuiltinType{Kind: swift.BuiltinUnknownObj}, nil
	case 'p':
		return &swift.BuiltinType{Kind: swift.BuiltinRawPointer}, nil
	case 'b':
		return &swift.BuiltinType{Kind: swift.BuiltinBridgeObj}, nil
	case 'B':
		return &swift.BuiltinType{Kind: swift.BuiltinUnsafeValue}, nil
	case 0:
		return nil, p.fail(ErrUnexpectedEnd)
	}
	return nil, &Error{Symbol: p.symbol, Pos: start, Err: ErrUnknownType}
}

// parseTuple reads elements up to '_'. A variadic tuple flags its last
// element.
func (p *parser) parseTuple(variadic bool) (swift.SignatureType, error) {
	tt := &swift.TupleType{}
	for !p.consumeIf('_') {
		var el swift.TupleElement
		if p.canStartIdentifier() {
			name, err := p.parseIdentifier()
			if err != nil {
				return nil, err
			}
			el.Name = name
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		el.Type = t
		tt.Elements = append(tt.Elements, el)
	}
	if variadic && len(tt.Elements) > 0 {
		last := &tt.Elements[len(tt.Elements)-1]
		f := last.Type.Flags()
		f.Variadic = true
		last.Type = last.Type.WithFlags(f)
	}
	return tt, nil
}

// parseExtendedType handles the 'X' forms: ownership wrappers, which are
// transparent, and metatypes with an explicit representation.
func (p *parser) parseExtendedType(start int) (swift.SignatureType, error) {
	switch p.consume() {
	case 'o', 'u', 'w':
		return p.parseType()
	case 'M':
		if err := p.skipMetatypeRepr(); err != nil {
			return nil, err
		}
		inst, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &swift.MetatypeType{Instance: inst}, nil
	case 'P':
		if err := p.expect('M'); err != nil {
			return nil, err
		}
		if err := p.skipMetatypeRepr(); err != nil {
			return nil, err
		}
		inst, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &swift.MetatypeType{Instance: inst, Existential: true}, nil
	case 0:
		return nil, p.fail(ErrUnexpectedEnd)
	}
	return nil, &Error{Symbol: p.symbol, Pos: start, Err: ErrUnknownType}
}

func (p *parser) skipMetatypeRepr() error {
	switch p.consume() {
	case 't', 'T', 'o':
		return nil
	case 0:
		return p.fail(ErrUnexpectedEnd)
	}
	p.pos--
	return p.failf(ErrUnexpectedChar, "%q, expected metatype representation", p.peek())
}
