package demangle

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/appsworld/swiftbind/internal/punycode"
	"github.com/appsworld/swiftbind/swift"
)

func TestDecodeSymbols(t *testing.T) {
	cases := []struct {
		name string
		in   string
		kind swift.MemberKind
		out  string
	}{
		{name: "Function", in: "_TF4main3fooFT_T_", kind: swift.KindFunction, out: "main.foo() -> ()"},
		{name: "MachOUnderscore", in: "__TF4main3fooFT_T_", kind: swift.KindFunction, out: "main.foo() -> ()"},
		{name: "Method", in: "_TFC4main3Foo3barfS0_FT_T_", kind: swift.KindMethod, out: "main.Foo.bar() -> ()"},
		{name: "StaticMethod", in: "_TZFC4main3Foo3bazfMS0_FT_T_", kind: swift.KindStaticMethod, out: "static main.Foo.baz() -> ()"},
		{name: "NestedMethod", in: "_TFVC4main5Outer5Inner3runfS1_FT_T_", kind: swift.KindMethod, out: "main.Outer.Inner.run() -> ()"},
		{name: "MethodOwnerSelf", in: "_TFC4main3Foo3barfT_T_", kind: swift.KindMethod, out: "main.Foo.bar() -> ()"},
		{name: "MethodOwnerSelfLabels", in: "_TFC3foo3bar3basfT3zimCS_3zim_T_", kind: swift.KindMethod, out: "foo.bar.bas(zim: foo.zim) -> ()"},
		{name: "MethodOwnerSelfThrows", in: "_TFV4main3Box4loadfzSiSS", kind: swift.KindMethod, out: "main.Box.load(Int) throws -> Swift.String"},
		{name: "StaticMethodOwnerSelf", in: "_TZFC4main3Foo3bazfT_T_", kind: swift.KindStaticMethod, out: "static main.Foo.baz() -> ()"},
		{name: "Constructor", in: "_TFC4main3FooCfMS0_FT1xSi_S0_", kind: swift.KindConstructor, out: "main.Foo.init(x: Int) -> main.Foo"},
		{name: "Initializer", in: "_TFC4main3FoocfS0_FT_S0_", kind: swift.KindInitializer, out: "main.Foo.init() -> main.Foo"},
		{name: "InitializerOwnerSelf", in: "_TFC4main3FoocfT_S0_", kind: swift.KindInitializer, out: "main.Foo.init() -> main.Foo"},
		{name: "ConstructorOwnerSelf", in: "_TFC4main3FooCfT1xSi_S0_", kind: swift.KindConstructor, out: "main.Foo.init(x: Int) -> main.Foo"},
		{name: "Deallocator", in: "_TFC4main3FooD", kind: swift.KindDeallocator, out: "main.Foo.deinit() -> ()"},
		{name: "Destructor", in: "_TFC4main3Food", kind: swift.KindDestructor, out: "main.Foo.deinit() -> ()"},
		{name: "Getter", in: "_TFC4main3Foog5countSi", kind: swift.KindGetter, out: "main.Foo.count.getter() -> Int"},
		{name: "Setter", in: "_TFC4main3Foos5countSi", kind: swift.KindSetter, out: "main.Foo.count.setter(Int) -> ()"},
		{name: "Materializer", in: "_TFC4main3Foom5countSi", kind: swift.KindMaterializer, out: "main.Foo.count.materializeForSet() -> Int"},
		{name: "GlobalGetter", in: "_TF4maing7versionSS", kind: swift.KindGetter, out: "main.version.getter() -> Swift.String"},
		{name: "SubscriptGetter", in: "_TFV4main3Boxg9subscriptFSiSS", kind: swift.KindSubscriptGetter, out: "main.Box.subscript.getter(Int) -> Swift.String"},
		{name: "SubscriptSetter", in: "_TFV4main3Boxs9subscriptFSiSS", kind: swift.KindSubscriptSetter, out: "main.Box.subscript.setter(Swift.String, Int) -> ()"},
		{name: "InfixOperator", in: "_TF4mainoi1pFTSiSi_Si", kind: swift.KindFunction, out: "main.+(Int, Int) -> Int"},
		{name: "PrefixOperator", in: "_TF4mainop2ssFSiSi", kind: swift.KindFunction, out: "main.--(Int) -> Int"},
		{name: "CompressedName", in: "_TF4mainX3tdaFT_T_", kind: swift.KindFunction, out: "main.ü() -> ()"},
		{name: "PrivateName", in: "_TF4mainP33_0123456789ABCDEF0123456789ABCDEF6helperFT_T_", kind: swift.KindFunction, out: "main.helper() -> ()"},
		{name: "Generic", in: "_TF4main8identityurFxx", kind: swift.KindFunction, out: "main.identity(τ_0_0) -> τ_0_0"},
		{name: "GenericDepth", in: "_TFC4main3Foo3mapurfS0_FTqd___T_", kind: swift.KindMethod, out: "main.Foo.map(τ_1_0) -> ()"},
		{name: "GenericPair", in: "_TF4main4pairu0_rFTxq__T_", kind: swift.KindFunction, out: "main.pair(τ_0_0, τ_0_1) -> ()"},
		{name: "AssociatedType", in: "_TF4main5firstuRxs8SequencerFxwx8Iterator", kind: swift.KindFunction, out: "main.first(τ_0_0) -> τ_0_0.Iterator"},
		{name: "ProtocolList", in: "_TF4main4takeFPS_5Shape_T_", kind: swift.KindFunction, out: "main.take(main.Shape) -> ()"},
		{name: "Any", in: "_TF4main4takeFP_T_", kind: swift.KindFunction, out: "main.take(Any) -> ()"},
		{name: "ExistentialMetatype", in: "_TF4main4takeFPMP_T_", kind: swift.KindFunction, out: "main.take(Any.Type) -> ()"},
		{name: "Metatype", in: "_TF4main4makeFMCS_3FooT_", kind: swift.KindFunction, out: "main.make(main.Foo.Type) -> ()"},
		{name: "Variadic", in: "_TF4main3sumFtGSaSi__Si", kind: swift.KindFunction, out: "main.sum(Swift.Array<Int>...) -> Int"},
		{name: "InOut", in: "_TF4main4swapFTRSiRSi_T_", kind: swift.KindFunction, out: "main.swap(inout Int, inout Int) -> ()"},
		{name: "Throws", in: "_TF4main3runFzT_T_", kind: swift.KindFunction, out: "main.run() throws -> ()"},
		{name: "Optional", in: "_TF4main4findFSSGSqSi_", kind: swift.KindFunction, out: "main.find(Swift.String) -> Swift.Optional<Int>"},
		{name: "Ownership", in: "_TF4main4keepFXoCS_3FooT_", kind: swift.KindFunction, out: "main.keep(main.Foo) -> ()"},
		{name: "Builtins", in: "_TF4main3rawFBi64_Bp", kind: swift.KindFunction, out: "main.raw(Builtin.Int64) -> Builtin.RawPointer"},
		{name: "Extension", in: "_TFE5MyLibSi7doubledfSiFT_Si", kind: swift.KindMethod, out: "Swift.Int.doubled() -> Int"},
		{name: "ObjCClass", in: "_TFCSo8NSObject4hashfS_FT_Si", kind: swift.KindMethod, out: "__ObjC.NSObject.hash() -> Int"},
		{name: "Variable", in: "_Tv4main7counterSi", kind: swift.KindVariable, out: "main.counter -> Int"},
		{name: "StaticVariable", in: "_TZvC4main3Foo6sharedS0_", kind: swift.KindVariable, out: "static main.Foo.shared -> main.Foo"},
		{name: "Metadata", in: "_TMC4main3Foo", kind: swift.KindMetadata, out: "type metadata for main.Foo"},
		{name: "StdlibMetadata", in: "_TMSi", kind: swift.KindMetadata, out: "type metadata for Int"},
		{name: "AnyMetadata", in: "_TMP_", kind: swift.KindMetadata, out: "type metadata for Any"},
		{name: "NominalDescriptor", in: "_TMnV4main5Point", kind: swift.KindNominalTypeDescriptor, out: "nominal type descriptor for main.Point"},
		{name: "MetadataAccessor", in: "_TMaC4main3Foo", kind: swift.KindMetadataAccessor, out: "type metadata accessor for main.Foo"},
		{name: "ProtocolDescriptor", in: "_TMp4main5Shape", kind: swift.KindProtocolDescriptor, out: "protocol descriptor for main.Shape"},
		{name: "ValueWitnessTable", in: "_TWVV4main5Point", kind: swift.KindValueWitnessTable, out: "value witness table for main.Point"},
		{name: "ProtocolWitnessTable", in: "_TWPV4main5PointS_5ShapeS_", kind: swift.KindProtocolWitnessTable, out: "protocol witness table for main.Point : main.Shape"},
	}

	for _, tc := range cases {
		sym, err := Decode(tc.in)
		if err != nil {
			t.Fatalf("%s: Decode(%q) failed: %v", tc.name, tc.in, err)
		}
		if sym.Kind != tc.kind {
			t.Fatalf("%s: Decode(%q) kind = %s, want %s", tc.name, tc.in, sym.Kind, tc.kind)
		}
		if got := sym.String(); got != tc.out {
			t.Fatalf("%s: Decode(%q) = %q, want %q", tc.name, tc.in, got, tc.out)
		}
		if sym.Mangled != tc.in {
			t.Fatalf("%s: Mangled = %q, want %q", tc.name, sym.Mangled, tc.in)
		}
	}
}

func TestDecodeMethodStructure(t *testing.T) {
	foo := swift.ModulePath("main").Child(swift.Class, swift.Ident("Foo"))
	want := &swift.DecodedSymbol{
		Owner:   foo,
		Kind:    swift.KindMethod,
		Name:    swift.Ident("bar"),
		Params:  swift.Void(),
		Return:  swift.Void(),
		Self:    swift.Nominal(foo),
		Mangled: "_TFC4main3Foo3barfS0_FT_T_",
	}
	got, err := Decode(want.Mangled)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeOwnerSelfStructure(t *testing.T) {
	bar := swift.ModulePath("foo").Child(swift.Class, swift.Ident("bar"))
	zim := swift.ModulePath("foo").Child(swift.Class, swift.Ident("zim"))
	want := &swift.DecodedSymbol{
		Owner: bar,
		Kind:  swift.KindMethod,
		Name:  swift.Ident("bas"),
		Params: &swift.TupleType{Elements: []swift.TupleElement{
			{Name: swift.Ident("zim"), Type: swift.Nominal(zim)},
		}},
		Return:  swift.Void(),
		Self:    swift.Nominal(bar),
		Mangled: "_TFC3foo3bar3basfT3zimCS_3zim_T_",
	}
	got, err := Decode(want.Mangled)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeIdentifiers(t *testing.T) {
	sym, err := Decode("_TF4main5helloFT_T_")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if sym.Name.Compressed || sym.Name.Name != "hello" {
		t.Fatalf("plain name = %+v", sym.Name)
	}

	sym, err = Decode("_TF4mainX3tdaFT_T_")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !sym.Name.Compressed || sym.Name.Name != "ü" {
		t.Fatalf("compressed name = %+v", sym.Name)
	}

	sym, err = Decode("_TF4mainoi2eeFTSiSi_Sb")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if sym.Name.Name != "==" || sym.Name.Operator != swift.InfixOperator || !sym.IsOperator() {
		t.Fatalf("operator name = %+v", sym.Name)
	}
	if !sym.IsTopLevel() || sym.Module() != "main" {
		t.Fatalf("operator owner = %s", sym.Owner)
	}
}

func TestOperatorAlphabet(t *testing.T) {
	letters := "acdeglmnopqrstxz"
	glyphs := "&@/=><*!|+?%-~^."
	for i := 0; i < len(letters); i++ {
		in := "_TF4mainop1" + letters[i:i+1] + "FSiSi"
		sym, err := Decode(in)
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", in, err)
		}
		if want := glyphs[i : i+1]; sym.Name.Name != want {
			t.Fatalf("Decode(%q) operator = %q, want %q", in, sym.Name.Name, want)
		}
	}
	for _, bad := range "bfhijkuvwy" {
		in := "_TF4mainop1" + string(bad) + "FSiSi"
		if _, err := Decode(in); !errors.Is(err, ErrInvalidOperator) {
			t.Fatalf("Decode(%q) = %v, want ErrInvalidOperator", in, err)
		}
	}
}

func TestDecodeGenericSignature(t *testing.T) {
	sym, err := Decode("_TF4main3maxuRxs10ComparablerFTxx_x")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if sym.Generics == nil {
		t.Fatalf("missing generic signature")
	}
	if diff := cmp.Diff([]int{1}, sym.Generics.ParamCounts); diff != "" {
		t.Fatalf("ParamCounts mismatch (-want +got):\n%s", diff)
	}
	if len(sym.Generics.Requirements) != 1 {
		t.Fatalf("got %d requirements, want 1", len(sym.Generics.Requirements))
	}
	req := sym.Generics.Requirements[0]
	if req.Kind != swift.Conformance || req.Constraint.String() != "Swift.Comparable" {
		t.Fatalf("requirement = %v %s", req.Kind, req.Constraint)
	}
	if req.Param.Depth != 0 || req.Param.Index != 0 {
		t.Fatalf("requirement param = (%d, %d)", req.Param.Depth, req.Param.Index)
	}

	sym, err = Decode("_TFC4main3Foo3mapurfS0_FTqd___T_")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	ref, ok := swift.Unwrap(sym.Params).(*swift.GenericRefType)
	if !ok {
		t.Fatalf("params = %T, want *swift.GenericRefType", swift.Unwrap(sym.Params))
	}
	if ref.Depth != 1 || ref.Index != 0 {
		t.Fatalf("qd__ = (%d, %d), want (1, 0)", ref.Depth, ref.Index)
	}
}

func TestDecodeFlags(t *testing.T) {
	sym, err := Decode("_TF4main3sumFtGSaSi__Si")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	el := swift.Elements(sym.Params)
	if len(el) != 1 || !el[0].Type.Flags().Variadic {
		t.Fatalf("variadic element missing flag: %s", sym.Params)
	}

	sym, err = Decode("_TF4main4swapFTRSiRSi_T_")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i, e := range swift.Elements(sym.Params) {
		if !e.Type.Flags().Reference {
			t.Fatalf("element %d missing Reference flag", i)
		}
	}
}

func TestDecodeNotASymbol(t *testing.T) {
	for _, in := range []string{
		"main",
		"_main",
		"_$s4main3fooyyF",
		"_TTSg5Si___TF4main3fooFT_T_",
		"_TFF4main3fooFT_T_U_FT_T_",
		"_TFC4main3Fooi5countSi",
		"_TFC4main3FooW5countSi",
		"_TFC4main3Fooau5countSi",
		"_TIF4main3fooFSiT_A_",
		"_TMmC4main3Foo",
		"_TMPC4main3Foo",
		"_TMLC4main3Foo",
		"_TWaV4main5Point",
	} {
		sym, err := Decode(in)
		if !errors.Is(err, ErrNotASymbol) {
			t.Fatalf("Decode(%q) = %v, %v; want ErrNotASymbol", in, sym, err)
		}
		var derr *Error
		if errors.As(err, &derr) {
			t.Fatalf("Decode(%q) returned a decode failure, want a plain ErrNotASymbol", in)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
		pos  int
	}{
		{name: "Truncated", in: "_TF4main3foo", want: ErrUnexpectedEnd, pos: 12},
		{name: "ShortIdentifier", in: "_TF4main10fooFT_T_", want: ErrUnexpectedEnd, pos: -1},
		{name: "Trailing", in: "_TF4main3fooFT_T_junk", want: ErrTrailing, pos: 17},
		{name: "UnknownType", in: "_TF4main3fooFT_Qx", want: ErrUnknownType, pos: 15},
		{name: "BadSubstitution", in: "_TF4main3fooFS1_T_", want: ErrBadSubstitution, pos: -1},
		{name: "BadOperatorLetter", in: "_TF4mainoi1bFTSiSi_Si", want: ErrInvalidOperator, pos: 11},
		{name: "UpperOperatorLetter", in: "_TF4mainoi1PFTSiSi_Si", want: ErrInvalidOperator, pos: 11},
		{name: "BadFixity", in: "_TF4mainoq1pFT_T_", want: ErrUnexpectedChar, pos: 9},
		{name: "BadPunycode", in: "_TF4mainX3a9bFT_T_", want: punycode.ErrMalformed, pos: -1},
	}

	for _, tc := range cases {
		_, err := Decode(tc.in)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: Decode(%q) = %v, want %v", tc.name, tc.in, err, tc.want)
		}
		var derr *Error
		if !errors.As(err, &derr) {
			t.Fatalf("%s: Decode(%q) error %T is not *Error", tc.name, tc.in, err)
		}
		if derr.Symbol != tc.in {
			t.Fatalf("%s: error symbol = %q, want %q", tc.name, derr.Symbol, tc.in)
		}
		if tc.pos >= 0 && derr.Pos != tc.pos {
			t.Fatalf("%s: error at %d, want %d", tc.name, derr.Pos, tc.pos)
		}
	}
}

func TestOwnerOf(t *testing.T) {
	point := swift.ModulePath("main").Child(swift.Struct, swift.Ident("Point"))
	cases := []struct {
		typ  swift.SignatureType
		want string
	}{
		{swift.Nominal(point), "main.Point"},
		{&swift.BoundGenericType{Base: swift.Nominal(point), Args: []swift.SignatureType{swift.Void()}}, "main.Point"},
		{&swift.BuiltinType{Kind: swift.BuiltinInt}, "Swift.Int"},
		{&swift.BuiltinType{Kind: swift.BuiltinRawPointer}, "Builtin"},
		{&swift.MetatypeType{Instance: swift.Nominal(point)}, "main.Point"},
		{swift.Void(), "Swift"},
	}
	for _, tc := range cases {
		if got := OwnerOf(tc.typ).String(); got != tc.want {
			t.Fatalf("OwnerOf(%s) = %q, want %q", tc.typ, got, tc.want)
		}
	}
}
