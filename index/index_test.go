package index

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/appsworld/swiftbind/swift"
	"github.com/appsworld/swiftbind/swift/demangle"
)

func decodeAll(t *testing.T, names ...string) []*swift.DecodedSymbol {
	t.Helper()
	syms := make([]*swift.DecodedSymbol, 0, len(names))
	for _, n := range names {
		sym, err := demangle.Decode(n)
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", n, err)
		}
		syms = append(syms, sym)
	}
	return syms
}

func mangled(b Bucket) []string {
	out := make([]string, len(b))
	for i, s := range b {
		out[i] = s.Mangled
	}
	return out
}

var fooPath = swift.ModulePath("main").Child(swift.Class, swift.Ident("Foo"))

func TestBuild(t *testing.T) {
	syms := decodeAll(t,
		"_TF4main3fooFT_T_",
		"_TF4main3fooFSiT_",
		"_TF4mainoi1pFTSiSi_Si",
		"_Tv4main7counterSi",
		"_TF4maing7versionSS",
		"_TFC4main3Foo3barfS0_FT_T_",
		"_TZFC4main3Foo3bazfMS0_FT_T_",
		"_TFC4main3FooCfMS0_FT1xSi_S0_",
		"_TFC4main3FoocfS0_FT_S0_",
		"_TFC4main3FooD",
		"_TFC4main3Foog5countSi",
		"_TFC4main3Foos5countSi",
		"_TZFC4main3Foog6sharedS0_",
		"_TFC4main3Foog9subscriptFSiSS",
		"_TMC4main3Foo",
		"_TMSi",
	)
	ix := Build(syms)

	if ix.Len() != len(syms) {
		t.Fatalf("Len() = %d, want %d", ix.Len(), len(syms))
	}
	if diff := cmp.Diff([]string{"Swift", "main"}, ix.Modules()); diff != "" {
		t.Fatalf("Modules() mismatch (-want +got):\n%s", diff)
	}

	mc := ix.Module("main")
	if mc == nil {
		t.Fatalf("module main not indexed")
	}
	if diff := cmp.Diff([]string{"_TF4main3fooFT_T_", "_TF4main3fooFSiT_"}, mangled(mc.Functions["foo"])); diff != "" {
		t.Fatalf("Functions[foo] mismatch (-want +got):\n%s", diff)
	}
	if len(mc.Operators["+"]) != 1 || len(mc.Functions["+"]) != 0 {
		t.Fatalf("operator filed wrongly: ops=%d funcs=%d", len(mc.Operators["+"]), len(mc.Functions["+"]))
	}
	if len(mc.Variables["counter"]) != 1 {
		t.Fatalf("Variables[counter] = %d entries", len(mc.Variables["counter"]))
	}
	if pc := mc.Properties["version"]; pc == nil || len(pc.Getter) != 1 {
		t.Fatalf("Properties[version] = %+v", pc)
	}
	if diff := cmp.Diff([]string{"main.Foo"}, mc.TypeNames()); diff != "" {
		t.Fatalf("TypeNames() mismatch (-want +got):\n%s", diff)
	}

	cc := ix.Type(fooPath)
	if cc == nil {
		t.Fatalf("main.Foo not indexed")
	}
	checks := []struct {
		name string
		got  Bucket
		want []string
	}{
		{"Methods[bar]", cc.Methods["bar"], []string{"_TFC4main3Foo3barfS0_FT_T_"}},
		{"StaticMethods[baz]", cc.StaticMethods["baz"], []string{"_TZFC4main3Foo3bazfMS0_FT_T_"}},
		{"Constructors", cc.Constructors, []string{"_TFC4main3FooCfMS0_FT1xSi_S0_", "_TFC4main3FoocfS0_FT_S0_"}},
		{"Destructors", cc.Destructors, []string{"_TFC4main3FooD"}},
		{"Properties[count].Getter", cc.Properties["count"].Getter, []string{"_TFC4main3Foog5countSi"}},
		{"Properties[count].Setter", cc.Properties["count"].Setter, []string{"_TFC4main3Foos5countSi"}},
		{"StaticProperties[shared].Getter", cc.StaticProperties["shared"].Getter, []string{"_TZFC4main3Foog6sharedS0_"}},
		{"Subscripts.Getter", cc.Subscripts.Getter, []string{"_TFC4main3Foog9subscriptFSiSS"}},
		{"Metadata", cc.Metadata, []string{"_TMC4main3Foo"}},
	}
	for _, c := range checks {
		if diff := cmp.Diff(c.want, mangled(c.got)); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", c.name, diff)
		}
	}

	intPath := swift.ModulePath("Swift").Child(swift.Struct, swift.Ident("Int"))
	if cc := ix.Type(intPath); cc == nil || len(cc.Metadata) != 1 {
		t.Fatalf("Swift.Int metadata not indexed")
	}
}

func TestAccessorPrefixRekeying(t *testing.T) {
	get := &swift.DecodedSymbol{Owner: fooPath, Kind: swift.KindMethod, Name: swift.Ident("get_title"), Mangled: "get"}
	set := &swift.DecodedSymbol{Owner: fooPath, Kind: swift.KindMethod, Name: swift.Ident("set_title"), Mangled: "set"}
	mat := &swift.DecodedSymbol{Owner: fooPath, Kind: swift.KindMethod, Name: swift.Ident("materializeforset_title"), Mangled: "mat"}
	plain := &swift.DecodedSymbol{Owner: fooPath, Kind: swift.KindMethod, Name: swift.Ident("getter"), Mangled: "plain"}
	ix := Build([]*swift.DecodedSymbol{get, set, mat, plain})

	cc := ix.Type(fooPath)
	pc := cc.Properties["title"]
	if pc == nil {
		t.Fatalf("title property missing; methods = %v", cc.Methods)
	}
	if len(pc.Getter) != 1 || pc.Getter[0] != get || len(pc.Setter) != 1 || pc.Setter[0] != set ||
		len(pc.Materializer) != 1 || pc.Materializer[0] != mat {
		t.Fatalf("accessors filed wrongly: %+v", pc)
	}
	for _, prefixed := range []string{"get_title", "set_title", "materializeforset_title"} {
		if _, ok := cc.Methods[prefixed]; ok {
			t.Fatalf("%s should not be filed as a method", prefixed)
		}
	}
	if len(cc.Methods["getter"]) != 1 {
		t.Fatalf("plain method missing")
	}
}

func TestLookup(t *testing.T) {
	ix := Build(decodeAll(t,
		"_TF4main3fooFT_T_",
		"_TF4mainoi1pFTSiSi_Si",
		"_TFC4main3Foo3barfS0_FT_T_",
		"_TZFC4main3Foo3bazfMS0_FT_T_",
		"_TFC4main3FooCfMS0_FT1xSi_S0_",
		"_TFC4main3Foog5countSi",
		"_TFC4main3Foog9subscriptFSiSS",
	))
	main := swift.ModulePath("main")
	cases := []struct {
		name string
		q    Query
		want int
	}{
		{"Function", Query{Owner: main, Kind: swift.KindFunction, Name: "foo"}, 1},
		{"Operator", Query{Owner: main, Kind: swift.KindFunction, Name: "+"}, 1},
		{"Method", Query{Owner: fooPath, Kind: swift.KindMethod, Name: "bar"}, 1},
		{"StaticMethod", Query{Owner: fooPath, Kind: swift.KindStaticMethod, Name: "baz"}, 1},
		{"StaticFlag", Query{Owner: fooPath, Kind: swift.KindMethod, Name: "baz", Static: true}, 1},
		{"Constructor", Query{Owner: fooPath, Kind: swift.KindConstructor}, 1},
		{"Getter", Query{Owner: fooPath, Kind: swift.KindGetter, Name: "count"}, 1},
		{"MissingSetter", Query{Owner: fooPath, Kind: swift.KindSetter, Name: "count"}, 0},
		{"Subscript", Query{Owner: fooPath, Kind: swift.KindSubscriptGetter, Name: "subscript"}, 1},
		{"WrongScope", Query{Owner: main, Kind: swift.KindMethod, Name: "bar"}, 0},
		{"UnknownModule", Query{Owner: swift.ModulePath("other"), Kind: swift.KindFunction, Name: "foo"}, 0},
		{"UnknownType", Query{Owner: main.Child(swift.Struct, swift.Ident("Nope")), Kind: swift.KindMethod, Name: "bar"}, 0},
	}
	for _, tc := range cases {
		if got := len(ix.Lookup(tc.q)); got != tc.want {
			t.Fatalf("%s: Lookup returned %d candidates, want %d", tc.name, got, tc.want)
		}
	}
}

func TestMerge(t *testing.T) {
	a := Build(decodeAll(t, "_TF4main3fooFT_T_"))
	b := Build(decodeAll(t, "_TF4main3fooFSiT_", "_TF5other3barFT_T_"))
	a.Merge(b)
	a.Merge(nil)

	if a.Len() != 3 {
		t.Fatalf("Len() = %d after merge, want 3", a.Len())
	}
	if got := len(a.Module("main").Functions["foo"]); got != 2 {
		t.Fatalf("merged foo bucket has %d entries, want 2", got)
	}
	if a.Module("other") == nil {
		t.Fatalf("module from merged index missing")
	}
	all := slices.Collect(a.All())
	if all[0].Mangled != "_TF4main3fooFT_T_" || all[2].Mangled != "_TF5other3barFT_T_" {
		t.Fatalf("All() order = %v", all)
	}
}

func TestNormalizedKeys(t *testing.T) {
	sym := &swift.DecodedSymbol{
		Owner: swift.ModulePath("main"),
		Kind:  swift.KindFunction,
		Name:  swift.Ident("cafe\u0301"),
	}
	ix := Build([]*swift.DecodedSymbol{sym})
	got := ix.Lookup(Query{Owner: swift.ModulePath("main"), Kind: swift.KindFunction, Name: "caf\u00e9"})
	if len(got) != 1 {
		t.Fatalf("precomposed lookup found %d symbols, want 1", len(got))
	}
}
