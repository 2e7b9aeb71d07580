package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/appsworld/swiftbind/match"
	"github.com/appsworld/swiftbind/swift"
)

var (
	resolveModule   string
	resolveOwners   []string
	resolveName     string
	resolveRole     string
	resolveOperator string
	resolveStatic   bool
	resolveParams   []string
	resolveReturn   string
	resolveGenerics []string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <binary>",
	Short: "Resolve a declaration to its symbol",
	Long: `Resolve one declaration against the Swift symbols of a binary.

The declaration is described with flags:
  --module main --owner class:Foo --name bar --param x:Int --return String
  --role constructor --param _:Int
  --name + --operator infix --param lhs:Int --param rhs:Int --return Int
  --name map --generic U:1:0 --param _:U

Parameter types may be prefixed with "inout " or suffixed with "..." for
variadics.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.StringVarP(&resolveModule, "module", "m", "", "declaring module (required)")
	f.StringArrayVar(&resolveOwners, "owner", nil, "enclosing type as kind:Name, outermost first (repeatable)")
	f.StringVarP(&resolveName, "name", "n", "", "declaration base name")
	f.StringVarP(&resolveRole, "role", "r", "function", "function, constructor, initializer, destructor, getter, setter, materializer, subscript-getter, subscript-setter, subscript-materializer or variable")
	f.StringVar(&resolveOperator, "operator", "", "operator fixity: prefix, postfix or infix")
	f.BoolVar(&resolveStatic, "static", false, "static or class member")
	f.StringArrayVarP(&resolveParams, "param", "p", nil, "parameter as label:Type (repeatable)")
	f.StringVar(&resolveReturn, "return", "", "return type (empty for Void)")
	f.StringArrayVar(&resolveGenerics, "generic", nil, "generic parameter as Name[:depth:index] (repeatable)")
	resolveCmd.MarkFlagRequired("module")
}

var roles = map[string]match.Role{
	"function":               match.RoleFunction,
	"constructor":            match.RoleConstructor,
	"initializer":            match.RoleInitializer,
	"destructor":             match.RoleDestructor,
	"getter":                 match.RoleGetter,
	"setter":                 match.RoleSetter,
	"materializer":           match.RoleMaterializer,
	"subscript-getter":       match.RoleSubscriptGetter,
	"subscript-setter":       match.RoleSubscriptSetter,
	"subscript-materializer": match.RoleSubscriptMaterializer,
	"variable":               match.RoleVariable,
}

var nominalKinds = map[string]swift.NominalKind{
	"class":    swift.Class,
	"struct":   swift.Struct,
	"enum":     swift.Enum,
	"protocol": swift.Protocol,
}

var fixities = map[string]swift.OperatorKind{
	"prefix":  swift.PrefixOperator,
	"postfix": swift.PostfixOperator,
	"infix":   swift.InfixOperator,
}

func runResolve(cmd *cobra.Command, args []string) error {
	decl, err := declarationFromFlags()
	if err != nil {
		return err
	}

	idx, err := session.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	sym, err := session.Resolve(decl, idx)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Declaration: %s\n", decl)
	fmt.Fprintf(output, "Symbol:      %s\n", sym.Mangled)
	fmt.Fprintf(output, "Decoded:     %s\n", sym)
	fmt.Fprintf(output, "Address:     %#x\n", sym.Value)
	fmt.Fprintf(output, "File Offset: %#x\n", sym.Offset)
	return nil
}

func declarationFromFlags() (*match.Declaration, error) {
	role, ok := roles[strings.ToLower(resolveRole)]
	if !ok {
		return nil, fmt.Errorf("unknown role: %s", resolveRole)
	}
	decl := &match.Declaration{
		Module: resolveModule,
		Name:   resolveName,
		Role:   role,
		Static: resolveStatic,
	}
	if resolveOperator != "" {
		if decl.Operator, ok = fixities[strings.ToLower(resolveOperator)]; !ok {
			return nil, fmt.Errorf("unknown operator fixity: %s", resolveOperator)
		}
	}
	for _, o := range resolveOwners {
		kind, name, ok := strings.Cut(o, ":")
		nk, known := nominalKinds[strings.ToLower(kind)]
		if !ok || !known || name == "" {
			return nil, fmt.Errorf("invalid owner %q: want kind:Name", o)
		}
		decl.Owner = append(decl.Owner, match.OwnerEntry{Kind: nk, Name: name})
	}
	for _, g := range resolveGenerics {
		gp, err := parseGeneric(g)
		if err != nil {
			return nil, err
		}
		decl.Generics = append(decl.Generics, gp)
	}
	for _, p := range resolveParams {
		label, typ, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q: want label:Type", p)
		}
		param := match.Parameter{PublicName: strings.TrimSpace(label)}
		typ = strings.TrimSpace(typ)
		if rest, ok := strings.CutPrefix(typ, "inout "); ok {
			param.InOut, typ = true, strings.TrimSpace(rest)
		}
		if rest, ok := strings.CutSuffix(typ, "..."); ok {
			param.Variadic, typ = true, rest
		}
		param.Type = parseTypeSpec(typ)
		decl.Params = append(decl.Params, param)
	}
	if resolveReturn != "" {
		decl.Return = parseTypeSpec(resolveReturn)
	}
	return decl, nil
}

func parseGeneric(s string) (match.GenericParam, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		return match.GenericParam{Name: parts[0]}, nil
	case 3:
		depth, err := strconv.Atoi(parts[1])
		if err != nil {
			return match.GenericParam{}, fmt.Errorf("invalid generic depth in %q: %w", s, err)
		}
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			return match.GenericParam{}, fmt.Errorf("invalid generic index in %q: %w", s, err)
		}
		return match.GenericParam{Name: parts[0], Depth: depth, Index: index}, nil
	}
	return match.GenericParam{}, fmt.Errorf("invalid generic %q: want Name or Name:depth:index", s)
}

// parseTypeSpec reads the small type grammar accepted on the command line:
// tuples "(A, B)", compositions "A & B", function types "(A) -> B" and
// named types with generic arguments "Name<A, B>". Sugar such as "[T]" and
// "T?" is left to the matcher.
func parseTypeSpec(s string) *match.TypeSpec {
	s = strings.TrimSpace(s)
	if i := topLevel(s, "->"); i >= 0 {
		params := parseTypeSpec(s[:i])
		ts := match.FuncOf(params.Elements, parseTypeSpec(s[i+2:]))
		if params.Kind != match.TypeTuple {
			ts.Elements = []*match.TypeSpec{params}
		}
		return ts
	}
	if parts := splitTopLevel(s, '&'); len(parts) > 1 {
		return match.ProtocolsOf(parts...)
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		ts := match.TupleOf()
		for _, e := range splitTopLevel(s[1:len(s)-1], ',') {
			if e == "" {
				continue
			}
			label := ""
			if l, t, ok := strings.Cut(e, ":"); ok && !strings.ContainsAny(l, "<[(") {
				label, e = strings.TrimSpace(l), t
			}
			ts.Elements = append(ts.Elements, parseTypeSpec(e))
			ts.Labels = append(ts.Labels, label)
		}
		return ts
	}
	if i := strings.IndexByte(s, '<'); i > 0 && strings.HasSuffix(s, ">") {
		var args []*match.TypeSpec
		for _, a := range splitTopLevel(s[i+1:len(s)-1], ',') {
			args = append(args, parseTypeSpec(a))
		}
		return match.Named(s[:i], args...)
	}
	return match.Named(s)
}

func topLevel(s, sep string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			if s[i] == '>' && i > 0 && s[i-1] == '-' {
				continue
			}
			depth--
		default:
			if depth == 0 && strings.HasPrefix(s[i:], sep) {
				return i
			}
		}
	}
	return -1
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			if s[i] == '>' && i > 0 && s[i-1] == '-' {
				continue
			}
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
