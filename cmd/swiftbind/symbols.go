package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/appsworld/swiftbind/swift"
)

var (
	symbolsKind   string
	symbolsModule string
	symbolsLimit  int
	symbolsRaw    bool
	symbolsLink   string
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <binary>",
	Short: "List decoded Swift symbols",
	Long: `List the public Swift symbols of every image in a binary.

Use --kind to filter by member kind (function, method, getter, metadata, ...)
and --module to keep one module. --linkage keeps defined, imported or weak
symbols. --raw prints the mangled name next to the decoded form.

Each line starts with the address and a linkage letter: T for a definition,
W for a weak definition, U for an import and w for a weak import.`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVarP(&symbolsKind, "kind", "k", "", "filter by member kind")
	symbolsCmd.Flags().StringVarP(&symbolsModule, "module", "m", "", "filter by module name")
	symbolsCmd.Flags().IntVarP(&symbolsLimit, "limit", "n", 0, "limit number of symbols shown (0 = unlimited)")
	symbolsCmd.Flags().BoolVarP(&symbolsRaw, "raw", "r", false, "show mangled names")
	symbolsCmd.Flags().StringVarP(&symbolsLink, "linkage", "l", "", "filter by linkage (defined, imported, weak)")
}

// linkage returns the nm-style letter for sym.
func linkage(sym *swift.DecodedSymbol) string {
	switch {
	case sym.Imported && sym.Weak:
		return "w"
	case sym.Imported:
		return "U"
	case sym.Weak:
		return "W"
	}
	return "T"
}

func keepLinkage(sym *swift.DecodedSymbol, filter string) (bool, error) {
	switch strings.ToLower(filter) {
	case "":
		return true, nil
	case "defined":
		return !sym.Imported, nil
	case "imported":
		return sym.Imported, nil
	case "weak":
		return sym.Weak, nil
	}
	return false, fmt.Errorf("unknown linkage %q (want defined, imported or weak)", filter)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	imgs, err := session.Read(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	count := 0
	for _, img := range imgs {
		if len(imgs) > 1 {
			fmt.Fprintf(output, "# %s\n", img.CPU)
		}
		for sym := range session.Symbols(img) {
			if symbolsKind != "" && !strings.EqualFold(sym.Kind.String(), symbolsKind) {
				continue
			}
			if symbolsModule != "" && !swift.EqualNames(sym.Module(), symbolsModule) {
				continue
			}
			keep, err := keepLinkage(sym, symbolsLink)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
			if symbolsRaw {
				fmt.Fprintf(output, "%#016x %s %-24s %s\n    %s\n", sym.Value, linkage(sym), sym.Kind, sym, sym.Mangled)
			} else {
				fmt.Fprintf(output, "%#016x %s %-24s %s\n", sym.Value, linkage(sym), sym.Kind, sym)
			}
			count++
			if symbolsLimit > 0 && count >= symbolsLimit {
				break
			}
		}
		if symbolsLimit > 0 && count >= symbolsLimit {
			break
		}
	}

	fmt.Fprintf(output, "\nTotal: %d symbols\n", count)
	return nil
}
