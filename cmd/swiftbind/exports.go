package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appsworld/swiftbind/macho"
)

var exportsSwift bool

var exportsCmd = &cobra.Command{
	Use:   "exports <binary>",
	Short: "List the dyld export trie",
	Long: `List the names recorded in each image's export trie
(LC_DYLD_EXPORTS_TRIE or LC_DYLD_INFO). Use --swift to show only
decoded Swift symbols.`,
	Args: cobra.ExactArgs(1),
	RunE: runExports,
}

func init() {
	exportsCmd.Flags().BoolVarP(&exportsSwift, "swift", "s", false, "only decoded Swift symbols")
}

func runExports(cmd *cobra.Command, args []string) error {
	imgs, err := session.Read(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	for _, img := range imgs {
		if len(imgs) > 1 {
			fmt.Fprintf(output, "# %s\n", img.CPU)
		}
		if exportsSwift {
			syms, err := session.ExportedSymbols(img)
			if err != nil {
				return fmt.Errorf("failed to read exports: %w", err)
			}
			for _, s := range syms {
				fmt.Fprintf(output, "%#016x %s\n", s.Value, s)
			}
			continue
		}
		exports, err := img.Exports()
		if errors.Is(err, macho.ErrNoExportTrie) {
			fmt.Fprintln(output, "no export trie")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read exports: %w", err)
		}
		for _, e := range exports {
			fmt.Fprintln(output, e)
		}
	}
	return nil
}
