package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appsworld/swiftbind/macho"
)

var infoDWARF bool

var infoCmd = &cobra.Command{
	Use:   "info <binary>",
	Short: "Display image headers and load command summary",
	Long: `Display the header, identity and symbol counts of every image in a
Mach-O file or fat container. Use --dwarf to list DWARF compile units.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVarP(&infoDWARF, "dwarf", "d", false, "list DWARF compile units")
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]

	imgs, err := session.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	fmt.Fprintf(output, "File: %s\n", path)
	fmt.Fprintf(output, "Images: %d\n", len(imgs))
	for i, img := range imgs {
		fmt.Fprintf(output, "\n[%d] %s %s (offset %#x)\n", i, img.CPU, img.Type, img.Offset)
		fmt.Fprintf(output, "Load Commands: %d (%d bytes)\n", img.NCommands, img.SizeCommands)
		if id := img.DylibID(); id != nil {
			fmt.Fprintf(output, "Install Name: %s\n", id)
		}
		if u := img.UUID(); u != nil {
			fmt.Fprintf(output, "UUID: %s\n", u)
		}
		if bv := img.BuildVersion(); bv != nil {
			fmt.Fprintf(output, "Build Version: %s\n", bv)
		} else if vm := img.VersionMin(); vm != nil {
			fmt.Fprintf(output, "Min Version: %s\n", vm)
		}
		for _, lib := range img.ImportedLibraries() {
			fmt.Fprintf(output, "Imports: %s\n", lib)
		}

		syms, err := img.Symbols()
		if err != nil {
			fmt.Fprintf(output, "Warning: could not read symbol table: %v\n", err)
		} else {
			var public, swift int
			for _, s := range syms {
				if s.IsCandidate() {
					public++
				}
			}
			for range session.Symbols(img) {
				swift++
			}
			fmt.Fprintf(output, "Symbols: %d (%d public, %d Swift)\n", len(syms), public, swift)
		}

		if infoDWARF {
			units, err := img.CompileUnits()
			switch {
			case errors.Is(err, macho.ErrNoDWARF):
				fmt.Fprintln(output, "DWARF: none")
			case err != nil:
				fmt.Fprintf(output, "Warning: could not read DWARF: %v\n", err)
			default:
				for _, u := range units {
					fmt.Fprintf(output, "Compile Unit: %s\n", u)
				}
			}
		}
	}
	return nil
}
