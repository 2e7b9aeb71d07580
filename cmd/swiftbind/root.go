package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/appsworld/swiftbind"
	"github.com/appsworld/swiftbind/pkg/diag"
)

var (
	outputFile string
	verbose    bool
	lazy       bool

	output    io.Writer
	session   *swiftbind.Session
	collector *diag.Collector
)

var rootCmd = &cobra.Command{
	Use:   "swiftbind",
	Short: "Swift symbol binding inspector",
	Long: `swiftbind inspects compiled Swift libraries.

It reads Mach-O images and fat containers, decodes the mangled Swift
symbols they export and resolves declarations to the entry points that
implement them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = os.Stdout
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		collector = diag.New()

		var err error
		session, err = swiftbind.NewSession(
			swiftbind.WithLogger(log),
			swiftbind.WithCollector(collector),
			swiftbind.WithLazySymbols(lazy),
		)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if n := collector.WarningCount(); n > 0 {
			fmt.Fprintf(os.Stderr, "%d warnings\n", n)
			if verbose {
				for _, w := range collector.Warnings() {
					fmt.Fprintf(os.Stderr, "  %s\n", w)
				}
			}
		}
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&lazy, "lazy", false, "defer symbol table decoding until needed")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(exportsCmd)
	rootCmd.AddCommand(resolveCmd)
}
