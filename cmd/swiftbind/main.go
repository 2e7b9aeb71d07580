// Command swiftbind lists the Swift symbols of a Mach-O library and
// resolves declarations against them.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
