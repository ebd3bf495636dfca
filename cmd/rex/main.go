// rex extracts structured REX Zones Humides project sheets from PDF collections.
//
// Usage:
//
//	rex extract <file.pdf|dir>... [-o <dir>] [--format xlsx|json|both]
//	rex ocr <file.pdf> [--pages 3-5]
//	rex serve
//	rex check [file.pdf]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:   "rex",
	Short: "Extract REX Zones Humides project sheets from PDF documents",
	Long: "rex runs Mistral OCR over a multi-project REX PDF, asks a language model for the\n" +
		"project list, then extracts one schema-shaped record per project.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configPath, "config", "", "YAML config file (overrides REX_CONFIG)")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	f.StringVar(&rootFlags.logFormat, "log-format", "", "text or json (overrides LOG_FORMAT)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(ocrCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
