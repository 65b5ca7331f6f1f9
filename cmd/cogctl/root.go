// Command cogctl is the cobra-based command line surface for the
// cognition core: starting the agent loop against a local bus, and
// inspecting memory and journal contents without a running process.
//
// Grounded on the teacher's cmd/root.go (rootCmd + subcommand
// registration texture, persistent --config/--verbose flags).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X .../cmd/cogctl.Version=v1.0.0".
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cogctl",
	Short: "cogctl — cognition core control",
	Long:  "cogctl drives a long-running personal cognition core: a phased agent loop backed by a typed memory store, a session store, and a daily journal.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: cogcore.json5 or $COGCORE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(memoryCmd())
	rootCmd.AddCommand(journalCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cogctl %s\n", Version)
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("COGCORE_CONFIG"); v != "" {
		return v
	}
	return "cogcore.json5"
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
