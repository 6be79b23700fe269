// itemstore stores items (a description, an amount, an active flag and an
// optional picture) in SQLite, PostgreSQL or MySQL.
//
// Usage:
//
//	itemstore [--config path] add --descr "Bolt" --amount 2.5 --active --picture bolt.png
//	itemstore list [--json]
//	itemstore update --id 1 --amount 3
//	itemstore delete --id 1
//	itemstore migrate [--down | --status]
//	itemstore check
//
// The data source comes from database.url in the config file, or from
// ITEMSTORE_DATABASE_URL / DATABASE_URL.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/itemstore/migrations"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// configEnvVar names the environment variable that overrides the config path.
const configEnvVar = "ITEMSTORE_CONFIG"

func main() {
	// Cancel on Ctrl+C or SIGTERM so in-flight statements are abandoned cleanly
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one command line, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//   - stdout: Destination for command output
//   - stderr: Destination for usage and cobra's own messages
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Tables are plain text so output stays usable in pipes and scripts
	pterm.DisableStyling()

	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// newRootCommand builds the command tree.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "itemstore",
		Short:         "Store items in SQLite, PostgreSQL or MySQL",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", defaultConfigPath,
		"path to the YAML config file (env "+configEnvVar+")")

	root.AddCommand(
		newAddCommand(),
		newListCommand(),
		newUpdateCommand(),
		newDeleteCommand(),
		newMigrateCommand(),
		newCheckCommand(),
	)

	return root
}
