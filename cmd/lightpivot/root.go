package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/lightpivot/internal/cli"
	"github.com/aretw0/lightpivot/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "lightpivot",
	Short: "lightpivot navigates OLAP pivot tables",
	Long: `lightpivot shows the result of an MDX query and lets you drill into it,
from the terminal, over HTTP or as an MCP server for agents.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Pivot table configuration file (.yaml, .toml or .json)")
	flags.String("server", "", "Query server URL (overrides dataSource.server)")
	flags.String("namespace", "", "Query server namespace (overrides dataSource.namespace)")
	flags.String("mdx", "", "Root MDX query (overrides dataSource.basicMDX)")
	flags.String("locale", "", "Message language (en, ru, de, cs)")
	flags.String("fixtures", "", "JSON file mapping queries to results, used instead of a server")
	flags.String("redis", "", "Redis address or URL of the result cache")
	flags.Duration("cache-ttl", 0, "Expiration of cached results (0 keeps them)")
	flags.Bool("debug", false, "Enable debug logging on stderr")
}

func optionsFromFlags(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.ConfigPath, _ = flags.GetString("config")
	opts.Server, _ = flags.GetString("server")
	opts.Namespace, _ = flags.GetString("namespace")
	opts.MDX, _ = flags.GetString("mdx")
	opts.Locale, _ = flags.GetString("locale")
	opts.Fixtures, _ = flags.GetString("fixtures")
	opts.RedisURL, _ = flags.GetString("redis")
	opts.CacheTTL, _ = flags.GetDuration("cache-ttl")
	opts.Debug, _ = flags.GetBool("debug")
	return opts
}

// serviceLogger is the logger of long-running commands: info by default, debug on request.
func serviceLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}
