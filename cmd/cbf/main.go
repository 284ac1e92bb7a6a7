// Command cbf browses festival drink catalogs and keeps a tasting log.
//
// Logging:
//   - Base logger is created here from --log-level and --log-format
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "cbf",
		Short:        "Festival drink catalog and tasting log",
		Long:         "Browse festival drink catalogs, filter and sort them, and keep a per-festival record of what you want to try and what you have tried.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("home", "", "home directory (default: platform config dir)")
	rootCmd.PersistentFlags().String("config", "", "config file (default: <home>/config.json)")
	rootCmd.PersistentFlags().String("festival", "", "festival id (default: defaultFestival from the config)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(
		newListCmd(),
		newShowCmd(),
		newTastingCmd(),
		newFestivalsCmd(),
		newWatchCmd(),
		newConfigCmd(),
		versionCmd,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
