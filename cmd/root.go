package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"orderload/internal/banner"
	"orderload/internal/cli"
	"orderload/internal/logging"
	"orderload/internal/runner"
)

var (
	cfgFile  string
	logLevel string

	// Load flags
	threads     int
	durationSec int
	forever     bool
	slowPercent float64
	customer    string
	rate        int

	// Output flags
	live      bool
	outPrefix string
	noHistory bool
)

var rootCmd = &cobra.Command{
	Use:   "orderload",
	Short: "Load generator for the N+1 query problem demo",
	Long: `
orderload drives steady HTTP load against an order service that exposes
the same data through a slow endpoint (N+1 queries) and a fast one
(single JOIN), and reports how differently the two behave under load.

Run 'orderload target' first for a built-in order service to test
against, and 'orderload history' to browse past runs.`,
	// Unknown flags are skipped rather than rejected, so stale scripts
	// keep working across flag changes.
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(logLevel, os.Stderr)

		cfg := buildConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		opts := cli.Options{Out: outPrefix, NoHistory: noHistory}
		if live {
			return cli.RunLive(cmd.Context(), cfg, opts)
		}
		return cli.Run(cmd.Context(), cfg, opts)
	},
}

func Execute() {
	// Custom help with banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	// Ctrl+C and SIGTERM cancel the run context; workers drain and the
	// final report still prints.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.orderload.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.Flags().IntVarP(&threads, "threads", "t", runner.DefaultWorkers, "number of concurrent workers")
	rootCmd.Flags().IntVarP(&durationSec, "duration", "d", runner.DefaultDurationSec, "test duration in seconds")
	rootCmd.Flags().BoolVarP(&forever, "forever", "f", false, "run until interrupted, ignoring --duration")
	rootCmd.Flags().Float64VarP(&slowPercent, "slow-percentage", "s", runner.DefaultSlowPercent, "share of requests sent to the slow endpoint (0-100)")
	rootCmd.Flags().StringVarP(&customer, "customer", "c", runner.DefaultCustomer, "customer ID substituted into the endpoint paths")
	rootCmd.Flags().IntVarP(&rate, "rate", "r", runner.DefaultRatePerMin, "aggregate request rate across all workers, per minute")
	rootCmd.Flags().String("base-url", runner.DefaultBaseURL, "order service base URL")
	rootCmd.Flags().BoolVar(&live, "live", false, "replace the periodic report with a live dashboard")
	rootCmd.Flags().StringVarP(&outPrefix, "out", "o", "", "write <prefix>.csv and <prefix>_summary.json after the run")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not archive this run")

	viper.BindPFlag("base_url", rootCmd.Flags().Lookup("base-url"))
	viper.SetDefault("slow_path", runner.DefaultSlowPath)
	viper.SetDefault("fast_path", runner.DefaultFastPath)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".orderload")
		}
	}

	viper.SetEnvPrefix("ORDERLOAD")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

// buildConfig merges flags with the viper-backed settings. Endpoint
// paths have no flags; they come from the config file or ORDERLOAD_*
// environment variables when the demo layout differs.
func buildConfig() runner.Config {
	cfg := runner.DefaultConfig()
	cfg.Workers = threads
	cfg.DurationSec = durationSec
	cfg.Forever = forever
	cfg.SlowPercent = slowPercent
	cfg.Customer = customer
	cfg.RatePerMin = rate
	cfg.BaseURL = viper.GetString("base_url")
	cfg.SlowPath = viper.GetString("slow_path")
	cfg.FastPath = viper.GetString("fast_path")
	cfg.RetainOutcomes = outPrefix != ""
	return cfg
}
