package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orderload/internal/logging"
	"orderload/internal/target"
)

var (
	targetCfg      target.Config
	targetFixtures string
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Run the built-in order service to test against",
	Long: `
Serves the demo order service in-process: the same customer data behind
a slow endpoint that issues one query per order plus shipping lookup
(the N+1 pattern) and a fast endpoint that resolves everything in a
single query. Query cost is simulated with a configurable delay.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(logLevel, os.Stderr)

		if err := targetCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		catalog := target.DefaultCatalog()
		if targetFixtures != "" {
			var err error
			if catalog, err = target.LoadFixtures(targetFixtures); err != nil {
				return fmt.Errorf("load fixtures: %w", err)
			}
		}

		return target.NewServer(targetCfg, catalog).ListenAndServe(cmd.Context())
	},
}

func init() {
	def := target.DefaultServerConfig()

	targetCmd.Flags().IntVarP(&targetCfg.Port, "port", "p", def.Port, "port to listen on")
	targetCmd.Flags().StringVar(&targetFixtures, "fixtures", "", "YAML file with customer order fixtures (default: built-in seed data)")
	targetCmd.Flags().DurationVar(&targetCfg.QueryDelay, "query-delay", def.QueryDelay, "simulated cost of one database query")
	targetCmd.Flags().DurationVar(&targetCfg.Jitter, "jitter", def.Jitter, "random extra latency per query, up to this much")
	targetCmd.Flags().Float64Var(&targetCfg.ErrorRate, "error-rate", def.ErrorRate, "probability in [0,1] that a request fails with HTTP 500")

	rootCmd.AddCommand(targetCmd)
}
