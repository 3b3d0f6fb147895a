package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"scoperag/config"
	"scoperag/internal/logging"
)

var (
	cfgFile   string
	cfg       *config.Config
	agentName string
)

var rootCmd = &cobra.Command{
	Use:   "scoperag",
	Short: "Scope-filtered semantic document retrieval",
	Long: `scoperag ingests documents into a vector index and answers semantic
queries filtered by each agent's access scopes. Documents are chunked,
embedded and stored alongside their ownership records; an agent only ever
retrieves chunks from documents it owns or is scoped into.

Example usage:
  scoperag agent register alice --scopes read,write
  scoperag add report.txt --agent alice --scopes read
  scoperag query -q "rotation policy" --agent alice`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logging.New(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./scoperag.yaml)")
	rootCmd.PersistentFlags().StringVar(&agentName, "agent", "", "acting agent name (from the registry)")
}

func GetConfig() *config.Config {
	return cfg
}
