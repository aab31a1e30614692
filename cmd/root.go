package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yumyai/msaprep/logger"
	"github.com/yumyai/msaprep/pkg/config"
)

const version = "0.1.0"

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "msaprep",
	Short: "MSA search and taxonomy enrichment for structure prediction inputs",
	Long: `msaprep runs the external MSA search tool for every protein chain of a
fold input, attaches taxonomic identifiers to the alignment hits and
writes an augmented fold input the inference tool can consume with its
own search step disabled.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.InitFromString(logLevel); err != nil {
			return err
		}
		if err := godotenv.Load(); err != nil {
			logger.Debug("No .env found, using local environment")
		}
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "TOML config file (default $MSAPREP_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
}

func loadConfig() (config.Config, error) {
	fpath := cfgPath
	if fpath == "" {
		fpath = os.Getenv("MSAPREP_CONFIG")
	}
	if fpath == "" {
		return config.FromEnv(), nil
	}
	return config.Load(fpath)
}
