package cmd

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/backstage/services/bipagem/config"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bipagem",
	Short: "Barcode scan validation for receiving and packing",
	Long:  `A service validating warehouse barcode scans, tracking packing carts and receiving reports using event sourcing`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			config.SetConfigFile(cfgFile)
		}

		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return err
		}

		configureLogging(cfg.Logging, cfg.Environment)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

func configureLogging(logging config.LoggingConfig, environment string) {
	level, err := zerolog.ParseLevel(strings.ToLower(logging.Level))
	if err != nil || logging.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if logging.Format == "console" || environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
