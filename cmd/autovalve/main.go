package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/calvinmclean/autovalve/config"
)

var rootCmd = &cobra.Command{
	Use:   "autovalve",
	Short: "Host tools for the voltage-compensated valve controller",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		configureVerbosity()
	},
	SilenceUsage: true,
}

// flags
var rootVerboseFlag bool
var rootConfigFlag string

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerboseFlag, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&rootConfigFlag, "config", "c", "", "path to a TOML config, defaults are used if empty")
}

func configureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if rootVerboseFlag {
		log.SetLevel(log.DebugLevel)
	}
}

func loadConfig() (config.File, error) {
	cfg, err := config.LoadFile(rootConfigFlag)
	if err != nil {
		return config.File{}, err
	}
	log.WithField("path", rootConfigFlag).Debug("loaded config")
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
