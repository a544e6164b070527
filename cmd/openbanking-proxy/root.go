package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xzzpig/openbanking-proxy/internal/version"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "openbanking-proxy",
	Short:   "Open Banking Brasil products-services proxy",
	Long:    `A read-only HTTP proxy that pages through the Open Banking Brasil products-services mock and wraps every answer in a data/links/meta envelope.`,
	Version: version.Version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.toml)")
}
