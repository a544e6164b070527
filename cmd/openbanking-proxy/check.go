package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xzzpig/openbanking-proxy/internal/core/config"
	"github.com/xzzpig/openbanking-proxy/internal/smoke"
)

var (
	checkURL      string
	checkUpstream string
	checkEndpoint string
	checkTimeout  time.Duration
)

var errChecksFailed = errors.New("some checks failed")

// checkCmd smoke tests a running proxy
var checkCmd = &cobra.Command{
	Use:          "check",
	Short:        "Smoke test a running proxy",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		checker := smoke.NewChecker(checkURL, checkUpstream, checkTimeout)
		report, err := checker.Run(cmd.Context(), checkEndpoint)
		if report != nil {
			report.Write(cmd.OutOrStdout())
		}
		if err != nil {
			if errors.Is(err, smoke.ErrProxyUnavailable) {
				return fmt.Errorf("%w (start it with: openbanking-proxy serve)", err)
			}
			return err
		}
		if !report.Passed() {
			return errChecksFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkURL, "url", "http://localhost:5000", "base url of the running proxy")
	checkCmd.Flags().StringVar(&checkUpstream, "upstream", config.DefaultBaseURL, "upstream base url to check first, empty to skip")
	checkCmd.Flags().StringVar(&checkEndpoint, "endpoint", "", "check a single resource only")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Second, "per request timeout")
}
