package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xzzpig/openbanking-proxy/internal/api/handlers"
	"github.com/xzzpig/openbanking-proxy/internal/openbanking"
)

// endpointsCmd prints the route table served by the proxy
var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "List the proxied endpoints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "METHOD\tPATH\tUPSTREAM\tDESCRIPTION")
		for _, r := range openbanking.Resources() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Method, r.RoutePath(), r.UpstreamPath, r.Description)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", "GET", handlers.EndpointsPath, "-", "List available endpoints")
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(endpointsCmd)
}
