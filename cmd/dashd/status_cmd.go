package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/crosswatch/dashd/internal/cwsdk"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend connection, pairs and run state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			sdk, err := cwsdk.New(serverURL)
			if err != nil {
				return err
			}
			defer sdk.Close()

			ctx := cmd.Context()
			ok := color.New(color.FgHiGreen).SprintFunc()
			bad := color.New(color.FgHiRed, color.Bold).SprintFunc()
			dim := color.New(color.FgHiBlack).SprintFunc()

			summary, err := sdk.Runs.Summary(ctx)
			if err != nil {
				fmt.Printf("%s %s %s\n", dim("backend"), bad("unreachable"), dim(serverURL))
				os.Exit(1)
			}
			fmt.Printf("%s %s %s\n", dim("backend"), ok("online"), dim(serverURL))

			if summary.Running {
				fmt.Printf("%s %s %s\n", dim("run    "), ok("active"), dim(summary.RunID))
			} else {
				fmt.Printf("%s idle\n", dim("run    "))
			}

			if pairList, err := sdk.Pairs.List(ctx); err == nil {
				enabled := 0
				for _, p := range pairList {
					if p.Enabled {
						enabled++
					}
				}
				fmt.Printf("%s %d configured, %d enabled\n", dim("pairs  "), len(pairList), enabled)
			}

			if ws, err := sdk.Watch.Status(ctx); err == nil {
				if ws.Connected {
					fmt.Printf("%s %s %s\n", dim("watch  "), ok("attached"), dim(ws.Provider))
				} else {
					fmt.Printf("%s %s\n", dim("watch  "), bad("detached"))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&serverURL, "server", "s", defaultServerURL, "CrossWatch backend URL")
	return cmd
}
