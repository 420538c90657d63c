package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crosswatch/dashd/internal/cwsdk"
)

func init() {
	rootCmd.AddCommand(newLoginCmd())
}

func newLoginCmd() *cobra.Command {
	var serverURL string
	var quiet bool

	cmd := &cobra.Command{
		Use:     "login",
		Aliases: []string{"link"},
		Short:   "Link a Plex account to the CrossWatch backend",
		Run: func(cmd *cobra.Command, args []string) {
			sdk, err := cwsdk.New(serverURL)
			if err != nil {
				fmt.Printf("%s: %s\n", red.Render("ERROR"), err)
				os.Exit(1)
			}
			defer sdk.Close()

			ctx := cmd.Context()

			if info, err := sdk.Plex.Inspect(ctx); err == nil && info.Linked {
				if !quiet {
					fmt.Println(green.Render("** Already linked **"))
					fmt.Printf("%s %s\n", gray.Render("Account"), info.Username)
				}
				os.Exit(0)
			}

			pin, err := sdk.Plex.NewPin(ctx)
			if err != nil {
				fmt.Printf("%s: %s\n", red.Render("ERROR"), err)
				os.Exit(1)
			}

			onPoll := func() (claimed bool, expired bool, err error) {
				status, err := sdk.Plex.CheckPin(ctx, pin.ID)
				if err != nil {
					return false, false, err
				}
				return status.Claimed, status.Expired, nil
			}

			if err := RunLoginTUI(LoginTUIOpts{
				ServerURL:   sdk.BaseURL(),
				PinCode:     pin.Code,
				ExpiresIn:   pin.ExpiresIn,
				PollHandler: onPoll,
			}); err != nil {
				fmt.Printf("%s: %s\n", red.Render("ERROR"), err)
				os.Exit(1)
			}

			if !quiet {
				fmt.Println(green.Render("Plex account linked"))
				if info, err := sdk.Plex.Inspect(ctx); err == nil {
					fmt.Printf("%s %s\n", gray.Render("Account"), info.Username)
					if info.Server != "" {
						fmt.Printf("%s %s\n", gray.Render("Server "), info.Server)
					}
				}
			}
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&serverURL, "server", "s", defaultServerURL, "CrossWatch backend URL")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "disable output")

	return cmd
}
