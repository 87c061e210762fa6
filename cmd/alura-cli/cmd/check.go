package cmd

import (
	"fmt"
	"os"

	"aluraget/lib/scrapers/alura/core"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verifies that the captured session cookies still authenticate.",
	Run: func(cmd *cobra.Command, args []string) {
		if !client.Authenticated() {
			fmt.Fprintln(os.Stderr, "cookie file is missing required cookies")
			os.Exit(1)
		}

		ok, err := client.CheckCookies(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, core.InvalidCookies.Error())
			os.Exit(1)
		}
		fmt.Println("session cookies are valid")
	},
}
