package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(accountCmd)
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Shows the TikTok account the credentials belong to",
	Long:  `Fetches the TikTok account the configured credentials belong to and prints it as JSON`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, tiktokService, db := setup(ctx)
		if db != nil {
			defer db.Disconnect()
		}

		result := tiktokService.GetAccountInfo(ctx)
		printJSON(cmd.OutOrStdout(), result)
		if !result.Success {
			exitWithFailure(db)
		}
	},
}
