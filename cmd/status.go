package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status <publish-id>",
	Short: "Shows the publish status of a posted video",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, tiktokService, db := setup(ctx)
		if db != nil {
			defer db.Disconnect()
		}

		result := tiktokService.GetPublishStatus(ctx, args[0])
		printJSON(cmd.OutOrStdout(), result)
		if !result.Success {
			exitWithFailure(db)
		}
	},
}
