/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/query-retrieval/database"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently answered query batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if !cfg.History.Enabled() {
			return errors.New("query history is disabled: set MONGODB_URI")
		}
		limit, _ := cmd.Flags().GetInt64("limit")

		ctx := context.Background()
		client, err := database.NewMongoClient(ctx, cfg.History.MongoDBURI)
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)

		entries, err := newHistory(client, cfg.History.Database).Recent(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to list query history: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, entry := range entries {
			status := "ok"
			if entry.Error != "" {
				status = "error: " + entry.Error
			}
			fmt.Fprintf(out, "%s  %s  %d question(s)  %dms  %s\n",
				time.Unix(entry.CreatedAt, 0).Format(time.RFC3339),
				entry.RequestID, len(entry.Questions), entry.DurationMs, status)
			for i, q := range entry.Questions {
				answer := ""
				if i < len(entry.Answers) {
					answer = entry.Answers[i]
				}
				fmt.Fprintf(out, "    - %s\n      %s\n", q, strings.ReplaceAll(answer, "\n", " "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int64P("limit", "n", 20, "number of batches to show")
}
