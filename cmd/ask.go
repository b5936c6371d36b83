/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/query-retrieval/service"
	"go.uber.org/zap"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>...",
	Short: "Answer questions from the terminal",
	Long: `Runs the same bootstrap and batch dispatch as the server and prints one
answer per question, in order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx := context.Background()
		a, err := newApp(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.close(ctx, logger)

		result := service.Bootstrap(ctx, a.engine, cfg.KnowledgeBase.DocumentsDir, logger)
		if result.Outcome == service.FatalBuildError && cfg.Bootstrap.FailOnBuildError {
			return result.Err
		}
		logger.Debug("knowledge base ready", zap.Stringer("outcome", result.Outcome))

		answers, err := service.NewQueryDispatcher(a.engine, logger).Dispatch(ctx, args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, answer := range answers {
			fmt.Fprintf(out, "Q%d: %s\nA%d: %s\n\n", i+1, args[i], i+1, answer)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
