/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// buildKnowledgeBaseCmd represents the build-knowledge-base command
var buildKnowledgeBaseCmd = &cobra.Command{
	Use:   "build-knowledge-base",
	Short: "Rebuild the knowledge base from a directory of documents",
	Long: `Extracts every file in the directory (top level only), replaces the stored
chunks and writes a new manifest, whether or not a cached knowledge base exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		directory, _ := cmd.Flags().GetString("directory")
		if directory == "" {
			directory = cfg.KnowledgeBase.DocumentsDir
		}

		files, err := os.ReadDir(directory)
		if err != nil {
			return fmt.Errorf("failed to read directory: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no documents found in %s", directory)
		}
		paths := make([]string, 0, len(files))
		for _, file := range files {
			paths = append(paths, filepath.Join(directory, file.Name()))
		}

		ctx := context.Background()
		a, err := newApp(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.close(ctx, logger)

		if err := a.engine.BuildKnowledgeBase(ctx, paths); err != nil {
			return err
		}
		logger.Info("knowledge base built", zap.String("directory", directory), zap.Int("documents", len(paths)))
		fmt.Fprintf(cmd.OutOrStdout(), "Knowledge base built from %d document(s) in %s\n", len(paths), directory)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildKnowledgeBaseCmd)
	buildKnowledgeBaseCmd.Flags().StringP("directory", "d", "", "directory of documents (default is knowledge_base.documents_dir)")
}
