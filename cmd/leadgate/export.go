package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/leadgate/internal/infra/storage"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every stored lead as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := storage.NewLeadRepository(cfg.DataFile)

		data, err := repo.ExportCSV(cmd.Context())
		if err != nil {
			return fmt.Errorf("export leads: %w", err)
		}

		if exportOut == "" || exportOut == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOut, err)
		}
		logger.Info("leads exported", zap.String("file", exportOut), zap.Int("bytes", len(data)))
		return nil
	},
}
