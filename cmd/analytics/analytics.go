package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_noshow/config"
	"github.com/Alijeyrad/simorq_noshow/internal/app"
	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
)

func NewAnalyticsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print population no-show analytics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			return app.WithService(cmd.Context(), cfg, func(ctx context.Context, svc noshow.Service) error {
				a, err := svc.Analytics(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			})
		},
	}

	return cmd
}
