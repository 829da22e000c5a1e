package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_noshow/config"
	"github.com/Alijeyrad/simorq_noshow/internal/app"
	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
)

func NewPredictCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score appointments for no-show risk",
	}

	cmd.AddCommand(newAppointmentCommand())
	cmd.AddCommand(newUpcomingCommand())

	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newAppointmentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "appointment <appointment-id>",
		Short: "Predict no-show risk for one appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid appointment id %q: %w", args[0], err)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return app.WithService(cmd.Context(), cfg, func(ctx context.Context, svc noshow.Service) error {
				p, err := svc.Predict(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), p)
			})
		},
	}
}

type upcomingRow struct {
	AppointmentID uuid.UUID                `json:"appointment_id"`
	Prediction    *noshow.NoShowPrediction `json:"prediction,omitempty"`
	Error         string                   `json:"error,omitempty"`
}

func newUpcomingCommand() *cobra.Command {
	var (
		from     string
		days     int
		minLevel string
	)

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Predict every scheduled appointment in a window, riskiest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now().UTC().Truncate(24 * time.Hour)
			if from != "" {
				t, err := time.Parse(time.DateOnly, from)
				if err != nil {
					return fmt.Errorf("invalid --from %q: %w", from, err)
				}
				start = t
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			threshold, err := parseLevel(minLevel)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return app.WithService(cmd.Context(), cfg, func(ctx context.Context, svc noshow.Service) error {
				items, err := svc.PredictScheduled(ctx, start, start.AddDate(0, 0, days))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), filterRows(items, threshold))
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day of the window (YYYY-MM-DD, default today UTC)")
	cmd.Flags().IntVar(&days, "days", 7, "Window length in days")
	cmd.Flags().StringVar(&minLevel, "min-level", string(noshow.RiskLow), "Only report predictions at or above this risk level")

	return cmd
}

func parseLevel(s string) (noshow.RiskLevel, error) {
	switch l := noshow.RiskLevel(s); l {
	case noshow.RiskLow, noshow.RiskMedium, noshow.RiskHigh, noshow.RiskCritical:
		return l, nil
	default:
		return "", fmt.Errorf("invalid --min-level %q", s)
	}
}

var levelRank = map[noshow.RiskLevel]int{
	noshow.RiskLow:      0,
	noshow.RiskMedium:   1,
	noshow.RiskHigh:     2,
	noshow.RiskCritical: 3,
}

// filterRows drops successful predictions below floor. Failed items are always
// reported.
func filterRows(items []noshow.BatchItem, floor noshow.RiskLevel) []upcomingRow {
	rows := make([]upcomingRow, 0, len(items))
	for _, it := range items {
		if !it.OK() {
			msg := "prediction failed"
			if it.Err != nil {
				msg = it.Err.Error()
			}
			rows = append(rows, upcomingRow{AppointmentID: it.AppointmentID, Error: msg})
			continue
		}
		if levelRank[it.Prediction.RiskLevel] < levelRank[floor] {
			continue
		}
		rows = append(rows, upcomingRow{AppointmentID: it.AppointmentID, Prediction: it.Prediction})
	}
	return rows
}
