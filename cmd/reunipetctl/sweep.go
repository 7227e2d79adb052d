package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reunipet/reunipet/internal/config"
	"github.com/reunipet/reunipet/internal/factory"
	"github.com/reunipet/reunipet/internal/logger"
	"github.com/reunipet/reunipet/internal/sweeper"
)

func init() {
	var days int
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one retention sweep over expired found reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("reunipetctl")

			cfg, err := config.New()
			if err != nil {
				return err
			}
			if days > 0 {
				cfg.RetentionDays = days
			}

			st, err := factory.NewStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			mediaStore, err := factory.NewMediaStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			sw := sweeper.New(st, mediaStore, sweeper.Config{
				MaxAge: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
			}, log)
			cutoff := time.Now().UTC().Add(-time.Duration(cfg.RetentionDays) * 24 * time.Hour)
			deleted, err := sw.Sweep(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "deleted %d expired reports\n", deleted)
			return nil
		},
	}
	sweepCmd.Flags().IntVarP(&days, "days", "d", 0, "Override retention window in days")
	rootCmd.AddCommand(sweepCmd)
}
