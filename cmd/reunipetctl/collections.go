package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reunipet/reunipet/internal/biometric/rekognition"
	"github.com/reunipet/reunipet/internal/config"
)

func init() {
	collectionsCmd := &cobra.Command{Use: "collections", Short: "Face collection operations"}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create the lost and found face collections if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			client, err := rekognition.New(cmd.Context(), cfg.AWSRegion)
			if err != nil {
				return err
			}
			for _, coll := range []string{cfg.LostCollectionID, cfg.FoundCollectionID} {
				if err := client.EnsureCollection(cmd.Context(), coll); err != nil {
					return fmt.Errorf("collection %s: %w", coll, err)
				}
				_, _ = fmt.Fprintf(os.Stdout, "collection %s ready\n", coll)
			}
			return nil
		},
	}
	collectionsCmd.AddCommand(createCmd)

	rootCmd.AddCommand(collectionsCmd)
}
