package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reunipet/reunipet/internal/config"
	"github.com/reunipet/reunipet/internal/notify"
)

func init() {
	emailCmd := &cobra.Command{Use: "email", Short: "Email operations"}

	var to string
	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test email through SendGrid",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("--to required")
			}
			cfg, err := config.New()
			if err != nil {
				return err
			}
			mailer := notify.NewSendgridMailer(cfg.SendgridAPIKey, cfg.SenderEmail)
			if err := mailer.Send(cmd.Context(), to, "reunipet delivery test",
				"<p>If you can read this, outbound email is working.</p>"); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "test email sent to %s\n", to)
			return nil
		},
	}
	testCmd.Flags().StringVarP(&to, "to", "t", "", "Recipient address (required)")
	_ = testCmd.MarkFlagRequired("to")
	emailCmd.AddCommand(testCmd)

	rootCmd.AddCommand(emailCmd)
}
