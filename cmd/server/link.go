package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var generateLinkCmd = &cobra.Command{
	Use:   "generate-link",
	Short: "Generate a single-use writer login link",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		baseURL := a.cfg.Auth.BaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)
		}

		link, err := a.auth.NewLoginLink(context.Background(), baseURL)
		if err != nil {
			return fmt.Errorf("failed to generate login link: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n=== Writer Login Link (single use, valid for %s) ===\n%s\n\n", a.auth.LinkTTL(), link)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateLinkCmd)
}
