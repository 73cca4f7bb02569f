package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-cashback-must-flow/internal/cli"
	"github.com/Veraticus/the-cashback-must-flow/internal/config"
	"github.com/Veraticus/the-cashback-must-flow/internal/sheets"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage the Google Sheets export of saved reports",
	}

	cmd.AddCommand(sheetsAuthCmd())

	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Sheets",
		Long: `Authorize the export with your Google account using OAuth2.

This command will:
1. Start a local web server for the redirect
2. Log the Google consent URL to open in your browser
3. Save the token so saved reports can be exported

Requires sheets.client_id and sheets.client_secret (or GOOGLE_SHEETS_CLIENT_ID
and GOOGLE_SHEETS_CLIENT_SECRET).`,
		RunE: runSheetsAuth,
	}

	cmd.Flags().String("token-file", "~/.config/cashback/sheets-token.json", "where to store the token")
	cmd.Flags().String("listen", "localhost:8080", "address of the local redirect server")
	cmd.Flags().Duration("timeout", 5*time.Minute, "how long to wait for the browser redirect")

	return cmd
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	tokenFile, _ := cmd.Flags().GetString("token-file")
	listen, _ := cmd.Flags().GetString("listen")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	token, err := sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
		ClientID:     viper.GetString("sheets.client_id"),
		ClientSecret: viper.GetString("sheets.client_secret"),
		TokenFile:    config.ExpandPath(tokenFile),
		ListenAddr:   listen,
		Timeout:      timeout,
	}, logger)
	if err != nil {
		return friendly(err)
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, cli.FormatSuccess("Google Sheets authorized")); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, cli.FormatInfo("Set GOOGLE_SHEETS_REFRESH_TOKEN="+token.RefreshToken+" to enable the export"))
	return err
}
