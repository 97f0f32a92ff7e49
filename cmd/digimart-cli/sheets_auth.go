package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"digimart/internal/cli"
	"digimart/internal/config"
	gsheet "digimart/internal/sheets/google"
)

func sheetsAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize read access to the orders spreadsheet",
		Long: `Run the Google OAuth consent flow for an installed-app client and save
the resulting token. The sheets data source uses it when no service account
is configured.

The OAuth client must list http://localhost:<port>/callback as an
authorized redirect URI.`,
		RunE: runSheetsAuth,
	}

	cmd.Flags().String("client", "", "OAuth client secret file (default: GOOGLE_OAUTH_CLIENT_FILE)")
	cmd.Flags().String("token", "", "where to save the token (default: GOOGLE_OAUTH_TOKEN_FILE)")
	cmd.Flags().Int("port", 8085, "local port for the redirect")
	cmd.Flags().Duration("timeout", 5*time.Minute, "how long to wait for consent")

	return cmd
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()

	clientFile, _ := cmd.Flags().GetString("client")
	if clientFile == "" {
		clientFile = cfg.GoogleOAuthClientFile
	}
	if clientFile == "" {
		return fmt.Errorf("set --client or GOOGLE_OAUTH_CLIENT_FILE")
	}
	tokenFile, _ := cmd.Flags().GetString("token")
	if tokenFile == "" {
		tokenFile = cfg.GoogleOAuthTokenFile
	}
	port, _ := cmd.Flags().GetInt("port")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	b, err := os.ReadFile(clientFile)
	if err != nil {
		return fmt.Errorf("read client file: %w", err)
	}
	oauthCfg, err := gsheet.OAuthConfig(b)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return fmt.Errorf("listen for redirect: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	tok, err := gsheet.Authorize(ctx, oauthCfg, ln, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := gsheet.SaveToken(tokenFile, tok); err != nil {
		return err
	}

	logger.Info("OAuth token saved", "path", tokenFile)
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved token to "+tokenFile))
	return nil
}
