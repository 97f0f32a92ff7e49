package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"digimart/internal/amqp"
	"digimart/internal/cli"
	"digimart/internal/config"
	"digimart/internal/dataset"
	"digimart/internal/storage"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the order history CSV into a database",
		Long: `Read the cleaned order history CSV (a local path or an http(s) URL) and
replace the contents of the orders table with it, in one transaction.

When AMQP_URL is set, a notification is published afterwards so running
dashboards reload the new data.`,
		Example: `  digimart-cli import --csv all_orders_data.csv --db ./data/digimart.db
  digimart-cli import --to mysql`,
		RunE: runImport,
	}

	cmd.Flags().String("csv", "", "order history CSV path or URL (default: DATASET_LOCATION)")
	cmd.Flags().String("to", "sqlite", "target store (sqlite, mysql)")
	cmd.Flags().String("db", "", "SQLite database path (default: SQLITE_DB_PATH)")
	cmd.Flags().Bool("notify", true, "publish an import notification when AMQP_URL is set")

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	location, _ := cmd.Flags().GetString("csv")
	if location == "" {
		location = cfg.DatasetLocation
	}
	target, _ := cmd.Flags().GetString("to")
	target = strings.ToLower(target)
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.SQLiteDBPath
	}

	table, err := dataset.NewCSVLoader(location).Load(ctx)
	if err != nil {
		return fmt.Errorf("read order history: %w", err)
	}

	var (
		repo        *storage.Repository
		destination string
	)
	switch target {
	case "sqlite":
		repo, err = cli.OpenSQLite(logger, dbPath)
		destination = dbPath
	case "mysql":
		if cfg.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required to import into mysql")
		}
		repo, err = storage.NewMySQLRepository(ctx, cfg.MySQLDSN)
		destination = "mysql"
	default:
		return fmt.Errorf("unknown import target %q: must be sqlite or mysql", target)
	}
	if err != nil {
		return err
	}
	defer repo.Close()

	out := cmd.ErrOrStderr()
	bar := progressbar.NewOptions(table.Len(),
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing orders...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(out); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	if err := repo.ImportOrders(ctx, table.Rows(), func(n int) { _ = bar.Set(n) }); err != nil {
		return fmt.Errorf("import orders: %w", err)
	}
	_ = bar.Finish()

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %s orders into %s",
		humanize.Comma(int64(table.Len())), destination)))

	if notify, _ := cmd.Flags().GetBool("notify"); notify {
		notifyImport(ctx, cmd, cfg, amqp.NewDatasetImportedMessage(target, destination, table.Len()))
	}
	return nil
}

// notifyImport reports problems as warnings only: the import is committed.
func notifyImport(ctx context.Context, cmd *cobra.Command, cfg *config.Config, msg *amqp.DatasetImportedMessage) {
	client, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Import notification not sent: "+err.Error()))
		return
	}
	if client == nil {
		logger.Debug("AMQP_URL not set, skipping import notification")
		return
	}
	defer client.Close()

	if err := client.PublishDatasetImported(ctx, msg); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Import notification not sent: "+err.Error()))
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Notified dashboards on "+cfg.AMQPQueue))
}
