package main

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"digimart/internal/cli"
	apphttp "digimart/internal/http"
	"digimart/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the orders report",
		Long: `Load the order history from the configured source and print the
summary, orders per payment type, monthly orders and income, and delivery
times for a purchase date range.

Dates outside the dataset are clamped to it. Without flags the whole
dataset is covered.`,
		Example: `  digimart-cli report --start 2017-01-01 --end 2017-12-31
  digimart-cli report --year 2018 --format json`,
		RunE: runReport,
	}

	cmd.Flags().StringP("start", "s", "", "first purchase date to include (format: 2006-01-02)")
	cmd.Flags().StringP("end", "e", "", "last purchase date to include (format: 2006-01-02)")
	cmd.Flags().IntP("year", "y", 0, "year of the monthly table (default: first year in range)")
	cmd.Flags().StringP("format", "f", cli.FormatText, "output format ("+strings.Join(cli.Formats, ", ")+")")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString("format")
	if !slices.Contains(cli.Formats, format) {
		return fmt.Errorf("unknown format %q: must be one of %s", format, strings.Join(cli.Formats, ", "))
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	table, err := cli.LoadDataset(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	svc := report.NewService(table)

	query := url.Values{}
	for _, name := range []string{"start", "end"} {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			query.Set(name, v)
		}
	}
	if year, _ := cmd.Flags().GetInt("year"); year != 0 {
		query.Set("year", strconv.Itoa(year))
	}

	params, err := apphttp.ParseReportParams(query, svc)
	if err != nil {
		return err
	}
	rep, err := svc.Report(ctx, params)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	logger.Debug("Report built", "range", params.Range.String(), "year", params.Year, "rows", rep.Rows)
	return cli.RenderReport(cmd.OutOrStdout(), rep, svc.Years(), format)
}
