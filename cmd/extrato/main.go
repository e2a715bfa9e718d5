package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"

	"extrato/internal/amqp"
	"extrato/internal/backend"
	"extrato/internal/cli"
	"extrato/internal/config"
	"extrato/internal/core"
	applog "extrato/internal/log"
	"extrato/internal/output"
	"extrato/internal/sheets/google"
)

type Params struct {
	Month   int    `descr:"Month to load (1-12); 0 loads the current month" optional:"true"`
	Items   string `descr:"Comma-separated item ids; defaults to the stored item list" optional:"true"`
	JSON    bool   `descr:"Print the statement as JSON" optional:"true"`
	Color   bool   `descr:"Colour the table output" optional:"true"`
	Export  bool   `descr:"Export the statement to Google Sheets" optional:"true"`
	Enqueue bool   `descr:"Publish a load request to the worker instead of loading locally" optional:"true"`
}

func main() {
	boa.NewCmdT[Params]("extrato").
		WithShort("Print the month statement of the linked financial institutions").
		WithLong("Loads every account of the linked Pluggy items, fetches the month's transactions and prints them grouped by day, followed by the income (Renda) and expense (Gasto) totals.").
		WithRunFunc(func(params *Params) {
			if code := run(params); code != 0 {
				os.Exit(code)
			}
		}).
		Run()
}

// run returns the process exit code so deferred cleanup runs before exit.
func run(params *Params) int {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentCLI, os.Stderr)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.PluggyTimeout+30*time.Second)
	defer cancel()

	if err := execute(ctx, params, cfg, logger, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, params *Params, cfg *config.Config, logger *applog.Logger, out io.Writer) error {
	month, err := resolveMonth(params.Month, time.Now().In(cfg.Location()))
	if err != nil {
		return err
	}
	itemIDs, explicit := parseItems(params.Items)

	if params.Enqueue {
		return enqueue(ctx, cfg, logger, month, itemIDs, params.Export)
	}

	res, err := cli.InitBackend(logger, cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	st, err := loadStatement(ctx, cfg, res, month, itemIDs, explicit)
	if err != nil {
		return err
	}

	if params.JSON {
		if err := output.PrintStatementJSON(out, st); err != nil {
			return err
		}
	} else {
		output.PrintStatementTable(out, st, output.TableOptions{Color: params.Color})
	}

	if params.Export {
		sheet, err := export(ctx, cfg, st)
		if err != nil {
			return err
		}
		logger.Info("Statement exported", applog.FieldSheet, sheet)
	}
	return nil
}

func loadStatement(ctx context.Context, cfg *config.Config, res *backend.Result, month time.Month, itemIDs []string, explicit bool) (core.Statement, error) {
	if !explicit {
		ids, err := res.Items.ItemIDs(ctx)
		if err != nil {
			return core.Statement{}, fmt.Errorf("read item registry: %w", err)
		}
		itemIDs = ids
	}
	return cli.NewAggregator(cfg, res).LoadMonth(ctx, month, itemIDs)
}

func export(ctx context.Context, cfg *config.Config, st core.Statement) (string, error) {
	if !cfg.SheetsEnabled() {
		return "", fmt.Errorf("sheets export not configured: set GOOGLE_SPREADSHEET_ID and credentials")
	}
	exporter, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetPrefix:     cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		return "", err
	}
	return exporter.ExportStatement(ctx, st)
}

func enqueue(ctx context.Context, cfg *config.Config, logger *applog.Logger, month time.Month, itemIDs []string, exportSheet bool) error {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPResultQueue)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer client.Close()

	msg := amqp.NewLoadRequest(int(month), itemIDs, exportSheet)
	if err := client.PublishLoadRequest(ctx, msg); err != nil {
		return err
	}
	logger.Info("Load request published",
		applog.FieldMessageID, msg.ID,
		applog.FieldMonth, int(month),
		applog.FieldItems, len(itemIDs))
	return nil
}

// resolveMonth maps the --month flag to a month; zero selects now's month.
func resolveMonth(m int, now time.Time) (time.Month, error) {
	if m == 0 {
		return now.Month(), nil
	}
	if err := core.ValidateMonth(m); err != nil {
		return 0, err
	}
	return time.Month(m), nil
}

// parseItems splits the --items flag. Blank entries are kept so the
// aggregator rejects them.
func parseItems(raw string) ([]string, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts, true
}
