package worker

import (
	"context"
	"fmt"
	"time"

	"extrato/internal/amqp"
	"extrato/internal/core"
	applog "extrato/internal/log"
	"extrato/internal/registry"
	"extrato/internal/services"
	"extrato/internal/sheets"
)

// ResultPublisher sends load outcomes back over the broker.
type ResultPublisher interface {
	PublishMonthLoaded(ctx context.Context, msg *amqp.MonthLoadedMessage) error
}

// LoadWorker answers LoadRequestMessages: it loads the month, optionally
// exports it and publishes a MonthLoadedMessage. Load failures are reported
// in the result message, not returned, so the request is not redelivered.
type LoadWorker struct {
	loader    services.MonthLoader
	items     registry.ItemRegistry
	publisher ResultPublisher
	exporter  sheets.StatementExporter
	year      func() int
	logger    *applog.Logger
}

// NewLoadWorker wires a worker. exporter may be nil to disable exports.
func NewLoadWorker(loader services.MonthLoader, items registry.ItemRegistry, publisher ResultPublisher, exporter sheets.StatementExporter, year func() int, logger *applog.Logger) *LoadWorker {
	if year == nil {
		year = func() int { return time.Now().Year() }
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &LoadWorker{
		loader:    loader,
		items:     items,
		publisher: publisher,
		exporter:  exporter,
		year:      year,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleLoadRequest processes a single load request from AMQP. The returned
// error is only set when the result could not be published.
func (w *LoadWorker) HandleLoadRequest(ctx context.Context, msg *amqp.LoadRequestMessage) error {
	logger := w.logger.With(applog.FieldMessageID, msg.ID, applog.FieldMonth, msg.Month)
	logger.InfoContext(ctx, "Processing load request", applog.FieldItems, len(msg.ItemIDs))

	result := w.process(ctx, logger, msg)

	if err := w.publisher.PublishMonthLoaded(ctx, result); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	return nil
}

func (w *LoadWorker) process(ctx context.Context, logger *applog.Logger, msg *amqp.LoadRequestMessage) *amqp.MonthLoadedMessage {
	ids := msg.ItemIDs
	if len(ids) == 0 {
		var err error
		ids, err = w.items.ItemIDs(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to read item registry", applog.FieldError, err)
			return amqp.NewMonthLoadFailed(msg.ID, w.year(), msg.Month, fmt.Errorf("read item registry: %w", err))
		}
	}

	st, err := w.loader.LoadMonth(ctx, time.Month(msg.Month), ids)
	if err != nil {
		logger.ErrorContext(ctx, "Month load failed", applog.FieldError, err)
		return amqp.NewMonthLoadFailed(msg.ID, w.year(), msg.Month, err)
	}

	result := amqp.NewMonthLoaded(msg.ID, st)
	logger.InfoContext(ctx, "Month loaded",
		applog.NewFields().WithOperation(applog.OpLoad).WithStatement(st.Year, int(st.Month), len(st.Transactions),
			st.TotalIncome.StringFixed(2), st.TotalExpense.StringFixed(2)).ToSlice()...)

	if msg.Export {
		result.Sheet, result.Error = w.export(ctx, logger, st)
	}
	return result
}

func (w *LoadWorker) export(ctx context.Context, logger *applog.Logger, st core.Statement) (string, string) {
	logger = logger.With(applog.FieldOperation, applog.OpExport)
	if w.exporter == nil {
		logger.WarnContext(ctx, "Export requested but no exporter configured")
		return "", "export: sheets export not configured"
	}
	name, err := w.exporter.ExportStatement(ctx, st)
	if err != nil {
		logger.ErrorContext(ctx, "Export failed", applog.FieldError, err)
		return "", fmt.Sprintf("export: %v", err)
	}
	logger.InfoContext(ctx, "Statement exported", applog.FieldSheet, name)
	return name, ""
}
