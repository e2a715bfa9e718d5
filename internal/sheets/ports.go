package sheets

import (
	"context"

	"extrato/internal/core"
)

// Ports for outbound adapters.
type (
	// StatementExporter writes a month statement to a spreadsheet tab and
	// returns the tab name.
	StatementExporter interface {
		ExportStatement(ctx context.Context, st core.Statement) (sheet string, err error)
	}
)
