package sheets

import (
	"context"

	"cuentas/internal/core"
)

// Ports for outbound adapters.
type (
	// HistoryWriter replaces the consolidated history of one year.
	HistoryWriter interface {
		WriteHistory(ctx context.Context, year int, rows []core.HistoryRow) (ref string, err error)
	}

	// HistoryReader returns what was last mirrored for a year.
	HistoryReader interface {
		ReadHistory(ctx context.Context, year int) ([]core.HistoryRow, error)
	}

	HistoryMirror interface {
		HistoryWriter
		HistoryReader
	}
)
