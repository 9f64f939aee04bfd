package ports

import (
	"context"

	"salestats/internal/core"
)

// Ports between the transaction store and its callers.
type (
	// TransactionWriter loads rows during ingestion.
	TransactionWriter interface {
		// InsertIfAbsent stores t unless a row with the same ID exists.
		InsertIfAbsent(ctx context.Context, t core.Transaction) (inserted bool, err error)
	}

	// TransactionReader serves the read side of the dashboard.
	TransactionReader interface {
		ListTransactions(ctx context.Context, f core.ListFilter) ([]core.Transaction, error)
		MonthStatistics(ctx context.Context, m core.Month) (core.Statistics, error)
		// MonthPrices returns the price of every row of m.
		MonthPrices(ctx context.Context, m core.Month) ([]float64, error)
		CategoryCounts(ctx context.Context, m core.Month) ([]core.CategoryCount, error)
	}

	// RowCounter reports how many rows the store holds.
	RowCounter interface {
		Count(ctx context.Context) (int64, error)
	}
)
