package http

import (
	"context"
	"errors"
	"net/http"

	"salestats/internal/core"
	"salestats/internal/log"
	"salestats/internal/services"
)

// Queries is the read side the handlers serve.
type Queries interface {
	ListTransactions(ctx context.Context, p services.ListParams) ([]core.Transaction, error)
	Statistics(ctx context.Context, month string) (core.Statistics, error)
	BarChart(ctx context.Context, month string) (core.Histogram, error)
	PieChart(ctx context.Context, month string) (core.CategoryBreakdown, error)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	params := ParseListParams(r.URL.Query())
	rows, err := s.queries.ListTransactions(r.Context(), params)
	if err != nil {
		s.respondError(w, r, err, log.OpList,
			log.NewFields().WithListing(params.Month, params.Page, params.PerPage, params.Search))
		return
	}
	s.respond(w, r, rows)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	month := MonthParam(r)
	stats, err := s.queries.Statistics(r.Context(), month)
	if err != nil {
		s.respondError(w, r, err, log.OpStatistics, log.NewFields().WithMonth(month))
		return
	}
	s.respond(w, r, stats)
}

func (s *Server) handleBarChart(w http.ResponseWriter, r *http.Request) {
	month := MonthParam(r)
	h, err := s.queries.BarChart(r.Context(), month)
	if err != nil {
		s.respondError(w, r, err, log.OpBarChart, log.NewFields().WithMonth(month))
		return
	}
	s.respond(w, r, h)
}

func (s *Server) handlePieChart(w http.ResponseWriter, r *http.Request) {
	month := MonthParam(r)
	breakdown, err := s.queries.PieChart(r.Context(), month)
	if err != nil {
		s.respondError(w, r, err, log.OpPieChart, log.NewFields().WithMonth(month))
		return
	}
	s.respond(w, r, breakdown)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if _, err := s.store.Count(r.Context()); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any) {
	if err := NewJSONResponse().Body(v).Send(w); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write response", log.FieldError, err.Error())
	}
}

// respondError maps err to a client error or a generic 500. Details of
// unexpected errors stay in the server log.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, op string, fields log.LogFields) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if errors.Is(err, core.ErrInvalidMonth) {
		logger.WarnContext(ctx, "Rejected request", fields.
			WithOperation(op).
			WithError(err).
			WithErrorType(log.ErrorTypeValidation).
			ToSlice()...)
		_ = NewJSONResponse().Error(http.StatusBadRequest, msgInvalidMonth).Send(w)
		return
	}

	logger.ErrorContext(ctx, "Request failed", fields.
		WithOperation(op).
		WithError(err).
		WithErrorType(errorType(err)).
		ToSlice()...)
	_ = NewJSONResponse().Error(http.StatusInternalServerError, msgInternal).Send(w)
}

func errorType(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return log.ErrorTypeNetwork
	}
	return log.ErrorTypeDatabase
}
