// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing query parameters of the
// dashboard endpoints.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"salestats/internal/services"
)

// Query parameter names.
const (
	paramMonth   = "month"
	paramPage    = "page"
	paramPerPage = "perPage"
	paramSearch  = "search"
)

// ParseListParams extracts the listing parameters from query values.
// Page and perPage fall back to the defaults when absent, non-numeric or below 1.
// The month and search text are passed through untouched, so an unrecognized
// month is rejected downstream rather than silently replaced.
func ParseListParams(query url.Values) services.ListParams {
	return services.ListParams{
		Month:   query.Get(paramMonth),
		Search:  query.Get(paramSearch),
		Page:    queryInt(query, paramPage),
		PerPage: queryInt(query, paramPerPage),
	}
}

// MonthParam returns the month query parameter of r.
func MonthParam(r *http.Request) string {
	return r.URL.Query().Get(paramMonth)
}

// queryInt returns the integer value of key, or 0 when it is missing or not a number.
func queryInt(query url.Values, key string) int {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
