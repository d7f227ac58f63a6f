// Package api owns the query-parameter and response-envelope formats of the
// table API: parsing the where/order/limit/page/count/query parameters into
// query options, and rendering results or errors into the stable
// {success, ...} JSON shape. Routing and middleware live with the caller.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"sheetstore/internal/qerror"
	"sheetstore/internal/query"
)

// Configure jsoniter for standard library compatibility.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseQuery reads the supported query parameters into query options.
// limit and page values that do not parse as integers are rejected with the
// same pagination error the executor would raise for out-of-range values; a
// malformed count is an operand error, since count does not paginate.
func ParseQuery(values url.Values) (query.Options, error) {
	opts := query.Options{
		Where:     values.Get("where"),
		TextQuery: values.Get("query"),
		Order:     values.Get("order"),
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return opts, qerror.New(qerror.CodeInvalidPagination, "invalid pagination parameter: limit must be a positive integer, got %q", raw)
		}
		opts.Limit = &limit
	}
	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return opts, qerror.New(qerror.CodeInvalidPagination, "invalid pagination parameter: page must be a positive integer, got %q", raw)
		}
		opts.Page = &page
	}
	if raw := values.Get("count"); raw != "" {
		count, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, qerror.New(qerror.CodeInvalidOperand, "invalid parameter: count must be a boolean, got %q", raw)
		}
		opts.Count = count
	}
	return opts, nil
}

// ResultEnvelope is the success shape of every query response.
type ResultEnvelope struct {
	Success    bool            `json:"success"`
	Results    []query.Row     `json:"results"`
	Count      *int            `json:"count,omitempty"`
	Pagination *query.PageInfo `json:"pagination,omitempty"`
}

// ErrorEnvelope is the failure shape of every query response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// StatusFor maps query-taxonomy errors to 400 and everything else to 500.
func StatusFor(err error) int {
	if qerror.IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteResult renders a successful query result.
func WriteResult(w http.ResponseWriter, result *query.Result) {
	writeJSON(w, http.StatusOK, ResultEnvelope{
		Success:    true,
		Results:    result.Results,
		Count:      result.Count,
		Pagination: result.Pagination,
	})
}

// WriteError renders a failed query. Internal errors are logged but not
// echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Internal error serving query: %v", err)
		msg = "internal error"
	}
	writeJSON(w, status, ErrorEnvelope{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// RowFetcher is the slice of the row-source contract the handler needs.
type RowFetcher interface {
	Fetch(ctx context.Context, table string) ([]map[string]any, error)
}

// NewTableHandler serves GET /?table=...&where=...&order=... over a row
// source: fetch the snapshot, run the query, render the envelope.
func NewTableHandler(source RowFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, ErrorEnvelope{Success: false, Error: "method not allowed"})
			return
		}

		table := r.URL.Query().Get("table")
		if table == "" {
			writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Success: false, Error: "'table' query parameter is required"})
			return
		}

		opts, err := ParseQuery(r.URL.Query())
		if err != nil {
			WriteError(w, err)
			return
		}

		rows, err := source.Fetch(r.Context(), table)
		if err != nil {
			WriteError(w, fmt.Errorf("fetching table %q: %w", table, err))
			return
		}

		result, err := query.Execute(rows, opts)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteResult(w, result)
	}
}
