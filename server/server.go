// Package server exposes freshly extracted quotes over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"stockcrawler/quote"
)

// Quoter builds the row for one symbol.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (quote.Fields, quote.Row, error)
}

// QuoteResponse is the JSON body of GET /quotes/{symbol}.
type QuoteResponse struct {
	Symbol  string            `json:"symbol"`
	Columns []string          `json:"columns"`
	Row     []string          `json:"row"`
	Fields  map[string]string `json:"fields"`
}

type handler struct {
	quoter Quoter
	schema quote.Schema
	logger *zap.Logger
}

// New returns the HTTP handler. Quotes are never persisted from here.
func New(quoter Quoter, schema quote.Schema, logger *zap.Logger) http.Handler {
	h := &handler{quoter: quoter, schema: schema, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/quotes/{symbol}", h.getQuote).Methods("GET")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	return handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(os.Stdout, router))
}

func (h *handler) getQuote(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	fields, row, err := h.quoter.Quote(r.Context(), symbol)
	if err != nil {
		h.logger.Error("Quote failed", zap.String("symbol", symbol), zap.Error(err))
		http.Error(w, "Error fetching quote page", http.StatusBadGateway)
		return
	}

	resp := QuoteResponse{
		Symbol:  symbol,
		Columns: h.schema.Headers(),
		Row:     row,
		Fields:  make(map[string]string, len(h.schema.Columns)),
	}
	for _, c := range h.schema.Columns {
		resp.Fields[string(c.Field)] = fields[c.Field]
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
