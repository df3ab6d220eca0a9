// Package crawler runs one pass over the configured symbols and persists the rows.
package crawler

//go:generate mockgen -destination=mock_fetcher_test.go -package=crawler stockcrawler/crawler Fetcher

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"stockcrawler/quote"
	"stockcrawler/report"
	"stockcrawler/table"
)

// Fetcher loads the raw bytes of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Persister stores the rows collected by a run.
type Persister interface {
	Persist(rows []quote.Row) (table.Result, error)
}

// Summary describes a finished run.
type Summary struct {
	RunID  string
	Rows   []quote.Row
	Failed []string
	Result table.Result
}

// Crawler fetches, extracts and persists quotes for a fixed symbol list.
type Crawler struct {
	symbols     []string
	urlTemplate string
	fetcher     Fetcher
	builder     *quote.Builder
	persister   Persister
	printer     *report.Printer
	logger      *zap.Logger
}

// Config holds the collaborators of a Crawler.
type Config struct {
	Symbols     []string
	URLTemplate string
	Fetcher     Fetcher
	Builder     *quote.Builder
	Persister   Persister
	Printer     *report.Printer
	Logger      *zap.Logger
}

// New creates a crawler.
func New(cfg Config) *Crawler {
	return &Crawler{
		symbols:     cfg.Symbols,
		urlTemplate: cfg.URLTemplate,
		fetcher:     cfg.Fetcher,
		builder:     cfg.Builder,
		persister:   cfg.Persister,
		printer:     cfg.Printer,
		logger:      cfg.Logger,
	}
}

// Quote fetches and builds the row for one symbol without persisting it.
func (c *Crawler) Quote(ctx context.Context, symbol string) (quote.Fields, quote.Row, error) {
	url := fmt.Sprintf(c.urlTemplate, symbol)

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to fetch %s", url)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to parse HTML of %s", url)
	}

	fields, row := c.builder.Build(doc, symbol)
	return fields, row, nil
}

// Run processes every symbol in order, then persists the collected rows once.
// A symbol whose page cannot be fetched is logged and skipped. When ctx is
// cancelled the remaining symbols are dropped, the rows built so far are still
// persisted and ctx's error is returned.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	logger := c.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("Run started", zap.Strings("symbols", c.symbols))

	c.printer.Header()
	for _, symbol := range c.symbols {
		if ctx.Err() != nil {
			break
		}

		fields, row, err := c.Quote(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("Skipping symbol", zap.String("symbol", symbol), zap.Error(err))
			summary.Failed = append(summary.Failed, symbol)
			continue
		}

		missing := 0
		for _, col := range c.builder.Schema().Columns {
			if quote.IsSentinel(col.Field, fields[col.Field]) {
				missing++
			}
		}
		logger.Debug("Row built", zap.String("symbol", symbol), zap.Int("missing_fields", missing))

		c.printer.Row(row)
		summary.Rows = append(summary.Rows, row)
	}

	res, err := c.persister.Persist(summary.Rows)
	if err != nil {
		return summary, errors.Wrap(err, "failed to persist rows")
	}
	summary.Result = res

	c.printer.Status(res, summary.Failed)
	logger.Info("Run finished",
		zap.Int("rows", len(summary.Rows)),
		zap.Strings("failed", summary.Failed),
		zap.String("outcome", res.Outcome.String()),
	)
	if err := ctx.Err(); err != nil {
		logger.Warn("Run interrupted", zap.Int("skipped", len(c.symbols)-len(summary.Rows)-len(summary.Failed)))
		return summary, err
	}
	return summary, nil
}
