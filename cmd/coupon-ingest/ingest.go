package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/herbal-kart/internal/domain/coupon"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
	numColumns    = 5
)

// upserter stores one coupon, replacing any coupon with the same code.
type upserter interface {
	Upsert(ctx context.Context, c *coupon.Coupon) error
}

type stats struct {
	written    atomic.Int64
	duplicates atomic.Int64
	invalid    atomic.Int64
}

// seenCodes remembers codes across all files. The bloom filter answers most
// lookups; a positive answer is confirmed against the exact set.
type seenCodes struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

func newSeenCodes() *seenCodes {
	return &seenCodes{
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		exact:  make(map[string]struct{}),
	}
}

// add records code and reports whether it was new.
func (s *seenCodes) add(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filter.TestString(code) {
		if _, ok := s.exact[code]; ok {
			return false
		}
	}
	s.filter.AddString(code)
	s.exact[code] = struct{}{}
	return true
}

type ingester struct {
	coupons upserter
	seen    *seenCodes
	stats   stats
}

func newIngester(coupons upserter) *ingester {
	return &ingester{coupons: coupons, seen: newSeenCodes()}
}

// ingest reads every file concurrently. The first occurrence of a code wins;
// later rows with the same code are skipped.
func (ing *ingester) ingest(ctx context.Context, files []string) (*stats, error) {
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			return ing.ingestFile(ctx, f)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ing.stats, nil
}

func (ing *ingester) ingestFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	var rows int64
	err = readCoupons(gz, func(line int, c *coupon.Coupon, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rows++
		if rows%progressEvery == 0 {
			slog.Info("ingest progress", slog.String("file", path), slog.Int64("rows", rows))
		}

		if err != nil {
			ing.stats.invalid.Add(1)
			slog.Warn("skipping invalid row",
				slog.String("file", path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			return nil
		}
		if !ing.seen.add(c.Code) {
			ing.stats.duplicates.Add(1)
			return nil
		}

		err = ing.coupons.Upsert(ctx, c)
		var invalid *coupon.InvalidError
		switch {
		case errors.As(err, &invalid):
			ing.stats.invalid.Add(1)
			slog.Warn("skipping invalid coupon",
				slog.String("file", path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			return nil
		case err != nil:
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}
		ing.stats.written.Add(1)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "ingest %s", path)
	}

	slog.Info("file complete", slog.String("file", path), slog.Int64("rows", rows))
	return nil
}

// readCoupons parses CSV rows of code,discount_type,value,min_amount,
// max_discount and calls fn for each. A leading header row is skipped. Row
// errors are passed to fn; an error returned by fn stops reading.
func readCoupons(r io.Reader, fn func(line int, c *coupon.Coupon, err error) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	for first := true; ; first = false {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			if err := fn(parseErr.StartLine, nil, err); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return errors.Wrap(err, "read csv")
		}
		line, _ := cr.FieldPos(0)
		if first && strings.EqualFold(strings.TrimSpace(record[0]), "code") {
			continue
		}

		c, err := parseRecord(record)
		if err := fn(line, c, err); err != nil {
			return err
		}
	}
}

func parseRecord(record []string) (*coupon.Coupon, error) {
	if len(record) != numColumns {
		return nil, errors.Errorf("want %d columns, got %d", numColumns, len(record))
	}

	c := &coupon.Coupon{
		Code:         strings.TrimSpace(record[0]),
		DiscountType: coupon.DiscountType(strings.ToLower(strings.TrimSpace(record[1]))),
		Active:       true,
	}

	var err error
	if c.Value, err = decimal.NewFromString(strings.TrimSpace(record[2])); err != nil {
		return nil, errors.Wrap(err, "value")
	}
	if v := strings.TrimSpace(record[3]); v != "" {
		if c.MinAmount, err = decimal.NewFromString(v); err != nil {
			return nil, errors.Wrap(err, "min_amount")
		}
	}
	if v := strings.TrimSpace(record[4]); v != "" {
		maxDiscount, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.Wrap(err, "max_discount")
		}
		c.MaxDiscount = decimal.NewNullDecimal(maxDiscount)
	}
	return c, nil
}
