package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
	"github.com/xenking/herbal-kart/internal/repository"
)

func writeGz(t *testing.T, name, content string) string {
	t.Helper()

	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  []string
		want    *coupon.Coupon
		wantErr bool
	}{
		{
			name:   "PercentWithCap",
			record: []string{"SAVE10", "percent", "10", "0", "20"},
			want: &coupon.Coupon{
				Code:         "SAVE10",
				DiscountType: coupon.DiscountPercent,
				Value:        decimal.NewFromInt(10),
				MinAmount:    decimal.Zero,
				MaxDiscount:  decimal.NewNullDecimal(decimal.NewFromInt(20)),
				Active:       true,
			},
		},
		{
			name:   "FlatNoCap",
			record: []string{" FLAT50 ", "FLAT", "50", "", ""},
			want: &coupon.Coupon{
				Code:         "FLAT50",
				DiscountType: coupon.DiscountFlat,
				Value:        decimal.NewFromInt(50),
				Active:       true,
			},
		},
		{name: "TooFewColumns", record: []string{"X", "flat", "1"}, wantErr: true},
		{name: "BadValue", record: []string{"X", "flat", "ten", "0", ""}, wantErr: true},
		{name: "BadMinAmount", record: []string{"X", "flat", "1", "a", ""}, wantErr: true},
		{name: "BadMaxDiscount", record: []string{"X", "flat", "1", "0", "b"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecord(tt.record)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Code, got.Code)
			assert.Equal(t, tt.want.DiscountType, got.DiscountType)
			assert.True(t, tt.want.Value.Equal(got.Value))
			assert.True(t, tt.want.MinAmount.Equal(got.MinAmount))
			assert.Equal(t, tt.want.MaxDiscount.Valid, got.MaxDiscount.Valid)
			if tt.want.MaxDiscount.Valid {
				assert.True(t, tt.want.MaxDiscount.Decimal.Equal(got.MaxDiscount.Decimal))
			}
			assert.True(t, got.Active)
		})
	}
}

func TestReadCoupons_SkipsHeader(t *testing.T) {
	input := "code,discount_type,value,min_amount,max_discount\nA1,flat,5,0,\n\"broken,flat\n"

	var (
		codes []string
		bad   int
	)
	err := readCoupons(strings.NewReader(input), func(_ int, c *coupon.Coupon, err error) error {
		if err != nil {
			bad++
			return nil
		}
		codes = append(codes, c.Code)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, codes)
	assert.Equal(t, 1, bad)
}

func TestSeenCodes(t *testing.T) {
	s := newSeenCodes()
	assert.True(t, s.add("SAVE10"))
	assert.False(t, s.add("SAVE10"))
	assert.True(t, s.add("FLAT50"))
}

type recordingUpserter struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (r *recordingUpserter) Upsert(_ context.Context, c *coupon.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.codes = append(r.codes, c.Code)
	return nil
}

func TestIngest(t *testing.T) {
	store := docstore.NewMemory()
	require.NoError(t, repository.EnsureIndexes(t.Context(), store))
	svc := coupon.NewService(repository.NewCouponRepository(store))

	first := writeGz(t, "a.csv.gz", "code,discount_type,value,min_amount,max_discount\n"+
		"SAVE10,percent,10,0,20\n"+
		"FLAT50,flat,50,499,\n"+
		"BROKEN,percent,lots,0,\n")
	second := writeGz(t, "b.csv.gz", "SAVE10,percent,10,0,20\n"+
		"ODD,bogus,1,0,\n"+
		"MEGA,percent,30,0,100\n")

	ing := newIngester(svc)
	stats, err := ing.ingest(t.Context(), []string{first, second})
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.written.Load())
	assert.EqualValues(t, 1, stats.duplicates.Load())
	assert.EqualValues(t, 2, stats.invalid.Load())

	coupons := repository.NewCouponRepository(store)
	for _, code := range []string{"SAVE10", "FLAT50", "MEGA"} {
		c, err := coupons.FindActive(t.Context(), code)
		require.NoError(t, err, code)
		assert.Equal(t, code, c.Code)
	}
	_, err = coupons.FindActive(t.Context(), "ODD")
	require.ErrorIs(t, err, coupon.ErrNotFound)
}

func TestIngest_StoreFailure(t *testing.T) {
	path := writeGz(t, "a.csv.gz", "SAVE10,percent,10,0,20\n")
	ing := newIngester(&recordingUpserter{err: errors.New("store down")})

	_, err := ing.ingest(t.Context(), []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}

func TestIngest_MissingFile(t *testing.T) {
	ing := newIngester(&recordingUpserter{})
	_, err := ing.ingest(t.Context(), []string{filepath.Join(t.TempDir(), "nope.csv.gz")})
	require.Error(t, err)
}
