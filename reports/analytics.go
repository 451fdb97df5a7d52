/*
analytics.go - Profit analytics bucketed by period

PURPOSE:
  Revenue and profit derivations on top of production data:
  revenue = units x selling price, profit = revenue - cost, grouped
  into daily, weekly, monthly or yearly buckets. The selling price
  comes from the injected settings service, never from global state.

COST BASIS:
  Costs come from the unit prices snapshotted in the ledger at
  production time, so historical buckets are stable across later
  price changes.
*/
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/factory-ops/inventory"
)

// =============================================================================
// BUCKETS
// =============================================================================

// Bucket is one analytics period.
type Bucket struct {
	Label       string // e.g. "2026-08-29", "2026-W35", "2026-08", "2026"
	PeriodStart time.Time
	Units       int64
	Runs        int
	Revenue     decimal.Decimal
	Cost        decimal.Decimal
	Profit      decimal.Decimal
}

// Overview is the headline profit card.
type Overview struct {
	SellingPrice decimal.Decimal
	TotalUnits   int64
	TotalRevenue decimal.Decimal
	TotalCost    decimal.Decimal
	TotalProfit  decimal.Decimal
}

// =============================================================================
// ANALYTICS QUERIES
// =============================================================================

// GetOverview totals revenue, cost and profit across all runs.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	price, err := s.settings.SellingPrice(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.GetProductionSummary(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	revenue := decimal.NewFromInt(summary.TotalUnits).Mul(price)
	return &Overview{
		SellingPrice: price,
		TotalUnits:   summary.TotalUnits,
		TotalRevenue: revenue.Round(2),
		TotalCost:    summary.TotalCost,
		TotalProfit:  revenue.Sub(summary.TotalCost).Round(2),
	}, nil
}

// GetDailyAnalytics returns one bucket per day for the trailing n days.
func (s *Service) GetDailyAnalytics(ctx context.Context, days int) ([]Bucket, error) {
	from := startOfDay(time.Now().UTC()).AddDate(0, 0, -(days - 1))
	return s.bucketed(ctx, from, func(t time.Time) (string, time.Time) {
		day := startOfDay(t)
		return day.Format("2006-01-02"), day
	})
}

// GetWeeklyAnalytics returns one bucket per ISO week for the trailing
// n weeks.
func (s *Service) GetWeeklyAnalytics(ctx context.Context, weeks int) ([]Bucket, error) {
	from := startOfWeek(time.Now().UTC()).AddDate(0, 0, -7*(weeks-1))
	return s.bucketed(ctx, from, func(t time.Time) (string, time.Time) {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week), startOfWeek(t)
	})
}

// GetMonthlyAnalytics returns one bucket per month for the trailing
// n months.
func (s *Service) GetMonthlyAnalytics(ctx context.Context, months int) ([]Bucket, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	return s.bucketed(ctx, from, func(t time.Time) (string, time.Time) {
		month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return month.Format("2006-01"), month
	})
}

// GetYearlyAnalytics returns one bucket per year for the trailing
// n years.
func (s *Service) GetYearlyAnalytics(ctx context.Context, years int) ([]Bucket, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year()-(years-1), time.January, 1, 0, 0, 0, 0, time.UTC)
	return s.bucketed(ctx, from, func(t time.Time) (string, time.Time) {
		year := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return year.Format("2006"), year
	})
}

// bucketed groups runs since 'from' by the key function and derives
// revenue/cost/profit per bucket.
func (s *Service) bucketed(ctx context.Context, from time.Time, keyFn func(time.Time) (string, time.Time)) ([]Bucket, error) {
	price, err := s.settings.SellingPrice(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListProductions(ctx, from, time.Time{})
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string]*Bucket)
	var order []string
	for _, rec := range records {
		label, start := keyFn(rec.Date)
		bucket, ok := byLabel[label]
		if !ok {
			bucket = &Bucket{
				Label:       label,
				PeriodStart: start,
				Revenue:     decimal.Zero,
				Cost:        decimal.Zero,
			}
			byLabel[label] = bucket
			order = append(order, label)
		}

		entries, err := s.store.EntriesByProduction(ctx, rec.ID, inventory.KindProduction)
		if err != nil {
			return nil, err
		}
		bucket.Runs++
		bucket.Units += rec.Quantity
		bucket.Cost = bucket.Cost.Add(inventory.CostOfEntries(entries))
	}

	buckets := make([]Bucket, 0, len(order))
	for _, label := range order {
		b := byLabel[label]
		b.Revenue = decimal.NewFromInt(b.Units).Mul(price).Round(2)
		b.Cost = b.Cost.Round(2)
		b.Profit = b.Revenue.Sub(b.Cost)
		buckets = append(buckets, *b)
	}
	// ListProductions returns newest first; keep insertion order so
	// buckets come out newest first as well.
	return buckets, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	// ISO weeks start on Monday.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
