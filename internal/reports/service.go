package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gtnulled/despensa_api/internal/apperrors"
	"github.com/gtnulled/despensa_api/internal/identity"
	"github.com/gtnulled/despensa_api/internal/withdrawals"
)

// Report screens are in Portuguese, same as the rest of the user-facing
// material handed out to the community.
const unknownItemLabel = "Item desconhecido"

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

const (
	topItemsLimit            = 10
	defaultLowStockThreshold = 5
)

type WithdrawalSource interface {
	ListRange(ctx context.Context, from, to time.Time) ([]*withdrawals.Detail, error)
	CountAll(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type ItemCounter interface {
	CountAll(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context, threshold float64) (int64, error)
	CountOutOfStock(ctx context.Context) (int64, error)
}

type Cache interface {
	GetReport(ctx context.Context, month string) (*MonthlyReport, bool, error)
	SetReport(ctx context.Context, month string, report *MonthlyReport, ttl time.Duration) error
}

type Service struct {
	Withdrawals       WithdrawalSource
	Items             ItemCounter
	Cache             Cache
	CacheTTL          time.Duration
	LowStockThreshold float64
	Now               func() time.Time
}

// Monthly aggregates one calendar month of withdrawals. Super admin
// only. Past months never change, so cached reports stay valid; the
// current month tolerates the cache TTL of staleness.
func (s *Service) Monthly(ctx context.Context, month string) (*MonthlyReport, error) {
	if s.Withdrawals == nil {
		return nil, apperrors.New(apperrors.KindInternal, "reports not configured")
	}
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}

	from, to, err := monthBounds(month)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid month, expected YYYY-MM")
	}

	if s.Cache != nil {
		if cached, ok, cacheErr := s.Cache.GetReport(ctx, month); cacheErr == nil && ok {
			return cached, nil
		}
	}

	rows, err := s.Withdrawals.ListRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to load withdrawals")
	}

	report := aggregate(month, from, rows)

	if s.Cache != nil && s.CacheTTL > 0 {
		_ = s.Cache.SetReport(ctx, month, report, s.CacheTTL)
	}
	return report, nil
}

// Stats returns the dashboard counters. Available to every approved
// user, not just admins.
func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	if s.Withdrawals == nil || s.Items == nil {
		return nil, apperrors.New(apperrors.KindInternal, "reports not configured")
	}
	if _, ok := identity.UserID(ctx); !ok {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}
	n := now().UTC()
	monthStart := time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, time.UTC)

	threshold := s.LowStockThreshold
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}

	var stats DashboardStats
	var err error
	if stats.TotalItems, err = s.Items.CountAll(ctx); err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to load stats")
	}
	if stats.TotalWithdrawals, err = s.Withdrawals.CountAll(ctx); err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to load stats")
	}
	if stats.MonthlyWithdrawals, err = s.Withdrawals.CountSince(ctx, monthStart); err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to load stats")
	}
	if stats.LowStockItems, err = s.Items.CountLowStock(ctx, threshold); err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to load stats")
	}
	if stats.OutOfStockItems, err = s.Items.CountOutOfStock(ctx); err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to load stats")
	}
	return &stats, nil
}

func aggregate(month string, from time.Time, rows []*withdrawals.Detail) *MonthlyReport {
	type itemStats struct {
		quantity float64
		count    int
	}

	total := 0.0
	uniqueUsers := make(map[string]struct{}, len(rows))
	perItem := make(map[string]*itemStats)

	for _, w := range rows {
		total += w.Quantity
		uniqueUsers[w.UserID] = struct{}{}

		name := w.ItemName
		if strings.TrimSpace(name) == "" {
			name = unknownItemLabel
		}
		st := perItem[name]
		if st == nil {
			st = &itemStats{}
			perItem[name] = st
		}
		st.quantity += w.Quantity
		st.count++
	}

	top := make([]TopItem, 0, len(perItem))
	for name, st := range perItem {
		top = append(top, TopItem{
			ItemName:        name,
			TotalQuantity:   st.quantity,
			WithdrawalCount: st.count,
		})
	}
	// Quantity descending, name ascending on ties, so the ranking is
	// stable across runs.
	sort.Slice(top, func(i, j int) bool {
		if top[i].TotalQuantity != top[j].TotalQuantity {
			return top[i].TotalQuantity > top[j].TotalQuantity
		}
		return top[i].ItemName < top[j].ItemName
	})
	if len(top) > topItemsLimit {
		top = top[:topItemsLimit]
	}

	return &MonthlyReport{
		Month:            month,
		MonthLabel:       fmt.Sprintf("%s %d", monthNames[from.Month()-1], from.Year()),
		TotalWithdrawals: len(rows),
		TotalQuantity:    total,
		UniqueUsers:      len(uniqueUsers),
		TopItems:         top,
	}
}

// monthBounds returns the inclusive [first instant, last second] range
// of a YYYY-MM calendar month in UTC.
func monthBounds(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end, nil
}

func requireSuperAdmin(ctx context.Context) error {
	if _, ok := identity.UserID(ctx); !ok {
		return apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	if !identity.IsSuperAdmin(ctx) {
		return apperrors.New(apperrors.KindForbidden, "forbidden")
	}
	return nil
}
