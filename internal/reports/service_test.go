package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gtnulled/despensa_api/internal/apperrors"
	"github.com/gtnulled/despensa_api/internal/identity"
	"github.com/gtnulled/despensa_api/internal/withdrawals"
)

type withdrawalSourceStub struct {
	listRangeFn  func(ctx context.Context, from, to time.Time) ([]*withdrawals.Detail, error)
	countAllFn   func(ctx context.Context) (int64, error)
	countSinceFn func(ctx context.Context, since time.Time) (int64, error)
}

func (s *withdrawalSourceStub) ListRange(ctx context.Context, from, to time.Time) ([]*withdrawals.Detail, error) {
	if s.listRangeFn != nil {
		return s.listRangeFn(ctx, from, to)
	}
	return nil, nil
}

func (s *withdrawalSourceStub) CountAll(ctx context.Context) (int64, error) {
	if s.countAllFn != nil {
		return s.countAllFn(ctx)
	}
	return 0, nil
}

func (s *withdrawalSourceStub) CountSince(ctx context.Context, since time.Time) (int64, error) {
	if s.countSinceFn != nil {
		return s.countSinceFn(ctx, since)
	}
	return 0, nil
}

type itemCounterStub struct {
	countAllFn      func(ctx context.Context) (int64, error)
	countLowFn      func(ctx context.Context, threshold float64) (int64, error)
	countOutFn      func(ctx context.Context) (int64, error)
}

func (s *itemCounterStub) CountAll(ctx context.Context) (int64, error) {
	if s.countAllFn != nil {
		return s.countAllFn(ctx)
	}
	return 0, nil
}

func (s *itemCounterStub) CountLowStock(ctx context.Context, threshold float64) (int64, error) {
	if s.countLowFn != nil {
		return s.countLowFn(ctx, threshold)
	}
	return 0, nil
}

func (s *itemCounterStub) CountOutOfStock(ctx context.Context) (int64, error) {
	if s.countOutFn != nil {
		return s.countOutFn(ctx)
	}
	return 0, nil
}

func adminCtx(id string) context.Context {
	return identity.WithUser(context.Background(), id, true)
}

func memberCtx(id string) context.Context {
	return identity.WithUser(context.Background(), id, false)
}

func detail(item, user string, qty float64) *withdrawals.Detail {
	return &withdrawals.Detail{
		Withdrawal: withdrawals.Withdrawal{UserID: user, Quantity: qty},
		ItemName:   item,
	}
}

func TestServiceMonthlyAggregates(t *testing.T) {
	source := &withdrawalSourceStub{}
	source.listRangeFn = func(ctx context.Context, from, to time.Time) ([]*withdrawals.Detail, error) {
		if from.Month() != time.August || from.Year() != 2026 {
			t.Fatalf("unexpected range start: %s", from)
		}
		return []*withdrawals.Detail{
			detail("Arroz", "usr_1", 5),
			detail("Arroz", "usr_2", 3),
			detail("Feijao", "usr_1", 2),
			detail("", "usr_3", 1),
		}, nil
	}

	svc := &Service{Withdrawals: source, Items: &itemCounterStub{}}

	report, err := svc.Monthly(adminCtx("usr_admin"), "2026-08")
	if err != nil {
		t.Fatalf("monthly error: %v", err)
	}
	if report.TotalWithdrawals != 4 {
		t.Fatalf("unexpected total withdrawals: %d", report.TotalWithdrawals)
	}
	if report.TotalQuantity != 11 {
		t.Fatalf("unexpected total quantity: %v", report.TotalQuantity)
	}
	if report.UniqueUsers != 3 {
		t.Fatalf("unexpected unique users: %d", report.UniqueUsers)
	}
	if report.MonthLabel != "Agosto 2026" {
		t.Fatalf("unexpected month label: %s", report.MonthLabel)
	}
	if len(report.TopItems) != 3 {
		t.Fatalf("unexpected top items: %v", report.TopItems)
	}
	if report.TopItems[0].ItemName != "Arroz" || report.TopItems[0].TotalQuantity != 8 || report.TopItems[0].WithdrawalCount != 2 {
		t.Fatalf("unexpected first item: %+v", report.TopItems[0])
	}
	if report.TopItems[2].ItemName != "Item desconhecido" {
		t.Fatalf("blank item names must fall back, got: %+v", report.TopItems[2])
	}
}

func TestServiceMonthlyTopItemsTieBreak(t *testing.T) {
	source := &withdrawalSourceStub{}
	source.listRangeFn = func(ctx context.Context, from, to time.Time) ([]*withdrawals.Detail, error) {
		return []*withdrawals.Detail{
			detail("Feijao", "usr_1", 4),
			detail("Arroz", "usr_1", 4),
		}, nil
	}

	svc := &Service{Withdrawals: source, Items: &itemCounterStub{}}

	report, err := svc.Monthly(adminCtx("usr_admin"), "2026-08")
	if err != nil {
		t.Fatalf("monthly error: %v", err)
	}
	if report.TopItems[0].ItemName != "Arroz" || report.TopItems[1].ItemName != "Feijao" {
		t.Fatalf("ties must order by name: %+v", report.TopItems)
	}
}

func TestServiceMonthlyTruncatesToTen(t *testing.T) {
	source := &withdrawalSourceStub{}
	source.listRangeFn = func(ctx context.Context, from, to time.Time) ([]*withdrawals.Detail, error) {
		rows := make([]*withdrawals.Detail, 0, 15)
		for i := 0; i < 15; i++ {
			rows = append(rows, detail(fmt.Sprintf("Item %02d", i), "usr_1", float64(i+1)))
		}
		return rows, nil
	}

	svc := &Service{Withdrawals: source, Items: &itemCounterStub{}}

	report, err := svc.Monthly(adminCtx("usr_admin"), "2026-08")
	if err != nil {
		t.Fatalf("monthly error: %v", err)
	}
	if len(report.TopItems) != 10 {
		t.Fatalf("expected top 10, got %d", len(report.TopItems))
	}
	if report.TopItems[0].ItemName != "Item 14" {
		t.Fatalf("unexpected first item: %+v", report.TopItems[0])
	}
}

func TestServiceMonthlyInvalidMonth(t *testing.T) {
	svc := &Service{Withdrawals: &withdrawalSourceStub{}, Items: &itemCounterStub{}}

	for _, month := range []string{"", "2026", "08-2026", "2026-13"} {
		_, err := svc.Monthly(adminCtx("usr_admin"), month)
		assertKind(t, err, apperrors.KindInvalidInput)
	}
}

func TestServiceMonthlyForbiddenForMembers(t *testing.T) {
	svc := &Service{Withdrawals: &withdrawalSourceStub{}, Items: &itemCounterStub{}}

	_, err := svc.Monthly(memberCtx("usr_1"), "2026-08")
	assertKind(t, err, apperrors.KindForbidden)
}

func TestServiceStats(t *testing.T) {
	source := &withdrawalSourceStub{
		countAllFn: func(ctx context.Context) (int64, error) { return 40, nil },
		countSinceFn: func(ctx context.Context, since time.Time) (int64, error) {
			if since.Day() != 1 || since.Hour() != 0 {
				t.Fatalf("monthly count must start at the first instant of the month, got %s", since)
			}
			return 7, nil
		},
	}
	items := &itemCounterStub{
		countAllFn: func(ctx context.Context) (int64, error) { return 12, nil },
		countLowFn: func(ctx context.Context, threshold float64) (int64, error) {
			if threshold != 5 {
				t.Fatalf("unexpected default threshold: %v", threshold)
			}
			return 3, nil
		},
		countOutFn: func(ctx context.Context) (int64, error) { return 2, nil },
	}

	svc := &Service{Withdrawals: source, Items: items}

	stats, err := svc.Stats(memberCtx("usr_1"))
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	if stats.TotalItems != 12 || stats.TotalWithdrawals != 40 || stats.MonthlyWithdrawals != 7 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.LowStockItems != 3 || stats.OutOfStockItems != 2 {
		t.Fatalf("unexpected stock stats: %+v", stats)
	}
}

func TestServiceExportCSV(t *testing.T) {
	source := &withdrawalSourceStub{}
	source.listRangeFn = func(ctx context.Context, from, to time.Time) ([]*withdrawals.Detail, error) {
		return []*withdrawals.Detail{
			detail("Arroz", "usr_1", 2.5),
			detail("Arroz", "usr_2", 1),
		}, nil
	}

	svc := &Service{Withdrawals: source, Items: &itemCounterStub{}}

	data, filename, err := svc.ExportCSV(adminCtx("usr_admin"), "2026-08")
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	if filename != "relatorio-dispensa-2026-08.csv" {
		t.Fatalf("unexpected filename: %s", filename)
	}

	body := string(data)
	for _, want := range []string{
		"Relatório Mensal da Dispensa",
		"Mês: Agosto 2026",
		"Total de Retiradas: 2",
		"Quantidade Total Retirada: 3.5",
		"Usuários Únicos: 2",
		"Itens Mais Retirados",
		"Item,Quantidade Total,Número de Retiradas",
		"Arroz,3.5,2",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("csv missing %q:\n%s", want, body)
		}
	}
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error kind %s", kind)
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got: %v", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("unexpected kind: %s", appErr.Kind)
	}
}
