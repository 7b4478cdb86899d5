package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

func TestRound2(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ in, want float64 }{
		{1.005, 1.01},
		{2.675, 2.68},
		{-1.005, -1.01},
		{3.333333, 3.33},
		{4, 4},
	} {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestLinearRegression(t *testing.T) {
	t.Parallel()

	slope, intercept := LinearRegression([]float64{10, 20, 30, 40})
	if slope != 10 || intercept != 0 {
		t.Fatalf("slope=%v intercept=%v", slope, intercept)
	}
	slope, intercept = LinearRegression([]float64{5, 5, 5})
	if slope != 0 || intercept != 5 {
		t.Fatalf("flat: slope=%v intercept=%v", slope, intercept)
	}
}

func TestForecastNextMonth(t *testing.T) {
	t.Parallel()

	if _, err := ForecastNextMonth(nil); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}

	f, err := ForecastNextMonth([]float64{12.345})
	if err != nil || f.Predicted != 12.35 || f.Note != NoteBaseline || f.Slope != nil {
		t.Fatalf("baseline=%+v err=%v", f, err)
	}

	f, err = ForecastNextMonth([]float64{100, 120, 140})
	if err != nil || f.Predicted != 160 || *f.Slope != 20 || *f.Intercept != 80 {
		t.Fatalf("trend=%+v err=%v", f, err)
	}

	f, _ = ForecastNextMonth([]float64{100, 10})
	if f.Predicted != 0 {
		t.Fatalf("negative forecast should clamp to 0, got %v", f.Predicted)
	}
}

type fakeSource struct {
	warehouse string
	hours     []float64
}

func (f *fakeSource) WarehouseTotals(_ context.Context, flt store.OperationFilter) ([]model.WarehouseTotal, error) {
	f.warehouse = flt.Warehouse
	return []model.WarehouseTotal{{WarehouseName: "Pune", TotalOTHours: 1.0 / 3, TotalOTAmount: 10.005, OperationCount: 1}}, nil
}

func (f *fakeSource) MonthlyTrend(_ context.Context, _ int, warehouse string) ([]model.MonthlyTotal, error) {
	f.warehouse = warehouse
	return []model.MonthlyTotal{{Year: 2025, Month: 1, TotalOTHours: 2.499}}, nil
}

func (f *fakeSource) ApprovalSummary(_ context.Context, flt store.OperationFilter) ([]model.ApprovalTotal, error) {
	f.warehouse = flt.Warehouse
	return nil, nil
}

func (f *fakeSource) MonthlyHours(_ context.Context, warehouse string) ([]float64, error) {
	f.warehouse = warehouse
	return f.hours, nil
}

func TestService_RoundsAndScopes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := &fakeSource{hours: []float64{10.111, 20.222}}
	svc := NewService(src)

	wh, err := svc.WarehouseTotals(ctx, "Pune", DateRange{})
	if err != nil || src.warehouse != "Pune" {
		t.Fatalf("scope=%q err=%v", src.warehouse, err)
	}
	if wh[0].TotalOTHours != 0.33 || wh[0].TotalOTAmount != 10.01 {
		t.Fatalf("rounded=%+v", wh[0])
	}

	trend, _ := svc.MonthlyTrend(ctx, 2025, "")
	if trend[0].TotalOTHours != 2.5 {
		t.Fatalf("trend=%+v", trend)
	}

	fc, err := svc.ForecastMonthlyOT(ctx, "Chakan")
	if err != nil || src.warehouse != "Chakan" {
		t.Fatalf("forecast err=%v scope=%q", err, src.warehouse)
	}
	if fc.Historical[0] != 10.11 || fc.PredictedNextMonth != 30.33 {
		t.Fatalf("forecast=%+v", fc)
	}

	src.hours = nil
	if _, err := svc.ForecastMonthlyOT(ctx, ""); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
}
