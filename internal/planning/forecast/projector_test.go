package forecast

import (
	"reflect"
	"testing"
	"time"

	"github.com/andresuchdata/demand-planner/internal/domain"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestProjectLiftAndGrowthCompound(t *testing.T) {
	configs := []domain.ForecastMonthConfig{
		{ForecastMonth: month(2027, time.April), BaselineDRR: 15, LiftPct: 10},
		{ForecastMonth: month(2027, time.May), BaselineDRR: 15, MoMGrowthPct: 5},
	}

	months := Project(configs)
	if len(months) != 2 {
		t.Fatalf("got %d months, want 2", len(months))
	}

	// April has 30 days: base 450, +10% lift -> 495.
	if months[0].BaseUnits != 450 {
		t.Errorf("month 1 base = %d, want 450", months[0].BaseUnits)
	}
	if months[0].FinalUnits != 495 {
		t.Errorf("month 1 final = %d, want 495", months[0].FinalUnits)
	}

	// Month 2 grows from month 1's projected volume: 495 * 1.05 = 519.75.
	if months[1].FinalUnits != 520 {
		t.Errorf("month 2 final = %d, want 520", months[1].FinalUnits)
	}
}

func TestProjectCarriesFloatChain(t *testing.T) {
	// The chain must compound on the unrounded value, not on each month's
	// rounded display figure.
	configs := []domain.ForecastMonthConfig{
		{ForecastMonth: month(2027, time.April), BaselineDRR: 10, LiftPct: 4.5},
		{ForecastMonth: month(2027, time.May), BaselineDRR: 10, MoMGrowthPct: -10},
	}

	months := Project(configs)

	// Month 1: base 300, running 313.5, displayed as 314.
	if months[0].FinalUnits != 314 {
		t.Fatalf("month 1 final = %d, want 314", months[0].FinalUnits)
	}

	// Month 2 compounds on 313.5: 313.5 * 0.9 = 282.15 -> 282. A chain
	// compounding on the rounded 314 would give 283.
	if months[1].FinalUnits != 282 {
		t.Errorf("month 2 final = %d, want 282", months[1].FinalUnits)
	}
}

func TestProjectReproducible(t *testing.T) {
	configs := []domain.ForecastMonthConfig{
		{ForecastMonth: month(2027, time.January), BaselineDRR: 12.5, LiftPct: 3},
		{ForecastMonth: month(2027, time.February), BaselineDRR: 12.5, MoMGrowthPct: 7, LiftPct: 1},
		{ForecastMonth: month(2027, time.March), BaselineDRR: 12.5, MoMGrowthPct: -2},
	}

	first := Project(configs)
	second := Project(configs)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("projection is not reproducible:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{month(2027, time.January), 31},
		{month(2027, time.February), 28},
		{month(2028, time.February), 29},
		{month(2027, time.April), 30},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.in); got != tt.want {
			t.Errorf("DaysInMonth(%s) = %d, want %d", tt.in.Format("2006-01"), got, tt.want)
		}
	}
}

func TestMonthsFrom(t *testing.T) {
	now := time.Date(2026, time.August, 26, 15, 4, 5, 0, time.UTC)

	months := MonthsFrom(now, 12)
	if len(months) != 12 {
		t.Fatalf("got %d months, want 12", len(months))
	}
	if !months[0].Equal(month(2026, time.September)) {
		t.Errorf("first month = %s, want 2026-09-01", months[0])
	}
	for i := 1; i < len(months); i++ {
		if !months[i].Equal(months[i-1].AddDate(0, 1, 0)) {
			t.Errorf("month %d (%s) is not consecutive after %s", i, months[i], months[i-1])
		}
	}
	if !months[11].Equal(month(2027, time.August)) {
		t.Errorf("last month = %s, want 2027-08-01", months[11])
	}
}
