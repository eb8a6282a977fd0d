package snapshot

import (
	"math"
	"testing"
	"time"
)

func TestDensityPerKM(t *testing.T) {
	regs := []VehicleRegistration{
		{Region: "north", Year: 2023, Count: 9000},
		{Region: "north", Year: 2024, Count: 5000},
		{Region: "north", Year: 2024, Count: 1000},
		{Region: "south", Year: 2024, Count: 2000},
		{Region: "island", Year: 2024, Count: 100},
	}
	network := map[string]float64{"north": 300, "south": 100, "island": 0}

	got := DensityPerKM(regs, network)

	// Latest year only: north uses the two 2024 rows, not 2023.
	if v, ok := got.Fetch("north"); !ok || v != 20 {
		t.Errorf("north density = %v (%v), want 6000/300 = 20", v, ok)
	}
	if v, ok := got.Fetch("south"); !ok || v != 20 {
		t.Errorf("south density = %v (%v), want 20", v, ok)
	}
	// Zero network length must stay missing, never divide by zero.
	if _, ok := got.Fetch("island"); ok {
		t.Error("region with no network km should be absent")
	}
}

func TestDensityPerKMSkipsNaNCounts(t *testing.T) {
	regs := []VehicleRegistration{
		{Region: "R", Year: 2024, Count: math.NaN()},
		{Region: "R", Year: 2024, Count: 50},
	}
	got := DensityPerKM(regs, map[string]float64{"R": 10})
	if v, _ := got.Fetch("R"); v != 5 {
		t.Errorf("density = %v, want 5", v)
	}
}

func TestFYEndYear(t *testing.T) {
	tests := []struct {
		fy   string
		want int
	}{
		{"2024-2025", 2025},
		{"2024", 2024},
		{"FY 2023/2024", 2024},
		{"FY24", 0},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		t.Run(tt.fy, func(t *testing.T) {
			if got := fyEndYear(tt.fy); got != tt.want {
				t.Errorf("fyEndYear(%q) = %d, want %d", tt.fy, got, tt.want)
			}
		})
	}
}

func TestBudgetUtilization(t *testing.T) {
	earlier := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	rows := []BudgetRow{
		{Region: "north", FinancialYear: "2023-2024", Allocated: 100, Utilized: 90},
		{Region: "north", FinancialYear: "2024-2025", Allocated: 200, Utilized: 50},
		{Region: "south", FinancialYear: "", Allocated: 100, Utilized: 30, LastUpdated: &earlier},
		{Region: "south", FinancialYear: "", Allocated: 100, Utilized: 60, LastUpdated: &later},
		{Region: "broke", FinancialYear: "2024-2025", Allocated: 0, Utilized: 10},
	}
	got := BudgetUtilization(rows)

	if v, _ := got.Fetch("north"); v != 0.25 {
		t.Errorf("north utilization = %v, want latest FY's 50/200", v)
	}
	if v, _ := got.Fetch("south"); v != 0.6 {
		t.Errorf("south utilization = %v, want latest-updated row's 0.6", v)
	}
	if _, ok := got.Fetch("broke"); ok {
		t.Error("zero allocation should stay missing")
	}
}

func TestRainfallLastMonth(t *testing.T) {
	month := func(y int, m time.Month) time.Time {
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
	rows := []RainfallRow{
		{Region: "north", Month: month(2025, time.October), RainfallMM: 80},
		{Region: "north", Month: month(2025, time.September), RainfallMM: 40},
		{Region: "south", Month: month(2025, time.November), RainfallMM: 20},
		{Region: "east", Month: month(2025, time.October), RainfallMM: math.NaN()},
	}

	tests := []struct {
		name string
		asOf time.Time
	}{
		{"first of month", time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)},
		{"mid month", time.Date(2025, 11, 15, 12, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RainfallLastMonth(rows, tt.asOf)
			if v, ok := got.Fetch("north"); !ok || v != 80 {
				t.Errorf("north rainfall = %v (%v), want October's 80", v, ok)
			}
			if _, ok := got.Fetch("south"); ok {
				t.Error("current-month reading should be excluded")
			}
			if _, ok := got.Fetch("east"); ok {
				t.Error("NaN readings should be excluded")
			}
		})
	}
}
