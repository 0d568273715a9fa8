package housing

import (
	"errors"
	"math"
	"testing"
)

func TestChartsCatalogue(t *testing.T) {
	charts := Charts()
	if len(charts) != 9 {
		t.Fatalf("expected 9 charts, got %d", len(charts))
	}
	ds := mustLoad(t, sampleCSV)
	for _, info := range charts {
		chart, err := ds.BuildChart(info.Name)
		if err != nil {
			t.Errorf("BuildChart(%q) failed: %v", info.Name, err)
			continue
		}
		if chart.Title == "" || chart.XLabel == "" || chart.YLabel == "" {
			t.Errorf("chart %q is missing labels", info.Name)
		}
	}
}

func TestBedroomsDistribution(t *testing.T) {
	ds := mustLoad(t, sampleCSV)
	chart, err := ds.BuildChart("bedrooms_distribution")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chart.Kind != ChartBar {
		t.Fatalf("expected bar chart, got %s", chart.Kind)
	}
	want := []Bar{{"3", 3, 3}, {"2", 2, 1}, {"4", 4, 1}}
	if len(chart.Bars) != len(want) {
		t.Fatalf("unexpected bars: %+v", chart.Bars)
	}
	for i := range want {
		if chart.Bars[i] != want[i] {
			t.Errorf("bar %d = %+v, want %+v", i, chart.Bars[i], want[i])
		}
	}
}

func TestTotalLivingAreaSumsColumns(t *testing.T) {
	ds := mustLoad(t, sampleCSV)
	chart, err := ds.BuildChart("total_living_area_vs_price")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chart.Points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(chart.Points))
	}
	if chart.Points[1] != (Point{X: 2970, Y: 538000}) {
		t.Fatalf("unexpected point: %+v", chart.Points[1])
	}
}

func TestJointChartHasMarginals(t *testing.T) {
	ds := mustLoad(t, sampleCSV)
	chart, err := ds.BuildChart("latitude_vs_longitude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := 0
	for _, b := range chart.MarginalX {
		total += b.Count
	}
	if total != 5 || len(chart.MarginalY) == 0 {
		t.Fatalf("unexpected marginals: x=%+v y=%+v", chart.MarginalX, chart.MarginalY)
	}
}

func TestBuildChartErrors(t *testing.T) {
	ds := mustLoad(t, "price,bedrooms\n1,2\n")
	if _, err := ds.BuildChart("pie"); !errors.Is(err, ErrUnknownChart) {
		t.Fatalf("expected ErrUnknownChart, got %v", err)
	}
	if _, err := ds.BuildChart("floors_distribution"); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestJointChartNonFiniteCells(t *testing.T) {
	ds := mustLoad(t, "price,lat,long\n1,NAN,-122.2\n2,47.5,nan\n3,47.6,-122.3\n4,47.7,-122.1\n")
	chart, err := ds.BuildChart("latitude_vs_longitude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chart.Points) != 2 {
		t.Fatalf("expected rows with NaN to be skipped, got %+v", chart.Points)
	}

	bad := mustLoad(t, "price,lat,long\n1,inf,-122.2\n2,47.5,-122.3\n")
	if _, err := bad.BuildChart("latitude_vs_longitude"); !errors.Is(err, ErrNonNumericColumn) {
		t.Fatalf("expected ErrNonNumericColumn, got %v", err)
	}
}

func TestHistogramSkipsNonFinite(t *testing.T) {
	bins := histogram([]float64{1, math.NaN(), 2, math.Inf(1), 3, math.Inf(-1)})
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 3 {
		t.Fatalf("expected 3 finite values binned, got %d in %+v", total, bins)
	}
	if got := histogram([]float64{math.NaN()}); got != nil {
		t.Fatalf("expected no bins, got %+v", got)
	}
}
