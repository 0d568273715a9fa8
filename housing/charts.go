package housing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

const (
	ChartBar     = "bar"
	ChartScatter = "scatter"
	ChartJoint   = "joint"
)

// Bar is one value_counts() entry.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Point is one scatter sample.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bin is a histogram bucket from Start to End.
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// Chart is the data behind one canned visualisation. Rendering is left to
// the client.
type Chart struct {
	Name      string  `json:"name"`
	Label     string  `json:"label"`
	Kind      string  `json:"kind"`
	Title     string  `json:"title"`
	XLabel    string  `json:"x_label"`
	YLabel    string  `json:"y_label"`
	Bars      []Bar   `json:"bars,omitempty"`
	Points    []Point `json:"points,omitempty"`
	MarginalX []Bin   `json:"marginal_x,omitempty"`
	MarginalY []Bin   `json:"marginal_y,omitempty"`
}

// ChartInfo describes an available chart without its data.
type ChartInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

type chartDef struct {
	info   ChartInfo
	xLabel string
	yLabel string
	x      []string // summed per row when more than one column
	y      string
}

var chartDefs = []chartDef{
	{ChartInfo{"bedrooms_distribution", "Bedrooms Distribution", ChartBar, "Number of Bedrooms"}, "Bedrooms", "Count", []string{"bedrooms"}, ""},
	{ChartInfo{"latitude_vs_longitude", "Latitude vs Longitude", ChartJoint, "Latitude vs Longitude"}, "Latitude", "Longitude", []string{"lat"}, "long"},
	{ChartInfo{"price_vs_sqft_living", "Price vs Sqft Living", ChartScatter, "Price vs Square Feet"}, "Price", "Square Feet", []string{"price"}, "sqft_living"},
	{ChartInfo{"price_vs_longitude", "Price vs Longitude", ChartScatter, "Price vs Location (Longitude)"}, "Price", "Longitude", []string{"price"}, "long"},
	{ChartInfo{"price_vs_latitude", "Price vs Latitude", ChartScatter, "Latitude vs Price"}, "Price", "Latitude", []string{"price"}, "lat"},
	{ChartInfo{"bedrooms_vs_price", "Bedrooms vs Price", ChartScatter, "Bedrooms vs Price"}, "Bedrooms", "Price", []string{"bedrooms"}, "price"},
	{ChartInfo{"total_living_area_vs_price", "Total Living Area vs Price", ChartScatter, "Total Living Area (SqFt) vs Price"}, "Total SqFt", "Price", []string{"sqft_living", "sqft_basement"}, "price"},
	{ChartInfo{"waterfront_vs_price", "Waterfront vs Price", ChartScatter, "Waterfront vs Price (0 = No Waterfront)"}, "Waterfront", "Price", []string{"waterfront"}, "price"},
	{ChartInfo{"floors_distribution", "Floors Distribution", ChartBar, "Distribution of Floors"}, "Floors", "Count", []string{"floors"}, ""},
}

// Charts lists the canned charts in menu order.
func Charts() []ChartInfo {
	out := make([]ChartInfo, len(chartDefs))
	for i, def := range chartDefs {
		out[i] = def.info
	}
	return out
}

// BuildChart computes the series for the named chart.
func (ds *Dataset) BuildChart(name string) (*Chart, error) {
	var def *chartDef
	for i := range chartDefs {
		if chartDefs[i].info.Name == name {
			def = &chartDefs[i]
			break
		}
	}
	if def == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}

	chart := &Chart{
		Name:   def.info.Name,
		Label:  def.info.Label,
		Kind:   def.info.Kind,
		Title:  def.info.Title,
		XLabel: def.xLabel,
		YLabel: def.yLabel,
	}

	xs, xPresent, err := ds.summedColumns(def.x)
	if err != nil {
		return nil, err
	}

	if def.info.Kind == ChartBar {
		chart.Bars = valueCounts(xs, xPresent)
		return chart, nil
	}

	ys, yPresent, err := ds.Numeric(def.y)
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(xs))
	for i := range xs {
		if xPresent[i] && yPresent[i] {
			points = append(points, Point{X: xs[i], Y: ys[i]})
		}
	}
	chart.Points = points

	if def.info.Kind == ChartJoint {
		px := make([]float64, len(points))
		py := make([]float64, len(points))
		for i, p := range points {
			px[i] = p.X
			py[i] = p.Y
		}
		chart.MarginalX = histogram(px)
		chart.MarginalY = histogram(py)
	}
	return chart, nil
}

func (ds *Dataset) summedColumns(columns []string) ([]float64, []bool, error) {
	var sum []float64
	var present []bool
	for _, c := range columns {
		values, ok, err := ds.Numeric(c)
		if err != nil {
			return nil, nil, err
		}
		if sum == nil {
			sum = values
			present = ok
			continue
		}
		for i := range sum {
			sum[i] += values[i]
			present[i] = present[i] && ok[i]
		}
	}
	return sum, present, nil
}

// valueCounts orders by descending count, ties by first appearance.
func valueCounts(values []float64, present []bool) []Bar {
	counts := make(map[float64]int)
	order := make([]float64, 0)
	for i, v := range values {
		if !present[i] {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	bars := make([]Bar, len(order))
	for i, v := range order {
		bars[i] = Bar{Label: strconv.FormatFloat(v, 'f', -1, 64), Value: v, Count: counts[v]}
	}
	sort.SliceStable(bars, func(a, b int) bool {
		return bars[a].Count > bars[b].Count
	})
	return bars
}

// histogram uses Sturges' rule for the bin count. Non-finite values are
// left out.
func histogram(values []float64) []Bin {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	values = finite
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	bins := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	if hi == lo {
		return []Bin{{Start: lo - 0.5, End: hi + 0.5, Count: len(values)}}
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Start: lo + float64(i)*width, End: lo + float64(i+1)*width}
	}
	out[bins-1].End = hi
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}
