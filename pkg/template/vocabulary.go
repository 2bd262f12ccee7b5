package template

import (
	"fmt"
	"slices"
)

// AggregationMethod names a rolling window computation.
type AggregationMethod string

const (
	MethodSMA    AggregationMethod = "sma"
	MethodEMA    AggregationMethod = "ema"
	MethodRMA    AggregationMethod = "rma"
	MethodSMMA   AggregationMethod = "smma"
	MethodLWMA   AggregationMethod = "lwma"
	MethodSum    AggregationMethod = "sum"
	MethodStdDev AggregationMethod = "stddev"
	MethodMax    AggregationMethod = "max"
	MethodMin    AggregationMethod = "min"
	MethodMedian AggregationMethod = "median"
	MethodMAD    AggregationMethod = "mad"
)

// AggregationMethods lists every method in canonical order. Any list of methods
// produced by the compiler follows this order.
var AggregationMethods = []AggregationMethod{
	MethodSMA, MethodEMA, MethodRMA, MethodSMMA, MethodLWMA,
	MethodSum, MethodStdDev, MethodMax, MethodMin, MethodMedian, MethodMAD,
}

// Valid reports whether m is part of the vocabulary.
func (m AggregationMethod) Valid() bool {
	return slices.Contains(AggregationMethods, m)
}

// Code returns the stable integer code of m, or -1.
func (m AggregationMethod) Code() int {
	return slices.Index(AggregationMethods, m)
}

// SortMethods returns the distinct methods of ms in canonical order.
func SortMethods(ms []AggregationMethod) []AggregationMethod {
	out := make([]AggregationMethod, 0, len(ms))

	for _, m := range AggregationMethods {
		if slices.Contains(ms, m) {
			out = append(out, m)
		}
	}

	return out
}

// ParseAggregationMethod validates a method name.
func ParseAggregationMethod(s string) (AggregationMethod, error) {
	m := AggregationMethod(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown aggregation method %q", s)
	}

	return m, nil
}

// PriceSeries names an OHLCV series or a derived composite of it.
type PriceSeries string

const (
	SeriesOpen   PriceSeries = "open"
	SeriesHigh   PriceSeries = "high"
	SeriesLow    PriceSeries = "low"
	SeriesClose  PriceSeries = "close"
	SeriesVolume PriceSeries = "volume"
	SeriesHL2    PriceSeries = "hl2"
	SeriesHLC3   PriceSeries = "hlc3"
	SeriesOHLC4  PriceSeries = "ohlc4"
	SeriesHLCC4  PriceSeries = "hlcc4"
)

// PriceSeriesList lists every series in canonical order.
var PriceSeriesList = []PriceSeries{
	SeriesOpen, SeriesHigh, SeriesLow, SeriesClose, SeriesVolume,
	SeriesHL2, SeriesHLC3, SeriesOHLC4, SeriesHLCC4,
}

// Valid reports whether s is part of the vocabulary.
func (s PriceSeries) Valid() bool {
	return slices.Contains(PriceSeriesList, s)
}

// Code returns the stable integer code of s, or -1.
func (s PriceSeries) Code() int {
	return slices.Index(PriceSeriesList, s)
}

// Components returns the raw series a composite is averaged from.
// A raw series returns itself.
func (s PriceSeries) Components() []PriceSeries {
	switch s {
	case SeriesHL2:
		return []PriceSeries{SeriesHigh, SeriesLow}
	case SeriesHLC3:
		return []PriceSeries{SeriesHigh, SeriesLow, SeriesClose}
	case SeriesOHLC4:
		return []PriceSeries{SeriesOpen, SeriesHigh, SeriesLow, SeriesClose}
	case SeriesHLCC4:
		return []PriceSeries{SeriesHigh, SeriesLow, SeriesClose, SeriesClose}
	default:
		return []PriceSeries{s}
	}
}

// Composite reports whether s is derived from other series.
func (s PriceSeries) Composite() bool {
	return len(s.Components()) > 1
}

// ParsePriceSeries validates a series name.
func ParsePriceSeries(s string) (PriceSeries, error) {
	p := PriceSeries(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown price series %q", s)
	}

	return p, nil
}

// Timeframe is a bar duration.
type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeM30 Timeframe = "M30"
	TimeframeH1  Timeframe = "H1"
	TimeframeH4  Timeframe = "H4"
	TimeframeD1  Timeframe = "D1"
	TimeframeW1  Timeframe = "W1"
	TimeframeMN1 Timeframe = "MN1"
)

// Timeframes lists every timeframe from shortest to longest.
var Timeframes = []Timeframe{
	TimeframeM1, TimeframeM5, TimeframeM15, TimeframeM30,
	TimeframeH1, TimeframeH4, TimeframeD1, TimeframeW1, TimeframeMN1,
}

var timeframeMinutes = map[Timeframe]int{
	TimeframeM1:  1,
	TimeframeM5:  5,
	TimeframeM15: 15,
	TimeframeM30: 30,
	TimeframeH1:  60,
	TimeframeH4:  240,
	TimeframeD1:  1440,
	TimeframeW1:  10080,
	TimeframeMN1: 43200,
}

// Valid reports whether t is part of the vocabulary.
func (t Timeframe) Valid() bool {
	_, ok := timeframeMinutes[t]

	return ok
}

// Minutes returns the length of one bar in minutes.
func (t Timeframe) Minutes() int {
	return timeframeMinutes[t]
}

// Higher returns the timeframe n steps above t.
func (t Timeframe) Higher(n int) (Timeframe, error) {
	idx := slices.Index(Timeframes, t)
	if idx < 0 {
		return "", fmt.Errorf("unknown timeframe %q", t)
	}

	if n < 0 || idx+n >= len(Timeframes) {
		return "", fmt.Errorf("no timeframe %d steps above %s", n, t)
	}

	return Timeframes[idx+n], nil
}

// ParseTimeframe validates a timeframe name.
func ParseTimeframe(s string) (Timeframe, error) {
	t := Timeframe(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}

	return t, nil
}
