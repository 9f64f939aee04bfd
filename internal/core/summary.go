package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Statistics summarizes one month of transactions.
//
// TotalSoldItems counts every row of the month regardless of the sold flag.
type Statistics struct {
	TotalSaleAmount   float64 `json:"totalSaleAmount"`
	TotalSoldItems    int64   `json:"totalSoldItems"`
	TotalNotSoldItems int64   `json:"totalNotSoldItems"`
}

// PriceBucket is an inclusive price range of the bar chart. Open buckets have no upper bound.
type PriceBucket struct {
	Min  float64
	Max  float64
	Open bool
}

// PriceBuckets partitions the price line into the ten bar chart ranges.
var PriceBuckets = []PriceBucket{
	{Min: 0, Max: 100},
	{Min: 101, Max: 200},
	{Min: 201, Max: 300},
	{Min: 301, Max: 400},
	{Min: 401, Max: 500},
	{Min: 501, Max: 600},
	{Min: 601, Max: 700},
	{Min: 701, Max: 800},
	{Min: 801, Max: 900},
	{Min: 901, Open: true},
}

func (b PriceBucket) Label() string {
	min := strconv.FormatFloat(b.Min, 'f', -1, 64)
	if b.Open {
		return min + "-above"
	}
	return min + "-" + strconv.FormatFloat(b.Max, 'f', -1, 64)
}

// BucketIndex returns the index in PriceBuckets that holds price.
// A price between two labelled ranges (100.5) belongs to the upper one, so every
// price lands in exactly one bucket.
func BucketIndex(price float64) int {
	last := len(PriceBuckets) - 1
	for i, b := range PriceBuckets[:last] {
		if price <= b.Max {
			return i
		}
	}
	return last
}

type BucketCount struct {
	Label string
	Count int64
}

// Histogram holds one count per PriceBuckets entry, in bucket order.
type Histogram []BucketCount

// NewHistogram counts prices into PriceBuckets.
func NewHistogram(prices []float64) Histogram {
	h := make(Histogram, len(PriceBuckets))
	for i, b := range PriceBuckets {
		h[i].Label = b.Label()
	}
	for _, p := range prices {
		h[BucketIndex(p)].Count++
	}
	return h
}

func (h Histogram) Total() int64 {
	var n int64
	for _, b := range h {
		n += b.Count
	}
	return n
}

// Counts returns the histogram as label -> count.
func (h Histogram) Counts() map[string]int64 {
	out := make(map[string]int64, len(h))
	for _, b := range h {
		out[b.Label] = b.Count
	}
	return out
}

// MarshalJSON encodes the histogram as an object whose keys keep bucket order.
func (h Histogram) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(b.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(b.Count, 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CategoryCount is the number of rows of one category in a month.
type CategoryCount struct {
	Category string
	Count    int64
}

// CategoryBreakdown maps category name to row count.
type CategoryBreakdown map[string]int64

func NewCategoryBreakdown(counts []CategoryCount) CategoryBreakdown {
	out := make(CategoryBreakdown, len(counts))
	for _, c := range counts {
		out[c.Category] += c.Count
	}
	return out
}

func (c CategoryBreakdown) Total() int64 {
	var n int64
	for _, v := range c {
		n += v
	}
	return n
}

// SeedReport describes one ingestion run.
type SeedReport struct {
	Source     string
	Fetched    int
	Inserted   int
	Ignored    int
	Failed     int
	Duration   time.Duration
	FinishedAt time.Time
}
