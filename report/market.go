// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/nepsense/nepse"
	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Order of the price report by percent change.
type Order string

// Values of Order.
const (
	Ascending  Order = "ascending"
	Descending Order = "descending"
)

// ParseOrder checks that s is a valid Order; empty means Ascending.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(s)) {
	case "", Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	}
	return "", errors.Reason("unknown sort order '%s', expected %s or %s",
		s, Ascending, Descending)
}

// byPercent orders by percent change in the given direction, then by name.
func byPercent(p1 decimal.Decimal, n1 string, p2 decimal.Decimal, n2 string, o Order) bool {
	if c := p1.Cmp(p2); c != 0 {
		if o == Descending {
			return c > 0
		}
		return c < 0
	}
	return n1 < n2
}

func rangeCell(low, high decimal.Decimal) Cell {
	return Text(fmt.Sprintf("%s-%s", low.StringFixed(2), high.StringFixed(2)))
}

// Prices of the companies sorted by percent change. The input is not modified.
func Prices(records []nepse.StockRecord, o Order) Report {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b nepse.StockRecord) bool {
		return byPercent(a.PercentChange, a.Symbol, b.PercentChange, b.Symbol, o)
	})
	r, t := newReport("", "Symbol", "LTP", "Change", "%Change", "Volume",
		"Prev Close", "Open", "Low-High", "52 Week Range", "Turnover")
	for _, rec := range sorted {
		t.AddRow(Row{
			Text(rec.Symbol),
			Price(rec.LTP),
			Change(rec.Change),
			Percent(rec.PercentChange),
			Count(rec.Volume),
			Price(rec.PreviousClose),
			Price(rec.Open),
			rangeCell(rec.Low, rec.High),
			rangeCell(rec.FiftyTwoWeekLow, rec.FiftyTwoWeekHigh),
			Amount(rec.Turnover),
		})
	}
	return r
}

// Detail of a single company as a list of fields.
func Detail(rec *nepse.StockRecord) Report {
	r, t := newReport(fmt.Sprintf("%s: %s", rec.Symbol, rec.Name), "Field", "Value")
	add := func(name string, c Cell) { t.AddRow(Row{Text(name), c}) }
	add("LTP", Price(rec.LTP))
	add("Change", Change(rec.Change))
	add("%Change", Percent(rec.PercentChange))
	add("Open", Price(rec.Open))
	add("High", Price(rec.High))
	add("Low", Price(rec.Low))
	add("Close", Price(rec.Close))
	add("Previous Close", Price(rec.PreviousClose))
	add("Volume", Count(rec.Volume))
	add("Turnover", Amount(rec.Turnover))
	add("52 Week High", Price(rec.FiftyTwoWeekHigh))
	add("52 Week Low", Price(rec.FiftyTwoWeekLow))
	add("52 Week Range", Price(rec.FiftyTwoWeekRange()))
	add("Listed Shares", Count(rec.ListedShares))
	add("Public Shares", Count(rec.PublicShares))
	add("Net Worth", Price(rec.NetWorth))
	if rec.BusinessDate != "" {
		add("Business Date", Text(rec.BusinessDate))
	}
	return r
}

func optionalPrice(d decimal.Decimal) Cell {
	if d.IsZero() {
		return Text("-")
	}
	return Price(d)
}

func indexRow(rec *nepse.IndexRecord) Row {
	return Row{
		Text(rec.Name),
		Price(rec.Value),
		Change(rec.Change),
		Percent(rec.PercentChange),
		optionalPrice(rec.High),
		optionalPrice(rec.Low),
		optionalPrice(rec.PreviousClose),
	}
}

var indexHeader = []string{"Index", "Value", "Change", "%Change", "High", "Low", "Prev Close"}

// Index prints the aggregate market index.
func Index(rec *nepse.IndexRecord) Report {
	r, t := newReport("", indexHeader...)
	t.AddRow(indexRow(rec))
	return r
}

// SplitIndices separates the aggregate index, if present, from the
// sub-indices.
func SplitIndices(records []nepse.IndexRecord) (aggregate *nepse.IndexRecord, subs []nepse.IndexRecord) {
	for i := range records {
		if records[i].IsAggregate() && aggregate == nil {
			rec := records[i]
			aggregate = &rec
			continue
		}
		subs = append(subs, records[i])
	}
	return
}

// SubIndices prints the sector sub-indices by percent change, highest first,
// followed by the aggregate index when present in the input.
func SubIndices(records []nepse.IndexRecord) Report {
	agg, subs := SplitIndices(records)
	slices.SortStableFunc(subs, func(a, b nepse.IndexRecord) bool {
		return byPercent(a.PercentChange, a.Name, b.PercentChange, b.Name, Descending)
	})
	r, t := newReport("Sub-indices", indexHeader...)
	for i := range subs {
		t.AddRow(indexRow(&subs[i]))
	}
	if agg != nil {
		r = append(r, Index(agg)...)
	}
	return r
}

// countMetrics are the summary metrics printed as whole numbers.
var countMetrics = []string{nepse.TotalTransactions, nepse.TotalScripsTraded}

func summaryCell(name string, v decimal.Decimal) Cell {
	for _, m := range countMetrics {
		if strings.EqualFold(name, m) {
			return Count(v.IntPart())
		}
	}
	return Amount(v)
}

// Summary prints the market summary metrics in the upstream order.
func Summary(s *nepse.MarketSummary) Report {
	r, t := newReport("Market Summary", "Metric", "Value")
	for _, it := range s.Items {
		t.AddRow(Row{Text(it.Name), summaryCell(it.Name, it.Value)})
	}
	return r
}

func depthSide(title string, entries []nepse.DepthEntry) Section {
	r, t := newReport(title, "Orders", "Quantity", "Price")
	for _, e := range entries {
		t.AddRow(Row{Count(e.Orders), Count(e.Quantity), Price(e.Price)})
	}
	return r[0]
}

// Depth prints the order book: buy orders, sell orders and the totals.
func Depth(d *nepse.MarketDepth) Report {
	r := Report{
		depthSide(d.Symbol+" Buy Orders", d.Buy),
		depthSide(d.Symbol+" Sell Orders", d.Sell),
	}
	totals, t := newReport("Totals", "Side", "Quantity")
	t.AddRow(
		Row{Text("Buy"), Count(d.TotalBuy)},
		Row{Text("Sell"), Count(d.TotalSell)},
	)
	return append(r, totals...)
}

// Top prints up to limit entries of a top list; limit <= 0 means all.
func Top(kind nepse.TopKind, entries []nepse.TopEntry, limit int) Report {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	title := "Top " + cases.Title(language.English).String(string(kind))
	switch kind {
	case nepse.TopGainers, nepse.TopLosers:
		r, t := newReport(title, "Symbol", "LTP", "Change", "%Change")
		for _, e := range entries {
			t.AddRow(Row{Text(e.Symbol), Price(e.LTP), Change(e.Change), Percent(e.PercentChange)})
		}
		return r
	case nepse.TopTurnover:
		r, t := newReport(title, "Symbol", "LTP", "Turnover")
		for _, e := range entries {
			t.AddRow(Row{Text(e.Symbol), Price(e.LTP), Amount(e.Turnover)})
		}
		return r
	case nepse.TopVolume:
		r, t := newReport(title, "Symbol", "LTP", "Shares Traded")
		for _, e := range entries {
			t.AddRow(Row{Text(e.Symbol), Price(e.LTP), Count(e.SharesTraded)})
		}
		return r
	case nepse.TopTransactions:
		r, t := newReport(title, "Symbol", "LTP", "Transactions")
		for _, e := range entries {
			t.AddRow(Row{Text(e.Symbol), Price(e.LTP), Count(e.Transactions)})
		}
		return r
	}
	r, t := newReport(title, "Symbol", "Orders", "Quantity")
	for _, e := range entries {
		t.AddRow(Row{Text(e.Symbol), Count(e.Orders), Count(e.Quantity)})
	}
	return r
}
