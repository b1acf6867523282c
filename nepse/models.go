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

package nepse

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
)

var hundred = decimal.NewFromInt(100)

// Changes computes the change and the percent change from the previous close,
// rounded to 2 decimals. Both are zero when the previous close is zero.
func Changes(price, prevClose decimal.Decimal) (change, percent decimal.Decimal) {
	if prevClose.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	change = price.Sub(prevClose)
	percent = change.Mul(hundred).DivRound(prevClose, 2)
	return change.Round(2), percent
}

// Security is an entry of the upstream's list of listed companies.
type Security struct {
	ID     int64
	Symbol string
	Name   string
	Sector string
}

// StockRecord is the daily trading summary of a company.
type StockRecord struct {
	Symbol           string
	Name             string
	LTP              decimal.Decimal // last traded price
	Open             decimal.Decimal
	High             decimal.Decimal
	Low              decimal.Decimal
	Close            decimal.Decimal
	PreviousClose    decimal.Decimal
	Change           decimal.Decimal
	PercentChange    decimal.Decimal
	Volume           int64
	Turnover         decimal.Decimal
	FiftyTwoWeekHigh decimal.Decimal
	FiftyTwoWeekLow  decimal.Decimal
	NetWorth         decimal.Decimal // net worth base price
	ListedShares     int64
	PublicShares     int64
	BusinessDate     string
}

func newStockRecord(symbol string, d *companyDetailJSON) *StockRecord {
	t := d.DailyTrade
	r := StockRecord{
		Symbol:           strings.ToUpper(symbol),
		Name:             d.Security.SecurityName,
		LTP:              t.LastTradedPrice,
		Open:             t.OpenPrice,
		High:             t.HighPrice,
		Low:              t.LowPrice,
		Close:            t.ClosePrice,
		PreviousClose:    t.PreviousClose,
		Volume:           t.TotalTradeQuantity.IntPart(),
		Turnover:         t.TotalTradedValue,
		FiftyTwoWeekHigh: t.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  t.FiftyTwoWeekLow,
		NetWorth:         d.Security.NetworthBasePrice,
		ListedShares:     d.PublicShares.Add(d.PromoterShares).IntPart(),
		PublicShares:     d.PublicShares.IntPart(),
		BusinessDate:     t.BusinessDate,
	}
	r.Change, r.PercentChange = Changes(r.LTP, r.PreviousClose)
	if r.Turnover.IsZero() {
		r.Turnover = t.TotalTradeQuantity.Mul(r.LTP)
	}
	return &r
}

// FiftyTwoWeekRange is the difference between the 52 week high and low.
func (r *StockRecord) FiftyTwoWeekRange() decimal.Decimal {
	return r.FiftyTwoWeekHigh.Sub(r.FiftyTwoWeekLow)
}

// AggregateIndex is the name of the overall market index.
const AggregateIndex = "NEPSE Index"

// IndexRecord is the current value of a market index.
type IndexRecord struct {
	Name          string
	Value         decimal.Decimal
	Change        decimal.Decimal
	PercentChange decimal.Decimal
	High          decimal.Decimal // zero when not reported
	Low           decimal.Decimal // zero when not reported
	PreviousClose decimal.Decimal // zero when not reported
}

// IsAggregate reports whether this is the overall market index rather than a
// sector sub-index.
func (r *IndexRecord) IsAggregate() bool {
	return strings.EqualFold(strings.TrimSpace(r.Name), AggregateIndex)
}

func newIndexRecord(j *indexJSON) IndexRecord {
	r := IndexRecord{
		Name:          j.Index,
		Value:         j.CurrentValue,
		Change:        j.Change,
		PercentChange: j.PerChange,
		High:          j.High,
		Low:           j.Low,
		PreviousClose: j.PreviousClose,
	}
	if r.Value.IsZero() {
		r.Value = j.Close
	}
	if !r.PreviousClose.IsZero() {
		r.Change, r.PercentChange = Changes(r.Value, r.PreviousClose)
	}
	return r
}

// Side of an order book entry.
type Side string

// Values of Side.
const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// DepthEntry is a single price level of the order book.
type DepthEntry struct {
	Side     Side
	Orders   int64
	Quantity int64
	Price    decimal.Decimal
}

// MarketDepth is an order book snapshot of a company. Entries are in the
// upstream order.
type MarketDepth struct {
	Symbol    string
	Buy       []DepthEntry
	Sell      []DepthEntry
	TotalBuy  int64
	TotalSell int64
}

func depthEntries(side Side, levels []depthLevelJSON) []DepthEntry {
	res := make([]DepthEntry, len(levels))
	for i, l := range levels {
		res[i] = DepthEntry{
			Side:     side,
			Orders:   l.OrderCount.IntPart(),
			Quantity: l.Quantity.IntPart(),
			Price:    l.Price,
		}
	}
	return res
}

// TotalQuantity of the entries.
func TotalQuantity(entries []DepthEntry) int64 {
	return iterator.Reduce[DepthEntry, int64](iterator.FromSlice(entries), 0,
		func(e DepthEntry, total int64) int64 { return total + e.Quantity })
}

func newMarketDepth(symbol string, j *marketDepthJSON) *MarketDepth {
	d := MarketDepth{
		Symbol:    strings.ToUpper(symbol),
		TotalBuy:  j.TotalBuyQty.IntPart(),
		TotalSell: j.TotalSellQty.IntPart(),
	}
	if j.MarketDepth != nil {
		d.Buy = depthEntries(Buy, j.MarketDepth.Buy)
		d.Sell = depthEntries(Sell, j.MarketDepth.Sell)
	}
	if d.TotalBuy == 0 {
		d.TotalBuy = TotalQuantity(d.Buy)
	}
	if d.TotalSell == 0 {
		d.TotalSell = TotalQuantity(d.Sell)
	}
	return &d
}

// Names of the market summary metrics.
const (
	TotalTurnover        = "Total Turnover"
	TotalTradedShares    = "Total Traded Shares"
	TotalTransactions    = "Total Transactions"
	TotalScripsTraded    = "Total Scrips Traded"
	MarketCapitalization = "Total Market Capitalization"
)

// SummaryItem is a single named metric of the market summary.
type SummaryItem struct {
	Name  string
	Value decimal.Decimal
}

// MarketSummary is the list of market-wide metrics in the upstream order.
type MarketSummary struct {
	Items []SummaryItem
}

// normalizeMetric strips the currency word and trailing punctuation in any
// case, e.g. "Total Turnover Rs:" and "total turnover rs." become "Total
// Turnover" and "total turnover". Only a separate "Rs" word is stripped.
func normalizeMetric(name string) string {
	name = strings.TrimRight(strings.TrimSpace(name), ":. ")
	if i := strings.LastIndex(name, " "); i >= 0 && strings.EqualFold(name[i+1:], "rs") {
		name = strings.TrimRight(name[:i], ":. ")
	}
	return name
}

// Value of the named metric; the second value is false if it's missing.
func (s *MarketSummary) Value(name string) (decimal.Decimal, bool) {
	name = normalizeMetric(name)
	for _, it := range s.Items {
		if strings.EqualFold(it.Name, name) {
			return it.Value, true
		}
	}
	return decimal.Zero, false
}

// TotalTransactions is the number of trades in the current session.
func (s *MarketSummary) TotalTransactions() (int, error) {
	v, ok := s.Value(TotalTransactions)
	if !ok {
		return 0, errors.Reason("market summary has no '%s'", TotalTransactions)
	}
	if v.IsNegative() {
		return 0, errors.Reason("negative '%s': %s", TotalTransactions, v)
	}
	return int(v.IntPart()), nil
}

// TopKind is the kind of a top-N list.
type TopKind string

// Values of TopKind.
const (
	TopGainers      TopKind = "gainers"
	TopLosers       TopKind = "losers"
	TopTurnover     TopKind = "turnover"
	TopVolume       TopKind = "volume"
	TopTransactions TopKind = "transactions"
	TopSupply       TopKind = "supply"
	TopDemand       TopKind = "demand"
)

// TopKinds lists all the valid kinds.
var TopKinds = []TopKind{
	TopGainers, TopLosers, TopTurnover, TopVolume, TopTransactions, TopSupply, TopDemand,
}

// ParseTopKind checks that s is a valid TopKind.
func ParseTopKind(s string) (TopKind, error) {
	for _, k := range TopKinds {
		if string(k) == strings.ToLower(s) {
			return k, nil
		}
	}
	return "", errors.Reason("unknown top list '%s', expected one of %v", s, TopKinds)
}

// TopEntry is an entry of any of the top-N lists; fields which the list
// doesn't report are zero.
type TopEntry struct {
	Symbol        string
	Name          string
	LTP           decimal.Decimal
	Change        decimal.Decimal
	PercentChange decimal.Decimal
	Turnover      decimal.Decimal
	SharesTraded  int64
	Transactions  int64
	Orders        int64
	Quantity      int64
}

func newTopEntry(j *topJSON) TopEntry {
	e := TopEntry{
		Symbol:        j.Symbol,
		Name:          j.SecurityName,
		LTP:           j.LTP,
		Change:        j.PointChange,
		PercentChange: j.PercentageChange,
		Turnover:      j.Turnover,
		SharesTraded:  j.ShareTraded.IntPart(),
		Transactions:  j.TotalTrades.IntPart(),
		Orders:        j.TotalOrder.IntPart(),
		Quantity:      j.TotalQuantity.IntPart(),
	}
	if e.LTP.IsZero() {
		e.LTP = j.LastTradedPrice
	}
	if e.LTP.IsZero() {
		e.LTP = j.ClosingPrice
	}
	return e
}

// FloorsheetEntry is a single executed trade.
type FloorsheetEntry struct {
	SN         int // 1-based sequence number across all pages
	ContractID string
	Symbol     string
	Buyer      string // buyer broker ID
	Seller     string // seller broker ID
	Quantity   int64
	Rate       decimal.Decimal
	Amount     decimal.Decimal
	TradeTime  string // as received
}

// Time of the trade formatted as HH:MM:SS, or TradeTime as is when it cannot
// be parsed.
func (e *FloorsheetEntry) Time() string {
	tm, err := parseTime(e.TradeTime)
	if err != nil {
		return e.TradeTime
	}
	return tm.Format("15:04:05")
}

func newFloorsheetEntry(sn int, j *floorsheetEntryJSON) FloorsheetEntry {
	return FloorsheetEntry{
		SN:         sn,
		ContractID: string(j.ContractID),
		Symbol:     j.StockSymbol,
		Buyer:      string(j.BuyerMemberID),
		Seller:     string(j.SellerMemberID),
		Quantity:   j.ContractQuantity.IntPart(),
		Rate:       j.ContractRate,
		Amount:     j.ContractAmount,
		TradeTime:  j.TradeTime,
	}
}

// Floorsheet is the complete list of trades of the current session.
type Floorsheet struct {
	Transactions int // as reported by the market summary
	Pages        int
	Index        int // the request index used
	Entries      []FloorsheetEntry
}

// UnavailableError reports a company which cannot be priced: unknown symbol,
// or no trading details, which usually means it was merged or renamed.
type UnavailableError struct {
	Symbol string
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s is unavailable (%s): possibly merged or renamed",
		e.Symbol, e.Reason)
}

// StaleIndexError is returned when the upstream doesn't accept the request
// index, which manifests as a response of an unexpected shape.
type StaleIndexError struct {
	Index int
	Page  int // -1 when not paginated
}

func (e *StaleIndexError) Error() string {
	where := "the request"
	if e.Page >= 0 {
		where = fmt.Sprintf("floorsheet page %d", e.Page)
	}
	return fmt.Sprintf(
		"request index %d was rejected for %s; update it with -change-index", e.Index, where)
}
