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

package stats

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stockparfait/nepsense/nepse"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SymbolStats summarizes the trades of a single company.
type SymbolStats struct {
	Symbol   string
	Trades   int
	Quantity int64
	Amount   decimal.Decimal
	VWAP     float64 // rate weighted by quantity
	MinRate  float64
	MaxRate  float64
	StdDev   float64 // of the rate, weighted by quantity
}

// BrokerStats summarizes the trades of a single broker.
type BrokerStats struct {
	Broker     string
	Trades     int // on either side; a crossed trade counts once
	Bought     int64
	Sold       int64
	BuyAmount  decimal.Decimal
	SellAmount decimal.Decimal
}

// Turnover of the broker on both sides.
func (b *BrokerStats) Turnover() decimal.Decimal {
	return b.BuyAmount.Add(b.SellAmount)
}

// byAmount orders by amount descending, then by name.
func byAmount(a1 decimal.Decimal, n1 string, a2 decimal.Decimal, n2 string) bool {
	if c := a1.Cmp(a2); c != 0 {
		return c > 0
	}
	return n1 < n2
}

// BySymbol aggregates the trades per symbol, ordered by the traded amount in
// descending order.
func BySymbol(entries []nepse.FloorsheetEntry) []SymbolStats {
	stats := make(map[string]*SymbolStats)
	samples := make(map[string]*Sample)
	for _, e := range entries {
		sym := strings.ToUpper(e.Symbol)
		s, ok := stats[sym]
		if !ok {
			s = &SymbolStats{Symbol: sym}
			stats[sym] = s
			samples[sym] = NewSample()
		}
		s.Trades++
		s.Quantity += e.Quantity
		s.Amount = s.Amount.Add(e.Amount)
		samples[sym].Add(e.Rate.InexactFloat64(), float64(e.Quantity))
	}
	res := make([]SymbolStats, 0, len(stats))
	for _, sym := range maps.Keys(stats) {
		s := stats[sym]
		sample := samples[sym]
		s.VWAP = sample.Mean()
		s.MinRate = sample.Min()
		s.MaxRate = sample.Max()
		s.StdDev = sample.StdDev()
		res = append(res, *s)
	}
	slices.SortFunc(res, func(a, b SymbolStats) bool {
		return byAmount(a.Amount, a.Symbol, b.Amount, b.Symbol)
	})
	return res
}

// ByBroker aggregates the trades per broker, ordered by the broker's turnover
// in descending order.
func ByBroker(entries []nepse.FloorsheetEntry) []BrokerStats {
	stats := make(map[string]*BrokerStats)
	get := func(id string) *BrokerStats {
		b, ok := stats[id]
		if !ok {
			b = &BrokerStats{Broker: id}
			stats[id] = b
		}
		return b
	}
	for _, e := range entries {
		buyer := get(e.Buyer)
		buyer.Trades++
		buyer.Bought += e.Quantity
		buyer.BuyAmount = buyer.BuyAmount.Add(e.Amount)

		seller := get(e.Seller)
		if e.Seller != e.Buyer {
			seller.Trades++
		}
		seller.Sold += e.Quantity
		seller.SellAmount = seller.SellAmount.Add(e.Amount)
	}
	res := make([]BrokerStats, 0, len(stats))
	for _, b := range stats {
		res = append(res, *b)
	}
	slices.SortFunc(res, func(a, b BrokerStats) bool {
		return byAmount(a.Turnover(), a.Broker, b.Turnover(), b.Broker)
	})
	return res
}

// Totals of the floorsheet: quantity and amount.
func Totals(entries []nepse.FloorsheetEntry) (quantity int64, amount decimal.Decimal) {
	for _, e := range entries {
		quantity += e.Quantity
		amount = amount.Add(e.Amount)
	}
	return
}
