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
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stockparfait/nepsense/nepse"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func entry(symbol, buyer, seller string, qty int64, rate string) nepse.FloorsheetEntry {
	r := decimal.RequireFromString(rate)
	return nepse.FloorsheetEntry{
		Symbol:   symbol,
		Buyer:    buyer,
		Seller:   seller,
		Quantity: qty,
		Rate:     r,
		Amount:   r.Mul(decimal.NewFromInt(qty)),
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	Convey("Sample", t, func() {
		Convey("empty", func() {
			s := NewSample()
			So(s.Len(), ShouldEqual, 0)
			So(s.Mean(), ShouldEqual, 0)
			So(s.Min(), ShouldEqual, 0)
			So(s.Max(), ShouldEqual, 0)
			So(s.StdDev(), ShouldEqual, 0)
		})

		Convey("weighted", func() {
			s := NewSample().Add(100, 1).Add(200, 3).Add(500, 0)
			So(s.Len(), ShouldEqual, 2)
			So(s.Mean(), ShouldEqual, 175)
			So(s.Min(), ShouldEqual, 100)
			So(s.Max(), ShouldEqual, 200)
			So(s.Weight(), ShouldEqual, 4)
			So(s.StdDev(), ShouldBeGreaterThan, 0)
		})
	})

	Convey("Floorsheet aggregation", t, func() {
		entries := []nepse.FloorsheetEntry{
			entry("NABIL", "1", "2", 10, "400"),
			entry("SHL", "2", "3", 100, "300"),
			entry("nabil", "3", "1", 30, "410"),
			entry("ADBL", "1", "2", 1, "10"),
		}

		Convey("BySymbol", func() {
			res := BySymbol(entries)
			So(len(res), ShouldEqual, 3)
			So(res[0].Symbol, ShouldEqual, "SHL")
			So(res[0].Amount.String(), ShouldEqual, "30000")
			So(res[1].Symbol, ShouldEqual, "NABIL")
			So(res[1].Trades, ShouldEqual, 2)
			So(res[1].Quantity, ShouldEqual, 40)
			So(res[1].Amount.String(), ShouldEqual, "16300")
			So(testutil.Round(res[1].VWAP, 5), ShouldEqual, 407.5)
			So(res[1].MinRate, ShouldEqual, 400)
			So(res[1].MaxRate, ShouldEqual, 410)
			So(res[2].Symbol, ShouldEqual, "ADBL")
		})

		Convey("ByBroker", func() {
			res := ByBroker(entries)
			So(len(res), ShouldEqual, 3)
			// Broker 3: bought 12300, sold 30000.
			So(res[0].Broker, ShouldEqual, "3")
			So(res[0].Turnover().String(), ShouldEqual, "42300")
			// Broker 2: bought 30000, sold 4000+10.
			So(res[1].Broker, ShouldEqual, "2")
			So(res[1].Bought, ShouldEqual, 100)
			So(res[1].Sold, ShouldEqual, 11)
			So(res[1].Turnover().String(), ShouldEqual, "34010")
			So(res[1].Trades, ShouldEqual, 3)
			So(res[2].Broker, ShouldEqual, "1")
		})

		Convey("ByBroker counts a crossed trade once", func() {
			res := ByBroker([]nepse.FloorsheetEntry{
				entry("NABIL", "7", "7", 10, "400"),
				entry("NABIL", "7", "8", 5, "401"),
			})
			So(len(res), ShouldEqual, 2)
			So(res[0].Broker, ShouldEqual, "7")
			So(res[0].Trades, ShouldEqual, 2)
			So(res[0].Bought, ShouldEqual, 15)
			So(res[0].Sold, ShouldEqual, 10)
			So(res[0].Turnover().String(), ShouldEqual, "10005")
			So(res[1].Trades, ShouldEqual, 1)
		})

		Convey("Totals", func() {
			q, a := Totals(entries)
			So(q, ShouldEqual, 141)
			So(a.String(), ShouldEqual, "46310")
		})

		Convey("empty floorsheet", func() {
			So(BySymbol(nil), ShouldBeEmpty)
			So(ByBroker(nil), ShouldBeEmpty)
		})
	})
}
