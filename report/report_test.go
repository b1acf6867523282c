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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockparfait/nepsense/nepse"
	"github.com/stockparfait/nepsense/stats"
	"github.com/stockparfait/nepsense/table"

	. "github.com/smartystreets/goconvey/convey"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func stock(symbol, ltp, prevClose string) nepse.StockRecord {
	r := nepse.StockRecord{
		Symbol:        symbol,
		LTP:           dec(ltp),
		PreviousClose: dec(prevClose),
		Volume:        1500,
		Turnover:      dec("1234567.891"),
	}
	r.Change, r.PercentChange = nepse.Changes(r.LTP, r.PreviousClose)
	return r
}

func symbols(r Report) []string {
	var res []string
	for _, row := range r[0].Table.Rows {
		res = append(res, row.CSV()[0])
	}
	return res
}

func TestFormat(t *testing.T) {
	t.Parallel()

	Convey("FormatAmount", t, func() {
		So(FormatAmount(dec("1234567.891")), ShouldEqual, "1,234,567.89")
		So(FormatAmount(dec("-1234.5")), ShouldEqual, "-1,234.50")
		So(FormatAmount(dec("999")), ShouldEqual, "999.00")
		So(FormatAmount(decimal.Zero), ShouldEqual, "0.00")
		So(FormatAmount(dec("-0.001")), ShouldEqual, "0.00")
	})

	Convey("Cells", t, func() {
		So(Count(1234567), ShouldResemble, Cell{Text: "1,234,567"})
		So(Change(dec("1.5")), ShouldResemble, Cell{Text: "1.50", Style: table.Up})
		So(Percent(dec("-0.25")), ShouldResemble, Cell{Text: "-0.25%", Style: table.Down})
		So(Change(decimal.Zero), ShouldResemble, Cell{Text: "0.00", Style: table.None})
		row := Row{Text("A"), Change(dec("-1"))}
		So(row.CSV(), ShouldResemble, []string{"A", "-1.00"})
		So(row.Styles(), ShouldResemble, []table.Style{table.None, table.Down})
	})

	Convey("Report writes sections", t, func() {
		r, t1 := newReport("First", "A", "B")
		t1.AddRow(Row{Text("x"), Text("1")})
		r2, t2 := newReport("", "C")
		t2.AddRow(Row{Text("y")})
		r = append(r, r2...)

		Convey("as text", func() {
			var buf bytes.Buffer
			So(r.WriteText(&buf, table.Params{}), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
First
A | B
- | -
x | 1

C
-
y
`)
		})

		Convey("as CSV", func() {
			var buf bytes.Buffer
			So(r.WriteCSV(&buf, table.Params{}), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
A,B
x,1

C
y
`)
		})
	})
}

func TestMarket(t *testing.T) {
	t.Parallel()

	Convey("ParseOrder", t, func() {
		o, err := ParseOrder("")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, Ascending)
		o, err = ParseOrder("Descending")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, Descending)
		_, err = ParseOrder("sideways")
		So(err, ShouldNotBeNil)
	})

	Convey("Prices", t, func() {
		records := []nepse.StockRecord{
			stock("UP", "110", "100"),
			stock("FLAT", "100", "100"),
			stock("DOWN", "90", "100"),
			stock("ZERO", "50", "0"),
			stock("ALSOUP", "220", "200"),
		}

		Convey("ascending", func() {
			r := Prices(records, Ascending)
			So(symbols(r), ShouldResemble, []string{"DOWN", "FLAT", "ZERO", "ALSOUP", "UP"})
			So(records[0].Symbol, ShouldEqual, "UP")
		})

		Convey("descending", func() {
			r := Prices(records, Descending)
			So(symbols(r), ShouldResemble, []string{"ALSOUP", "UP", "FLAT", "ZERO", "DOWN"})
		})

		Convey("change cells are styled by sign", func() {
			r := Prices(records, Ascending)
			rows := r[0].Table.Rows
			So(rows[0].(Row)[2].Style, ShouldEqual, table.Down)
			So(rows[1].(Row)[3].Style, ShouldEqual, table.None)
			So(rows[4].(Row)[3], ShouldResemble, Cell{Text: "10.00%", Style: table.Up})
			So(rows[4].(Row)[9].Text, ShouldEqual, "1,234,567.89")
			So(rows[4].(Row)[4].Text, ShouldEqual, "1,500")
		})
	})

	Convey("Detail", t, func() {
		rec := stock("NABIL", "410", "400")
		rec.Name = "Nabil Bank"
		r := Detail(&rec)
		So(r[0].Title, ShouldEqual, "NABIL: Nabil Bank")
		So(symbols(r)[0], ShouldEqual, "LTP")
	})

	Convey("Indices", t, func() {
		records := []nepse.IndexRecord{
			{Name: "Banking SubIndex", PercentChange: dec("-1")},
			{Name: "NEPSE Index", Value: dec("2000"), PercentChange: dec("0.5")},
			{Name: "Hotels And Tourism", PercentChange: dec("2")},
			{Name: "Finance Index", PercentChange: dec("2")},
		}

		Convey("SplitIndices", func() {
			agg, subs := SplitIndices(records)
			So(agg.Name, ShouldEqual, "NEPSE Index")
			So(len(subs), ShouldEqual, 3)
		})

		Convey("SubIndices sorts by percent change descending", func() {
			r := SubIndices(records)
			So(len(r), ShouldEqual, 2)
			So(symbols(r), ShouldResemble, []string{
				"Finance Index", "Hotels And Tourism", "Banking SubIndex"})
			So(r[1].Table.Rows[0].CSV()[0], ShouldEqual, "NEPSE Index")
			So(r[1].Table.Rows[0].CSV()[4], ShouldEqual, "-")
		})
	})

	Convey("Summary", t, func() {
		s := nepse.MarketSummary{Items: []nepse.SummaryItem{
			{Name: nepse.TotalTurnover, Value: dec("2345678901.234")},
			{Name: nepse.TotalTransactions, Value: dec("61234")},
			{Name: nepse.TotalScripsTraded, Value: dec("230")},
		}}
		var buf bytes.Buffer
		So(Summary(&s).WriteText(&buf, table.Params{LeftColumns: 1}), ShouldBeNil)
		So("\n"+buf.String(), ShouldEqual, `
Market Summary
Metric              |            Value
------------------- | ----------------
Total Turnover      | 2,345,678,901.23
Total Transactions  |           61,234
Total Scrips Traded |              230
`)
	})

	Convey("Depth", t, func() {
		d := nepse.MarketDepth{
			Symbol:    "NABIL",
			Buy:       []nepse.DepthEntry{{Side: nepse.Buy, Orders: 1, Quantity: 10, Price: dec("400")}},
			TotalBuy:  10,
			TotalSell: 0,
		}
		r := Depth(&d)
		So(len(r), ShouldEqual, 3)
		So(r[0].Title, ShouldEqual, "NABIL Buy Orders")
		So(len(r[0].Table.Rows), ShouldEqual, 1)
		So(len(r[1].Table.Rows), ShouldEqual, 0)
		So(r[2].Table.Rows[0].CSV(), ShouldResemble, []string{"Buy", "10"})
	})

	Convey("Top", t, func() {
		var entries []nepse.TopEntry
		for i := 0; i < 30; i++ {
			entries = append(entries, nepse.TopEntry{
				Symbol:        fmt.Sprintf("S%02d", i),
				LTP:           dec("100"),
				PercentChange: dec("1"),
				Orders:        int64(i),
				Quantity:      1000,
			})
		}

		Convey("limited gainers", func() {
			r := Top(nepse.TopGainers, entries, 20)
			So(r[0].Title, ShouldEqual, "Top Gainers")
			So(len(r[0].Table.Rows), ShouldEqual, 20)
			So(r[0].Table.Header, ShouldResemble, []string{"Symbol", "LTP", "Change", "%Change"})
		})

		Convey("unlimited supply", func() {
			r := Top(nepse.TopSupply, entries, 0)
			So(len(r[0].Table.Rows), ShouldEqual, 30)
			So(r[0].Table.Rows[29].CSV(), ShouldResemble, []string{"S29", "29", "1,000"})
		})

		Convey("other kinds", func() {
			So(Top(nepse.TopTurnover, entries, 1)[0].Table.Header[2], ShouldEqual, "Turnover")
			So(Top(nepse.TopVolume, entries, 1)[0].Table.Header[2], ShouldEqual, "Shares Traded")
			So(Top(nepse.TopTransactions, entries, 1)[0].Table.Header[2], ShouldEqual, "Transactions")
		})
	})
}

func testFloorsheet(n int) *nepse.Floorsheet {
	fs := nepse.Floorsheet{Transactions: n, Pages: nepse.PageCount(n, 500), Index: 123}
	for i := 0; i < n; i++ {
		fs.Entries = append(fs.Entries, nepse.FloorsheetEntry{
			SN:         i + 1,
			ContractID: fmt.Sprintf("%d", 5000-i),
			Symbol:     []string{"NABIL", "SHL"}[i%2],
			Buyer:      "58",
			Seller:     "34",
			Quantity:   10,
			Rate:       dec("400.5"),
			Amount:     dec("4005"),
			TradeTime:  "2023-01-02T11:12:13.456",
		})
	}
	return &fs
}

func TestFloorsheet(t *testing.T) {
	t.Parallel()

	Convey("FloorsheetFile", t, func() {
		now := time.Date(2023, 1, 2, 15, 4, 5, 0, time.UTC)
		So(FloorsheetFile(now), ShouldEqual, "floorsheet_2023-01-02_Monday.csv")
	})

	Convey("ExportFloorsheet", t, func() {
		dir := filepath.Join(t.TempDir(), "exports")
		now := time.Date(2023, 1, 2, 15, 4, 5, 0, time.UTC)

		Convey("writes the entries in order", func() {
			path, err := ExportFloorsheet(dir, testFloorsheet(2), now)
			So(err, ShouldBeNil)
			So(path, ShouldEqual, filepath.Join(dir, "floorsheet_2023-01-02_Monday.csv"))
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So("\n"+string(data), ShouldEqual, `
S.N.,Contract ID,Symbol,Buyer,Seller,Quantity,Rate,Amount,Time
1,5000,NABIL,58,34,10,400.50,4005.00,11:12:13
2,4999,SHL,58,34,10,400.50,4005.00,11:12:13
`)
		})

		Convey("identical floorsheets give identical files", func() {
			path, err := ExportFloorsheet(dir, testFloorsheet(1250), now)
			So(err, ShouldBeNil)
			first, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			path2, err := ExportFloorsheet(dir, testFloorsheet(1250), now.Add(time.Hour))
			So(err, ShouldBeNil)
			So(path2, ShouldEqual, path)
			second, err := os.ReadFile(path2)
			So(err, ShouldBeNil)
			So(bytes.Equal(first, second), ShouldBeTrue)
		})

		Convey("fails on a file in place of the directory", func() {
			file := filepath.Join(t.TempDir(), "file")
			So(os.WriteFile(file, []byte("x"), 0644), ShouldBeNil)
			_, err := ExportFloorsheet(file, testFloorsheet(1), now)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Floorsheet summary and stats", t, func() {
		fs := testFloorsheet(4)
		r := FloorsheetSummary(fs)
		So(r[0].Table.Rows[4].CSV(), ShouldResemble, []string{"Amount", "16,020.00"})

		st := FloorsheetStats(stats.BySymbol(fs.Entries), stats.ByBroker(fs.Entries), 1)
		So(len(st), ShouldEqual, 2)
		So(len(st[0].Table.Rows), ShouldEqual, 1)
		So(st[0].Table.Rows[0].CSV()[0], ShouldEqual, "NABIL")
		So(st[0].Table.Rows[0].CSV()[4], ShouldEqual, "400.50")
		So(len(st[1].Table.Rows), ShouldEqual, 1)
	})
}
