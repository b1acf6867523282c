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
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/nepsense/nepse"
	"github.com/stockparfait/nepsense/stats"
	"github.com/stockparfait/nepsense/table"
)

// FloorsheetHeader is the column order of the floorsheet export.
var FloorsheetHeader = []string{
	"S.N.", "Contract ID", "Symbol", "Buyer", "Seller", "Quantity", "Rate", "Amount", "Time",
}

// Floorsheet lists all the trades in their original order. The numbers are
// plain, without thousands separators, so the table is suitable for export.
func Floorsheet(fs *nepse.Floorsheet) Report {
	r, t := newReport("Floorsheet", FloorsheetHeader...)
	for i := range fs.Entries {
		e := &fs.Entries[i]
		t.AddRow(Row{
			Text(strconv.Itoa(e.SN)),
			Text(e.ContractID),
			Text(e.Symbol),
			Text(e.Buyer),
			Text(e.Seller),
			Text(strconv.FormatInt(e.Quantity, 10)),
			Price(e.Rate),
			Price(e.Amount),
			Text(e.Time()),
		})
	}
	return r
}

// FloorsheetFile is the name of the export file for the given day, e.g.
// floorsheet_2023-01-02_Monday.csv.
func FloorsheetFile(now time.Time) string {
	return "floorsheet_" + now.Format("2006-01-02_Monday") + ".csv"
}

// ExportFloorsheet writes the floorsheet as CSV into dir, creating it if
// necessary, and returns the path of the file. An export of the same day is
// overwritten.
func ExportFloorsheet(dir string, fs *nepse.Floorsheet, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Annotate(err, "failed to create directory '%s'", dir)
	}
	path := filepath.Join(dir, FloorsheetFile(now))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Annotate(err, "failed to create '%s'", path)
	}
	if err := Floorsheet(fs).WriteCSV(f, table.Params{}); err != nil {
		f.Close()
		return "", errors.Annotate(err, "failed to write '%s'", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Annotate(err, "failed to close '%s'", path)
	}
	return path, nil
}

// FloorsheetSummary prints the size and totals of the floorsheet.
func FloorsheetSummary(fs *nepse.Floorsheet) Report {
	quantity, amount := stats.Totals(fs.Entries)
	r, t := newReport("Floorsheet", "Metric", "Value")
	t.AddRow(
		Row{Text("Transactions"), Count(int64(fs.Transactions))},
		Row{Text("Entries"), Count(int64(len(fs.Entries)))},
		Row{Text("Pages"), Count(int64(fs.Pages))},
		Row{Text("Quantity"), Count(quantity)},
		Row{Text("Amount"), Amount(amount)},
	)
	return r
}

// FloorsheetStats prints up to limit symbols and brokers by traded amount;
// limit <= 0 means all.
func FloorsheetStats(symbols []stats.SymbolStats, brokers []stats.BrokerStats, limit int) Report {
	if limit > 0 && len(symbols) > limit {
		symbols = symbols[:limit]
	}
	if limit > 0 && len(brokers) > limit {
		brokers = brokers[:limit]
	}
	r, t := newReport("Symbols by Amount", "Symbol", "Trades", "Quantity", "Amount",
		"VWAP", "Min Rate", "Max Rate", "Rate StdDev")
	for _, s := range symbols {
		t.AddRow(Row{
			Text(s.Symbol),
			Count(int64(s.Trades)),
			Count(s.Quantity),
			Amount(s.Amount),
			Price(decimal.NewFromFloat(s.VWAP)),
			Price(decimal.NewFromFloat(s.MinRate)),
			Price(decimal.NewFromFloat(s.MaxRate)),
			Price(decimal.NewFromFloat(s.StdDev)),
		})
	}
	br, bt := newReport("Brokers by Turnover", "Broker", "Trades", "Bought", "Sold",
		"Buy Amount", "Sell Amount")
	for _, b := range brokers {
		bt.AddRow(Row{
			Text(b.Broker),
			Count(int64(b.Trades)),
			Count(b.Bought),
			Count(b.Sold),
			Amount(b.BuyAmount),
			Amount(b.SellAmount),
		})
	}
	return append(r, br...)
}
