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

// Package report turns the market data records into tables for the console or
// CSV, and exports the floorsheet.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/nepsense/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Cell of a report row: the formatted value and its style.
type Cell struct {
	Text  string
	Style table.Style
}

// Text cell without a style.
func Text(s string) Cell {
	return Cell{Text: s}
}

// Price cell with 2 decimals.
func Price(d decimal.Decimal) Cell {
	return Cell{Text: d.StringFixed(2)}
}

// Amount cell with thousands separators and 2 decimals.
func Amount(d decimal.Decimal) Cell {
	return Cell{Text: FormatAmount(d)}
}

// Count cell with thousands separators.
func Count(n int64) Cell {
	return Cell{Text: printer.Sprintf("%d", n)}
}

// Change cell with 2 decimals, styled by its sign.
func Change(d decimal.Decimal) Cell {
	return Cell{Text: d.StringFixed(2), Style: table.StyleOf(d.Sign())}
}

// Percent change cell styled by the sign of the change.
func Percent(d decimal.Decimal) Cell {
	return Cell{Text: d.StringFixed(2) + "%", Style: table.StyleOf(d.Sign())}
}

// FormatAmount formats a large magnitude with thousands separators and 2
// decimals, e.g. 1,234,567.89.
func FormatAmount(d decimal.Decimal) string {
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return d.StringFixed(2)
	}
	s := printer.Sprintf("%d", n) + "." + frac
	if d.Round(2).IsNegative() {
		s = "-" + s
	}
	return s
}

// Row of cells.
type Row []Cell

var _ table.Row = Row{}
var _ table.Styler = Row{}

// CSV implements table.Row.
func (r Row) CSV() []string {
	res := make([]string, len(r))
	for i, c := range r {
		res[i] = c.Text
	}
	return res
}

// Styles implements table.Styler.
func (r Row) Styles() []table.Style {
	res := make([]table.Style, len(r))
	for i, c := range r {
		res[i] = c.Style
	}
	return res
}

// Section of a report: a table with an optional title.
type Section struct {
	Title string
	Table *table.Table
}

// Report is a sequence of sections printed one after another.
type Report []Section

func newReport(title string, header ...string) (Report, *table.Table) {
	t := table.NewTable(header...)
	return Report{{Title: title, Table: t}}, t
}

// WriteText prints the report as aligned text tables separated by empty lines.
func (r Report) WriteText(w io.Writer, p table.Params) error {
	for i, s := range r {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return errors.Annotate(err, "failed to write separator")
			}
		}
		if s.Title != "" {
			title := table.Paint(s.Title, table.Header, p.Color)
			if _, err := fmt.Fprintln(w, title); err != nil {
				return errors.Annotate(err, "failed to write title")
			}
		}
		if err := s.Table.WriteText(w, p); err != nil {
			return errors.Annotate(err, "failed to write '%s'", s.Title)
		}
	}
	return nil
}

// WriteCSV prints the tables of the report in CSV format separated by empty
// lines. Titles are omitted.
func (r Report) WriteCSV(w io.Writer, p table.Params) error {
	for i, s := range r {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return errors.Annotate(err, "failed to write separator")
			}
		}
		if err := s.Table.WriteCSV(w, p); err != nil {
			return errors.Annotate(err, "failed to write '%s'", s.Title)
		}
	}
	return nil
}
