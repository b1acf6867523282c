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

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/labstack/gommon/color"
	"github.com/stockparfait/errors"
)

// Row interface that a table row representation must implement.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Style of a cell in the text output.
type Style int

// Values of Style.
const (
	None   Style = iota
	Up           // positive change, green
	Down         // negative change, red
	Header       // bold
)

// StyleOf a value with the given sign: Up for 1, Down for -1, None for 0.
func StyleOf(sign int) Style {
	switch {
	case sign > 0:
		return Up
	case sign < 0:
		return Down
	}
	return None
}

// Styler is an optional interface of a Row for styling its cells. The
// styles are applied only by WriteText with Params.Color set. Missing trailing
// styles default to None.
type Styler interface {
	Styles() []Style
}

// Table container.
//
// A typical use:
//   type MyRow struct {
//     Symbol string
//     Change float64
//   }
//
//   func (r MyRow) CSV() []string {
//     return []string{r.Symbol, fmt.Sprintf("%.2f", r.Change)}
//   }
//   t := NewTable("Symbol", "Change")
//   t.AddRow(MyRow{"NABIL", 1.5}, MyRow{"SHL", -2})
type Table struct {
	Header []string // optional, may be nil
	Rows   []Row
}

// NewTable creates a new Table instance with optional column headers.  It is
// expected that, when present, the number of column headers is the same as the
// number of elements in each Row.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Params are parameters for pretty-printing or CSV export of Table data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
	LeftColumns int  // for WriteText only; number of leading left-aligned columns
	Color       bool // for WriteText only; whether to apply cell styles
}

// visible rows of the table, limited by p.Rows.
func (t *Table) visible(p Params) []Row {
	if p.Rows > 0 && len(t.Rows) > p.Rows {
		return t.Rows[:p.Rows]
	}
	return t.Rows
}

func (t *Table) hasHeader(p Params) bool {
	return !p.NoHeader && len(t.Header) > 0
}

// WriteCSV writes the entire table to w in CSV format. Styles are ignored.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if t.hasHeader(p) {
		if err := cw.Write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for _, r := range t.visible(p) {
		if err := cw.Write(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// painter applies a Style to an already padded cell, so that the escape
// sequences do not affect the alignment.
type painter struct {
	c *color.Color
}

func newPainter(enabled bool) *painter {
	c := color.New()
	if enabled {
		c.Enable()
	} else {
		c.Disable()
	}
	return &painter{c: c}
}

func (p *painter) paint(s string, st Style) string {
	switch st {
	case Up:
		return p.c.Green(s)
	case Down:
		return p.c.Red(s)
	case Header:
		return p.c.Bold(s)
	}
	return s
}

// Paint s in the given style, or return it as is when not enabled.
func Paint(s string, st Style, enabled bool) string {
	return newPainter(enabled).paint(s, st)
}

func rowStyles(r Row, n int) []Style {
	styles := make([]Style, n)
	if s, ok := r.(Styler); ok {
		copy(styles, s.Styles())
	}
	return styles
}

func uniformStyles(st Style, n int) []Style {
	styles := make([]Style, n)
	for i := range styles {
		styles[i] = st
	}
	return styles
}

// layout of the text columns. Widths are in runes.
type layout struct {
	widths   []int
	maxWidth int
	left     int
	painter  *painter
}

// fit widens the columns to fit the row.
func (l *layout) fit(row []string) error {
	if len(row) == 0 {
		return errors.Reason("row size = 0")
	}
	if l.widths == nil {
		l.widths = make([]int, len(row))
	}
	if len(row) != len(l.widths) {
		return errors.Reason("row size [%d] != expected size [%d]",
			len(row), len(l.widths))
	}
	for i, s := range row {
		n := utf8.RuneCountInString(s)
		if l.maxWidth > 0 && n > l.maxWidth {
			n = l.maxWidth
		}
		if n > l.widths[i] {
			l.widths[i] = n
		}
	}
	return nil
}

// line formats the row: cells are truncated to the column width, padded and
// painted, in this order.
func (l *layout) line(row []string, styles []Style) string {
	cells := make([]string, len(row))
	for i, s := range row {
		if r := []rune(s); len(r) > l.widths[i] {
			s = string(r[:l.widths[i]-2]) + ".."
		}
		if i < l.left {
			s = fmt.Sprintf("%-[2]*[1]s", s, l.widths[i])
		} else {
			s = fmt.Sprintf("%[2]*[1]s", s, l.widths[i])
		}
		cells[i] = l.painter.paint(s, styles[i])
	}
	return strings.TrimRight(strings.Join(cells, " | "), " ")
}

func (l *layout) separator() string {
	dashes := make([]string, len(l.widths))
	for i, w := range l.widths {
		dashes[i] = strings.Repeat("-", w)
	}
	return strings.Join(dashes, " | ")
}

// WriteText writes the table as a text formatted for ease of reading. Cell
// styles are applied when p.Color is set.
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	l := layout{maxWidth: p.MaxColWidth, left: p.LeftColumns, painter: newPainter(p.Color)}
	rows := t.visible(p)
	if t.hasHeader(p) {
		if err := l.fit(t.Header); err != nil {
			return errors.Annotate(err, "failed to update header widths")
		}
	}
	for _, r := range rows {
		if err := l.fit(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to update row widths")
		}
	}

	var lines []string
	if t.hasHeader(p) {
		lines = append(lines, l.line(t.Header, uniformStyles(Header, len(l.widths))), l.separator())
	}
	for _, r := range rows {
		lines = append(lines, l.line(r.CSV(), rowStyles(r, len(l.widths))))
	}
	for _, s := range lines {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return errors.Annotate(err, "failed to write table")
		}
	}
	return nil
}
