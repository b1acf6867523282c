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
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type testRow struct {
	Symbol string
	Change string
	style  Style
}

func (r testRow) CSV() []string { return []string{r.Symbol, r.Change} }

func (r testRow) Styles() []Style { return []Style{None, r.style} }

type plainRow []string

func (r plainRow) CSV() []string { return r }

func TestTable(t *testing.T) {
	t.Parallel()

	Convey("StyleOf", t, func() {
		So(StyleOf(1), ShouldEqual, Up)
		So(StyleOf(-1), ShouldEqual, Down)
		So(StyleOf(0), ShouldEqual, None)
	})

	Convey("Paint", t, func() {
		So(Paint("Title", Header, true), ShouldEqual, "\x1b[1mTitle\x1b[0m")
		So(Paint("Title", Header, false), ShouldEqual, "Title")
		So(Paint("x", None, true), ShouldEqual, "x")
	})

	Convey("Table methods work", t, func() {
		t := NewTable("Symbol", "Change")
		headless := NewTable()

		So(t.Header, ShouldResemble, []string{"Symbol", "Change"})
		t.AddRow(testRow{"NABIL", "12.50", Up}, testRow{"SHL", "-3.00", Down})
		headless.AddRow(testRow{"NABIL", "12.50", Up}, testRow{"SHL", "-3.00", Down})

		Convey("AddRow worked", func() {
			So(len(t.Rows), ShouldEqual, 2)
			So(len(headless.Rows), ShouldEqual, 2)
		})

		Convey("WriteCSV", func() {
			Convey("Default Params", func() {
				var buf bytes.Buffer
				So(t.WriteCSV(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
Symbol,Change
NABIL,12.50
SHL,-3.00
`)
			})

			Convey("Color is ignored", func() {
				var buf bytes.Buffer
				So(headless.WriteCSV(&buf, Params{Color: true}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
NABIL,12.50
SHL,-3.00
`)
			})

			Convey("Limited rows, no header", func() {
				var buf bytes.Buffer
				So(t.WriteCSV(&buf, Params{Rows: 1, NoHeader: true}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
NABIL,12.50
`)
			})
		})

		Convey("WriteText", func() {
			Convey("Default Params", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
Symbol | Change
------ | ------
 NABIL |  12.50
   SHL |  -3.00
`)
			})

			Convey("Left aligned symbols, headless", func() {
				var buf bytes.Buffer
				So(headless.WriteText(&buf, Params{LeftColumns: 1}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
NABIL | 12.50
SHL   | -3.00
`)
			})

			Convey("Limited rows and width, no header", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{Rows: 1, NoHeader: true, MaxColWidth: 4}), ShouldBeNil)
				So("\n"+buf.String(), ShouldResemble, `
NA.. | 12..
`)
			})

			Convey("Colors are applied after padding", func() {
				var buf bytes.Buffer
				So(headless.WriteText(&buf, Params{Color: true}), ShouldBeNil)
				So(buf.String(), ShouldEqual,
					"NABIL | \x1b[32m12.50\x1b[0m\n"+
						"  SHL | \x1b[31m-3.00\x1b[0m\n")
			})

			Convey("Header is bold with colors", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{Color: true, Rows: 0}), ShouldBeNil)
				So(buf.String(), ShouldStartWith,
					"\x1b[1mSymbol\x1b[0m | \x1b[1mChange\x1b[0m\n------ | ------\n")
			})

			Convey("Rows without styles and wide characters", func() {
				tbl := NewTable("Name", "Qty")
				tbl.AddRow(plainRow{"नेप्से", "1"}, plainRow{"ABC", "100"})
				var buf bytes.Buffer
				So(tbl.WriteText(&buf, Params{Color: true, NoHeader: true}), ShouldBeNil)
				So(buf.String(), ShouldEqual, "नेप्से |   1\n   ABC | 100\n")
			})

			Convey("Mismatched row sizes", func() {
				tbl := NewTable("A", "B")
				tbl.AddRow(plainRow{"1"})
				var buf bytes.Buffer
				So(tbl.WriteText(&buf, Params{}), ShouldNotBeNil)
			})

			Convey("Bad column width", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{MaxColWidth: 3}), ShouldNotBeNil)
			})
		})
	})
}
