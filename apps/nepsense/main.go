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

// Command nepsense prints market data of the Nepal Stock Exchange: prices of
// companies, indices, the market summary, order book depth, top lists, and
// exports the floorsheet of the day to CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/nepsense/config"
	"github.com/stockparfait/nepsense/nepse"
	"github.com/stockparfait/nepsense/progress"
	"github.com/stockparfait/nepsense/report"
	"github.com/stockparfait/nepsense/stats"
	"github.com/stockparfait/nepsense/store"
	"github.com/stockparfait/nepsense/table"
	"github.com/stockparfait/nepsense/trace"
)

// Exit codes.
const (
	exitFailure    = 1
	exitStaleIndex = 2
)

// now is replaced in tests.
var now = time.Now

type Flags struct {
	LogLevel  logging.Level
	DataDir   string
	CSV       bool   // print CSV instead of text tables
	Sort      string // overrides the config when not empty
	Color     string // auto, always or never
	Trace     bool
	VerifyTLS bool

	// Commands; exactly one must be given.
	Symbols     []string
	Group       string
	Index       bool
	SubIndices  bool
	Summary     bool
	Depth       string
	Detail      string
	Floorsheet  string // directory for the CSV export
	Stats       bool   // with -floorsheet only
	Top         string
	ChangeIndex int
	SetIndex    bool // -change-index was given
	ShowIndex   bool
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nepsense"
	}
	return filepath.Join(home, ".nepsense")
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("nepsense", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: nepsense [options] <command>\n\n"+
			"Commands: SYMBOL... | -group NAME | -index | -sub-indices | -summary |\n"+
			"  -depth SYMBOL | -detail SYMBOL | -floorsheet DIR [-stats] | -top KIND |\n"+
			"  -change-index N | -show-index\n\nOptions:\n")
		fs.PrintDefaults()
	}
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.StringVar(&flags.DataDir, "data-dir", defaultDataDir(),
		"directory with index.txt, config.toml and .env")
	fs.BoolVar(&flags.CSV, "csv", false, "print tables in CSV format; default: text")
	fs.StringVar(&flags.Sort, "sort", "",
		"order of prices by percent change: ascending or descending; default: from config")
	fs.StringVar(&flags.Color, "color", "auto", "colorize output: auto, always, never")
	fs.BoolVar(&flags.Trace, "trace", false, "trace API calls and responses to stderr")
	fs.BoolVar(&flags.VerifyTLS, "verify-tls", false, "verify the server's TLS certificate")

	fs.StringVar(&flags.Group, "group", "", "print prices of the companies in the named group")
	fs.BoolVar(&flags.Index, "index", false, "print the NEPSE index")
	fs.BoolVar(&flags.SubIndices, "sub-indices", false, "print the sector sub-indices")
	fs.BoolVar(&flags.Summary, "summary", false, "print the market summary")
	fs.StringVar(&flags.Depth, "depth", "", "print the market depth of the company")
	fs.StringVar(&flags.Detail, "detail", "", "print the details of the company")
	fs.StringVar(&flags.Floorsheet, "floorsheet", "",
		"export today's floorsheet as CSV into the directory")
	fs.BoolVar(&flags.Stats, "stats", false, "with -floorsheet: also print trading statistics")
	fs.StringVar(&flags.Top, "top", "", "print a top list: "+topKinds())
	fs.IntVar(&flags.ChangeIndex, "change-index", 0, "store the new request index")
	fs.BoolVar(&flags.ShowIndex, "show-index", false, "print the stored request index")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "change-index" {
			flags.SetIndex = true
		}
	})
	for _, s := range fs.Args() {
		flags.Symbols = append(flags.Symbols, strings.ToUpper(s))
	}

	commands := 0
	for _, given := range []bool{
		len(flags.Symbols) > 0, flags.Group != "", flags.Index, flags.SubIndices,
		flags.Summary, flags.Depth != "", flags.Detail != "", flags.Floorsheet != "",
		flags.Top != "", flags.SetIndex, flags.ShowIndex,
	} {
		if given {
			commands++
		}
	}
	if commands == 0 {
		return nil, errors.Reason("no command given; see -help")
	}
	if commands > 1 {
		return nil, errors.Reason("exactly one command is expected, got %d", commands)
	}
	if flags.Stats && flags.Floorsheet == "" {
		return nil, errors.Reason("-stats requires -floorsheet")
	}
	if flags.SetIndex && flags.ChangeIndex < 0 {
		return nil, errors.Reason("-change-index must not be negative: %d", flags.ChangeIndex)
	}
	switch flags.Color {
	case "auto", "always", "never":
	default:
		return nil, errors.Reason("-color must be auto, always or never, got '%s'", flags.Color)
	}
	return &flags, nil
}

func topKinds() string {
	kinds := make([]string, len(nepse.TopKinds))
	for i, k := range nepse.TopKinds {
		kinds[i] = string(k)
	}
	return strings.Join(kinds, ", ")
}

// useColor resolves the -color flag for the output w.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// app is the state of a single run.
type app struct {
	flags   *Flags
	config  *config.Config
	index   *store.IndexStore
	spinner *progress.Spinner
	tracer  *trace.Tracer // nil unless -trace
	w       io.Writer
	color   bool
}

func (a *app) print(r report.Report) error {
	if a.flags.CSV {
		if err := r.WriteCSV(a.w, table.Params{}); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
		return nil
	}
	if err := r.WriteText(a.w, table.Params{LeftColumns: 1, Color: a.color}); err != nil {
		return errors.Annotate(err, "failed to print text")
	}
	return nil
}

func (a *app) client(ctx context.Context) *nepse.Client {
	if c := nepse.GetClient(ctx); c != nil {
		return c
	}
	if !a.flags.VerifyTLS {
		logging.Warningf(ctx,
			"TLS certificate verification is disabled; use -verify-tls to enable it")
	}
	return nepse.NewClient(nepse.Options{
		BaseURL:    a.config.BaseURL,
		Index:      a.index,
		Timeout:    a.config.Timeout(),
		RetryDelay: a.config.RetryDelay(),
		PageSize:   a.config.PageSize,
		Tracer:     a.tracer,
		VerifyTLS:  a.flags.VerifyTLS,
	})
}

func (a *app) prices(ctx context.Context, c *nepse.Client, symbols []string) error {
	order := a.config.Sort
	if a.flags.Sort != "" {
		order = a.flags.Sort
	}
	o, err := report.ParseOrder(order)
	if err != nil {
		return err
	}
	a.spinner.Start(fmt.Sprintf("Fetching %d companies", len(symbols)))
	records, skipped, err := c.Stocks(ctx, symbols)
	a.spinner.Stop()
	if err != nil {
		return err
	}
	if len(skipped) > 0 {
		logging.Warningf(ctx, "skipped %d of %d companies: %s",
			len(skipped), len(symbols), strings.Join(skipped, ", "))
	}
	return a.print(report.Prices(records, o))
}

func (a *app) detail(ctx context.Context, c *nepse.Client, symbol string) error {
	rec, err := c.Stock(ctx, symbol)
	if err != nil {
		var ue *nepse.UnavailableError
		if errors.As(err, &ue) {
			logging.Warningf(ctx, "%s", ue.Error())
			return nil
		}
		return err
	}
	return a.print(report.Detail(rec))
}

func (a *app) floorsheet(ctx context.Context, c *nepse.Client) error {
	a.spinner.Start("Fetching floorsheet")
	fs, err := c.Floorsheet(ctx, a.spinner.Pages)
	a.spinner.Stop()
	if err != nil {
		return err
	}
	path, err := report.ExportFloorsheet(a.flags.Floorsheet, fs, now())
	if err != nil {
		return err
	}
	logging.Infof(ctx, "saved %d floorsheet entries to '%s'", len(fs.Entries), path)
	r := report.FloorsheetSummary(fs)
	if a.flags.Stats {
		r = append(r, report.FloorsheetStats(
			stats.BySymbol(fs.Entries), stats.ByBroker(fs.Entries), a.config.TopLimit)...)
	}
	return a.print(r)
}

func (a *app) changeIndex(ctx context.Context) error {
	if err := a.index.Write(ctx, a.flags.ChangeIndex); err != nil {
		return errors.Annotate(err, "failed to change the request index")
	}
	_, err := fmt.Fprintf(a.w, "Request index set to %d\n", a.flags.ChangeIndex)
	return err
}

func (a *app) showIndex(ctx context.Context) error {
	v, err := a.index.Read(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.w, "Request index: %d (%s)\n", v, a.index.Path())
	return err
}

// run executes the command given in flags and prints its result to w.
func run(ctx context.Context, flags *Flags, w io.Writer) error {
	cfg, err := config.Load(ctx, flags.DataDir)
	if err != nil {
		return errors.Annotate(err, "failed to load config")
	}
	a := &app{
		flags:   flags,
		config:  cfg,
		index:   store.NewIndexStore(flags.DataDir),
		spinner: progress.ForTerminal(os.Stderr),
		w:       w,
		color:   useColor(flags.Color, w),
	}
	defer a.spinner.Stop()
	if flags.Trace {
		a.tracer = trace.New(os.Stderr)
		defer a.tracer.Sync()
	}

	switch {
	case flags.SetIndex:
		return a.changeIndex(ctx)
	case flags.ShowIndex:
		return a.showIndex(ctx)
	}

	c := a.client(ctx)
	switch {
	case len(flags.Symbols) > 0:
		return a.prices(ctx, c, flags.Symbols)
	case flags.Group != "":
		symbols, err := cfg.Group(flags.Group)
		if err != nil {
			return err
		}
		return a.prices(ctx, c, symbols)
	case flags.Index:
		rec, err := c.Index(ctx)
		if err != nil {
			return err
		}
		return a.print(report.Index(rec))
	case flags.SubIndices:
		recs, err := c.Indices(ctx)
		if err != nil {
			return err
		}
		return a.print(report.SubIndices(recs))
	case flags.Summary:
		s, err := c.Summary(ctx)
		if err != nil {
			return err
		}
		return a.print(report.Summary(s))
	case flags.Depth != "":
		d, err := c.Depth(ctx, flags.Depth)
		if err != nil {
			return err
		}
		return a.print(report.Depth(d))
	case flags.Detail != "":
		return a.detail(ctx, c, flags.Detail)
	case flags.Top != "":
		kind, err := nepse.ParseTopKind(flags.Top)
		if err != nil {
			return err
		}
		entries, err := c.Top(ctx, kind)
		if err != nil {
			return err
		}
		return a.print(report.Top(kind, entries, cfg.TopLimit))
	case flags.Floorsheet != "":
		return a.floorsheet(ctx, c)
	}
	return errors.Reason("no command given")
}

// exitCode for the error returned by run.
func exitCode(err error) int {
	var se *nepse.StaleIndexError
	if errors.As(err, &se) {
		return exitStaleIndex
	}
	return exitFailure
}

// reportError logs the error returned by run with the guidance for a stale
// index, and returns the exit code.
func reportError(ctx context.Context, err error) int {
	logging.Errorf(ctx, "%s", err.Error())
	code := exitCode(err)
	if code == exitStaleIndex {
		logging.Errorf(ctx, "the stored request index is stale: find the current "+
			"one in the browser's requests to the floorsheet page, then run "+
			"'nepsense -change-index N'")
	}
	return code
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(exitFailure)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := run(ctx, flags, os.Stdout); err != nil {
		os.Exit(reportError(ctx, err))
	}
}
