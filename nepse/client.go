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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/nepsense/agent"
	"github.com/stockparfait/nepsense/trace"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the server. It may be overwritten in tests
// before creating a new client.
var URL = Origin + "/api/nots"

// Defaults for the zero values of Options.
const (
	DefaultTimeout    = 20 * time.Second
	DefaultRetryDelay = 400 * time.Millisecond
	DefaultPageSize   = 500
)

const securitiesKey = "securities"

// IndexReader supplies the request index for the POST endpoints.
type IndexReader interface {
	Read(ctx context.Context) (int, error)
}

// Options for a new Client. Zero values select the defaults.
type Options struct {
	BaseURL    string       // default: URL
	HTTPClient *http.Client // base client, e.g. of a test server
	Agents     AgentSource  // default: agent.NewPool seeded with the time
	Index      IndexReader  // required for Stock, Stocks and Floorsheet
	Timeout    time.Duration
	RetryDelay time.Duration
	PageSize   int
	Tracer     *trace.Tracer
	VerifyTLS  bool // ignored when HTTPClient is set
}

// Client of the NEPSE web API.
type Client struct {
	baseURL    string
	http       *http.Client
	rest       *resty.Client
	index      IndexReader
	retryDelay time.Duration
	pageSize   int
	memo       *cache.Cache
}

// NewClient creates a new client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = URL
	}
	if opts.Agents == nil {
		opts.Agents = agent.NewPool(uint64(time.Now().UnixNano()))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	hc := newHTTPClient(opts.HTTPClient, opts.Agents, opts.Tracer, opts.Timeout, opts.VerifyTLS)
	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		http:       hc,
		rest:       resty.NewWithClient(hc),
		index:      opts.Index,
		retryDelay: opts.RetryDelay,
		pageSize:   opts.PageSize,
		memo:       cache.New(cache.NoExpiration, 0),
	}
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient injects the client into the context.
func UseClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientContextKey, c)
}

// wait for d or until the context is cancelled.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryOnce calls f, and if it fails, calls it once more after the delay.
func retryOnce(ctx context.Context, delay time.Duration, what string, f func() error) error {
	err := f()
	if err == nil {
		return nil
	}
	logging.Warningf(ctx, "%s failed, retrying in %s: %s", what, delay, err.Error())
	if err := wait(ctx, delay); err != nil {
		return errors.Annotate(err, "%s: interrupted", what)
	}
	if err := f(); err != nil {
		return errors.Annotate(err, "%s failed twice", what)
	}
	return nil
}

func (c *Client) uri(path string) string {
	if path == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + path
}

// getJSON fetches a public endpoint into v. Like postJSON, transport
// failures, server errors and bodies which are not JSON are retried once.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	if query == nil {
		query = make(url.Values)
	}
	fctx := fetch.UseClient(ctx, c.http)
	return retryOnce(ctx, c.retryDelay, "GET "+c.uri(path), func() error {
		resp, err := fetch.Get(fctx, c.uri(path), query)
		if resp != nil {
			defer resp.Body.Close()
		}
		if err != nil {
			// fetch.Get wraps a nil error for 5xx; report the status instead.
			if resp != nil && fetch.ResponseRetriable(resp) {
				return errors.Reason("server error: HTTP %d", resp.StatusCode)
			}
			return err
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Annotate(err, "failed to read response body")
		}
		if err := json.Unmarshal(data, v); err != nil {
			return errors.Annotate(err, "response (HTTP %d) is not JSON", resp.StatusCode)
		}
		return nil
	})
}

// postJSON sends {"id": index} to path and decodes the response into v. Only
// transport failures, server errors and bodies which are not JSON count as
// errors; a JSON body of an unexpected shape is left for the caller to detect.
func (c *Client) postJSON(ctx context.Context, path string, query url.Values, index int, referer string, v any) error {
	body := map[string]int{"id": index}
	return retryOnce(ctx, c.retryDelay, "POST "+c.uri(path), func() error {
		req := c.rest.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader("Origin", Origin).
			SetHeader("Referer", referer).
			SetBody(body)
		if query != nil {
			req.SetQueryParamsFromValues(query)
		}
		resp, err := req.Post(c.uri(path))
		if err != nil {
			return errors.Annotate(err, "request failed")
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return errors.Reason("server error: HTTP %d", resp.StatusCode())
		}
		if err := json.Unmarshal(resp.Body(), v); err != nil {
			return errors.Annotate(err, "response (HTTP %d) is not JSON", resp.StatusCode())
		}
		return nil
	})
}

func (c *Client) requestIndex(ctx context.Context) (int, error) {
	if c.index == nil {
		return 0, errors.Reason("no request index source configured")
	}
	idx, err := c.index.Read(ctx)
	if err != nil {
		return 0, errors.Annotate(err, "failed to read request index")
	}
	return idx, nil
}

// Securities lists the companies which are not delisted. The list is fetched
// once per client.
func (c *Client) Securities(ctx context.Context) ([]Security, error) {
	if v, ok := c.memo.Get(securitiesKey); ok {
		return v.([]Security), nil
	}
	var raw []securityJSON
	query := url.Values{"nonDelisted": []string{"true"}}
	if err := c.getJSON(ctx, "security", query, &raw); err != nil {
		return nil, errors.Annotate(err, "failed to fetch the list of securities")
	}
	res := make([]Security, 0, len(raw))
	for _, s := range raw {
		name := s.SecurityName
		if name == "" {
			name = s.Name
		}
		res = append(res, Security{
			ID:     s.ID,
			Symbol: strings.ToUpper(s.Symbol),
			Name:   name,
			Sector: s.SectorName,
		})
	}
	logging.Debugf(ctx, "fetched %d securities", len(res))
	c.memo.Set(securitiesKey, res, cache.NoExpiration)
	return res, nil
}

// Resolve the symbol to its security. An unknown symbol yields
// *UnavailableError.
func (c *Client) Resolve(ctx context.Context, symbol string) (Security, error) {
	list, err := c.Securities(ctx)
	if err != nil {
		return Security{}, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range list {
		if s.Symbol == symbol {
			return s, nil
		}
	}
	return Security{}, &UnavailableError{Symbol: symbol, Reason: "unknown symbol"}
}

func companyReferer(id int64) string {
	return fmt.Sprintf("%s/company/detail/%d", Origin, id)
}

// Stock fetches the daily trading summary of the company. A company without
// trading details yields *UnavailableError.
func (c *Client) Stock(ctx context.Context, symbol string) (*StockRecord, error) {
	sec, err := c.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	idx, err := c.requestIndex(ctx)
	if err != nil {
		return nil, err
	}
	var d companyDetailJSON
	path := fmt.Sprintf("security/%d", sec.ID)
	if err := c.postJSON(ctx, path, nil, idx, companyReferer(sec.ID), &d); err != nil {
		return nil, errors.Annotate(err, "failed to fetch details of %s", sec.Symbol)
	}
	if d.DailyTrade == nil {
		return nil, &UnavailableError{Symbol: sec.Symbol, Reason: "no trading details"}
	}
	r := newStockRecord(sec.Symbol, &d)
	if r.Name == "" {
		r.Name = sec.Name
	}
	return r, nil
}

// Stocks fetches the companies one by one, in order. Unavailable companies are
// logged and returned in the skipped list; any other error aborts.
func (c *Client) Stocks(ctx context.Context, symbols []string) (records []StockRecord, skipped []string, err error) {
	for _, s := range symbols {
		r, err := c.Stock(ctx, s)
		if err != nil {
			var ue *UnavailableError
			if errors.As(err, &ue) {
				logging.Warningf(ctx, "skipping %s", ue.Error())
				skipped = append(skipped, ue.Symbol)
				continue
			}
			return nil, nil, err
		}
		records = append(records, *r)
	}
	return records, skipped, nil
}

// Depth fetches the order book of the company. The book is empty outside of
// trading hours.
func (c *Client) Depth(ctx context.Context, symbol string) (*MarketDepth, error) {
	sec, err := c.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	var j marketDepthJSON
	path := fmt.Sprintf("nepse-data/marketdepth/%d", sec.ID)
	if err := c.getJSON(ctx, path, nil, &j); err != nil {
		return nil, errors.Annotate(err, "failed to fetch market depth of %s", sec.Symbol)
	}
	return newMarketDepth(sec.Symbol, &j), nil
}

func (c *Client) indices(ctx context.Context, path string) ([]IndexRecord, error) {
	var raw []indexJSON
	if err := c.getJSON(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	res := make([]IndexRecord, len(raw))
	for i := range raw {
		res[i] = newIndexRecord(&raw[i])
	}
	return res, nil
}

// Index fetches the aggregate market index.
func (c *Client) Index(ctx context.Context) (*IndexRecord, error) {
	list, err := c.indices(ctx, "nepse-index")
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch indices")
	}
	for i := range list {
		if list[i].IsAggregate() {
			return &list[i], nil
		}
	}
	return nil, errors.Reason("'%s' not found among %d indices", AggregateIndex, len(list))
}

// SubIndices fetches the sector sub-indices.
func (c *Client) SubIndices(ctx context.Context) ([]IndexRecord, error) {
	list, err := c.indices(ctx, "")
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch sub-indices")
	}
	return list, nil
}

// Indices fetches the sub-indices followed by the aggregate index.
func (c *Client) Indices(ctx context.Context) ([]IndexRecord, error) {
	list, err := c.SubIndices(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		if r.IsAggregate() {
			return list, nil
		}
	}
	agg, err := c.Index(ctx)
	if err != nil {
		return nil, err
	}
	return append(list, *agg), nil
}

// Summary fetches the market summary. The upstream has served it both as a
// list of {detail, value} and as a single object.
func (c *Client) Summary(ctx context.Context) (*MarketSummary, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "market-summary/", nil, &raw); err != nil {
		return nil, errors.Annotate(err, "failed to fetch market summary")
	}
	s, err := parseSummary(raw)
	if err != nil {
		return nil, errors.Annotate(err, "failed to parse market summary")
	}
	return s, nil
}

func parseSummary(raw json.RawMessage) (*MarketSummary, error) {
	var s MarketSummary
	var list []summaryItemJSON
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, it := range list {
			s.Items = append(s.Items, SummaryItem{
				Name: normalizeMetric(it.Detail), Value: it.Value})
		}
		return &s, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.Reason("expected a list or an object")
	}
	for _, k := range summaryObjectKeys {
		v, ok := obj[k.Key]
		if !ok {
			continue
		}
		var d summaryItemJSON
		if err := json.Unmarshal(v, &d.Value); err != nil {
			return nil, errors.Annotate(err, "bad value of '%s'", k.Key)
		}
		s.Items = append(s.Items, SummaryItem{Name: k.Name, Value: d.Value})
	}
	return &s, nil
}

func topPath(kind TopKind) (string, error) {
	switch kind {
	case TopGainers:
		return "top-ten/top-gainer", nil
	case TopLosers:
		return "top-ten/top-loser", nil
	case TopTurnover:
		return "top-ten/turnover", nil
	case TopVolume:
		return "top-ten/trade", nil
	case TopTransactions:
		return "top-ten/transaction", nil
	case TopSupply, TopDemand:
		return "nepse-data/supplydemand", nil
	}
	return "", errors.Reason("unknown top list '%s'", kind)
}

// Top fetches the complete top list of the given kind in the upstream order.
func (c *Client) Top(ctx context.Context, kind TopKind) ([]TopEntry, error) {
	path, err := topPath(kind)
	if err != nil {
		return nil, err
	}
	query := url.Values{"all": []string{"true"}}
	var raw []topJSON
	switch kind {
	case TopSupply, TopDemand:
		var sd supplyDemandJSON
		if err := c.getJSON(ctx, path, query, &sd); err != nil {
			return nil, errors.Annotate(err, "failed to fetch %s list", kind)
		}
		raw = sd.SupplyList
		if kind == TopDemand {
			raw = sd.DemandList
		}
	default:
		if err := c.getJSON(ctx, path, query, &raw); err != nil {
			return nil, errors.Annotate(err, "failed to fetch top %s", kind)
		}
	}
	res := make([]TopEntry, len(raw))
	for i := range raw {
		res[i] = newTopEntry(&raw[i])
	}
	return res, nil
}
