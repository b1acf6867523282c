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
	"net/url"
	"strconv"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

const floorsheetReferer = Origin + "/floor-sheet"

// PageCount is the number of pages of the given size needed for n entries.
func PageCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// ProgressFunc is called after each fetched floorsheet page with the number of
// pages done so far and the total.
type ProgressFunc func(done, total int)

// floorsheetRun is the state of a single floorsheet download.
type floorsheetRun struct {
	client   *Client
	index    int
	pages    int
	progress ProgressFunc
	result   Floorsheet
}

// fetchPage downloads the page and appends its entries to the result.
func (r *floorsheetRun) fetchPage(ctx context.Context, page int) error {
	query := url.Values{
		"page": []string{strconv.Itoa(page)},
		"size": []string{strconv.Itoa(r.client.pageSize)},
		"sort": []string{"contractId,desc"},
	}
	var p floorsheetPageJSON
	err := r.client.postJSON(ctx, "nepse-data/floorsheet", query, r.index, floorsheetReferer, &p)
	if err != nil {
		return errors.Annotate(err, "failed to fetch floorsheet page %d of %d", page+1, r.pages)
	}
	if !p.valid() {
		return &StaleIndexError{Index: r.index, Page: page}
	}
	for i := range *p.Floorsheets.Content {
		sn := len(r.result.Entries) + 1
		r.result.Entries = append(r.result.Entries, newFloorsheetEntry(sn, &(*p.Floorsheets.Content)[i]))
	}
	logging.Debugf(ctx, "floorsheet page %d/%d: %d entries",
		page+1, r.pages, len(*p.Floorsheets.Content))
	if r.progress != nil {
		r.progress(page+1, r.pages)
	}
	return nil
}

// Floorsheet downloads all the trades of the current session. The number of
// pages is derived from the total number of transactions in the market
// summary, and the pages are fetched in order. A page failing twice aborts the
// whole download, and so does a page of an unexpected shape, which yields
// *StaleIndexError. The progress function may be nil.
func (c *Client) Floorsheet(ctx context.Context, progress ProgressFunc) (*Floorsheet, error) {
	idx, err := c.requestIndex(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := c.Summary(ctx)
	if err != nil {
		return nil, err
	}
	n, err := summary.TotalTransactions()
	if err != nil {
		return nil, errors.Annotate(err, "cannot size the floorsheet")
	}
	r := floorsheetRun{
		client:   c,
		index:    idx,
		pages:    PageCount(n, c.pageSize),
		progress: progress,
	}
	r.result = Floorsheet{
		Transactions: n,
		Pages:        r.pages,
		Index:        idx,
		Entries:      make([]FloorsheetEntry, 0, n),
	}
	logging.Infof(ctx, "fetching floorsheet: %d transactions in %d pages", n, r.pages)
	for page := 0; page < r.pages; page++ {
		if err := r.fetchPage(ctx, page); err != nil {
			return nil, err
		}
	}
	if len(r.result.Entries) != n {
		logging.Warningf(ctx, "expected %d floorsheet entries, got %d",
			n, len(r.result.Entries))
	}
	return &r.result, nil
}
