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
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockparfait/errors"
)

// This file holds the JSON shapes of the upstream responses. Numbers are
// decoded as decimal.Decimal which accepts both JSON numbers and numeric
// strings, since the upstream is not consistent about it.

// FlexString is a JSON value which may come either as a string or as a number,
// like the broker IDs. Numbers are kept verbatim.
type FlexString string

var _ json.Unmarshaler = (*FlexString)(nil)

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return errors.Annotate(err, "bad string value")
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Reason("expected a string or a number, got %s", string(data))
	}
	*s = FlexString(n.String())
	return nil
}

type securityJSON struct {
	ID           int64  `json:"id"`
	Symbol       string `json:"symbol"`
	SecurityName string `json:"securityName"`
	Name         string `json:"name"`
	ActiveStatus string `json:"activeStatus"`
	SectorName   string `json:"sectorName"`
}

type dailyTradeJSON struct {
	OpenPrice          decimal.Decimal `json:"openPrice"`
	HighPrice          decimal.Decimal `json:"highPrice"`
	LowPrice           decimal.Decimal `json:"lowPrice"`
	ClosePrice         decimal.Decimal `json:"closePrice"`
	LastTradedPrice    decimal.Decimal `json:"lastTradedPrice"`
	PreviousClose      decimal.Decimal `json:"previousClose"`
	TotalTradeQuantity decimal.Decimal `json:"totalTradeQuantity"`
	TotalTradedValue   decimal.Decimal `json:"totalTradedValue"`
	FiftyTwoWeekHigh   decimal.Decimal `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow    decimal.Decimal `json:"fiftyTwoWeekLow"`
	BusinessDate       string          `json:"businessDate"`
}

type companyDetailJSON struct {
	DailyTrade *dailyTradeJSON `json:"securityDailyTradeDto"`
	Security   struct {
		ID                int64           `json:"id"`
		Symbol            string          `json:"symbol"`
		SecurityName      string          `json:"securityName"`
		NetworthBasePrice decimal.Decimal `json:"networthBasePrice"`
	} `json:"security"`
	PublicShares   decimal.Decimal `json:"publicShares"`
	PromoterShares decimal.Decimal `json:"promoterShares"`
}

type depthLevelJSON struct {
	OrderCount decimal.Decimal `json:"orderCount"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"orderBookOrderPrice"`
}

type marketDepthJSON struct {
	MarketDepth *struct {
		Buy  []depthLevelJSON `json:"buyMarketDepthList"`
		Sell []depthLevelJSON `json:"sellMarketDepthList"`
	} `json:"marketDepth"`
	TotalBuyQty  decimal.Decimal `json:"totalBuyQty"`
	TotalSellQty decimal.Decimal `json:"totalSellQty"`
}

type indexJSON struct {
	Index         string          `json:"index"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	Close         decimal.Decimal `json:"close"`
	Change        decimal.Decimal `json:"change"`
	PerChange     decimal.Decimal `json:"perChange"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	PreviousClose decimal.Decimal `json:"previousClose"`
}

type summaryItemJSON struct {
	Detail string          `json:"detail"`
	Value  decimal.Decimal `json:"value"`
}

// summaryObjectKeys maps the keys of the object form of the market summary to
// the metric names of the list form, in display order.
var summaryObjectKeys = []struct {
	Key  string
	Name string
}{
	{"totalTurnover", TotalTurnover},
	{"totalTradedShares", TotalTradedShares},
	{"totalTransactions", TotalTransactions},
	{"totalScripTraded", TotalScripsTraded},
	{"totalMarketCap", MarketCapitalization},
}

// topJSON is the union of the fields of all the top-N lists.
type topJSON struct {
	Symbol           string          `json:"symbol"`
	SecurityName     string          `json:"securityName"`
	LTP              decimal.Decimal `json:"ltp"`
	LastTradedPrice  decimal.Decimal `json:"lastTradedPrice"`
	ClosingPrice     decimal.Decimal `json:"closingPrice"`
	PointChange      decimal.Decimal `json:"pointChange"`
	PercentageChange decimal.Decimal `json:"percentageChange"`
	Turnover         decimal.Decimal `json:"turnover"`
	ShareTraded      decimal.Decimal `json:"shareTraded"`
	TotalTrades      decimal.Decimal `json:"totalTrades"`
	TotalOrder       decimal.Decimal `json:"totalOrder"`
	TotalQuantity    decimal.Decimal `json:"totalQuantity"`
}

type supplyDemandJSON struct {
	SupplyList []topJSON `json:"supplyList"`
	DemandList []topJSON `json:"demandList"`
}

type floorsheetEntryJSON struct {
	ContractID       FlexString      `json:"contractId"`
	StockSymbol      string          `json:"stockSymbol"`
	BuyerMemberID    FlexString      `json:"buyerMemberId"`
	SellerMemberID   FlexString      `json:"sellerMemberId"`
	ContractQuantity decimal.Decimal `json:"contractQuantity"`
	ContractRate     decimal.Decimal `json:"contractRate"`
	ContractAmount   decimal.Decimal `json:"contractAmount"`
	TradeTime        string          `json:"tradeTime"`
}

// floorsheetPageJSON is a single floorsheet page. A nil Floorsheets or Content
// means the response has an unexpected shape.
type floorsheetPageJSON struct {
	Floorsheets *struct {
		Content    *[]floorsheetEntryJSON `json:"content"`
		TotalPages int                    `json:"totalPages"`
	} `json:"floorsheets"`
}

func (p *floorsheetPageJSON) valid() bool {
	return p.Floorsheets != nil && p.Floorsheets.Content != nil
}

// parseTime accepts the time formats seen in the upstream responses.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"15:04:05",
	}
	var err error
	for _, f := range formats {
		var tm time.Time
		if tm, err = time.Parse(f, s); err == nil {
			return tm, nil
		}
	}
	return time.Time{}, errors.Annotate(err, "unrecognized time format: '%s'", s)
}
