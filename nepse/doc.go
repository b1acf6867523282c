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

// Package nepse implements a client for the web API of the Nepal Stock
// Exchange, the one used by its own web site.
//
// The API is not documented and not meant for third parties. It changes
// without notice, its TLS certificate has been known to be broken, and it
// blocks clients which do not look like a browser. Hence every request carries
// a rotating User-Agent and the headers the web app sends, and TLS
// verification can be turned off.
//
// Read-only public data (indices, market summary, depth, top lists) is
// fetched with GET. Company details and the floorsheet require a POST with a
// body {"id": N}, where N is the request index: an opaque number which the
// operator must keep up to date (see package store). When the index is stale,
// the API responds with a JSON object of a different shape, which is the only
// way to detect it.
//
// Every request is retried once after a short delay on a transport failure.
// The floorsheet is paginated: the number of pages is derived from the total
// number of transactions in the market summary, and pages are fetched
// sequentially, in order, so the result is reproducible.
//
// The Client is injected into a context with UseClient, similar to the other
// API clients of this project.
package nepse
