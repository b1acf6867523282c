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
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"crypto/tls"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/nepsense/trace"
)

// Header values expected by the upstream.
const (
	Origin         = "https://newweb.nepalstock.com.np"
	DefaultReferer = Origin + "/"
	Accept         = "application/json, text/plain, */*"
	AcceptLanguage = "en-US,en;q=0.5"
	AcceptEncoding = "gzip, deflate, br"
)

// AgentSource supplies the User-Agent for each request.
type AgentSource interface {
	Next() string
}

// transport sets the browser-like headers on every request and decodes
// compressed responses. Since Accept-Encoding is set explicitly, the standard
// transport doesn't decompress responses by itself.
type transport struct {
	base   http.RoundTripper
	agents AgentSource
	tracer *trace.Tracer
}

var _ http.RoundTripper = &transport{}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.agents.Next())
	r.Header.Set("Accept", Accept)
	r.Header.Set("Accept-Language", AcceptLanguage)
	r.Header.Set("Accept-Encoding", AcceptEncoding)
	r.Header.Set("Connection", "keep-alive")
	if r.Header.Get("Referer") == "" {
		r.Header.Set("Referer", DefaultReferer)
	}

	var body []byte
	if t.tracer.Enabled() && r.GetBody != nil {
		if rc, err := r.GetBody(); err == nil {
			body, _ = io.ReadAll(rc)
			rc.Close()
		}
	}
	t.tracer.Call(r.Method, r.URL.String(), body)

	start := time.Now()
	resp, err := t.base.RoundTrip(r)
	if err != nil {
		t.tracer.Failure(r.URL.String(), err)
		return nil, err
	}
	if err := decodeBody(resp); err != nil {
		t.tracer.Failure(r.URL.String(), err)
		return nil, errors.Annotate(err, "failed to decode response body")
	}
	if t.tracer.Enabled() {
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, errors.Annotate(err, "failed to read response body")
		}
		resp.Body = io.NopCloser(bytes.NewReader(data))
		t.tracer.Response(r.URL.String(), resp.StatusCode, time.Since(start), data)
	}
	return resp, nil
}

// decodeBody replaces a compressed response body by the decompressed one.
func decodeBody(resp *http.Response) error {
	var reader io.Reader
	switch resp.Header.Get("Content-Encoding") {
	case "":
		return nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return errors.Annotate(err, "bad gzip stream")
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return errors.Annotate(err, "bad deflate stream")
		}
		defer zr.Close()
		reader = zr
	case "br":
		reader = brotli.NewReader(resp.Body)
	default:
		return nil
	}
	data, err := io.ReadAll(reader)
	resp.Body.Close()
	if err != nil {
		return errors.Annotate(err, "failed to decompress %s body",
			resp.Header.Get("Content-Encoding"))
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.Header.Del("Content-Encoding")
	resp.Header.Set("Content-Length", strconv.Itoa(len(data)))
	resp.ContentLength = int64(len(data))
	resp.Uncompressed = true
	return nil
}

// newHTTPClient wraps the base client's transport with the header setting
// transport. When base is nil, a new transport is created, with TLS
// verification disabled unless verifyTLS is set.
func newHTTPClient(base *http.Client, agents AgentSource, tracer *trace.Tracer, timeout time.Duration, verifyTLS bool) *http.Client {
	var c http.Client
	if base != nil {
		c = *base
	} else {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: !verifyTLS}
		c.Transport = tr
	}
	rt := c.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	c.Transport = &transport{base: rt, agents: agents, tracer: tracer}
	if c.Timeout == 0 {
		c.Timeout = timeout
	}
	return &c
}
