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

// Package trace dumps every upstream API call and its response to the error
// stream. It is meant for debugging the undocumented upstream API, and is off
// by default.
package trace

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Tracer records API calls. The zero value and nil are disabled tracers.
type Tracer struct {
	log *zap.Logger
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// New creates an enabled tracer writing to w in console format.
func New(w io.Writer) *Tracer {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:  "message",
		LevelKey:    "level",
		TimeKey:     "time",
		EncodeLevel: zapcore.CapitalLevelEncoder,
		EncodeTime:  timeEncoder,
	})
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.DebugLevel)
	return &Tracer{log: zap.New(core)}
}

// Enabled reports whether the tracer writes anything.
func (t *Tracer) Enabled() bool {
	return t != nil && t.log != nil
}

// Call records an outgoing request.
func (t *Tracer) Call(method, url string, body []byte) {
	if !t.Enabled() {
		return
	}
	fields := []zap.Field{zap.String("method", method), zap.String("url", url)}
	if len(body) > 0 {
		fields = append(fields, zap.ByteString("body", body))
	}
	t.log.Info("API call", fields...)
}

// Response records the response to a request. JSON bodies are indented.
func (t *Tracer) Response(url string, status int, elapsed time.Duration, body []byte) {
	if !t.Enabled() {
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		buf.Reset()
		buf.Write(body)
	}
	t.log.Info("API response",
		zap.String("url", url),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed))
	t.log.Debug("\n" + buf.String())
}

// Failure records a transport error.
func (t *Tracer) Failure(url string, err error) {
	if !t.Enabled() {
		return
	}
	t.log.Warn("API failure", zap.String("url", url), zap.Error(err))
}

// Sync flushes buffered entries.
func (t *Tracer) Sync() error {
	if !t.Enabled() {
		return nil
	}
	return t.log.Sync()
}
