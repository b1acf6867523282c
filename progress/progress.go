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

// Package progress draws a spinner with a status message on a terminal while
// a long operation runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Interval between spinner frames.
const Interval = 100 * time.Millisecond

var frames = []string{"|", "/", "-", "\\"}

// Spinner draws on its writer from a separate goroutine. A disabled Spinner
// does nothing, and all the methods are safe on nil.
type Spinner struct {
	w       io.Writer
	enabled bool

	mu      sync.Mutex // guards msg and running
	msg     string
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a spinner writing to w.
func New(w io.Writer, enabled bool) *Spinner {
	return &Spinner{w: w, enabled: enabled}
}

// ForTerminal creates a spinner on f which is enabled only when f is a
// terminal.
func ForTerminal(f *os.File) *Spinner {
	tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	return New(f, tty)
}

// Start the spinner with the message. Starting a running spinner only updates
// the message.
func (s *Spinner) Start(msg string) {
	if s == nil || !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
}

// Message replaces the status message.
func (s *Spinner) Message(msg string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
}

// Pages sets the message to the page progress; it matches nepse.ProgressFunc.
func (s *Spinner) Pages(done, total int) {
	s.Message(fmt.Sprintf("fetched page %d of %d", done, total))
}

func (s *Spinner) message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

func (s *Spinner) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(Interval)
	defer t.Stop()
	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r\033[K%s %s", frames[i%len(frames)], s.message())
		select {
		case <-stop:
			fmt.Fprint(s.w, "\r\033[K")
			return
		case <-t.C:
		}
	}
}

// Stop the spinner, wait for its goroutine to exit and clear the line. It is
// a no-op on a stopped spinner.
func (s *Spinner) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()
	close(stop)
	<-done
}
