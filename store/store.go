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

// Package store persists the request index: an opaque integer which the
// upstream API expects in the body of its POST endpoints. Its valid value is
// not documented and changes from time to time, so the operator updates it
// manually.
package store

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

// DefaultIndex is written when no index has been stored yet.
const DefaultIndex = 123

// IndexFile is the name of the file holding the index in the data directory.
const IndexFile = "index.txt"

// IndexStore keeps the request index in a text file in a directory.
type IndexStore struct {
	dir string
}

// NewIndexStore creates a store in dir. Nothing is touched on disk until the
// first Read or Write.
func NewIndexStore(dir string) *IndexStore {
	return &IndexStore{dir: dir}
}

// Path to the index file.
func (s *IndexStore) Path() string {
	return filepath.Join(s.dir, IndexFile)
}

// Read the stored index. If the file does not exist, it is created with
// DefaultIndex, which is returned.
func (s *IndexStore) Read(ctx context.Context) (int, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return 0, errors.Annotate(err, "failed to read '%s'", s.Path())
		}
		logging.Infof(ctx, "no request index in '%s', creating default %d",
			s.Path(), DefaultIndex)
		if err := s.Write(ctx, DefaultIndex); err != nil {
			return 0, errors.Annotate(err, "failed to create default index")
		}
		return DefaultIndex, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Annotate(err,
			"'%s' does not contain an integer; set it with -change-index", s.Path())
	}
	return v, nil
}

// Write v as the new index, creating the directory if necessary.
func (s *IndexStore) Write(ctx context.Context, v int) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Annotate(err, "failed to create directory '%s'", s.dir)
	}
	if err := os.WriteFile(s.Path(), []byte(strconv.Itoa(v)+"\n"), 0644); err != nil {
		return errors.Annotate(err, "failed to write '%s'", s.Path())
	}
	logging.Debugf(ctx, "request index set to %d", v)
	return nil
}
