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

// Package config reads the settings of the tool: an optional TOML file in the
// data directory, overridden by environment variables, which may also come
// from a .env file in the same directory.
//
// Example config.toml:
//
//   sort = "descending"
//   top_limit = 10
//
//   [groups]
//   mine = ["NABIL", "SHL", "UPPER"]
package config

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// File names in the data directory.
const (
	ConfigFile = "config.toml"
	EnvFile    = ".env"
)

// Environment variables overriding the config file.
const (
	EnvBaseURL = "NEPSENSE_BASE_URL"
	EnvSort    = "NEPSENSE_SORT"
)

//go:embed groups.toml
var builtinGroups []byte

// Config of the tool. The zero values of the fields not set in the file are
// replaced by the defaults.
type Config struct {
	BaseURL        string              `toml:"base_url" validate:"omitempty,url"`
	Sort           string              `toml:"sort" validate:"oneof=ascending descending"`
	TopLimit       int                 `toml:"top_limit" validate:"gte=0"`
	TimeoutSeconds int                 `toml:"timeout_seconds" validate:"gte=1,lte=300"`
	RetryDelayMs   int                 `toml:"retry_delay_ms" validate:"gte=1,lte=60000"`
	PageSize       int                 `toml:"page_size" validate:"gte=1,lte=500"`
	Groups         map[string][]string `toml:"groups" validate:"dive,keys,required,endkeys,min=1,dive,required"`
}

func parseGroups(data []byte) (map[string][]string, error) {
	var groups map[string][]string
	if err := toml.Unmarshal(data, &groups); err != nil {
		return nil, err
	}
	res := make(map[string][]string, len(groups))
	for name, symbols := range groups {
		list := make([]string, len(symbols))
		for i, s := range symbols {
			list[i] = strings.ToUpper(strings.TrimSpace(s))
		}
		res[strings.ToLower(name)] = list
	}
	return res, nil
}

// Default configuration with the built-in groups.
func Default() *Config {
	groups, err := parseGroups(builtinGroups)
	if err != nil {
		panic(errors.Annotate(err, "bad built-in groups"))
	}
	return &Config{
		Sort:           "ascending",
		TopLimit:       20,
		TimeoutSeconds: 20,
		RetryDelayMs:   400,
		PageSize:       500,
		Groups:         groups,
	}
}

// setDefaults fills in the zero values from d.
func (c *Config) setDefaults(d *Config) {
	if c.Sort == "" {
		c.Sort = d.Sort
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = d.TimeoutSeconds
	}
	if c.RetryDelayMs == 0 {
		c.RetryDelayMs = d.RetryDelayMs
	}
	if c.PageSize == 0 {
		c.PageSize = d.PageSize
	}
	groups := make(map[string][]string, len(d.Groups)+len(c.Groups))
	for name, list := range d.Groups {
		groups[name] = list
	}
	for name, list := range c.Groups {
		upper := make([]string, len(list))
		for i, s := range list {
			upper[i] = strings.ToUpper(strings.TrimSpace(s))
		}
		groups[strings.ToLower(name)] = upper
	}
	c.Groups = groups
}

// Parse the TOML config, apply the defaults and validate the result. Unknown
// fields are an error.
func Parse(data []byte) (*Config, error) {
	var c Config
	// top_limit may legitimately be 0 (no limit), so it's defaulted only when
	// absent.
	c.TopLimit = -1
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to parse config")
	}
	d := Default()
	if c.TopLimit == -1 {
		c.TopLimit = d.TopLimit
	}
	c.setDefaults(d)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate the config.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Annotate(err, "invalid config")
	}
	return nil
}

// applyEnv overrides the config from env.
func (c *Config) applyEnv(env map[string]string) {
	if v := env[EnvBaseURL]; v != "" {
		c.BaseURL = v
	}
	if v := env[EnvSort]; v != "" {
		c.Sort = strings.ToLower(v)
	}
}

// Load the config from dir. Missing files are not an error: the defaults are
// used instead. The variables of the process environment take precedence over
// the .env file, and both over config.toml.
func Load(ctx context.Context, dir string) (*Config, error) {
	c := Default()
	path := filepath.Join(dir, ConfigFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if c, err = Parse(data); err != nil {
			return nil, errors.Annotate(err, "in '%s'", path)
		}
		logging.Debugf(ctx, "loaded config from '%s'", path)
	case errors.Is(err, os.ErrNotExist):
		logging.Debugf(ctx, "no config in '%s', using defaults", path)
	default:
		return nil, errors.Annotate(err, "failed to read '%s'", path)
	}

	envPath := filepath.Join(dir, EnvFile)
	env, err := godotenv.Read(envPath)
	switch {
	case err == nil:
		logging.Debugf(ctx, "loaded environment from '%s'", envPath)
	case errors.Is(err, os.ErrNotExist):
		env = make(map[string]string)
	default:
		return nil, errors.Annotate(err, "failed to read '%s'", envPath)
	}
	for _, k := range []string{EnvBaseURL, EnvSort} {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	c.applyEnv(env)
	if err := c.Validate(); err != nil {
		return nil, errors.Annotate(err, "after applying environment")
	}
	return c, nil
}

// Timeout of a single request.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay before retrying a failed request.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// GroupNames in alphabetical order.
func (c *Config) GroupNames() []string {
	names := maps.Keys(c.Groups)
	slices.Sort(names)
	return names
}

// Group returns the symbols of the named group. Names are case insensitive.
func (c *Config) Group(name string) ([]string, error) {
	list, ok := c.Groups[strings.ToLower(name)]
	if !ok {
		return nil, errors.Reason("unknown group '%s', expected one of: %s",
			name, strings.Join(c.GroupNames(), ", "))
	}
	return list, nil
}
