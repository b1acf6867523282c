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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig(t *testing.T) {
	tmpdir, tmpdirErr := os.MkdirTemp("", "test_config")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("Default", t, func() {
		c := Default()
		So(c.Validate(), ShouldBeNil)
		So(c.Sort, ShouldEqual, "ascending")
		So(c.Timeout(), ShouldEqual, 20*time.Second)
		So(c.RetryDelay(), ShouldEqual, 400*time.Millisecond)
		So(c.PageSize, ShouldEqual, 500)
		So(c.GroupNames(), ShouldResemble, []string{
			"banking", "devbank", "finance", "hotels", "hydropower", "lifeinsu",
			"manufacture", "microfinance", "nonlifeinsu", "others", "trading"})
		hotels, err := c.Group("Hotels")
		So(err, ShouldBeNil)
		So(hotels, ShouldResemble, []string{"TRH", "YHL"})
		_, err = c.Group("crypto")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "banking, devbank")
	})

	Convey("Parse", t, func() {
		Convey("overrides and groups", func() {
			c, err := Parse([]byte(`
sort = "descending"
top_limit = 0
page_size = 100

[groups]
Hotels = ["oyo"]
mine = ["nabil", " upper "]
`))
			So(err, ShouldBeNil)
			So(c.Sort, ShouldEqual, "descending")
			So(c.TopLimit, ShouldEqual, 0)
			So(c.PageSize, ShouldEqual, 100)
			So(c.TimeoutSeconds, ShouldEqual, 20)
			So(c.Groups["mine"], ShouldResemble, []string{"NABIL", "UPPER"})
			So(c.Groups["hotels"], ShouldResemble, []string{"OYO"})
			So(len(c.Groups["banking"]), ShouldBeGreaterThan, 0)
		})

		Convey("top_limit defaults when absent", func() {
			c, err := Parse([]byte(`sort = "ascending"`))
			So(err, ShouldBeNil)
			So(c.TopLimit, ShouldEqual, 20)
		})

		Convey("unknown fields", func() {
			_, err := Parse([]byte(`colour = true`))
			So(err, ShouldNotBeNil)
		})

		Convey("invalid values", func() {
			_, err := Parse([]byte(`sort = "sideways"`))
			So(err, ShouldNotBeNil)
			_, err = Parse([]byte(`page_size = 1000`))
			So(err, ShouldNotBeNil)
			_, err = Parse([]byte(`base_url = "not a url"`))
			So(err, ShouldNotBeNil)
			_, err = Parse([]byte("[groups]\nempty = []"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Load", t, func() {
		ctx := context.Background()

		Convey("missing directory yields defaults", func() {
			c, err := Load(ctx, filepath.Join(tmpdir, "nonexistent"))
			So(err, ShouldBeNil)
			So(c.Sort, ShouldEqual, "ascending")
			So(c.BaseURL, ShouldEqual, "")
		})

		Convey("config file and .env", func() {
			dir := filepath.Join(tmpdir, "full")
			So(os.MkdirAll(dir, 0755), ShouldBeNil)
			So(testutil.WriteFile(filepath.Join(dir, ConfigFile), `
sort = "descending"
base_url = "https://example.com/api"
`), ShouldBeNil)
			So(testutil.WriteFile(filepath.Join(dir, EnvFile),
				"NEPSENSE_BASE_URL=http://localhost:8080/api\n"), ShouldBeNil)
			c, err := Load(ctx, dir)
			So(err, ShouldBeNil)
			So(c.Sort, ShouldEqual, "descending")
			So(c.BaseURL, ShouldEqual, "http://localhost:8080/api")
		})

		Convey("bad config file", func() {
			dir := filepath.Join(tmpdir, "bad")
			So(os.MkdirAll(dir, 0755), ShouldBeNil)
			So(testutil.WriteFile(filepath.Join(dir, ConfigFile), `sort = `), ShouldBeNil)
			_, err := Load(ctx, dir)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, ConfigFile)
		})

		Convey("bad environment", func() {
			dir := filepath.Join(tmpdir, "badenv")
			So(os.MkdirAll(dir, 0755), ShouldBeNil)
			So(testutil.WriteFile(filepath.Join(dir, EnvFile), "NEPSENSE_SORT=up\n"),
				ShouldBeNil)
			_, err := Load(ctx, dir)
			So(err, ShouldNotBeNil)
		})
	})
}
