package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"cs2-telemetry/internal/config"
	"cs2-telemetry/internal/domain"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.PollInterval(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.RefreshHold(), convey.ShouldEqual, 300*time.Millisecond)
			convey.So(cfg.LogCapacity, convey.ShouldEqual, 50)
			convey.So(cfg.Source(), convey.ShouldEqual, domain.SourceLive)
			convey.So(cfg.HistoricalBackend, convey.ShouldEqual, config.BackendClickHouse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with one bad field", t, func() {
		cases := map[string]func(*config.Config){
			"zero poll interval":   func(c *config.Config) { c.PollIntervalMS = 0 },
			"negative hold":        func(c *config.Config) { c.RefreshHoldMS = -1 },
			"zero log capacity":    func(c *config.Config) { c.LogCapacity = 0 },
			"unknown backend":      func(c *config.Config) { c.HistoricalBackend = "sqlite" },
			"unknown live backend": func(c *config.Config) { c.LiveBackend = "memcached" },
			"unknown source":       func(c *config.Config) { c.DefaultSource = "archive" },
			"unknown timezone":     func(c *config.Config) { c.Timezone = "Mars/Olympus" },
			"unknown log level":    func(c *config.Config) { c.LogLevel = "trace" },
			"filtering log level":  func(c *config.Config) { c.LogLevel = "error" },
			"empty server addr":    func(c *config.Config) { c.ServerAddr = "" },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)

			convey.Convey("Then validation fails for "+name, func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestConfig_Helpers(t *testing.T) {
	convey.Convey("Given a config with explicit values", t, func() {
		cfg := config.New()
		cfg.CORSOrigins = " http://a.test , ,http://b.test"
		cfg.Timezone = "UTC"

		convey.Convey("Then origins are split and trimmed", func() {
			convey.So(cfg.Origins(), convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
		})

		convey.Convey("Then the location resolves", func() {
			convey.So(cfg.Location(), convey.ShouldEqual, time.UTC)
		})
	})
}
