package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/matchwinner/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.Dwell(), convey.ShouldEqual, 1500*time.Millisecond)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.SessionTTL(), convey.ShouldEqual, 30*time.Minute)
			convey.So(cfg.ShutdownTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.PredictorLatencyMinMS, convey.ShouldEqual, 80)
			convey.So(cfg.PredictorLatencyMaxMS, convey.ShouldEqual, 150)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid values", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"negative dwell", func(c *config.Config) { c.DwellMS = -1 }},
			{"zero request timeout", func(c *config.Config) { c.RequestTimeoutMS = 0 }},
			{"inverted latency", func(c *config.Config) { c.PredictorLatencyMinMS, c.PredictorLatencyMaxMS = 200, 100 }},
			{"zero session ttl", func(c *config.Config) { c.SessionTTLSeconds = 0 }},
			{"zero history limit", func(c *config.Config) { c.MaxHistoryLimit = 0 }},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
			{"postgres without dsn", func(c *config.Config) { c.HistoryBackend = "postgres" }},
			{"redis without address", func(c *config.Config) { c.HistoryBackend, c.RedisAddr = "redis", "" }},
		}

		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is rejected", func() {
				cfg := config.New()
				tc.mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestConfig_History(t *testing.T) {
	convey.Convey("Given a postgres config", t, func() {
		cfg := config.New()
		cfg.HistoryBackend = "postgres"
		cfg.PostgresDSN = "postgres://u:p@db/matchwinner?sslmode=disable"
		cfg.PostgresMaxConns = 4

		convey.Convey("Then History maps it to the repository config", func() {
			h := cfg.History()
			convey.So(h.Backend, convey.ShouldEqual, "postgres")
			convey.So(h.Capacity, convey.ShouldEqual, 1000)
			convey.So(h.RedisKey, convey.ShouldEqual, "matchwinner:history")
			convey.So(h.Postgres.DSN, convey.ShouldEqual, cfg.PostgresDSN)
			convey.So(h.Postgres.MaxConnections, convey.ShouldEqual, 4)
		})
	})
}
