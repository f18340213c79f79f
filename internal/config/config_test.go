package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/motionmap/internal/config"
	"github.com/okian/motionmap/internal/domain/signal"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.StartFrame, convey.ShouldEqual, 0)
			convey.So(cfg.UseCentering, convey.ShouldBeFalse)
			convey.So(cfg.Mode(), convey.ShouldEqual, signal.ModeQuaternion)
			convey.So(cfg.Export, convey.ShouldBeTrue)
			convey.So(cfg.Delimiter, convey.ShouldEqual, ",")
			convey.So(cfg.Precision, convey.ShouldEqual, 6)
			convey.So(cfg.EmbeddingStride, convey.ShouldEqual, 15)
			convey.So(cfg.Crossfade(), convey.ShouldEqual, time.Second)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Sources(t *testing.T) {
	convey.Convey("Given a single file and a batch list with overlap", t, func() {
		cfg := config.New()
		cfg.SourceFile = "a.bvh"
		cfg.SourceFiles = []string{"b.bvh", "", "a.bvh", "c.bvh"}

		convey.Convey("Then sources are deduplicated in order", func() {
			convey.So(cfg.Sources(), convey.ShouldResemble, []string{"a.bvh", "b.bvh", "c.bvh"})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"negative start frame": func(c *config.Config) { c.StartFrame = -1 },
			"empty delimiter":      func(c *config.Config) { c.Delimiter = "" },
			"zero precision":       func(c *config.Config) { c.Precision = 0 },
			"zero stride":          func(c *config.Config) { c.EmbeddingStride = 0 },
			"zero crossfade":       func(c *config.Config) { c.CrossfadeDuration = 0 },
			"zero workers":         func(c *config.Config) { c.WorkerCount = 0 },
			"zero queue":           func(c *config.Config) { c.QueueSize = 0 },
			"bad log format":       func(c *config.Config) { c.LogFormat = "xml" },
			"bad visualization":    func(c *config.Config) { c.Visualization = "axis-angle" },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
