package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/wildwatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	t.Chdir(t.TempDir())

	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(func() {
			clearConfigEnvVars()
			_ = os.Remove(".env")
		})

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "sqlite")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WILDWATCH_ADDR", ":8080")
			_ = os.Setenv("WILDWATCH_STORE_DRIVER", "Memory")
			_ = os.Setenv("WILDWATCH_HISTORY_LIMIT", "25")
			_ = os.Setenv("WILDWATCH_WEBHOOK_WORKER_COUNT", "2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.HistoryLimit, convey.ShouldEqual, 25)
				convey.So(cfg.WebhookWorkerCount, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := filepath.Join(t.TempDir(), "wildwatch.yaml")
			yaml := "addr: \":7070\"\nstore_driver: file\nstore_path: ./data\nmqtt_broker: tcp://broker:1883\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv(config.EnvConfigFile, path)
			_ = os.Setenv("WILDWATCH_ADDR", ":6060")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "file")
				convey.So(cfg.StorePath, convey.ShouldEqual, "./data")
				convey.So(cfg.MQTTBroker, convey.ShouldEqual, "tcp://broker:1883")
			})
		})

		convey.Convey("When a .env file is present", func() {
			convey.So(os.WriteFile(".env", []byte("WILDWATCH_PUBLIC_URL=https://wild.example.org\nWILDWATCH_LOG_FORMAT=json\n"), 0o600), convey.ShouldBeNil)

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values are picked up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.PublicURL, convey.ShouldEqual, "https://wild.example.org")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When the named .env file is missing", func() {
			_ = os.Setenv(config.EnvDotenvFile, filepath.Join(t.TempDir(), "missing.env"))

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file is missing", func() {
			_ = os.Setenv(config.EnvConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is invalid", func() {
			_ = os.Setenv("WILDWATCH_STORE_DRIVER", "etcd")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

var configEnvVars = []string{
	config.EnvDotenvFile,
	config.EnvConfigFile,
	"WILDWATCH_ADDR",
	"WILDWATCH_STORE_DRIVER",
	"WILDWATCH_HISTORY_LIMIT",
	"WILDWATCH_WEBHOOK_WORKER_COUNT",
	"WILDWATCH_PUBLIC_URL",
	"WILDWATCH_LOG_FORMAT",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}
