package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/matchsim/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MATCHSIM_ADDR", ":8080")
			_ = os.Setenv("MATCHSIM_QUEUE_SIZE", "64")
			_ = os.Setenv("MATCHSIM_WORKER_COUNT", "3")
			_ = os.Setenv("MATCHSIM_QUARTER_LENGTH_SECONDS", "600")
			_ = os.Setenv("MATCHSIM_BASE_INJURY_RATE_PER_MINUTE", "0.001")
			_ = os.Setenv("MATCHSIM_REPLAY_DIR", "/tmp/replays")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.QuarterLengthSeconds, convey.ShouldEqual, 600)
				convey.So(cfg.Tuning().BaseInjuryRatePerMinute, convey.ShouldEqual, 0.001)
				convey.So(cfg.ReplayDir, convey.ShouldEqual, "/tmp/replays")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# engine
addr: ":9090"  # listen
worker_count: 8
max_injuries: 4
fatigue_decay_per_minute: 0.03
injury_db_path: "/var/lib/matchsim/injuries.db"
cors_origins: "https://ladder.example"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MATCHSIM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
				convey.So(cfg.MaxInjuries, convey.ShouldEqual, 4)
				convey.So(cfg.FatigueDecayPerMinute, convey.ShouldEqual, 0.03)
				convey.So(cfg.InjuryDBPath, convey.ShouldEqual, "/var/lib/matchsim/injuries.db")
				convey.So(cfg.Origins(), convey.ShouldResemble, []string{"https://ladder.example"})
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nworker_count: 8\nqueue_size: 32\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MATCHSIM_CONFIG", tmpFile)
			_ = os.Setenv("MATCHSIM_WORKER_COUNT", "2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MATCHSIM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MATCHSIM_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MATCHSIM_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("MATCHSIM_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid engine setting", func() {
			_ = os.Setenv("MATCHSIM_TICK_SECONDS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MATCHSIM_CONFIG",
		"MATCHSIM_ADDR",
		"MATCHSIM_QUEUE_SIZE",
		"MATCHSIM_WORKER_COUNT",
		"MATCHSIM_QUARTER_LENGTH_SECONDS",
		"MATCHSIM_BASE_INJURY_RATE_PER_MINUTE",
		"MATCHSIM_REPLAY_DIR",
		"MATCHSIM_TICK_SECONDS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "matchsim-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
