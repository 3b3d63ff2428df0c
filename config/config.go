// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	sweepDisabled = pflag.Bool("no-sweeper", false, "Disables the background expiry sweeper")

	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers      = []string{"sqlite", "postgres"}
	validFailureActions = []string{"reject", "pending"}
	validBotModes       = []string{"polling", "webhook"}
)

// SweeperDisabled reports the --no-sweeper flag.
func SweeperDisabled() bool {
	return *sweepDisabled
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("bot.token", "bot_token")
	v.BindEnv("bot.mode", "bot_mode")
	v.BindEnv("bot.poll_timeout", "bot_poll_timeout")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.path", "db_path")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("admin.ids", "admin_ids")

	v.BindEnv("gate.max_attempts", "max_attempts")
	v.BindEnv("gate.verify_timeout", "verify_timeout_seconds")
	v.BindEnv("gate.language_timeout", "lang_timeout_seconds")
	v.BindEnv("gate.failure_action", "failure_action")
	v.BindEnv("gate.sweep_interval", "sweep_interval_seconds")

	v.BindEnv("host.enabled", "host_enabled")
	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.webhook_secret", "host_webhook_secret")

	v.BindEnv("jwt.secret", "jwt_secret")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.poll_timeout", 30)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "bot.db")

	v.SetDefault("gate.max_attempts", 3)
	v.SetDefault("gate.verify_timeout", 120)
	v.SetDefault("gate.language_timeout", 120)
	v.SetDefault("gate.failure_action", "reject")
	v.SetDefault("gate.sweep_interval", 10)
	v.SetDefault("gate.enable_preverified_fastpath", true)
	v.SetDefault("gate.notify_admin_on_promotion", true)

	v.SetDefault("host.enabled", false)
	v.SetDefault("host.port", 8080)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
		// No config.toml is fine as long as the envs cover the required
		// values.
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetString("bot.token") == "" {
		return errors.New("bot.token is required")
	}

	if !slices.Contains(validBotModes, v.GetString("bot.mode")) {
		return errors.New("invalid bot mode provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid db driver provided")
	}

	if v.GetString("db.driver") == "postgres" && v.GetString("db.dsn") == "" {
		return errors.New("db.dsn is required for the postgres driver")
	}

	if !slices.Contains(validFailureActions, v.GetString("gate.failure_action")) {
		// Unknown values fall back to reject instead of refusing to start.
		v.Set("gate.failure_action", "reject")
	}

	if v.GetInt("gate.max_attempts") <= 0 {
		return errors.New("gate.max_attempts must be bigger than 0")
	}

	if v.GetInt("gate.verify_timeout") <= 0 {
		return errors.New("gate.verify_timeout must be bigger than 0")
	}

	if v.GetInt("gate.language_timeout") <= 0 {
		return errors.New("gate.language_timeout must be bigger than 0")
	}

	if v.GetInt("gate.sweep_interval") <= 0 {
		return errors.New("gate.sweep_interval must be bigger than 0")
	}

	if v.GetBool("host.enabled") {
		if v.GetInt("host.port") <= 0 {
			return errors.New("invalid port provided")
		}

		if v.GetString("jwt.secret") == "" {
			return errors.New("jwt.secret is required when the admin API is enabled")
		}

		if v.GetString("bot.mode") == "webhook" && v.GetString("host.webhook_secret") == "" {
			return errors.New("host.webhook_secret is required in webhook mode")
		}
	} else if v.GetString("bot.mode") == "webhook" {
		return errors.New("webhook mode requires host.enabled")
	}

	if len(AdminIDs()) == 0 {
		fmt.Println("[WARNING]: No admin.ids configured. Administrative commands will be ignored for everyone")
	}

	return nil
}

// AdminIDs returns the configured administrator identity set. Accepts both
// a list and a comma-separated string; malformed entries are skipped.
func AdminIDs() []int64 {
	raw := v.GetStringSlice("admin.ids")
	if len(raw) == 1 && strings.Contains(raw[0], ",") {
		raw = strings.Split(raw[0], ",")
	}

	var ids []int64

	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}

		ids = append(ids, id)
	}

	return ids
}
