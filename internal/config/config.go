package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without a zoneinfo database

	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys double as environment variable names once upper-cased.
const (
	KeyEmail          = "email"
	KeyPassword       = "password"
	KeyBoxName        = "box_name"
	KeyBoxID          = "box_id"
	KeySchedule       = "schedule"
	KeyOnly           = "only"
	KeyTimezone       = "timezone"
	KeyTargetHour     = "target_hour"
	KeyTargetMinute   = "target_minute"
	KeyDaysAhead      = "days_ahead"
	KeyDigestDays     = "digest_days"
	KeySkipWait       = "skip_wait"
	KeyDryRun         = "dry_run"
	KeyWithWOD        = "with_wod"
	KeyCategory       = "digest_category"
	KeyNotifyOnError  = "notify_on_error"
	KeyTelegramToken  = "telegram_token"
	KeyTelegramChatID = "telegram_chat_id"
	KeySlackToken     = "slack_bot_token"
	KeySlackChannel   = "slack_channel"
	KeyLogLevel       = "log_level"
	KeyBaseURL        = "aimharder_base_url"
	KeyLoginURL       = "aimharder_login_url"
)

const (
	DefaultBoxName  = "wezonearturosoria"
	DefaultBoxID    = 10002
	DefaultTimezone = "Europe/Madrid"
)

type Config struct {
	Email    string
	Password string

	BoxName  string
	BoxID    int
	Schedule string
	Only     string

	Location     *time.Location
	TargetHour   int
	TargetMinute int
	DaysAhead    int
	DigestDays   int

	SkipWait      bool
	DryRun        bool
	WithWOD       bool
	Category      string
	NotifyOnError bool

	TelegramToken  string
	TelegramChatID string
	SlackToken     string
	SlackChannel   string

	LogLevel string
	BaseURL  string
	LoginURL string
}

// SetDefaults registers the built-in value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBoxName, DefaultBoxName)
	v.SetDefault(KeyBoxID, DefaultBoxID)
	v.SetDefault(KeySchedule, "schedule.json")
	v.SetDefault(KeyTimezone, DefaultTimezone)
	v.SetDefault(KeyTargetHour, 18)
	v.SetDefault(KeyTargetMinute, 30)
	v.SetDefault(KeyDaysAhead, 2)
	v.SetDefault(KeyDigestDays, 1)
	v.SetDefault(KeyNotifyOnError, true)
	v.SetDefault(KeyLogLevel, "info")
}

// New returns a viper instance reading the environment on top of the defaults.
// Flags bound later with BindPFlag take precedence over both.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %v", internaltypes.ErrConfig, path, err)
	}
	return nil
}

// FromEnv loads .env into the environment and resolves the configuration
// from v, which reads the environment on top of its defaults and bound flags.
func FromEnv(v *viper.Viper) (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return FromViper(v)
}

// FromViper resolves and validates the configuration.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Email:          strings.TrimSpace(v.GetString(KeyEmail)),
		Password:       v.GetString(KeyPassword),
		BoxName:        strings.TrimSpace(v.GetString(KeyBoxName)),
		BoxID:          v.GetInt(KeyBoxID),
		Schedule:       v.GetString(KeySchedule),
		Only:           strings.TrimSpace(v.GetString(KeyOnly)),
		TargetHour:     v.GetInt(KeyTargetHour),
		TargetMinute:   v.GetInt(KeyTargetMinute),
		DaysAhead:      v.GetInt(KeyDaysAhead),
		DigestDays:     v.GetInt(KeyDigestDays),
		SkipWait:       v.GetBool(KeySkipWait),
		DryRun:         v.GetBool(KeyDryRun),
		WithWOD:        v.GetBool(KeyWithWOD),
		Category:       strings.TrimSpace(v.GetString(KeyCategory)),
		NotifyOnError:  v.GetBool(KeyNotifyOnError),
		TelegramToken:  v.GetString(KeyTelegramToken),
		TelegramChatID: v.GetString(KeyTelegramChatID),
		SlackToken:     v.GetString(KeySlackToken),
		SlackChannel:   v.GetString(KeySlackChannel),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		BaseURL:        v.GetString(KeyBaseURL),
		LoginURL:       v.GetString(KeyLoginURL),
	}

	if cfg.Email == "" || cfg.Password == "" {
		return Config{}, fmt.Errorf("%w: EMAIL and PASSWORD are required", internaltypes.ErrConfig)
	}
	if cfg.TargetHour < 0 || cfg.TargetHour > 23 {
		return Config{}, fmt.Errorf("%w: TARGET_HOUR must be 0-23, got %d", internaltypes.ErrConfig, cfg.TargetHour)
	}
	if cfg.TargetMinute < 0 || cfg.TargetMinute > 59 {
		return Config{}, fmt.Errorf("%w: TARGET_MINUTE must be 0-59, got %d", internaltypes.ErrConfig, cfg.TargetMinute)
	}
	if cfg.DaysAhead < 0 {
		return Config{}, fmt.Errorf("%w: DAYS_AHEAD must not be negative", internaltypes.ErrConfig)
	}
	if cfg.DigestDays < 1 {
		return Config{}, fmt.Errorf("%w: DIGEST_DAYS must be at least 1", internaltypes.ErrConfig)
	}

	loc, err := time.LoadLocation(v.GetString(KeyTimezone))
	if err != nil {
		return Config{}, fmt.Errorf("%w: TIMEZONE: %v", internaltypes.ErrConfig, err)
	}
	cfg.Location = loc
	return cfg, nil
}
