package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/apptracer/pkg/logger"
)

// Environment keys. viper matches them case-insensitively against both the
// process environment and the .env file.
const (
	KeyLevel      = "log_lvl"
	KeyToFile     = "log_to_file"
	KeyDir        = "log_dir"
	KeyUniqueFile = "log_unique_file"
	KeyName       = "log_name"
	KeyFile       = "log_file"
	KeyAdminAddr  = "log_admin_addr"
)

const dotenvName = ".env"

var ErrInvalidConfig = errors.New("invalid logging configuration")

// Config holds the raw LOG_* values. Booleans stay strings: only "true"
// (any case) enables an option, every other value disables it.
type Config struct {
	Level      string `mapstructure:"log_lvl"`
	ToFile     string `mapstructure:"log_to_file"`
	Dir        string `mapstructure:"log_dir"`
	UniqueFile string `mapstructure:"log_unique_file"`
	FileName   string `mapstructure:"log_name"`
	AdminAddr  string `mapstructure:"log_admin_addr"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Level:      logger.DefaultLevel,
		ToFile:     "false",
		Dir:        logger.DefaultDir,
		UniqueFile: "false",
		FileName:   logger.DefaultFileName,
	}
}

// Load reads the configuration from the environment. The nearest .env file
// in the working directory or one of its parents is read first; variables
// already present in the environment take precedence over it.
//
// Invalid values are reset to their defaults one at a time: Load then
// returns the repaired configuration together with an error naming every
// reset variable. A nil configuration is returned only when the .env file
// cannot be read.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return load(FindDotenv(wd))
}

func load(dotenv string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault(KeyLevel, def.Level)
	v.SetDefault(KeyToFile, def.ToFile)
	v.SetDefault(KeyDir, def.Dir)
	v.SetDefault(KeyUniqueFile, def.UniqueFile)
	v.SetDefault(KeyAdminAddr, "")

	v.AutomaticEnv()
	if err := v.BindEnv(KeyName, "LOG_NAME", "LOG_FILE"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if dotenv != "" {
		v.SetConfigFile(dotenv)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidConfig, dotenv, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.FileName == "" {
		cfg.FileName = v.GetString(KeyFile)
	}
	if cfg.FileName == "" {
		cfg.FileName = def.FileName
	}

	if err := cfg.repair(); err != nil {
		return &cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &cfg, nil
}

// repair resets each invalid field to its default and reports the reset
// fields keyed by environment variable.
func (c *Config) repair() error {
	def := Default()
	errs := validation.Errors{}

	if err := validation.Validate(c.Dir, validation.Required); err != nil {
		errs["LOG_DIR"] = err
		c.Dir = def.Dir
	}
	if err := validation.Validate(c.FileName, validation.Required, validation.By(validateFileName)); err != nil {
		errs["LOG_NAME"] = err
		c.FileName = def.FileName
	}
	if err := validation.Validate(c.AdminAddr, validation.By(ValidateAddr)); err != nil {
		errs["LOG_ADMIN_ADDR"] = err
		c.AdminAddr = def.AdminAddr
	}

	return errs.Filter()
}

// FindDotenv returns the path of the closest .env file at or above dir,
// or "" when there is none.
func FindDotenv(dir string) string {
	for {
		candidate := filepath.Join(dir, dotenvName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoggerConfig converts the raw values into the logger options.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Level,
		ToFile:     isTrue(c.ToFile),
		Dir:        c.Dir,
		UniqueFile: isTrue(c.UniqueFile),
		FileName:   c.FileName,
	}
}

func isTrue(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// Validate checks the values that cannot be recovered by falling back.
// LOG_LVL is not checked here; the logger resolves it with a notice.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir,
			validation.Required,
		),
		validation.Field(&c.FileName,
			validation.Required,
			validation.By(validateFileName),
		),
		validation.Field(&c.AdminAddr,
			validation.By(ValidateAddr),
		),
	)
}

func validateFileName(value interface{}) error {
	name, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if strings.ContainsAny(name, `/\`) {
		return validation.NewError("validation_invalid_file_name", "must be a file name without directories")
	}

	if name == "." || name == ".." {
		return validation.NewError("validation_invalid_file_name", "must name a file")
	}

	return nil
}

// ValidateAddr checks a host:port listener address. The host may be empty;
// an empty address is accepted and means the listener is disabled.
func ValidateAddr(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if addr == "" {
		return nil
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}
