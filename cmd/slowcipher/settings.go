package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/slowcipher/slowcipher-go"
)

const envPrefix = "SLOWCIPHER_"

// Settings are the tunables read from the config file and environment.
// Command-line flags take precedence over both.
type Settings struct {
	Rounds             int    `yaml:"rounds"`
	OutputBits         int    `yaml:"output_bits"`
	Primitive          string `yaml:"primitive"`
	Steps              int    `yaml:"steps"`
	CheckpointDir      string `yaml:"checkpoint_dir"`
	CheckpointInterval int    `yaml:"checkpoint_interval"`
	Throttle           string `yaml:"throttle"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Rounds:             slowcipher.DefaultRounds,
		OutputBits:         slowcipher.DefaultOutputBits,
		Primitive:          "pbkdf2-sha256",
		Steps:              1000,
		CheckpointInterval: slowcipher.DefaultCheckpointInterval,
		Throttle:           slowcipher.DefaultThrottleInterval.String(),
		LogLevel:           "warning",
		LogFormat:          "text",
	}
}

// LoadSettings layers the YAML file at path, the dotenv file at envFile,
// and the process environment over the defaults. Later layers win. A
// missing envFile is ignored; a missing config file is an error.
func LoadSettings(path, envFile string, getenv func(string) string) (Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &s); err != nil {
			return s, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return s, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	lookup := func(name string) string {
		if v := getenv(envPrefix + name); v != "" {
			return v
		}
		return dotenv[envPrefix+name]
	}

	var errs []string
	setInt := func(name string, dst *int) {
		if v := lookup(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setString := func(name string, dst *string) {
		if v := lookup(name); v != "" {
			*dst = v
		}
	}

	setInt("ROUNDS", &s.Rounds)
	setInt("OUTPUT_BITS", &s.OutputBits)
	setString("PRIMITIVE", &s.Primitive)
	setInt("STEPS", &s.Steps)
	setString("CHECKPOINT_DIR", &s.CheckpointDir)
	setInt("CHECKPOINT_INTERVAL", &s.CheckpointInterval)
	setString("THROTTLE", &s.Throttle)
	setString("LOG_LEVEL", &s.LogLevel)
	setString("LOG_FORMAT", &s.LogFormat)

	if len(errs) > 0 {
		return s, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return s, s.Validate()
}

// Validate checks values that cannot be checked by the library itself.
func (s Settings) Validate() error {
	if _, err := primitiveByName(s.Primitive); err != nil {
		return err
	}
	if _, err := time.ParseDuration(s.Throttle); err != nil {
		return fmt.Errorf("invalid throttle %q: %w", s.Throttle, err)
	}
	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, want text or json", s.LogFormat)
	}
	return nil
}

// ThrottleInterval returns the parsed throttle duration.
func (s Settings) ThrottleInterval() time.Duration {
	d, err := time.ParseDuration(s.Throttle)
	if err != nil {
		return slowcipher.DefaultThrottleInterval
	}
	return d
}

// Logger builds a logrus logger writing to w.
func (s Settings) Logger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	if level, err := logrus.ParseLevel(s.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if s.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func primitiveByName(name string) (slowcipher.Primitive, error) {
	switch strings.ToLower(name) {
	case "pbkdf2-sha256", "":
		return slowcipher.PBKDF2SHA256, nil
	case "pbkdf2-sha512":
		return slowcipher.PBKDF2SHA512, nil
	case "argon2id":
		return slowcipher.Argon2id, nil
	case "scrypt":
		return slowcipher.Scrypt, nil
	}
	return nil, fmt.Errorf("unknown primitive %q", name)
}
