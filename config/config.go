// Package config loads validator configuration from the environment and
// from YAML pattern-set files. The generic loader populates structs from
// environment variables using struct tags; LimitsFromEnv builds a
// jsonval.Config from the SECVAL_* variable block.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ai8future/secval-go/jsonval"
)

// MustLoad loads environment variables into a struct of type T based on struct
// tags. It panics if any required variable is missing and has no default.
//
// Supported struct tags:
//
//	env:"VAR_NAME"       — the environment variable to read
//	default:"value"      — fallback value when the env var is empty
//	required:"true"      — panic if missing and no default (this is the default behavior)
//	required:"false"     — leave the zero value if missing and no default
//
// Supported field types: string, int, int64, uint, uint64, float64, bool,
// time.Duration, []string.
func MustLoad[T any]() T {
	var cfg T
	v := reflect.ValueOf(&cfg).Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		fieldVal := v.Field(i)

		envKey := field.Tag.Get("env")
		if envKey == "" {
			continue
		}

		raw := os.Getenv(envKey)

		// Apply default if env var is empty.
		if raw == "" {
			if def, ok := field.Tag.Lookup("default"); ok {
				raw = def
			}
		}

		// Handle missing value.
		if raw == "" {
			req := field.Tag.Get("required")
			if req == "false" {
				continue
			}
			// Default behaviour: required.
			panic(fmt.Sprintf("config: required environment variable %q is not set (field %s)", envKey, field.Name))
		}

		if err := setField(fieldVal, raw); err != nil {
			panic(fmt.Sprintf("config: cannot set field %s from env %q=%q: %v", field.Name, envKey, raw, err))
		}
	}

	return cfg
}

// setField converts a raw string value and sets it on the reflected field.
func setField(fieldVal reflect.Value, raw string) error {
	// Handle time.Duration specially before the kind switch.
	if fieldVal.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fieldVal.Set(reflect.ValueOf(d))
		return nil
	}

	// Handle []string specially.
	if fieldVal.Type() == reflect.TypeOf([]string{}) {
		parts := strings.Split(raw, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed = append(trimmed, strings.TrimSpace(p))
		}
		fieldVal.Set(reflect.ValueOf(trimmed))
		return nil
	}

	switch fieldVal.Kind() {
	case reflect.String:
		fieldVal.SetString(raw)

	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int: %w", err)
		}
		fieldVal.SetInt(n)

	case reflect.Uint, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid uint: %w", err)
		}
		fieldVal.SetUint(n)

	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		fieldVal.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool: %w", err)
		}
		fieldVal.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type %s", fieldVal.Type())
	}

	return nil
}

// limitsEnv is the SECVAL_* environment block. Defaults mirror the
// jsonval defaults so an empty environment yields jsonval.Default().
type limitsEnv struct {
	MaxDepth           int    `env:"SECVAL_MAX_DEPTH" default:"10"`
	MaxTotalSize       int64  `env:"SECVAL_MAX_TOTAL_SIZE" default:"1000000"`
	MaxStringLen       int    `env:"SECVAL_MAX_STRING_LEN" default:"10000"`
	MaxArrayLen        int    `env:"SECVAL_MAX_ARRAY_LEN" default:"1000"`
	MaxKeys            int    `env:"SECVAL_MAX_KEYS" default:"1000"`
	AllowDangerousKeys bool   `env:"SECVAL_ALLOW_DANGEROUS_KEYS" default:"false"`
	StrictMode         bool   `env:"SECVAL_STRICT_MODE" default:"false"`
	Preset             string `env:"SECVAL_PRESET" required:"false"`
}

// LimitsFromEnv builds a jsonval.Config from SECVAL_* environment
// variables. When SECVAL_PRESET is set to "strict", "relaxed", or "api",
// the named preset is the starting point and individual SECVAL_* limit
// variables that are explicitly set override its fields; otherwise the
// variables apply on top of the defaults. Unknown preset names panic, in
// line with MustLoad's fail-fast contract.
func LimitsFromEnv() jsonval.Config {
	env := MustLoad[limitsEnv]()

	var cfg jsonval.Config
	switch strings.ToLower(env.Preset) {
	case "":
		cfg = jsonval.Default()
	case "strict":
		cfg = jsonval.Strict()
	case "relaxed":
		cfg = jsonval.Relaxed()
	case "api":
		cfg = jsonval.API()
	default:
		panic(fmt.Sprintf("config: unknown SECVAL_PRESET %q", env.Preset))
	}

	overrideInt := func(dst *int, envKey string, val int) {
		if os.Getenv(envKey) != "" {
			*dst = val
		}
	}
	overrideInt(&cfg.MaxDepth, "SECVAL_MAX_DEPTH", env.MaxDepth)
	overrideInt(&cfg.MaxStringLen, "SECVAL_MAX_STRING_LEN", env.MaxStringLen)
	overrideInt(&cfg.MaxArrayLen, "SECVAL_MAX_ARRAY_LEN", env.MaxArrayLen)
	overrideInt(&cfg.MaxKeys, "SECVAL_MAX_KEYS", env.MaxKeys)
	if os.Getenv("SECVAL_MAX_TOTAL_SIZE") != "" {
		cfg.MaxTotalSize = env.MaxTotalSize
	}
	if os.Getenv("SECVAL_ALLOW_DANGEROUS_KEYS") != "" {
		cfg.AllowDangerousKeys = env.AllowDangerousKeys
	}
	if os.Getenv("SECVAL_STRICT_MODE") != "" {
		cfg.StrictMode = env.StrictMode
	}
	return cfg
}
