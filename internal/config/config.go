//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package config provides configuration management for the policy engine
// using [Viper] for flexible configuration sources.
//
// Configuration can be provided via:
//   - A YAML configuration file
//   - Environment variables with the POLIX_ prefix
//   - Programmatic defaults
//
// # Configuration File
//
// By default, the engine looks for polix-config.yaml in the current
// directory. Override the location with:
//
//	POLIX_CONFIG_PATH=/etc/polix
//	POLIX_CONFIG_FILENAME=production-config
//
// Example configuration file:
//
//	log:
//	  level: ".:info"
//	cache:
//	  capacity: 256
//	evaluator:
//	  defaulttier: auto
//	operators:
//	  denylist: "matches"
//
// # Environment Variables
//
// All configuration keys can be set via environment variables with the
// POLIX_ prefix. Dots in key names become underscores:
//
//	POLIX_LOG_LEVEL=.:debug
//	POLIX_CACHE_CAPACITY=512
//	POLIX_EVALUATOR_DEFAULTTIER=T0
//
// [Viper]: https://github.com/spf13/viper
package config

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/manetu/polix/internal/logging"
)

// Environment variable and default path constants for configuration loading.
const (
	// EnvVarPrefix is the prefix for all policy engine environment variables.
	// For example, the key "cache.capacity" becomes POLIX_CACHE_CAPACITY.
	EnvVarPrefix string = "POLIX"

	// ConfigPathEnv specifies the directory containing the configuration file.
	ConfigPathEnv string = "POLIX_CONFIG_PATH"

	// ConfigFileNameEnv specifies the configuration file name (without extension).
	ConfigFileNameEnv string = "POLIX_CONFIG_FILENAME"

	// ConfigDefaultPath is the default directory to search for config files.
	ConfigDefaultPath string = "."

	// ConfigDefaultFilename is the default configuration file name (without extension).
	ConfigDefaultFilename string = "polix-config"
)

// Configuration key constants for use with [VConfig].
const (
	logLevel string = "log.level"

	// CacheCapacity is the compiled-policy LRU cache capacity.
	//
	// Default: 128
	// Set via environment: POLIX_CACHE_CAPACITY=512
	CacheCapacity string = "cache.capacity"

	// DefaultTier forces the tiered evaluator's tier selection ("T0",
	// "T1", "T2", or "auto" to let the classifier decide).
	//
	// Default: "auto"
	// Set via environment: POLIX_EVALUATOR_DEFAULTTIER=T0
	DefaultTier string = "evaluator.defaulttier"

	// OperatorDenylist is a comma-separated list of registered operator
	// IDs that callers are forbidden from using in module policies,
	// mirroring the teacher's unsafe-Rego-builtins denylist concept.
	//
	// Default: "" (nothing denied)
	// Set via environment: POLIX_OPERATORS_DENYLIST=matches,not-matches
	OperatorDenylist string = "operators.denylist"
)

var (
	once     sync.Once
	loadOnce sync.Once
	loadErr  error

	// VConfig is the global Viper configuration instance for the policy
	// engine. Most applications don't need to access it directly; use
	// the package functions ([CacheCapacityValue], [DefaultTierValue],
	// [DeniedOperators]) instead.
	VConfig *viper.Viper
	logger  = logging.GetLogger("polix.config")
)

// Init initializes the configuration system without loading config files.
// Safe to call multiple times; subsequent calls are no-ops.
func Init() {
	once.Do(doInitialize)
}

func getConfigPath() string {
	if v, ok := os.LookupEnv(ConfigPathEnv); ok {
		return v
	}
	return ConfigDefaultPath
}

func getConfigFileName() string {
	if v, ok := os.LookupEnv(ConfigFileNameEnv); ok {
		return v
	}
	return ConfigDefaultFilename
}

func doInitialize() {
	VConfig = viper.New()

	VConfig.AddConfigPath(getConfigPath())
	VConfig.SetConfigName(getConfigFileName())
	VConfig.SetConfigType("yaml")

	VConfig.SetEnvPrefix(EnvVarPrefix)
	VConfig.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	VConfig.AutomaticEnv()

	VConfig.SetDefault(logLevel, ".:info")
	VConfig.SetDefault(CacheCapacity, 128)
	VConfig.SetDefault(DefaultTier, "auto")
	VConfig.SetDefault(OperatorDenylist, "")
}

// Load initializes configuration and loads settings from files and the
// environment. Safe to call concurrently; subsequent calls after the
// first successful load are no-ops that return nil.
func Load() error {
	loadOnce.Do(func() {
		Init()

		if early := os.Getenv("POLIX_LOG_LEVEL"); early != "" {
			if err := logging.UpdateLogLevels(early); err != nil {
				logger.SysErrorf("failed updating early log level %s: %+v", early, err)
				loadErr = err
				return
			}
		}

		logger.SysDebugf("loading configuration from %s/%s.yaml", getConfigPath(), getConfigFileName())
		if err := VConfig.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				logger.SysWarnf("error reading config; using defaults: %+v", err)
			}
		}

		if err := logging.UpdateLogLevels(VConfig.GetString(logLevel)); err != nil {
			logger.SysErrorf("failed updating log level: %+v", err)
			loadErr = err
			return
		}
	})

	return loadErr
}

// ResetConfig clears all configuration state and reinitializes with
// defaults. Intended for tests only.
func ResetConfig() {
	VConfig = nil
	once = sync.Once{}
	loadOnce = sync.Once{}
	loadErr = nil
	Init()
	_ = Load()
}

// CacheCapacityValue returns the configured policy cache capacity.
func CacheCapacityValue() int {
	Init()
	return VConfig.GetInt(CacheCapacity)
}

// DefaultTierValue returns the configured forced evaluator tier, or
// "auto" if tier selection should be left to the classifier.
func DefaultTierValue() string {
	Init()
	return VConfig.GetString(DefaultTier)
}

// DeniedOperators returns the configured set of operator IDs that module
// policies are forbidden from using.
func DeniedOperators() map[string]bool {
	Init()
	raw := VConfig.GetString(OperatorDenylist)
	out := make(map[string]bool)
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			out[id] = true
		}
	}
	return out
}
