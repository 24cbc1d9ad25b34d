package config

import (
	"os"
	"strconv"

	"gofit/internal/errors"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Solver SolverConfig `yaml:"solver"`
	Output OutputConfig `yaml:"output"`
	Data   DataConfig   `yaml:"data"`
}

// SolverConfig holds least-squares solver settings
type SolverConfig struct {
	Method            string  `yaml:"method"`
	MaxIterations     int     `yaml:"maxIterations"`
	GradientThreshold float64 `yaml:"gradientThreshold"`
}

// OutputConfig holds report settings
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	JSON    bool   `yaml:"json"`
	Verbose bool   `yaml:"verbose"`
}

// DataConfig holds data loading settings
type DataConfig struct {
	Sheet string `yaml:"sheet"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Solver: SolverConfig{
			Method:            "lm",
			MaxIterations:     200,
			GradientThreshold: 1e-10,
		},
		Output: OutputConfig{
			Dir: "",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env file and
// the environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	// .env is optional
	_ = godotenv.Load()
	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ConfigInvalid("configuration file not found: " + path)
		}
		return err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

func applyEnv(config *Config) {
	config.Solver.Method = getEnvOrDefault("GOFIT_SOLVER", config.Solver.Method)
	config.Solver.MaxIterations = getEnvIntOrDefault("GOFIT_MAX_ITERATIONS", config.Solver.MaxIterations)
	config.Solver.GradientThreshold = getEnvFloatOrDefault("GOFIT_GRADIENT_THRESHOLD", config.Solver.GradientThreshold)
	config.Output.Dir = getEnvOrDefault("GOFIT_OUTPUT_DIR", config.Output.Dir)
	config.Output.JSON = getEnvBoolOrDefault("GOFIT_JSON", config.Output.JSON)
	config.Output.Verbose = getEnvBoolOrDefault("GOFIT_VERBOSE", config.Output.Verbose)
	config.Data.Sheet = getEnvOrDefault("GOFIT_SHEET", config.Data.Sheet)
}

func validateConfig(config *Config) error {
	switch config.Solver.Method {
	case "lm", "bfgs":
	default:
		return errors.ConfigInvalid("solver method must be lm or bfgs, got " + strconv.Quote(config.Solver.Method))
	}
	if config.Solver.MaxIterations <= 0 {
		return errors.ConfigInvalid("solver max iterations must be positive")
	}
	if config.Solver.GradientThreshold <= 0 {
		return errors.ConfigInvalid("solver gradient threshold must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
