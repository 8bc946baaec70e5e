package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Validator is implemented by config structs that need checks beyond envconfig tags.
type Validator interface {
	Validate() error
}

var (
	envFilePath string
	parseOnce   sync.Once

	exportMu sync.Mutex
	exported = map[string]bool{}
)

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New loads the env file named by --env (or ./.env when present) into the process
// environment and decodes T from it with the given envconfig prefix.
func New[T any](prefix string) (*T, error) {
	if err := loadEnvFile(resolveEnvPath()); err != nil {
		return nil, err
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("process config prefix=%q: %w", prefix, err)
	}

	if v, ok := any(&conf).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("validate config prefix=%q: %w", prefix, err)
		}
	}

	return &conf, nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := exportEnvironment(path); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return nil
	}
	if err := exportEnvironmentIfExists(".env"); err != nil {
		return fmt.Errorf("failed to load default env file: %w", err)
	}
	return nil
}

// resolveEnvPath reads --env from the command line on its own flag set, so config
// can load during package init without rejecting the program's other flags.
func resolveEnvPath() string {
	parseOnce.Do(func() {
		fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
		fs.ParseErrorsWhitelist.UnknownFlags = true
		fs.SetOutput(io.Discard)
		fs.StringVar(&envFilePath, "env", "", "path to .env file")
		_ = fs.Parse(os.Args[1:])
	})
	return strings.TrimSpace(envFilePath)
}

func exportEnvironmentIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(path)
}

// exportEnvironment copies the file's settings into the process env once per path.
// Variables already present in the environment win over the file.
func exportEnvironment(path string) error {
	exportMu.Lock()
	defer exportMu.Unlock()
	if exported[path] {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}

	exported[path] = true
	return nil
}
