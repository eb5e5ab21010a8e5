package config

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and the YAML configuration file into a
// Config. Flags override file settings.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfg := &Config{
		ResultsPath:  "results",
		ResultsPrint: false,
		PollInterval: 5 * time.Second,
		PollRetries:  3,
		ConfigFile:   configPath,
		Tracing:      TracingConfig{SampleRate: 1},
	}

	cfgViper := viper.New()
	cfgViper.SetConfigFile(configPath)
	if err := cfgViper.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := cfgViper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags over file-derived settings.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "filter":
			cfg.Filter, err = flags.GetStringSlice("filter")
		case "no-pretasks":
			cfg.NoPreTasks, err = flags.GetBool("no-pretasks")
		case "no-posttasks":
			cfg.NoPostTasks, err = flags.GetBool("no-posttasks")
		case "poll-interval":
			cfg.PollInterval, err = flags.GetDuration("poll-interval")
		case "poll-retries":
			cfg.PollRetries, err = flags.GetInt("poll-retries")
		case "results-path":
			cfg.ResultsPath, err = flags.GetString("results-path")
		case "results-print":
			cfg.ResultsPrint, err = flags.GetBool("results-print")
		case "results-save-raw":
			cfg.ResultsSaveRaw, err = flags.GetBool("results-save-raw")
		case "json":
			cfg.JSONOutput, err = flags.GetBool("json")
		case "dashboard":
			cfg.Dashboard, err = flags.GetBool("dashboard")
		}
	})
	return err
}
