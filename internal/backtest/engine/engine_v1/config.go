package engine

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v2"

	"github.com/quantrill/stockscreen/internal/strategy"
	"github.com/quantrill/stockscreen/pkg/errors"
)

const dateLayout = "2006-01-02"

// Config is the engine configuration. Start and end dates are optional;
// an unset bound means "from the first bar" / "to the last bar".
type Config struct {
	InitialCapital float64                    `yaml:"initial_capital"`
	PositionSize   float64                    `yaml:"position_size"`
	StartTime      optional.Option[time.Time] `yaml:"-"`
	EndTime        optional.Option[time.Time] `yaml:"-"`
	ResultsFolder  string                     `yaml:"results_folder"`
	Strategy       strategy.Config            `yaml:"strategy"`
}

// configYaml is the on-disk shape, with dates as strings.
type configYaml struct {
	InitialCapital float64         `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial capital"`
	PositionSize   float64         `yaml:"position_size" json:"position_size" validate:"gt=0" jsonschema:"title=Fixed notional per trade"`
	StartTime      string          `yaml:"start_time" json:"start_time,omitempty" jsonschema:"title=Start date (YYYY-MM-DD)"`
	EndTime        string          `yaml:"end_time" json:"end_time,omitempty" jsonschema:"title=End date (YYYY-MM-DD)"`
	ResultsFolder  string          `yaml:"results_folder" json:"results_folder,omitempty" jsonschema:"title=Results output folder"`
	Strategy       strategy.Config `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy configuration"`
}

// UnmarshalYAML parses the string-dated on-disk form into the runtime
// config and validates it.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw configYaml

	raw.Strategy, _ = strategy.DefaultConfig(strategy.TierEnhanced)
	if err := unmarshal(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	validate := validator.New()
	if err := validate.Struct(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	c.InitialCapital = raw.InitialCapital
	c.PositionSize = raw.PositionSize
	c.ResultsFolder = raw.ResultsFolder
	c.Strategy = raw.Strategy

	if raw.StartTime != "" {
		start, err := time.Parse(dateLayout, raw.StartTime)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid start_time %q", raw.StartTime)
		}

		c.StartTime = optional.Some(start)
	}

	if raw.EndTime != "" {
		end, err := time.Parse(dateLayout, raw.EndTime)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid end_time %q", raw.EndTime)
		}

		c.EndTime = optional.Some(end)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() {
		start, _ := c.StartTime.Take()

		end, _ := c.EndTime.Take()
		if end.Before(start) {
			return errors.Newf(errors.ErrCodeInvalidDateRange, "end_time %s before start_time %s", raw.EndTime, raw.StartTime)
		}
	}

	return nil
}

// ParseConfig parses a YAML backtest config.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.InitialCapital == 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfiguration, "backtest config is empty")
	}

	return cfg, nil
}

// GenerateSchemaJSON returns the JSON schema of the on-disk config form.
func GenerateSchemaJSON() (string, error) {
	schema := jsonschema.Reflect(&configYaml{})

	data, err := schema.MarshalJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to generate schema", err)
	}

	return string(data), nil
}
