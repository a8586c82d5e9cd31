// Package strategy implements the screening filter, the buy/sell signal
// evaluators and the candidate scorer. All evaluators are parameterized by
// a single Config value; the tier presets reproduce the basic, enhanced and
// advanced rule variants.
package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v2"

	"github.com/quantrill/stockscreen/pkg/errors"
)

// Tier selects a preset of signal thresholds.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierEnhanced Tier = "enhanced"
	TierAdvanced Tier = "advanced"
)

// BreakoutReference selects which moving average the breakout cross checks
// against.
type BreakoutReference string

const (
	BreakoutMA5  BreakoutReference = "ma5"
	BreakoutMA20 BreakoutReference = "ma20"
)

// Config is the full parameter set of one strategy variant.
type Config struct {
	Tier Tier `yaml:"tier" json:"tier" validate:"required,oneof=basic enhanced advanced" jsonschema:"title=Strategy tier,enum=basic,enum=enhanced,enum=advanced"`

	// Screening filter bounds.
	MinPrice    float64 `yaml:"min_price" json:"min_price" validate:"gte=0" jsonschema:"title=Minimum close price"`
	MaxPrice    float64 `yaml:"max_price" json:"max_price" validate:"gtfield=MinPrice" jsonschema:"title=Maximum close price"`
	MinTurnover float64 `yaml:"min_turnover" json:"min_turnover" validate:"gte=0" jsonschema:"title=Minimum session turnover"`
	// MinCap and MaxCap bound the free-float market capitalization. A bar
	// without the attribute (or with it zero) passes the cap window.
	MinCap float64 `yaml:"min_cap" json:"min_cap" validate:"gte=0" jsonschema:"title=Minimum free-float cap"`
	MaxCap float64 `yaml:"max_cap" json:"max_cap" validate:"gte=0" jsonschema:"title=Maximum free-float cap"`
	// LimitMoveMargin is subtracted from the computed limit-up price so
	// rounding never lets a limit bar slip through.
	LimitMoveMargin float64 `yaml:"limit_move_margin" json:"limit_move_margin" validate:"gte=0" jsonschema:"title=Limit price safety margin"`

	// Buy-side thresholds.
	VolumeRatioThreshold float64 `yaml:"volume_ratio_threshold" json:"volume_ratio_threshold" validate:"gt=0" jsonschema:"title=Volume surge multiple over 5-day average"`
	// MaxMA60Extension rejects buying too far above trend: close must stay
	// within this fraction above MA60.
	MaxMA60Extension float64           `yaml:"max_ma60_extension" json:"max_ma60_extension" validate:"gt=0" jsonschema:"title=Maximum close extension above MA60"`
	BreakoutRef      BreakoutReference `yaml:"breakout_ref" json:"breakout_ref" validate:"required,oneof=ma5 ma20" jsonschema:"title=Breakout reference average,enum=ma5,enum=ma20"`
	// StrictMAOrdering requires MA5>MA10>MA20>MA60; relaxed tiers check
	// MA5>MA20>MA60 only.
	StrictMAOrdering bool              `yaml:"strict_ma_ordering" json:"strict_ma_ordering" jsonschema:"title=Require full MA ordering"`
	RSIOverbought    float64           `yaml:"rsi_overbought" json:"rsi_overbought" validate:"gt=0,lte=100" jsonschema:"title=RSI upper bound"`
	RSIOversold      float64           `yaml:"rsi_oversold" json:"rsi_oversold" validate:"gte=0" jsonschema:"title=RSI lower bound"`

	// Regime classifier strictness: when true the benchmark needs the full
	// MA5>MA20>MA60 ordering, otherwise MA20>MA60 suffices.
	StrictRegime bool `yaml:"strict_regime" json:"strict_regime" jsonschema:"title=Require full benchmark MA ordering"`

	// Sell-side thresholds, all fractional.
	StopLossPct     float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gt=0,lt=1" jsonschema:"title=Fixed stop loss"`
	TakeProfitPct   float64 `yaml:"take_profit_pct" json:"take_profit_pct" validate:"gt=0" jsonschema:"title=Fixed take profit"`
	TrailingStopPct float64 `yaml:"trailing_stop_pct" json:"trailing_stop_pct" validate:"gt=0,lt=1" jsonschema:"title=Trailing drawdown from peak"`
	// TrailingMinProfit keeps the trailing stop from firing while the
	// position is at a loss.
	TrailingMinProfit float64 `yaml:"trailing_min_profit" json:"trailing_min_profit" validate:"gte=0" jsonschema:"title=Minimum profit before trailing stop arms"`
	MaxHoldingDays    int     `yaml:"max_holding_days" json:"max_holding_days" validate:"gt=0" jsonschema:"title=Time stop in trading days"`

	// TopN is the size of the ranked selection list.
	TopN int `yaml:"top_n" json:"top_n" validate:"gt=0" jsonschema:"title=Ranked selection size"`
}

// DefaultConfig returns the preset for the given tier. Unknown tiers
// return an error rather than silently falling back.
func DefaultConfig(tier Tier) (Config, error) {
	base := Config{
		Tier:                 tier,
		MinPrice:             5,
		MaxPrice:             300,
		MinTurnover:          50_000_000,
		MinCap:               0,
		MaxCap:               50_000_000_000,
		LimitMoveMargin:      0.01,
		VolumeRatioThreshold: 1.5,
		MaxMA60Extension:     0.03,
		BreakoutRef:          BreakoutMA5,
		StrictMAOrdering:     true,
		RSIOverbought:        80,
		RSIOversold:          20,
		StrictRegime:         true,
		StopLossPct:          0.08,
		TakeProfitPct:        0.10,
		TrailingStopPct:      0.12,
		TrailingMinProfit:    0.05,
		MaxHoldingDays:       20,
		TopN:                 30,
	}

	switch tier {
	case TierBasic:
		base.StrictMAOrdering = false
		base.StrictRegime = false
		base.BreakoutRef = BreakoutMA20
	case TierEnhanced:
		base.MaxMA60Extension = 0.05
	case TierAdvanced:
		base.VolumeRatioThreshold = 1.8
		base.MaxMA60Extension = 0.08
		base.BreakoutRef = BreakoutMA20
	default:
		return Config{}, errors.Newf(errors.ErrCodeInvalidTier, "unknown strategy tier %q", tier)
	}

	return base, nil
}

// UnmarshalYAML fills unset fields from the tier preset, so a config file
// only needs to name the tier and the thresholds it overrides.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig Config

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse strategy config", err)
	}

	tier := Tier(raw.Tier)
	if tier == "" {
		tier = TierEnhanced
	}

	defaults, err := DefaultConfig(tier)
	if err != nil {
		return err
	}

	merged := raw
	merged.Tier = tier
	if merged.MinPrice == 0 {
		merged.MinPrice = defaults.MinPrice
	}

	if merged.MaxPrice == 0 {
		merged.MaxPrice = defaults.MaxPrice
	}

	if merged.MinTurnover == 0 {
		merged.MinTurnover = defaults.MinTurnover
	}

	if merged.MaxCap == 0 {
		merged.MaxCap = defaults.MaxCap
	}

	if merged.LimitMoveMargin == 0 {
		merged.LimitMoveMargin = defaults.LimitMoveMargin
	}

	if merged.VolumeRatioThreshold == 0 {
		merged.VolumeRatioThreshold = defaults.VolumeRatioThreshold
	}

	if merged.MaxMA60Extension == 0 {
		merged.MaxMA60Extension = defaults.MaxMA60Extension
	}

	if merged.BreakoutRef == "" {
		merged.BreakoutRef = defaults.BreakoutRef
	}

	if merged.RSIOverbought == 0 {
		merged.RSIOverbought = defaults.RSIOverbought
	}

	if merged.RSIOversold == 0 {
		merged.RSIOversold = defaults.RSIOversold
	}

	if merged.StopLossPct == 0 {
		merged.StopLossPct = defaults.StopLossPct
	}

	if merged.TakeProfitPct == 0 {
		merged.TakeProfitPct = defaults.TakeProfitPct
	}

	if merged.TrailingStopPct == 0 {
		merged.TrailingStopPct = defaults.TrailingStopPct
	}

	if merged.TrailingMinProfit == 0 {
		merged.TrailingMinProfit = defaults.TrailingMinProfit
	}

	if merged.MaxHoldingDays == 0 {
		merged.MaxHoldingDays = defaults.MaxHoldingDays
	}

	if merged.TopN == 0 {
		merged.TopN = defaults.TopN
	}

	// Booleans cannot distinguish "unset" from false; take the preset
	// unless the file sets them explicitly alongside a non-default tier.
	if !raw.StrictMAOrdering && !raw.StrictRegime {
		merged.StrictMAOrdering = defaults.StrictMAOrdering
		merged.StrictRegime = defaults.StrictRegime
	}

	*c = Config(merged)

	return c.Validate()
}

// Validate checks the config against its field constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid strategy config", err)
	}

	if c.MaxCap > 0 && c.MaxCap < c.MinCap {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "max_cap %.0f below min_cap %.0f", c.MaxCap, c.MinCap)
	}

	if c.RSIOversold >= c.RSIOverbought {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "rsi_oversold %.1f must be below rsi_overbought %.1f", c.RSIOversold, c.RSIOverbought)
	}

	return nil
}

// ParseConfig parses a YAML strategy config, applying tier defaults and
// validating the result.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// GenerateSchemaJSON returns the JSON schema of the strategy config for
// editor tooling.
func GenerateSchemaJSON() (string, error) {
	schema := jsonschema.Reflect(&Config{})

	data, err := schema.MarshalJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to generate schema", err)
	}

	return string(data), nil
}
