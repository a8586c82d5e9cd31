package strategy

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestTierPresets() {
	basic, err := DefaultConfig(TierBasic)
	suite.Require().NoError(err)
	suite.False(basic.StrictMAOrdering)
	suite.False(basic.StrictRegime)
	suite.Equal(BreakoutMA20, basic.BreakoutRef)
	suite.InDelta(1.5, basic.VolumeRatioThreshold, 1e-9)
	suite.InDelta(0.03, basic.MaxMA60Extension, 1e-9)

	enhanced, err := DefaultConfig(TierEnhanced)
	suite.Require().NoError(err)
	suite.True(enhanced.StrictMAOrdering)
	suite.InDelta(0.05, enhanced.MaxMA60Extension, 1e-9)

	advanced, err := DefaultConfig(TierAdvanced)
	suite.Require().NoError(err)
	suite.InDelta(1.8, advanced.VolumeRatioThreshold, 1e-9)
	suite.InDelta(0.08, advanced.MaxMA60Extension, 1e-9)
}

func (suite *ConfigTestSuite) TestUnknownTier() {
	_, err := DefaultConfig(Tier("aggressive"))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestParseConfigAppliesTierDefaults() {
	yamlConfig := `
tier: advanced
stop_loss_pct: 0.05
`

	cfg, err := ParseConfig([]byte(yamlConfig))
	suite.Require().NoError(err)

	suite.Equal(TierAdvanced, cfg.Tier)
	suite.InDelta(0.05, cfg.StopLossPct, 1e-9)
	// Untouched fields come from the preset.
	suite.InDelta(1.8, cfg.VolumeRatioThreshold, 1e-9)
	suite.Equal(30, cfg.TopN)
	suite.Equal(20, cfg.MaxHoldingDays)
}

func (suite *ConfigTestSuite) TestParseConfigDefaultsTier() {
	cfg, err := ParseConfig([]byte("min_price: 8"))
	suite.Require().NoError(err)

	suite.Equal(TierEnhanced, cfg.Tier)
	suite.InDelta(8, cfg.MinPrice, 1e-9)
}

func (suite *ConfigTestSuite) TestValidateRejectsInvertedBands() {
	cfg, err := DefaultConfig(TierEnhanced)
	suite.Require().NoError(err)

	cfg.RSIOversold = 90
	suite.Error(cfg.Validate())
}

func (suite *ConfigTestSuite) TestParseConfigRejectsBadTier() {
	_, err := ParseConfig([]byte("tier: turbo"))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	schema, err := GenerateSchemaJSON()
	suite.Require().NoError(err)
	suite.Contains(schema, "volume_ratio_threshold")
	suite.Contains(schema, "stop_loss_pct")
}
