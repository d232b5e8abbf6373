package config

import (
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// RiskConfig holds the hard limits enforced by the risk gate.
type RiskConfig struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" default:"1000000" validate:"gt=0" jsonschema:"title=Initial Capital,minimum=0"`
	// MaxPositionPct is the maximum fraction of portfolio value in one symbol.
	MaxPositionPct float64 `yaml:"max_position_pct" json:"max_position_pct" default:"0.20" validate:"gt=0,lte=1"`
	MaxPositions   int     `yaml:"max_positions" json:"max_positions" default:"5" validate:"gt=0"`
	StopLossPct    float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" default:"0.01" validate:"gt=0,lt=1"`
	TakeProfitPct  float64 `yaml:"take_profit_pct" json:"take_profit_pct" default:"0.03" validate:"gt=0,lt=1"`
	// DailyLossLimitPct halts new entries when the day's loss reaches this
	// fraction of initial capital. Exits still pass.
	DailyLossLimitPct float64 `yaml:"daily_loss_limit_pct" json:"daily_loss_limit_pct" default:"0.03" validate:"gt=0,lt=1"`
	// MaxDrawdownPct is the kill-switch threshold on decline from peak value.
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct" default:"0.10" validate:"gt=0,lt=1"`
	MinCashPct     float64 `yaml:"min_cash_pct" json:"min_cash_pct" default:"0.20" validate:"gte=0,lt=1"`
	// TrailingActivatePct arms the trailing stop once unrealized gain
	// reaches this percentage.
	TrailingActivatePct float64 `yaml:"trailing_activate_pct" json:"trailing_activate_pct" default:"2.0" validate:"gte=0"`
	TrailingStopPct     float64 `yaml:"trailing_stop_pct" json:"trailing_stop_pct" default:"0.02" validate:"gt=0,lt=1"`
}

// IndicatorConfig holds lookback periods for the indicator engine.
type IndicatorConfig struct {
	ShortMAPeriod    int     `yaml:"short_ma_period" json:"short_ma_period" default:"5" validate:"gt=0"`
	LongMAPeriod     int     `yaml:"long_ma_period" json:"long_ma_period" default:"20" validate:"gt=0"`
	RSIPeriod        int     `yaml:"rsi_period" json:"rsi_period" default:"14" validate:"gt=0"`
	RSIOversold      float64 `yaml:"rsi_oversold" json:"rsi_oversold" default:"30" validate:"gt=0,lt=100"`
	RSIOverbought    float64 `yaml:"rsi_overbought" json:"rsi_overbought" default:"70" validate:"gt=0,lt=100"`
	MACDFastPeriod   int     `yaml:"macd_fast_period" json:"macd_fast_period" default:"12" validate:"gt=0"`
	MACDSlowPeriod   int     `yaml:"macd_slow_period" json:"macd_slow_period" default:"26" validate:"gt=0"`
	MACDSignalPeriod int     `yaml:"macd_signal_period" json:"macd_signal_period" default:"9" validate:"gt=0"`
	BollingerPeriod  int     `yaml:"bollinger_period" json:"bollinger_period" default:"20" validate:"gt=0"`
	BollingerStdDev  float64 `yaml:"bollinger_std_dev" json:"bollinger_std_dev" default:"2.0" validate:"gt=0"`
	VolumeMAPeriod   int     `yaml:"volume_ma_period" json:"volume_ma_period" default:"20" validate:"gt=0"`
	VolumeSurgeRatio float64 `yaml:"volume_surge_ratio" json:"volume_surge_ratio" default:"1.5" validate:"gt=0"`
}

// OrderConfig controls order submission behavior.
type OrderConfig struct {
	// MaxSubmitAttempts bounds retries on transient broker failures.
	MaxSubmitAttempts int           `yaml:"max_submit_attempts" json:"max_submit_attempts" default:"3" validate:"gt=0"`
	SubmitBackoff     time.Duration `yaml:"submit_backoff" json:"submit_backoff" default:"500ms"`
	SubmitTimeout     time.Duration `yaml:"submit_timeout" json:"submit_timeout" default:"5s"`
	SlippagePct       float64       `yaml:"slippage_pct" json:"slippage_pct" default:"0.001" validate:"gte=0"`
	Commission        string        `yaml:"commission" json:"commission" default:"kiwoom" validate:"oneof=kiwoom zero"`
}

// StoreConfig configures the append-only persistence collaborator.
type StoreConfig struct {
	// Path is the DuckDB database file. Empty means in-memory.
	Path string `yaml:"path" json:"path"`
	// ResultsDir receives parquet exports on shutdown. Empty disables export.
	ResultsDir string `yaml:"results_dir" json:"results_dir"`
}

// FeedConfig configures the market data source.
type FeedConfig struct {
	// URL is the websocket endpoint for live bars.
	URL string `yaml:"url" json:"url"`
	// DataPath points at historical bars for replay mode.
	DataPath string `yaml:"data_path" json:"data_path"`
	Interval string `yaml:"interval" json:"interval" default:"1d"`
}

// Config is the full configuration surface of the trading system.
type Config struct {
	Mode      types.Mode      `yaml:"mode" json:"mode" default:"mock" validate:"oneof=mock live"`
	Watchlist []string        `yaml:"watchlist" json:"watchlist" validate:"min=1"`
	Timezone  string          `yaml:"timezone" json:"timezone" default:"Asia/Seoul"`
	Risk      RiskConfig      `yaml:"risk" json:"risk"`
	Indicator IndicatorConfig `yaml:"indicator" json:"indicator"`
	Order     OrderConfig     `yaml:"order" json:"order"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Feed      FeedConfig      `yaml:"feed" json:"feed"`
}

// Load reads a YAML config file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to apply defaults", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a Config with all defaults applied and the given watchlist.
func Default(watchlist ...string) *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.Watchlist = watchlist

	return cfg
}

// Validate checks the config against its declared constraints plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if c.Indicator.ShortMAPeriod >= c.Indicator.LongMAPeriod {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"short_ma_period (%d) must be less than long_ma_period (%d)",
			c.Indicator.ShortMAPeriod, c.Indicator.LongMAPeriod)
	}

	if c.Indicator.MACDFastPeriod >= c.Indicator.MACDSlowPeriod {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"macd_fast_period (%d) must be less than macd_slow_period (%d)",
			c.Indicator.MACDFastPeriod, c.Indicator.MACDSlowPeriod)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid timezone %q", c.Timezone)
	}

	return nil
}

// Location resolves the configured exchange timezone. Validate guarantees it
// parses, so errors here only occur on an unvalidated Config.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

// MaxLookback returns the longest indicator lookback, which is the minimum
// window length the indicator engine needs for a full snapshot.
func (c *IndicatorConfig) MaxLookback() int {
	longest := c.LongMAPeriod

	for _, p := range []int{
		c.RSIPeriod + 1,
		c.MACDSlowPeriod + c.MACDSignalPeriod,
		c.BollingerPeriod,
		c.VolumeMAPeriod,
	} {
		if p > longest {
			longest = p
		}
	}

	return longest
}
