package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ojo-network/refprice-feeder/oracle"
	"github.com/ojo-network/refprice-feeder/oracle/provider"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

// ErrEmptyConfigPath defines a sentinel error for an empty config path.
var ErrEmptyConfigPath = errors.New("empty configuration file path")

const (
	defaultListenAddr      = "0.0.0.0:7171"
	defaultSrvWriteTimeout = 15 * time.Second
	defaultSrvReadTimeout  = 15 * time.Second
	defaultConnectTimeout  = 5 * time.Second
	defaultPingInterval    = 20 * time.Second
	defaultReconnectDelay  = 1000 * time.Millisecond
	defaultMaxReconnect    = 30000 * time.Millisecond
	defaultReconnectFactor = 1.5

	SampleNodeConfigPath = "refprice-feeder.example.toml"
)

var validate = validator.New()

type (
	// Config defines all necessary refprice-feeder configuration
	// parameters. It is loaded from TOML via viper and validated before
	// any venue connection is attempted.
	Config struct {
		ConfigDir         string              `mapstructure:"config_dir"`
		Server            Server              `mapstructure:"server"`
		Assets            []AssetConfig       `mapstructure:"assets" validate:"required,gt=0,dive,required"`
		Thresholds        Thresholds          `mapstructure:"thresholds"`
		Timeouts          Timeouts            `mapstructure:"timeouts"`
		ProviderEndpoints []provider.Endpoint `mapstructure:"provider_endpoints" validate:"dive"`
		Monitor           Monitor             `mapstructure:"monitor"`
	}

	// AssetConfig pairs an asset with the venues this feed should stream
	// it from. MaxDeviationPctOverr is decoded from max_deviation_pct_override
	// but not applied: AggregatorConfig uses Thresholds.MaxDeviationPct for
	// every asset.
	AssetConfig struct {
		Asset                string   `mapstructure:"asset" validate:"required"`
		Venues               []string `mapstructure:"venues" validate:"required,gt=0,dive,required"`
		MaxDeviationPctOverr float64  `mapstructure:"max_deviation_pct_override"`
	}

	// Thresholds mirrors the aggregator's configuration table.
	Thresholds struct {
		MaxStalenessMs        int64   `mapstructure:"max_staleness_ms"`
		MaxDeviationPct       float64 `mapstructure:"max_deviation_pct"`
		MinSources            int     `mapstructure:"min_sources"`
		TightSpreadPct        float64 `mapstructure:"tight_spread_pct"`
		DivergenceWarningPct  float64 `mapstructure:"divergence_warning_pct"`
		DivergenceCriticalPct float64 `mapstructure:"divergence_critical_pct"`
	}

	// Timeouts mirrors the FeedRunner's configuration table.
	Timeouts struct {
		ConnectTimeoutSec    int     `mapstructure:"connect_timeout_sec"`
		PingIntervalSec      int     `mapstructure:"ping_interval_sec"`
		ReconnectDelaySec    float64 `mapstructure:"reconnect_delay_sec"`
		MaxReconnectDelaySec float64 `mapstructure:"max_reconnect_delay_sec"`
		ReconnectBackoff     float64 `mapstructure:"reconnect_backoff"`
	}

	// Server defines the API server configuration.
	Server struct {
		ListenAddr     string   `mapstructure:"listen_addr"`
		WriteTimeout   string   `mapstructure:"write_timeout"`
		ReadTimeout    string   `mapstructure:"read_timeout"`
		VerboseCORS    bool     `mapstructure:"verbose_cors"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	}

	// Monitor configures the Slack/CoinMarketCap alerting loop.
	Monitor struct {
		Enabled          bool   `mapstructure:"enabled"`
		CoinMarketCapKey string `mapstructure:"coin_market_cap_key"`
		SlackToken       string `mapstructure:"slack_token"`
		SlackChannel     string `mapstructure:"slack_channel"`
		PollInterval     string `mapstructure:"poll_interval"`
	}
)

// endpointValidation is custom validation for the ProviderEndpoint struct.
func endpointValidation(sl validator.StructLevel) {
	endpoint := sl.Current().Interface().(provider.Endpoint)

	if len(endpoint.Name) < 1 {
		sl.ReportError(endpoint, "endpoint", "Endpoint", "unsupportedEndpointType", "")
	}
	if _, ok := types.SupportedVenues[endpoint.Name]; !ok {
		sl.ReportError(endpoint.Name, "name", "Name", "unsupportedEndpointVenue", "")
	}
}

// Validate returns an error if the Config object is invalid. It raises
// ConfigInvalid (or ErrUnknownVenue) at load time, before any socket is
// opened; feeder.New checks its own arguments again.
func (c Config) Validate() error {
	if err := c.validateAssets(); err != nil {
		return err
	}
	if err := c.validateThresholds(); err != nil {
		return err
	}

	validate.RegisterStructValidation(endpointValidation, provider.Endpoint{})
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", types.ErrConfigInvalid, err)
	}
	return nil
}

func (c Config) validateAssets() error {
	if len(c.Assets) == 0 {
		return fmt.Errorf("%w: at least one asset must be configured", types.ErrConfigInvalid)
	}
	seen := make(map[string]struct{}, len(c.Assets))
	for _, a := range c.Assets {
		if _, ok := types.SupportedAssets[types.Asset(a.Asset)]; !ok {
			return fmt.Errorf("%w: unsupported asset %s", types.ErrConfigInvalid, a.Asset)
		}
		if _, dup := seen[a.Asset]; dup {
			return fmt.Errorf("%w: duplicate asset %s", types.ErrConfigInvalid, a.Asset)
		}
		seen[a.Asset] = struct{}{}

		if len(a.Venues) == 0 {
			return fmt.Errorf("%w: asset %s has no venues", types.ErrConfigInvalid, a.Asset)
		}
		for _, v := range a.Venues {
			if _, ok := types.SupportedVenues[types.Venue(v)]; !ok {
				return fmt.Errorf("%w: unknown venue %s for asset %s", types.ErrUnknownVenue, v, a.Asset)
			}
		}
	}
	return nil
}

func (c Config) validateThresholds() error {
	t := c.Thresholds
	if t.MaxStalenessMs < 0 {
		return fmt.Errorf("%w: max_staleness_ms must not be negative", types.ErrConfigInvalid)
	}
	if t.MaxDeviationPct < 0 {
		return fmt.Errorf("%w: max_deviation_pct must not be negative", types.ErrConfigInvalid)
	}
	if t.MinSources < 0 {
		return fmt.Errorf("%w: min_sources must not be negative", types.ErrConfigInvalid)
	}
	if t.TightSpreadPct < 0 || t.DivergenceWarningPct < 0 || t.DivergenceCriticalPct < 0 {
		return fmt.Errorf("%w: spread/divergence thresholds must not be negative", types.ErrConfigInvalid)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = defaultSrvWriteTimeout.String()
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = defaultSrvReadTimeout.String()
	}

	def := oracle.DefaultAggregatorConfig()
	if c.Thresholds.MaxStalenessMs == 0 {
		c.Thresholds.MaxStalenessMs = def.MaxStalenessMs
	}
	if c.Thresholds.MaxDeviationPct == 0 {
		c.Thresholds.MaxDeviationPct = def.MaxDeviationPct
	}
	if c.Thresholds.MinSources == 0 {
		c.Thresholds.MinSources = def.MinSources
	}
	if c.Thresholds.TightSpreadPct == 0 {
		c.Thresholds.TightSpreadPct = def.TightSpreadPct
	}
	if c.Thresholds.DivergenceWarningPct == 0 {
		c.Thresholds.DivergenceWarningPct = def.DivergenceWarningPct
	}
	if c.Thresholds.DivergenceCriticalPct == 0 {
		c.Thresholds.DivergenceCriticalPct = def.DivergenceCriticalPct
	}

	if c.Timeouts.ConnectTimeoutSec == 0 {
		c.Timeouts.ConnectTimeoutSec = int(defaultConnectTimeout.Seconds())
	}
	if c.Timeouts.PingIntervalSec == 0 {
		c.Timeouts.PingIntervalSec = int(defaultPingInterval.Seconds())
	}
	if c.Timeouts.ReconnectDelaySec == 0 {
		c.Timeouts.ReconnectDelaySec = defaultReconnectDelay.Seconds()
	}
	if c.Timeouts.MaxReconnectDelaySec == 0 {
		c.Timeouts.MaxReconnectDelaySec = defaultMaxReconnect.Seconds()
	}
	if c.Timeouts.ReconnectBackoff == 0 {
		c.Timeouts.ReconnectBackoff = defaultReconnectFactor
	}
}

// AggregatorConfig builds an oracle.AggregatorConfig from the loaded
// Thresholds block.
func (c Config) AggregatorConfig() oracle.AggregatorConfig {
	t := c.Thresholds
	return oracle.AggregatorConfig{
		MaxStalenessMs:        t.MaxStalenessMs,
		MaxDeviationPct:       t.MaxDeviationPct,
		MinSources:            t.MinSources,
		TightSpreadPct:        t.TightSpreadPct,
		DivergenceWarningPct:  t.DivergenceWarningPct,
		DivergenceCriticalPct: t.DivergenceCriticalPct,
	}
}

// RunnerConfig builds a provider.RunnerConfig from the loaded Timeouts
// block. PingIntervalSec threads through as the adapters' keepalive
// cadence, overriding their 20s default.
func (c Config) RunnerConfig() provider.RunnerConfig {
	t := c.Timeouts
	return provider.RunnerConfig{
		ConnectTimeout:      time.Duration(t.ConnectTimeoutSec) * time.Second,
		PingInterval:        time.Duration(t.PingIntervalSec) * time.Second,
		PingTimeout:         2 * time.Duration(t.ConnectTimeoutSec) * time.Second,
		InitialBackoff:      time.Duration(t.ReconnectDelaySec * float64(time.Second)),
		MaxBackoff:          time.Duration(t.MaxReconnectDelaySec * float64(time.Second)),
		BackoffMultiplier:   t.ReconnectBackoff,
		MaxParseErrorStreak: provider.DefaultRunnerConfig().MaxParseErrorStreak,
	}
}

// ProviderEndpointsMap converts the provider_endpoints from the config
// file into a map of provider.Endpoint where the key is the venue name.
func (c Config) ProviderEndpointsMap() map[types.Venue]provider.Endpoint {
	endpoints := make(map[types.Venue]provider.Endpoint, len(c.ProviderEndpoints))
	for _, endpoint := range c.ProviderEndpoints {
		endpoints[endpoint.Name] = endpoint
	}
	return endpoints
}

// VenuesFor returns the configured venue list for asset, or nil if the
// asset is not configured.
func (c Config) VenuesFor(asset types.Asset) []types.Venue {
	for _, a := range c.Assets {
		if types.Asset(a.Asset) == asset {
			venues := make([]types.Venue, len(a.Venues))
			for i, v := range a.Venues {
				venues[i] = types.Venue(v)
			}
			return venues
		}
	}
	return nil
}

// ExpectedAssets returns every configured asset.
func (c Config) ExpectedAssets() []types.Asset {
	out := make([]types.Asset, len(c.Assets))
	for i, a := range c.Assets {
		out[i] = types.Asset(a.Asset)
	}
	return out
}
