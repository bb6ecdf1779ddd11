package config

// SampleNodeConfig is the commented example TOML shipped alongside the
// binary, matching the shape Validate expects.
const SampleNodeConfig = `
# refprice-feeder.example.toml

[server]
listen_addr = "0.0.0.0:7171"
allowed_origins = ["*"]

[[assets]]
asset = "BTC"
venues = ["binance", "coinbase", "kraken", "okx", "bybit", "gemini", "kucoin", "gateio"]

[[assets]]
asset = "ETH"
venues = ["binance", "coinbase", "kraken", "okx", "bybit", "gemini", "kucoin", "gateio"]

[thresholds]
max_staleness_ms = 2000
max_deviation_pct = 1.0
min_sources = 2
tight_spread_pct = 0.1
divergence_warning_pct = 0.3
divergence_critical_pct = 0.5

[timeouts]
connect_timeout_sec = 5
ping_interval_sec = 20
reconnect_delay_sec = 1.0
max_reconnect_delay_sec = 30.0
reconnect_backoff = 1.5

[monitor]
enabled = false
poll_interval = "30s"
`
