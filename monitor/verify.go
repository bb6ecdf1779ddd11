package monitor

import (
	"fmt"
	"time"

	feeder "github.com/ojo-network/refprice-feeder"
	"github.com/ojo-network/refprice-feeder/config"
	"github.com/ojo-network/refprice-feeder/oracle/types"
	"github.com/ojo-network/refprice-feeder/util"
)

const maxCoeficientOfVariation = 0.10

// VerifyPrices cross-checks every configured asset's aggregated
// PriceReport against CoinMarketCap's public quote, and surfaces any
// FeedDegraded or critical-divergence condition so it reaches a human via
// Slack before it reaches a downstream consumer.
func VerifyPrices(cfg *config.Config, feeds map[types.Asset]*feeder.Feed) []PriceError {
	var priceErrors []PriceError
	expectedAssets := cfg.ExpectedAssets()

	symbols := make([]string, len(expectedAssets))
	for i, a := range expectedAssets {
		symbols[i] = string(a)
	}

	apiPrices, err := GetCoinMarketCapPrices(symbols, cfg.Monitor.CoinMarketCapKey)
	if err != nil {
		apiPrices = make(map[string]float64)
		priceErrors = append(priceErrors, PriceError{
			ErrorType:  API_DOWN,
			occurredAt: time.Now(),
			Message:    err.Error(),
		})
	}

	for _, asset := range expectedAssets {
		feed, ok := feeds[asset]
		if !ok {
			continue
		}

		report, ok := feed.GetReport()
		if !ok {
			priceErrors = append(priceErrors, PriceError{
				ErrorType:  FEED_MISSING_PRICE,
				Asset:      string(asset),
				occurredAt: time.Now(),
				Message:    fmt.Sprintf("FAIL %s: no viable aggregated price", asset),
			})
			continue
		}

		if report.Confidence < cfg.Thresholds.TightSpreadPct || report.DivergencePct >= cfg.Thresholds.DivergenceCriticalPct {
			priceErrors = append(priceErrors, PriceError{
				ErrorType:  FEED_DEGRADED,
				Asset:      string(asset),
				occurredAt: time.Now(),
				Message: fmt.Sprintf(
					"FAIL %s: confidence %.4f, divergence_pct %.4f >= critical %.4f",
					asset, report.Confidence, report.DivergencePct, cfg.Thresholds.DivergenceCriticalPct,
				),
			})
			continue
		}

		apiPrice, ok := apiPrices[string(asset)]
		if !ok {
			priceErrors = append(priceErrors, PriceError{
				ErrorType:  API_MISSING_PRICE,
				Asset:      string(asset),
				occurredAt: time.Now(),
				Message:    fmt.Sprintf("SKIP %s feed price: %f, API price: not available at coinmarketcap", asset, report.Price),
			})
			continue
		}

		cv := util.CalcCoeficientOfVariation([]float64{report.Price, apiPrice})
		if cv > maxCoeficientOfVariation {
			priceErrors = append(priceErrors, PriceError{
				ErrorType:  FEED_DEVIATED_PRICE,
				Asset:      string(asset),
				occurredAt: time.Now(),
				Message: fmt.Sprintf(
					"FAIL %s deviated feed price: %f, API price: %f, variation: %f > %f",
					asset, report.Price, apiPrice, cv, maxCoeficientOfVariation,
				),
			})
			continue
		}

		priceErrors = append(priceErrors, PriceError{
			ErrorType:  PRICE_MATCH,
			Asset:      string(asset),
			occurredAt: time.Now(),
			Message: fmt.Sprintf(
				"PASS %s matched feed price: %f, API price: %f, variation: %f < %f",
				asset, report.Price, apiPrice, cv, maxCoeficientOfVariation,
			),
		})
	}
	return priceErrors
}
