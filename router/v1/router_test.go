package v1_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"github.com/ojo-network/refprice-feeder/config"
	"github.com/ojo-network/refprice-feeder/oracle"
	"github.com/ojo-network/refprice-feeder/oracle/types"
	v1 "github.com/ojo-network/refprice-feeder/router/v1"
)

var (
	_ v1.Facade = (*mockFacade)(nil)

	mockReport = types.NewPriceReport(
		types.AssetBTC,
		50000.0,
		[]types.Venue{types.VenueBinance, types.VenueCoinbase},
		0.05,
		0.98,
		0.01,
		1700000000000,
	)
)

type mockFacade struct{}

func (m mockFacade) GetPrice(asset types.Asset) (float64, bool) {
	if asset != types.AssetBTC {
		return 0, false
	}
	return mockReport.Price, true
}

func (m mockFacade) GetReport(asset types.Asset) (*types.PriceReport, bool) {
	if asset != types.AssetBTC {
		return nil, false
	}
	r := mockReport
	return &r, true
}

func (m mockFacade) FeedStats(asset types.Asset) ([]v1.FeedStat, bool) {
	if asset != types.AssetBTC {
		return nil, false
	}
	return []v1.FeedStat{
		{Venue: types.VenueBinance, Connected: true, LastPrice: 50000.0},
	}, true
}

func (m mockFacade) GetOracleSignal(asset types.Asset) (oracle.OracleSignal, bool) {
	if asset != types.AssetBTC {
		return oracle.OracleSignal{}, false
	}
	return oracle.ComputeOracleSignal(50000, 49990), true
}

type RouterTestSuite struct {
	suite.Suite

	mux *mux.Router
}

// SetupSuite executes once before the suite's tests are executed.
func (rts *RouterTestSuite) SetupSuite() {
	m := mux.NewRouter()
	cfg := config.Config{
		Server: config.Server{
			AllowedOrigins: []string{"*"},
		},
	}

	r := v1.New(zerolog.Nop(), cfg, mockFacade{})
	r.RegisterRoutes(m, v1.APIPathPrefix)

	rts.mux = m
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (rts *RouterTestSuite) executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	rts.mux.ServeHTTP(rr, req)

	return rr
}

func (rts *RouterTestSuite) TestHealthz() {
	req, err := http.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	rts.Require().NoError(err)

	response := rts.executeRequest(req)
	rts.Require().Equal(http.StatusOK, response.Code)

	var respBody map[string]interface{}
	rts.Require().NoError(json.Unmarshal(response.Body.Bytes(), &respBody))
	rts.Require().Equal(respBody["status"], v1.StatusAvailable)
}

func (rts *RouterTestSuite) TestPrice() {
	req, err := http.NewRequest(http.MethodGet, "/api/v1/price/BTC", nil)
	rts.Require().NoError(err)

	response := rts.executeRequest(req)
	rts.Require().Equal(http.StatusOK, response.Code)

	var respBody v1.PriceResponse
	rts.Require().NoError(json.Unmarshal(response.Body.Bytes(), &respBody))
	rts.Require().Equal(50000.0, respBody.Price)
	rts.Require().Equal(2, respBody.SourceCount)
}

func (rts *RouterTestSuite) TestPriceUnknownAsset() {
	req, err := http.NewRequest(http.MethodGet, "/api/v1/price/DOGE", nil)
	rts.Require().NoError(err)

	response := rts.executeRequest(req)
	rts.Require().Equal(http.StatusNotFound, response.Code)
}

func (rts *RouterTestSuite) TestReport() {
	req, err := http.NewRequest(http.MethodGet, "/api/v1/report/BTC", nil)
	rts.Require().NoError(err)

	response := rts.executeRequest(req)
	rts.Require().Equal(http.StatusOK, response.Code)

	var respBody types.PriceReport
	rts.Require().NoError(json.Unmarshal(response.Body.Bytes(), &respBody))
	rts.Require().True(respBody.VerifyIntegrity())
}

func (rts *RouterTestSuite) TestStats() {
	req, err := http.NewRequest(http.MethodGet, "/api/v1/stats/BTC", nil)
	rts.Require().NoError(err)

	response := rts.executeRequest(req)
	rts.Require().Equal(http.StatusOK, response.Code)

	var respBody v1.StatsResponse
	rts.Require().NoError(json.Unmarshal(response.Body.Bytes(), &respBody))
	rts.Require().Len(respBody.Feeds, 1)
}

func (rts *RouterTestSuite) TestOracleSignal() {
	req, err := http.NewRequest(http.MethodGet, "/api/v1/oracle-signal/BTC", nil)
	rts.Require().NoError(err)

	response := rts.executeRequest(req)
	rts.Require().Equal(http.StatusOK, response.Code)
}

func (rts *RouterTestSuite) TestOracleSignalUnconfigured() {
	req, err := http.NewRequest(http.MethodGet, "/api/v1/oracle-signal/ETH", nil)
	rts.Require().NoError(err)

	response := rts.executeRequest(req)
	rts.Require().Equal(http.StatusNoContent, response.Code)
}
