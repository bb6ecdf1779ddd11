package monitor

import (
	"fmt"
	"time"
)

type ErrorType int

const (
	PRICE_MATCH         = iota
	FEED_MISSING_PRICE  = iota
	FEED_DEVIATED_PRICE = iota
	FEED_DEGRADED       = iota
	API_MISSING_PRICE   = iota
	API_BAD_PRICE       = iota
	API_DOWN            = iota
)

var criticalErrorTypes = map[ErrorType]struct{}{
	FEED_MISSING_PRICE:  {},
	FEED_DEVIATED_PRICE: {},
	FEED_DEGRADED:       {},
}

type PriceError struct {
	ErrorType  ErrorType
	Asset      string
	Message    string
	occurredAt time.Time
}

func (pe PriceError) Key() string {
	return fmt.Sprintf("%d%s", pe.ErrorType, pe.Asset)
}
