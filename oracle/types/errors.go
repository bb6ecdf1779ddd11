package types

import (
	"cosmossdk.io/errors"
)

const ModuleName = "refprice"

// Sentinel errors for the feed runtime and aggregation engine. ProtocolParse
// and TransientNetwork failures are counted via FeedState, not propagated as
// process-fatal errors; ConfigInvalid is the only class that can abort
// construction before any socket opens.
var (
	ErrConfigInvalid   = errors.Register(ModuleName, 2, "invalid configuration")
	ErrUnknownVenue    = errors.Register(ModuleName, 3, "unknown venue %s")
	ErrUnsupportedPair = errors.Register(ModuleName, 4, "venue %s does not support asset %s")

	ErrWebsocketDial = errors.Register(ModuleName, 5, "error connecting to %s websocket")
	ErrWebsocketSend = errors.Register(ModuleName, 6, "error sending to %s websocket")
	ErrWebsocketRead = errors.Register(ModuleName, 7, "error reading from %s websocket")
	ErrPreflight     = errors.Register(ModuleName, 8, "preflight request to %s failed")
	ErrParse         = errors.Register(ModuleName, 9, "failed to parse %s frame")

	ErrFeedDegraded = errors.Register(ModuleName, 10, "insufficient live venues for %s")
)
