package interfaces

import "gitlab.com/aoterocom/AOMarginbot/models"

// MarketFeed publishes immutable market and account updates for one symbol.
// The feed owns its own goroutines and reconnect logic; the consuming trader
// only ever drains the channel. A slow consumer sees updates dropped, never
// a blocked feed.
type MarketFeed interface {
	Start() error
	Stop()
	Events() <-chan models.FeedEvent
}
