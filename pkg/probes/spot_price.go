package probes

import "github.com/kilnfi/eth-validator-watcher-go/pkg/price"

// SpotPriceSource is the subset of price.Fetcher this probe needs,
// letting tests substitute a fake without spinning up an HTTP server.
type SpotPriceSource interface {
	GetCurrentETHPrice() float64
}

var _ SpotPriceSource = (*price.Fetcher)(nil)

// SpotPrice returns the current ETH/USD price to publish on the spot
// price gauge. The fetcher owns its own caching and fallback-to-stale
// behavior, so this probe is a thin, named seam for the orchestrator's
// epoch-boundary step rather than real logic of its own.
func SpotPrice(fetcher SpotPriceSource) float64 {
	return fetcher.GetCurrentETHPrice()
}
