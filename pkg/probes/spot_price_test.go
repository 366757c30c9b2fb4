package probes

import "testing"

type fakePriceSource struct{ price float64 }

func (f fakePriceSource) GetCurrentETHPrice() float64 { return f.price }

func TestSpotPrice(t *testing.T) {
	if got := SpotPrice(fakePriceSource{price: 3200.5}); got != 3200.5 {
		t.Errorf("expected 3200.5, got %v", got)
	}
}
