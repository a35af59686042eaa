package usecases

import (
	"math"
	"math/rand/v2"
	"testing"
)

// constSource always yields the same value
type constSource uint64

func (s constSource) Uint64() uint64 { return uint64(s) }

func TestPromoSamplerAlwaysHit(t *testing.T) {
	// 1 maps to the lowest bucket of every draw
	sampler := NewPromoSampler(constSource(1))

	if got := sampler.Sample(); got != ProjectLinkText {
		t.Errorf("Expected the project link to win, got %q", got)
	}
	if got := sampler.Decorate("Stazione: Cesena"); got != "Stazione: Cesena\n\n"+ProjectLinkText {
		t.Errorf("Unexpected decorated text %q", got)
	}
}

func TestPromoSamplerNeverHit(t *testing.T) {
	sampler := NewPromoSampler(constSource(math.MaxUint64))

	if got := sampler.Sample(); got != "" {
		t.Errorf("Expected no promo, got %q", got)
	}
	if got := sampler.Decorate("text"); got != "text" {
		t.Errorf("Expected text unchanged, got %q", got)
	}
}

func TestPromoSamplerFrequencies(t *testing.T) {
	sampler := NewPromoSampler(rand.NewPCG(1, 2))

	const draws = 10000
	donations, projects := 0, 0
	for i := 0; i < draws; i++ {
		switch sampler.Sample() {
		case DonationLinkText:
			donations++
		case ProjectLinkText:
			projects++
		}
	}

	// Expected about 980 donation and 200 project links
	if donations < 800 || donations > 1200 {
		t.Errorf("Donation link frequency out of range: %d/%d", donations, draws)
	}
	if projects < 120 || projects > 300 {
		t.Errorf("Project link frequency out of range: %d/%d", projects, draws)
	}
}
