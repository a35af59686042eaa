package usecases

import (
	"math/rand/v2"
	"sync"
)

const (
	DonationLinkText = "Contribuisci al progetto per mantenerlo attivo e sviluppare nuove funzionalità tramite una donazione: https://buymeacoffee.com/d0d0"
	ProjectLinkText  = "Esplora o contribuisci al progetto open-source per sviluppare nuove funzionalità: https://github.com/notdodo/erfiume_bot"
)

// PromoSampler occasionally picks a promotional line to append to a reply.
// It knows nothing about stations or throttling.
type PromoSampler struct {
	mu             sync.Mutex
	rng            *rand.Rand
	donationChance int // one in N
	projectChance  int // one in N
}

// NewPromoSampler returns a sampler using src; a nil src uses a random seed.
func NewPromoSampler(src rand.Source) *PromoSampler {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &PromoSampler{
		rng:            rand.New(src),
		donationChance: 10,
		projectChance:  50,
	}
}

// Sample returns the promotional line to send, or "" most of the time.
// The project link wins when both draws hit.
func (p *PromoSampler) Sample() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	donation := p.rng.IntN(p.donationChance) == 0
	project := p.rng.IntN(p.projectChance) == 0
	switch {
	case project:
		return ProjectLinkText
	case donation:
		return DonationLinkText
	default:
		return ""
	}
}

// Decorate appends the sampled promotional line to text, if any
func (p *PromoSampler) Decorate(text string) string {
	if promo := p.Sample(); promo != "" {
		return text + "\n\n" + promo
	}
	return text
}
