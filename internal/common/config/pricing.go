// internal/common/config/pricing.go
package config

import (
	"fmt"

	"renovation-estimator/internal/estimator"
)

// RateCard builds the process-wide rate card: the file at RateCardPath when
// set, otherwise the built-in card, with any non-zero overrides applied.
func (p PricingConfig) RateCard() (*estimator.RateCard, error) {
	var card *estimator.RateCard
	if p.RateCardPath != "" {
		loaded, err := estimator.LoadRateCard(p.RateCardPath)
		if err != nil {
			return nil, err
		}
		card = loaded
	} else {
		card = estimator.DefaultRateCard()
	}

	if p.Version != "" {
		card.Version = p.Version
	}
	if p.Currency != "" {
		card.Currency = p.Currency
	}
	if p.Locale != "" {
		card.Locale = p.Locale
	}
	if p.BaseRatePerM2 > 0 {
		card.BaseRatePerM2 = p.BaseRatePerM2
	}
	if p.MinRoomFee > 0 {
		card.MinRoomFee = p.MinRoomFee
	}
	if p.TaxRate > 0 {
		card.TaxRate = p.TaxRate
	}

	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("pricing: %w", err)
	}
	return card, nil
}
