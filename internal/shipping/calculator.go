package shipping

import "strings"

// Config holds the tariff table. It is resolved once at startup and handed
// to the calculator at construction; the calculator never reads the
// environment at call time.
type Config struct {
	DomesticCost      int
	RemoteCost        int
	InternationalCost int
	PackingFee        int
	// RemotePrefixes are postal-code prefixes billed at RemoteCost
	// (Jeju and other island/mountain areas).
	RemotePrefixes []string
}

type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Cost maps a destination to a human-readable reason and the base cost of
// one shipment. Pure lookup, no side effects.
func (c *Calculator) Cost(country, postalCode string) (string, int) {
	if country != "" && !strings.EqualFold(country, "KR") {
		return "해외배송", c.cfg.InternationalCost
	}
	for _, prefix := range c.cfg.RemotePrefixes {
		if strings.HasPrefix(postalCode, prefix) {
			return "도서산간배송", c.cfg.RemoteCost
		}
	}
	return "국내배송", c.cfg.DomesticCost
}

// PackingFee is charged once per box on top of the base cost.
func (c *Calculator) PackingFee() int {
	return c.cfg.PackingFee
}
