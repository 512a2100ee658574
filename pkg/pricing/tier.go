package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/packlane/groupbuy-backend/pkg/errors"
)

// MaxTiers caps how many tiers a single table may carry.
const MaxTiers = 10

// Tier pairs a cumulative quantity threshold with the unit price unlocked at it.
type Tier struct {
	ThresholdQty   int `json:"threshold_qty"`
	UnitPriceCents int `json:"unit_price_cents"`
}

// Table is an immutable volume pricing table ordered by ascending threshold.
type Table struct {
	tiers []Tier
}

// NewTable validates and builds a pricing table. Thresholds must be strictly
// increasing and unit prices strictly non-increasing.
func NewTable(tiers []Tier) (Table, error) {
	if len(tiers) == 0 {
		return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "tier table must not be empty")
	}
	if len(tiers) > MaxTiers {
		return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "tier table has too many tiers").
			WithDetails(map[string]any{"max": MaxTiers, "got": len(tiers)})
	}
	for i, tier := range tiers {
		if tier.ThresholdQty < 0 {
			return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "tier threshold must not be negative").
				WithDetails(map[string]any{"index": i})
		}
		if tier.UnitPriceCents <= 0 {
			return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "tier unit price must be positive").
				WithDetails(map[string]any{"index": i})
		}
		if i == 0 {
			continue
		}
		if tier.ThresholdQty <= tiers[i-1].ThresholdQty {
			return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "tier thresholds must be strictly increasing").
				WithDetails(map[string]any{"index": i})
		}
		if tier.UnitPriceCents > tiers[i-1].UnitPriceCents {
			return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "tier prices must not increase with quantity").
				WithDetails(map[string]any{"index": i})
		}
	}
	owned := make([]Tier, len(tiers))
	copy(owned, tiers)
	return Table{tiers: owned}, nil
}

// Tiers returns a copy of the underlying tiers in ascending threshold order.
func (t Table) Tiers() []Tier {
	tiers := make([]Tier, len(t.tiers))
	copy(tiers, t.tiers)
	return tiers
}

// PriceFor returns the unit price for the given aggregate quantity: the price
// of the last tier whose threshold does not exceed the quantity, or the base
// price when the quantity sits below the first threshold.
func (t Table) PriceFor(aggregateQty int) int {
	if len(t.tiers) == 0 {
		return 0
	}
	// First tier whose threshold exceeds the quantity; the qualifying tier
	// sits immediately before it.
	idx := sort.Search(len(t.tiers), func(i int) bool {
		return t.tiers[i].ThresholdQty > aggregateQty
	})
	if idx == 0 {
		return t.tiers[0].UnitPriceCents
	}
	return t.tiers[idx-1].UnitPriceCents
}

// LineTotalCents computes quantity * unit price without float drift.
func LineTotalCents(quantity, unitPriceCents int) int64 {
	total := decimal.NewFromInt(int64(quantity)).Mul(decimal.NewFromInt(int64(unitPriceCents)))
	return total.IntPart()
}
