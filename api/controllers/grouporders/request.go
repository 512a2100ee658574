package grouporders

import "time"

type tierRequest struct {
	ThresholdQty   int `json:"threshold_qty" validate:"min=0"`
	UnitPriceCents int `json:"unit_price_cents" validate:"required,gt=0"`
}

type createGroupOrderRequest struct {
	ItemID         string        `json:"item_id" validate:"required,uuid"`
	Location       string        `json:"location" validate:"required,max=120"`
	MinQuantity    int           `json:"min_quantity" validate:"required,gt=0"`
	TargetQuantity *int          `json:"target_quantity" validate:"omitempty,gt=0"`
	Deadline       time.Time     `json:"deadline" validate:"required"`
	Tiers          []tierRequest `json:"tiers" validate:"required,min=1,dive"`
}

// joinRequest carries the vendor's full replacement quantity, not a delta.
type joinRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}
