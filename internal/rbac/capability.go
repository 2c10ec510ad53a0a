package rbac

// Capability is a single staff permission, stored as one bit of the
// permissions mask on a staff profile. Bit positions are part of the
// storage format and must never be renumbered or reused.
type Capability int32

const (
	CapReports Capability = 1 << iota
	CapMealManagement
	CapStockControl
	CapOrders
	CapSeasonalDiscounts
	CapPromoCodes
)

// capabilityMask covers the six defined bits. Higher bits are reserved
// for future capabilities and ignored on decode.
const capabilityMask = int32(CapReports | CapMealManagement | CapStockControl |
	CapOrders | CapSeasonalDiscounts | CapPromoCodes)

// Set is the decoded form of a permissions mask. Handlers and the access
// gate work with Set; the raw integer only appears at the storage and
// wire boundary.
type Set struct {
	Reports           bool `json:"reports"`
	MealManagement    bool `json:"meal_management"`
	StockControl      bool `json:"stock_control"`
	Orders            bool `json:"orders"`
	SeasonalDiscounts bool `json:"seasonal_discounts"`
	PromoCodes        bool `json:"promo_codes"`
}

// Mask encodes the set into its storage integer.
func (s Set) Mask() int32 {
	var m int32
	if s.Reports {
		m |= int32(CapReports)
	}
	if s.MealManagement {
		m |= int32(CapMealManagement)
	}
	if s.StockControl {
		m |= int32(CapStockControl)
	}
	if s.Orders {
		m |= int32(CapOrders)
	}
	if s.SeasonalDiscounts {
		m |= int32(CapSeasonalDiscounts)
	}
	if s.PromoCodes {
		m |= int32(CapPromoCodes)
	}
	return m
}

// Decode converts a stored mask into a Set. It never fails: the mask is
// treated as an unsigned 32-bit quantity and bits outside the six defined
// positions are ignored, so masks written by newer versions still decode.
func Decode(mask int32) Set {
	m := int32(uint32(mask)) & capabilityMask
	return Set{
		Reports:           m&int32(CapReports) != 0,
		MealManagement:    m&int32(CapMealManagement) != 0,
		StockControl:      m&int32(CapStockControl) != 0,
		Orders:            m&int32(CapOrders) != 0,
		SeasonalDiscounts: m&int32(CapSeasonalDiscounts) != 0,
		PromoCodes:        m&int32(CapPromoCodes) != 0,
	}
}

// Has reports whether the mask grants the capability.
func Has(mask int32, c Capability) bool {
	return int32(uint32(mask))&int32(c) == int32(c)
}
