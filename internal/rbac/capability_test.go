package rbac_test

import (
	"testing"

	"github.com/savora/api/internal/rbac"
)

func TestCapabilityBitPositions(t *testing.T) {
	// Bit positions are storage format; a renumbering would corrupt every
	// staff profile.
	cases := []struct {
		cap  rbac.Capability
		want int32
	}{
		{rbac.CapReports, 1},
		{rbac.CapMealManagement, 2},
		{rbac.CapStockControl, 4},
		{rbac.CapOrders, 8},
		{rbac.CapSeasonalDiscounts, 16},
		{rbac.CapPromoCodes, 32},
	}
	for _, c := range cases {
		if int32(c.cap) != c.want {
			t.Errorf("capability %d: got bit value %d, want %d", c.cap, int32(c.cap), c.want)
		}
	}
}

func TestSetMaskRoundTrip(t *testing.T) {
	// decode(encode(s)) == s for every possible set.
	for m := int32(0); m < 64; m++ {
		s := rbac.Decode(m)
		if got := s.Mask(); got != m {
			t.Errorf("mask %d: round trip produced %d", m, got)
		}
		if again := rbac.Decode(s.Mask()); again != s {
			t.Errorf("mask %d: decode not stable: %+v vs %+v", m, s, again)
		}
	}
}

func TestDecodeIgnoresUnknownBits(t *testing.T) {
	cases := []int32{
		64,         // first reserved bit
		1<<6 | 5,   // reserved bit plus known bits
		-1,         // all bits set as unsigned
		-64,        // only bits >= 6 as unsigned
		1<<30 | 63, // high reserved bit
	}
	for _, m := range cases {
		if got, want := rbac.Decode(m), rbac.Decode(m&63); got != want {
			t.Errorf("decode(%d) = %+v, want same as decode(%d) = %+v", m, got, m&63, want)
		}
	}
	// -1 as unsigned has all six known bits set.
	all := rbac.Set{
		Reports: true, MealManagement: true, StockControl: true,
		Orders: true, SeasonalDiscounts: true, PromoCodes: true,
	}
	if got := rbac.Decode(-1); got != all {
		t.Errorf("decode(-1) = %+v, want all capabilities", got)
	}
}

func TestHas(t *testing.T) {
	mask := rbac.Set{StockControl: true}.Mask()

	if !rbac.Has(mask, rbac.CapStockControl) {
		t.Error("expected stock_control bit to be set")
	}
	if rbac.Has(mask, rbac.CapPromoCodes) {
		t.Error("expected promo_codes bit to be clear")
	}
	if rbac.Has(0, rbac.CapReports) {
		t.Error("zero mask should grant nothing")
	}
}

func TestZeroSetIsEmptyMask(t *testing.T) {
	// New staff profiles start with a zero mask.
	if got := (rbac.Set{}).Mask(); got != 0 {
		t.Errorf("zero set mask: got %d, want 0", got)
	}
}
