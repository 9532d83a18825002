package energy

import "github.com/ecohome/ecohome/internal/types"

// Baselines maps a category to the power a device draws when switched on
type Baselines map[types.Category]float64

// DefaultBaselines returns the stock per-category draw in watts
func DefaultBaselines() Baselines {
	return Baselines{
		types.CategoryLighting:  45,
		types.CategoryClimate:   1200,
		types.CategoryAppliance: 120,
	}
}

// For returns the on-state power of d. An explicit per-device baseline
// wins over the category table.
func (b Baselines) For(d types.Device) float64 {
	if d.BaselineW > 0 {
		return d.BaselineW
	}
	return b[d.Category]
}
