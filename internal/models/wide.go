package models

import (
	"fmt"
	"strconv"
)

// productKeyDelimiter joins the ProductKey components. The catalog never
// emits backslashes in product, SKU, meter or region names.
const productKeyDelimiter = `\`

// WideProductRow is one row per product after pivoting price-type rows into
// columns. Price and savings columns are pointers so that a price type the
// catalog never published for this product stays null instead of zero.
type WideProductRow struct {
	ProductKey       string  `json:"ProductKey"`
	ProductName      string  `json:"productName"`
	SkuName          string  `json:"skuName"`
	MeterName        string  `json:"meterName"`
	MeterID          string  `json:"meterId"`
	ArmRegionName    string  `json:"armRegionName"`
	ArmSkuName       string  `json:"armSkuName"`
	TierMinimumUnits float64 `json:"tierMinimumUnits"`
	EffectiveEndDate string  `json:"effectiveEndDate,omitempty"`

	Consumption        *float64 `json:"Consumption"`
	DevTestConsumption *float64 `json:"DevTestConsumption"`
	OneYear            *float64 `json:"1 Year"`
	ThreeYears         *float64 `json:"3 Years"`
	FiveYears          *float64 `json:"5 Years"`

	DevTestSavings    *float64 `json:"DevTestConsumption savings"`
	OneYearSavings    *float64 `json:"1 Year savings"`
	ThreeYearsSavings *float64 `json:"3 Years savings"`
	FiveYearsSavings  *float64 `json:"5 Years savings"`

	IsReservation bool `json:"isReservation"`
}

// ProductKey derives the composite product identity used to group price-type
// rows belonging to the same logical product, region and unit tier.
func (r *NormalizedRecord) ProductKey() string {
	return r.ProductName + productKeyDelimiter +
		r.SkuName + productKeyDelimiter +
		r.MeterName + productKeyDelimiter +
		strconv.FormatFloat(r.TierMinimumUnits, 'f', -1, 64) + productKeyDelimiter +
		r.ArmRegionName
}

// MatchKey identifies the same logical product across two currency-specific
// result sets. The pipe delimiter never occurs in SKU, region or meter ids.
func (r *NormalizedRecord) MatchKey() string {
	return fmt.Sprintf("%s|%s|%s", r.ArmSkuName, r.ArmRegionName, r.MeterID)
}

// FxEstimate is a sampled price ratio between one target currency and the
// base currency for a single matched product.
type FxEstimate struct {
	Currency string  `json:"currency"`
	FxRate   float64 `json:"fxRate"`
}
