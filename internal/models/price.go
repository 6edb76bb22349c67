package models

// Price type tags as published by the retail-price catalog. The catalog may
// emit additional tags; these are the ones the pipeline treats specially.
const (
	PriceTypeConsumption        = "Consumption"
	PriceTypeDevTestConsumption = "DevTestConsumption"
	PriceTypeReservation        = "Reservation"
	PriceTypeSavingsPlans       = "SavingsPlans"
)

// Reservation terms the catalog publishes for committed-use pricing.
const (
	TermOneYear    = "1 Year"
	TermThreeYears = "3 Years"
	TermFiveYears  = "5 Years"
)

// SavingsPlanEntry is one term-priced plan nested inside a catalog item.
type SavingsPlanEntry struct {
	UnitPrice   float64 `json:"unitPrice"`
	RetailPrice float64 `json:"retailPrice"`
	Term        string  `json:"term"`
}

// RawItem is a single item exactly as one catalog page returns it. An item is
// either a simple priced record (SavingsPlan nil, Type carries the price
// type) or a multi-term record (SavingsPlan non-nil, one nested entry per
// term). The nil/non-nil distinction is load-bearing: an item that arrives
// with an empty savingsPlan array is a multi-term record with zero terms.
type RawItem struct {
	ProductName        string             `json:"productName"`
	SkuName            string             `json:"skuName"`
	MeterName          string             `json:"meterName"`
	MeterID            string             `json:"meterId"`
	ArmRegionName      string             `json:"armRegionName"`
	ArmSkuName         string             `json:"armSkuName"`
	TierMinimumUnits   float64            `json:"tierMinimumUnits"`
	UnitPrice          float64            `json:"unitPrice"`
	RetailPrice        float64            `json:"retailPrice"`
	Type               string             `json:"type"`
	EffectiveStartDate string             `json:"effectiveStartDate"`
	EffectiveEndDate   string             `json:"effectiveEndDate,omitempty"`
	ReservationTerm    string             `json:"reservationTerm,omitempty"`
	SavingsPlan        []SavingsPlanEntry `json:"savingsPlan,omitempty"`
}

// HasSavingsPlan reports whether the item is the multi-term variant.
func (r *RawItem) HasSavingsPlan() bool {
	return r.SavingsPlan != nil
}

// Page is the JSON shape of one catalog response page.
type Page struct {
	Items        []RawItem `json:"Items"`
	NextPageLink *string   `json:"NextPageLink"`
}

// NormalizedRecord is one row per (product, price type) pair. Multi-term
// items expand into one record per nested term; simple items pass through
// unchanged with their own type as the price type.
type NormalizedRecord struct {
	ProductName        string  `json:"productName"`
	SkuName            string  `json:"skuName"`
	MeterName          string  `json:"meterName"`
	MeterID            string  `json:"meterId"`
	ArmRegionName      string  `json:"armRegionName"`
	ArmSkuName         string  `json:"armSkuName"`
	TierMinimumUnits   float64 `json:"tierMinimumUnits"`
	UnitPrice          float64 `json:"unitPrice"`
	RetailPrice        float64 `json:"retailPrice"`
	PriceType          string  `json:"priceType"`
	EffectiveStartDate string  `json:"effectiveStartDate"`
	EffectiveEndDate   string  `json:"effectiveEndDate,omitempty"`

	// ReservationTerm is set only for term-based price types
	// (Reservation and SavingsPlans rows), e.g. "1 Year".
	ReservationTerm string `json:"reservationTerm,omitempty"`
}
