package flatten

import (
	"priceflow/internal/models"
)

// hoursInMonth is the flat-rate month used to convert whole-term reservation
// prices into hourly equivalents.
const hoursInMonth = 730.0

// periods is the number of month-equivalents covered by each reservation term.
var termPeriods = map[string]float64{
	models.TermOneYear:    12,
	models.TermThreeYears: 36,
	models.TermFiveYears:  60,
}

// Flatten pivots the long one-row-per-price-type table into one row per
// product with price-type columns and derived savings percentages.
//
// Records are grouped by ProductKey; the first record seen for a key supplies
// the descriptive fields. Consumption, DevTestConsumption and per-term
// Reservation prices become columns; rows of other price types (SavingsPlans
// among them) contribute product identity only. Products without a positive
// Consumption price are dropped because every savings ratio is relative to
// it. Reservation columns are converted to hourly equivalents before the
// savings ratio is derived; a ratio below zero means the alternative costs
// more than pay-as-you-go and is kept as-is.
func Flatten(records []models.NormalizedRecord) []models.WideProductRow {
	rows := make(map[string]*models.WideProductRow, len(records))
	order := make([]string, 0, len(records))

	for i := range records {
		rec := &records[i]
		key := rec.ProductKey()

		row, ok := rows[key]
		if !ok {
			row = &models.WideProductRow{
				ProductKey:       key,
				ProductName:      rec.ProductName,
				SkuName:          rec.SkuName,
				MeterName:        rec.MeterName,
				MeterID:          rec.MeterID,
				ArmRegionName:    rec.ArmRegionName,
				ArmSkuName:       rec.ArmSkuName,
				TierMinimumUnits: rec.TierMinimumUnits,
				EffectiveEndDate: rec.EffectiveEndDate,
			}
			rows[key] = row
			order = append(order, key)
		}

		price := rec.RetailPrice
		switch rec.PriceType {
		case models.PriceTypeConsumption:
			row.Consumption = &price
		case models.PriceTypeDevTestConsumption:
			row.DevTestConsumption = &price
		case models.PriceTypeReservation:
			switch rec.ReservationTerm {
			case models.TermOneYear:
				row.OneYear = &price
			case models.TermThreeYears:
				row.ThreeYears = &price
			case models.TermFiveYears:
				row.FiveYears = &price
			}
			row.IsReservation = true
		}
	}

	out := make([]models.WideProductRow, 0, len(order))
	for _, key := range order {
		row := rows[key]

		// No consumption baseline means no defined savings ratios; the
		// original export drops these rows deliberately.
		if row.Consumption == nil || *row.Consumption <= 0 {
			continue
		}

		row.DevTestSavings = savings(row.DevTestConsumption, *row.Consumption)

		row.OneYear = hourly(row.OneYear, termPeriods[models.TermOneYear])
		row.ThreeYears = hourly(row.ThreeYears, termPeriods[models.TermThreeYears])
		row.FiveYears = hourly(row.FiveYears, termPeriods[models.TermFiveYears])

		row.OneYearSavings = savings(row.OneYear, *row.Consumption)
		row.ThreeYearsSavings = savings(row.ThreeYears, *row.Consumption)
		row.FiveYearsSavings = savings(row.FiveYears, *row.Consumption)

		out = append(out, *row)
	}

	return out
}

// hourly converts a whole-term price to its hourly equivalent, passing
// through absent values.
func hourly(termPrice *float64, periods float64) *float64 {
	if termPrice == nil {
		return nil
	}
	v := *termPrice / periods / hoursInMonth
	return &v
}

// savings derives 1 - price/consumption, passing through absent values.
// Consumption is guaranteed positive by the caller.
func savings(price *float64, consumption float64) *float64 {
	if price == nil {
		return nil
	}
	v := 1 - *price/consumption
	return &v
}
