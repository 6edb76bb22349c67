package normalizer

import (
	"fmt"

	"priceflow/internal/models"
)

// Normalize converts raw catalog items into one record per (product, price
// type) pair. Items carrying a nested savings-plan list expand into one
// record per plan entry, each tagged SavingsPlans with the entry's own prices
// and term; a present-but-empty list therefore yields no records for that
// item. Items without the list pass through unchanged, their own type
// becoming the price type.
//
// Normalization is pure; record order follows item order but downstream
// grouping does not depend on it.
func Normalize(items []models.RawItem) ([]models.NormalizedRecord, error) {
	records := make([]models.NormalizedRecord, 0, len(items))

	for i := range items {
		item := &items[i]

		if item.HasSavingsPlan() {
			for _, plan := range item.SavingsPlan {
				rec := baseRecord(item)
				rec.PriceType = models.PriceTypeSavingsPlans
				rec.UnitPrice = plan.UnitPrice
				rec.RetailPrice = plan.RetailPrice
				rec.ReservationTerm = plan.Term
				records = append(records, rec)
			}
			continue
		}

		// An item without a price type cannot be partitioned downstream;
		// treat it as malformed catalog data rather than guessing.
		if item.Type == "" {
			return nil, fmt.Errorf("catalog item %q (meter %s) has no price type", item.ProductName, item.MeterID)
		}

		rec := baseRecord(item)
		rec.PriceType = item.Type
		rec.UnitPrice = item.UnitPrice
		rec.RetailPrice = item.RetailPrice
		rec.ReservationTerm = item.ReservationTerm
		records = append(records, rec)
	}

	return records, nil
}

func baseRecord(item *models.RawItem) models.NormalizedRecord {
	return models.NormalizedRecord{
		ProductName:        item.ProductName,
		SkuName:            item.SkuName,
		MeterName:          item.MeterName,
		MeterID:            item.MeterID,
		ArmRegionName:      item.ArmRegionName,
		ArmSkuName:         item.ArmSkuName,
		TierMinimumUnits:   item.TierMinimumUnits,
		EffectiveStartDate: item.EffectiveStartDate,
		EffectiveEndDate:   item.EffectiveEndDate,
	}
}
