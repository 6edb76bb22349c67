package normalizer

import (
	"testing"

	"priceflow/internal/models"
)

func simpleItem() models.RawItem {
	return models.RawItem{
		ProductName:        "Virtual Machines Dv3 Series",
		SkuName:            "D2 v3",
		MeterName:          "D2 v3",
		MeterID:            "meter-1",
		ArmRegionName:      "westeurope",
		ArmSkuName:         "Standard_D2_v3",
		UnitPrice:          0.1,
		RetailPrice:        0.1,
		Type:               models.PriceTypeConsumption,
		EffectiveStartDate: "2023-01-01T00:00:00Z",
	}
}

func TestNormalizeSimpleItemPassesThrough(t *testing.T) {
	records, err := Normalize([]models.RawItem{simpleItem()})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.PriceType != models.PriceTypeConsumption {
		t.Errorf("expected priceType Consumption, got %q", rec.PriceType)
	}
	if rec.RetailPrice != 0.1 || rec.UnitPrice != 0.1 {
		t.Errorf("prices not carried over: unit=%v retail=%v", rec.UnitPrice, rec.RetailPrice)
	}
	if rec.ReservationTerm != "" {
		t.Errorf("unexpected reservation term %q", rec.ReservationTerm)
	}
}

func TestNormalizeReservationKeepsTerm(t *testing.T) {
	item := simpleItem()
	item.Type = models.PriceTypeReservation
	item.ReservationTerm = models.TermThreeYears
	item.RetailPrice = 1500

	records, err := Normalize([]models.RawItem{item})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ReservationTerm != models.TermThreeYears {
		t.Errorf("expected term %q, got %q", models.TermThreeYears, records[0].ReservationTerm)
	}
}

func TestNormalizeExpandsSavingsPlans(t *testing.T) {
	item := simpleItem()
	item.SavingsPlan = []models.SavingsPlanEntry{
		{UnitPrice: 0.08, RetailPrice: 0.08, Term: models.TermOneYear},
		{UnitPrice: 0.06, RetailPrice: 0.06, Term: models.TermThreeYears},
	}

	records, err := Normalize([]models.RawItem{item})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	for i, rec := range records {
		if rec.PriceType != models.PriceTypeSavingsPlans {
			t.Errorf("record %d: expected priceType SavingsPlans, got %q", i, rec.PriceType)
		}
		if rec.ProductName != item.ProductName {
			t.Errorf("record %d: parent fields not copied", i)
		}
	}
	if records[0].RetailPrice != 0.08 || records[0].ReservationTerm != models.TermOneYear {
		t.Errorf("first entry prices/term wrong: %+v", records[0])
	}
	if records[1].RetailPrice != 0.06 || records[1].ReservationTerm != models.TermThreeYears {
		t.Errorf("second entry prices/term wrong: %+v", records[1])
	}
}

func TestNormalizeEmptySavingsPlanYieldsNoRecords(t *testing.T) {
	item := simpleItem()
	item.Type = ""
	item.SavingsPlan = []models.SavingsPlanEntry{}

	records, err := Normalize([]models.RawItem{item})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected 0 records for empty savings plan, got %d", len(records))
	}
}

func TestNormalizeMissingTypeIsFatal(t *testing.T) {
	item := simpleItem()
	item.Type = ""

	if _, err := Normalize([]models.RawItem{item}); err == nil {
		t.Fatal("expected error for item without price type")
	}
}

func TestNormalizeMixedItems(t *testing.T) {
	plain := simpleItem()
	withPlans := simpleItem()
	withPlans.SavingsPlan = []models.SavingsPlanEntry{
		{UnitPrice: 0.08, RetailPrice: 0.08, Term: models.TermOneYear},
	}

	records, err := Normalize([]models.RawItem{plain, withPlans})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
