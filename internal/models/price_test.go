package models

import (
	"encoding/json"
	"testing"
)

func TestRawItemDecodeSimple(t *testing.T) {
	payload := `{
		"productName": "Virtual Machines Dv3 Series",
		"skuName": "D2 v3",
		"meterName": "D2 v3",
		"meterId": "meter-1",
		"armRegionName": "westeurope",
		"armSkuName": "Standard_D2_v3",
		"tierMinimumUnits": 0,
		"unitPrice": 0.1,
		"retailPrice": 0.1,
		"type": "Consumption",
		"effectiveStartDate": "2023-01-01T00:00:00Z"
	}`

	var item RawItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if item.HasSavingsPlan() {
		t.Error("item without savingsPlan must be the simple variant")
	}
	if item.Type != PriceTypeConsumption {
		t.Errorf("unexpected type %q", item.Type)
	}
}

func TestRawItemDecodeSavingsPlanVariants(t *testing.T) {
	// An empty savingsPlan array is still the multi-term variant; only a
	// missing key makes the item simple.
	var withEmpty RawItem
	if err := json.Unmarshal([]byte(`{"type": "", "savingsPlan": []}`), &withEmpty); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !withEmpty.HasSavingsPlan() {
		t.Error("empty savingsPlan array must decode as the multi-term variant")
	}
	if len(withEmpty.SavingsPlan) != 0 {
		t.Errorf("expected zero entries, got %d", len(withEmpty.SavingsPlan))
	}

	var withEntries RawItem
	payload := `{"savingsPlan": [
		{"unitPrice": 0.08, "retailPrice": 0.08, "term": "1 Year"},
		{"unitPrice": 0.06, "retailPrice": 0.06, "term": "3 Years"}
	]}`
	if err := json.Unmarshal([]byte(payload), &withEntries); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(withEntries.SavingsPlan) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(withEntries.SavingsPlan))
	}
	if withEntries.SavingsPlan[1].Term != TermThreeYears {
		t.Errorf("unexpected term %q", withEntries.SavingsPlan[1].Term)
	}
}

func TestPageDecodeNextPageLink(t *testing.T) {
	var withLink Page
	if err := json.Unmarshal([]byte(`{"Items": [], "NextPageLink": "https://example.test/next"}`), &withLink); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if withLink.NextPageLink == nil || *withLink.NextPageLink != "https://example.test/next" {
		t.Errorf("link not decoded: %v", withLink.NextPageLink)
	}

	var lastPage Page
	if err := json.Unmarshal([]byte(`{"Items": [], "NextPageLink": null}`), &lastPage); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if lastPage.NextPageLink != nil {
		t.Errorf("null link must decode to nil, got %v", *lastPage.NextPageLink)
	}
}

func TestProductKey(t *testing.T) {
	rec := NormalizedRecord{
		ProductName:      "Virtual Machines Dv3 Series",
		SkuName:          "D2 v3",
		MeterName:        "D2 v3",
		ArmRegionName:    "westeurope",
		TierMinimumUnits: 0,
	}

	want := `Virtual Machines Dv3 Series\D2 v3\D2 v3\0\westeurope`
	if got := rec.ProductKey(); got != want {
		t.Errorf("ProductKey() = %q, want %q", got, want)
	}

	// A fractional tier keeps its decimals without trailing zero padding.
	rec.TierMinimumUnits = 100.5
	want = `Virtual Machines Dv3 Series\D2 v3\D2 v3\100.5\westeurope`
	if got := rec.ProductKey(); got != want {
		t.Errorf("ProductKey() = %q, want %q", got, want)
	}
}

func TestMatchKey(t *testing.T) {
	rec := NormalizedRecord{
		ArmSkuName:    "Standard_D2_v3",
		ArmRegionName: "westeurope",
		MeterID:       "meter-1",
	}

	if got := rec.MatchKey(); got != "Standard_D2_v3|westeurope|meter-1" {
		t.Errorf("MatchKey() = %q", got)
	}
}
