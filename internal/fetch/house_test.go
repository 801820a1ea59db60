package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/config"
)

func TestHouseNormalize(t *testing.T) {
	src := &HouseSource{}
	rec := houseRecord{
		Representative:   "Nancy Pelosi",
		District:         "CA11",
		Ticker:           "nvda",
		AssetDescription: "NVIDIA Corporation - Common Stock",
		Type:             "purchase",
		TransactionDate:  "06/12/2025",
		DisclosureDate:   "07/03/2025",
		Amount:           "$1,000,001 - $5,000,000",
		Owner:            "Spouse",
		PtrLink:          "https://disclosures-clerk.house.gov/ptr/20026114.pdf",
	}

	trade := src.normalize(rec)
	if trade == nil {
		t.Fatal("normalize() returned nil for a complete record")
	}

	if trade.Politician != "Nancy Pelosi" {
		t.Errorf("Politician = %q", trade.Politician)
	}
	if trade.Party != contracts.PartyDemocrat {
		t.Errorf("Party = %q, want D", trade.Party)
	}
	if trade.State != "CA" {
		t.Errorf("State = %q, want CA", trade.State)
	}
	if trade.Chamber != contracts.ChamberHouse {
		t.Errorf("Chamber = %q, want house", trade.Chamber)
	}
	if trade.Ticker != "NVDA" {
		t.Errorf("Ticker = %q, want NVDA", trade.Ticker)
	}
	if trade.AssetType != contracts.AssetStock {
		t.Errorf("AssetType = %q, want stock", trade.AssetType)
	}
	if trade.TxType != contracts.TxPurchase {
		t.Errorf("TxType = %q, want purchase", trade.TxType)
	}
	if trade.TxDate.String() != "2025-06-12" {
		t.Errorf("TxDate = %q", trade.TxDate.String())
	}
	if trade.DisclosureDate.String() != "2025-07-03" {
		t.Errorf("DisclosureDate = %q", trade.DisclosureDate.String())
	}
	if trade.AmountLow != 1000001 || trade.AmountHigh != 5000000 {
		t.Errorf("Amount = (%d, %d)", trade.AmountLow, trade.AmountHigh)
	}
	if trade.Owner != contracts.OwnerSpouse {
		t.Errorf("Owner = %q, want spouse", trade.Owner)
	}
	if trade.DaysLate != 21 {
		t.Errorf("DaysLate = %d, want 21", trade.DaysLate)
	}
	if trade.FilingURL != rec.PtrLink {
		t.Errorf("FilingURL = %q", trade.FilingURL)
	}

	wantID := TradeID("Nancy Pelosi", trade.TxDate, "NVDA", contracts.TxPurchase, 1000001, 5000000)
	if trade.ID != wantID {
		t.Errorf("ID = %q, want %q", trade.ID, wantID)
	}
}

func TestHouseNormalizeUnknownMember(t *testing.T) {
	src := &HouseSource{}
	trade := src.normalize(houseRecord{
		Representative:  "Jane Nobody",
		District:        "VT00",
		Ticker:          "AAPL",
		Type:            "purchase",
		TransactionDate: "06/12/2025",
		DisclosureDate:  "06/20/2025",
		Amount:          "$1,001 - $15,000",
	})
	if trade == nil {
		t.Fatal("normalize() returned nil")
	}
	if trade.Party != contracts.PartyUnknown {
		t.Errorf("Party = %q, want unknown", trade.Party)
	}
}

func TestHouseNormalizeDropsUnnamed(t *testing.T) {
	src := &HouseSource{}
	if src.normalize(houseRecord{Representative: ""}) != nil {
		t.Error("record without a representative should be dropped")
	}
	if src.normalize(houseRecord{Representative: "   "}) != nil {
		t.Error("whitespace-only representative should be dropped")
	}
}

func TestHouseFetch(t *testing.T) {
	records := []houseRecord{
		{
			Representative:  "Nancy Pelosi",
			District:        "CA11",
			Ticker:          "NVDA",
			Type:            "purchase",
			TransactionDate: "06/12/2025",
			DisclosureDate:  "07/03/2025",
			Amount:          "$1,000,001 - $5,000,000",
		},
		{
			Representative:  "Ro Khanna",
			District:        "CA17",
			Ticker:          "AAPL",
			Type:            "Sale (Full)",
			TransactionDate: "06/05/2025",
			DisclosureDate:  "06/25/2025",
			Amount:          "$1,001 - $15,000",
		},
		{Representative: ""},
	}
	body, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer server.Close()

	log := testLog()
	src := NewHouseSource(testClient(log), config.FeedsConfig{
		HouseURL:  server.URL,
		UserAgent: "dcwatch-test",
	}, log)

	trades, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("Fetch() returned %d trades, want 2", len(trades))
	}
	if gotUA != "dcwatch-test" {
		t.Errorf("User-Agent = %q, want dcwatch-test", gotUA)
	}
	if trades[0].Politician != "Nancy Pelosi" || trades[1].Politician != "Ro Khanna" {
		t.Errorf("feed order not preserved: %q, %q", trades[0].Politician, trades[1].Politician)
	}
	if trades[1].TxType != contracts.TxSaleFull {
		t.Errorf("TxType = %q, want sale_full", trades[1].TxType)
	}
}

func TestHouseFetchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	log := testLog()
	src := NewHouseSource(testClient(log), config.FeedsConfig{HouseURL: server.URL}, log)

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() should fail on a 500 response")
	}
}

func TestHouseFetchBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>maintenance page</html>")
	}))
	defer server.Close()

	log := testLog()
	src := NewHouseSource(testClient(log), config.FeedsConfig{HouseURL: server.URL}, log)

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() should fail on a non-JSON body")
	}
}
