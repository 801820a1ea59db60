package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/httputil"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// houseRecord is one raw row of the House mirror feed.
type houseRecord struct {
	Representative   string `json:"representative"`
	District         string `json:"district"`
	Ticker           string `json:"ticker"`
	AssetDescription string `json:"asset_description"`
	Type             string `json:"type"`
	TransactionDate  string `json:"transaction_date"`
	DisclosureDate   string `json:"disclosure_date"`
	Amount           string `json:"amount"`
	Owner            string `json:"owner"`
	PtrLink          string `json:"ptr_link"`
}

// HouseSource fetches House disclosures from the bulk mirror feed.
type HouseSource struct {
	client *httputil.Client
	feeds  config.FeedsConfig
	logger *logger.Logger
}

// NewHouseSource creates a House feed source.
func NewHouseSource(client *httputil.Client, feeds config.FeedsConfig, log *logger.Logger) *HouseSource {
	return &HouseSource{
		client: client,
		feeds:  feeds,
		logger: log,
	}
}

// Fetch downloads the full House feed and normalizes every record.
func (s *HouseSource) Fetch(ctx context.Context) ([]*contracts.Trade, error) {
	s.logger.WithField("url", s.feeds.HouseURL).Info("Fetching House trades")

	resp, err := s.client.GetWithHeaders(ctx, s.feeds.HouseURL, map[string]string{
		"User-Agent": s.feeds.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch house feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("house feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read house feed: %w", err)
	}

	var records []houseRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parse house feed: %w", err)
	}

	trades := make([]*contracts.Trade, 0, len(records))
	for _, rec := range records {
		if t := s.normalize(rec); t != nil {
			trades = append(trades, t)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"raw":    len(records),
		"trades": len(trades),
	}).Info("Normalized House trades")

	return trades, nil
}

// normalize converts one raw House record into the canonical schema.
// Records without a representative name are dropped.
func (s *HouseSource) normalize(rec houseRecord) *contracts.Trade {
	politician := strings.TrimSpace(rec.Representative)
	if politician == "" {
		return nil
	}

	ticker := cleanTicker(rec.Ticker)
	txDate := parseDate(rec.TransactionDate)
	disclosureDate := parseDate(rec.DisclosureDate)
	txType := normalizeTxType(rec.Type)
	amountLow, amountHigh := parseAmount(rec.Amount)
	assetDesc := strings.TrimSpace(rec.AssetDescription)

	return &contracts.Trade{
		ID:               TradeID(politician, txDate, ticker, txType, amountLow, amountHigh),
		Politician:       politician,
		Party:            housePartyByName[politician],
		State:            stateFromDistrict(rec.District),
		Chamber:          contracts.ChamberHouse,
		Ticker:           ticker,
		AssetDescription: assetDesc,
		AssetType:        detectAssetType(assetDesc),
		TxType:           txType,
		TxDate:           txDate,
		DisclosureDate:   disclosureDate,
		AmountLow:        amountLow,
		AmountHigh:       amountHigh,
		Owner:            normalizeOwner(rec.Owner),
		FilingURL:        strings.TrimSpace(rec.PtrLink),
		DaysLate:         daysLate(txDate, disclosureDate),
	}
}
