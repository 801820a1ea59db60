package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/httputil"
	"github.com/dcwatch/dcwatch/pkg/logger"
	"github.com/dcwatch/dcwatch/pkg/redis"
)

// senateRecord is one raw row of the Senate mirror feed.
type senateRecord struct {
	Senator          string `json:"senator"`
	Office           string `json:"office"`
	Party            string `json:"party"`
	Ticker           string `json:"ticker"`
	AssetDescription string `json:"asset_description"`
	Type             string `json:"type"`
	TransactionDate  string `json:"transaction_date"`
	DisclosureDate   string `json:"disclosure_date"`
	Amount           string `json:"amount"`
	Owner            string `json:"owner"`
	PtrLink          string `json:"ptr_link"`
}

// SenateSource fetches Senate disclosures from the bulk mirror feed.
type SenateSource struct {
	client *httputil.Client
	feeds  config.FeedsConfig
	logger *logger.Logger
}

// NewSenateSource creates a Senate feed source.
func NewSenateSource(client *httputil.Client, feeds config.FeedsConfig, log *logger.Logger) *SenateSource {
	return &SenateSource{
		client: client,
		feeds:  feeds,
		logger: log,
	}
}

// Fetch downloads the full Senate mirror feed and normalizes every record.
func (s *SenateSource) Fetch(ctx context.Context) ([]*contracts.Trade, error) {
	s.logger.WithField("url", s.feeds.SenateURL).Info("Fetching Senate trades")

	resp, err := s.client.GetWithHeaders(ctx, s.feeds.SenateURL, map[string]string{
		"User-Agent": s.feeds.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch senate feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("senate feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read senate feed: %w", err)
	}

	var records []senateRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parse senate feed: %w", err)
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
	}).Info("Normalized Senate trades")

	return trades, nil
}

// normalize converts one raw Senate record into the canonical schema.
func (s *SenateSource) normalize(rec senateRecord) *contracts.Trade {
	politician := strings.TrimSpace(rec.Senator)
	if politician == "" {
		return nil
	}

	ticker := cleanTicker(rec.Ticker)
	txDate := parseDate(rec.TransactionDate)
	disclosureDate := parseDate(rec.DisclosureDate)
	txType := normalizeTxType(rec.Type)
	amountLow, amountHigh := parseAmount(rec.Amount)
	assetDesc := strings.TrimSpace(rec.AssetDescription)

	state := strings.TrimSpace(rec.Office)
	if len(state) > 2 {
		state = stateAbbrev(state)
	}

	party := normalizeParty(rec.Party)
	if party == contracts.PartyUnknown {
		party = senatePartyByName[politician]
	}

	return &contracts.Trade{
		ID:               TradeID(politician, txDate, ticker, txType, amountLow, amountHigh),
		Politician:       politician,
		Party:            party,
		State:            state,
		Chamber:          contracts.ChamberSenate,
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

// dtPageSize is the page length the eFD DataTables endpoint is asked for.
const dtPageSize = 100

// pagePause is the polite delay between eFD page requests.
const pagePause = 300 * time.Millisecond

// Filing is one PTR filing found by the eFD search.
type Filing struct {
	Name      string `json:"name"`
	Office    string `json:"office"`
	ReportURL string `json:"report_url"`
	ReportID  string `json:"report_id"`
	DateFiled string `json:"date_filed"`
}

// EFDScraper scrapes the Senate Electronic Financial Disclosures search
// directly. It is the fallback for when the mirror feed is stale: the
// site requires accepting a usage agreement, which it tracks with a
// CSRF cookie, before the search endpoint answers.
type EFDScraper struct {
	client  *httputil.Client
	jar     http.CookieJar
	feeds   config.FeedsConfig
	logger  *logger.Logger
	baseURL string
}

// NewEFDScraper creates an eFD scraper with its own cookie session. The
// limiter may be nil; when set, requests count against the shared
// cross-process fetch window.
func NewEFDScraper(cfg *config.Config, limiter *redis.RateLimiter, log *logger.Logger) (*EFDScraper, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	client := httputil.NewWithTimeout(cfg, log, cfg.Feeds.Timeout).WithCookieJar(jar)
	if limiter != nil && cfg.Feeds.RateLimitPerMin > 0 {
		client = client.WithRateLimiter(limiter, redis.RateLimitConfig{
			Key:    "efd",
			Limit:  cfg.Feeds.RateLimitPerMin,
			Window: time.Minute,
		})
	}
	return &EFDScraper{
		client:  client,
		jar:     jar,
		feeds:   cfg.Feeds,
		logger:  log,
		baseURL: strings.TrimRight(cfg.Feeds.SenateEFDBase, "/"),
	}, nil
}

// Scrape runs the full fallback flow: accept the agreement, page
// through recent PTR filings, and parse each report's transactions.
func (s *EFDScraper) Scrape(ctx context.Context, daysBack int) ([]*contracts.Trade, error) {
	csrf, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	filings, err := s.Search(ctx, csrf, daysBack)
	if err != nil {
		return nil, err
	}

	var trades []*contracts.Trade
	for _, filing := range filings {
		select {
		case <-ctx.Done():
			return trades, ctx.Err()
		default:
		}
		if filing.ReportURL == "" {
			continue
		}

		reportTrades, err := s.FetchReport(ctx, filing)
		if err != nil {
			s.logger.WithError(err).WithField("report", filing.ReportURL).Warn("Skipping unreadable PTR report")
			continue
		}
		trades = append(trades, reportTrades...)
		time.Sleep(pagePause)
	}

	s.logger.WithFields(map[string]interface{}{
		"filings": len(filings),
		"trades":  len(trades),
	}).Info("Senate eFD scrape completed")

	return trades, nil
}

// authenticate loads the agreement page, extracts the CSRF token, and
// posts the acceptance. Returns the token for subsequent XHR calls.
func (s *EFDScraper) authenticate(ctx context.Context) (string, error) {
	agreeURL := s.baseURL + "/search/home/"

	resp, err := s.client.GetWithHeaders(ctx, agreeURL, map[string]string{
		"User-Agent": s.feeds.UserAgent,
	})
	if err != nil {
		return "", fmt.Errorf("load eFD agreement page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("parse eFD agreement page: %w", err)
	}

	token, _ := doc.Find(`input[name="csrfmiddlewaretoken"]`).Attr("value")
	if token == "" {
		token = s.cookieValue(agreeURL, "csrftoken")
	}
	if token == "" {
		return "", fmt.Errorf("eFD agreement page carried no CSRF token")
	}

	form := url.Values{
		"csrfmiddlewaretoken":   {token},
		"prohibition_agreement": {"1"},
	}
	resp, err = s.client.PostFormWithHeaders(ctx, agreeURL, form, map[string]string{
		"User-Agent":  s.feeds.UserAgent,
		"Referer":     agreeURL,
		"X-CSRFToken": token,
	})
	if err != nil {
		return "", fmt.Errorf("accept eFD agreement: %w", err)
	}
	resp.Body.Close()

	// The acceptance may rotate the token cookie.
	if rotated := s.cookieValue(agreeURL, "csrftoken"); rotated != "" {
		token = rotated
	}

	s.logger.Debug("Senate eFD agreement accepted")
	return token, nil
}

// cookieValue reads a named cookie for the given URL from the session jar.
func (s *EFDScraper) cookieValue(rawURL, name string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, c := range s.jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// dtResponse is the JSON shape of the DataTables server-side endpoint.
type dtResponse struct {
	Result          string     `json:"result"`
	RecordsTotal    int        `json:"recordsTotal"`
	RecordsFiltered int        `json:"recordsFiltered"`
	Data            [][]string `json:"data"`
}

// Search pages through PTR filings submitted in the trailing window.
func (s *EFDScraper) Search(ctx context.Context, csrf string, daysBack int) ([]Filing, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -daysBack).Format("01/02/2006")
	to := now.Format("01/02/2006")

	s.logger.WithFields(map[string]interface{}{
		"from": from,
		"to":   to,
	}).Info("Searching Senate PTR filings")

	dataURL := s.baseURL + "/search/report/data/"
	searchPage := s.baseURL + "/search/"

	var filings []Filing
	for start := 0; ; start += dtPageSize {
		select {
		case <-ctx.Done():
			return filings, ctx.Err()
		default:
		}

		form := dataTablesForm(start, dtPageSize, from, to)
		resp, err := s.client.PostFormWithHeaders(ctx, dataURL, form, map[string]string{
			"User-Agent":       s.feeds.UserAgent,
			"Referer":          searchPage,
			"X-CSRFToken":      csrf,
			"X-Requested-With": "XMLHttpRequest",
			"Accept":           "application/json, text/javascript, */*; q=0.01",
		})
		if err != nil {
			return filings, fmt.Errorf("search PTR filings: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return filings, fmt.Errorf("read PTR search response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return filings, fmt.Errorf("PTR search returned status %d", resp.StatusCode)
		}

		var dt dtResponse
		if err := json.Unmarshal(body, &dt); err != nil {
			return filings, fmt.Errorf("parse PTR search response: %w", err)
		}
		if dt.Result != "" && dt.Result != "ok" {
			s.logger.WithField("result", dt.Result).Warn("Senate search returned non-ok result")
		}

		page := s.parseSearchRows(dt.Data)
		filings = append(filings, page...)

		total := dt.RecordsFiltered
		if total == 0 {
			total = dt.RecordsTotal
		}

		s.logger.WithFields(map[string]interface{}{
			"offset": start,
			"page":   len(page),
			"total":  total,
		}).Debug("Senate PTR search page")

		if len(page) == 0 || start+dtPageSize >= total {
			break
		}
		time.Sleep(pagePause)
	}

	s.logger.WithField("filings", len(filings)).Info("Senate PTR search completed")
	return filings, nil
}

// dataTablesForm builds the form payload the server-side DataTables
// endpoint expects: the standard draw/paging/column/order fields plus
// the site's own search parameters. Filer type 1 is senator; report
// type 11 is the Periodic Transaction Report.
func dataTablesForm(start, length int, from, to string) url.Values {
	form := url.Values{
		"draw":             {"1"},
		"start":            {strconv.Itoa(start)},
		"length":           {strconv.Itoa(length)},
		"order[0][column]": {"1"},
		"order[0][dir]":    {"asc"},
		"search[value]":    {""},
		"search[regex]":    {"false"},

		"report_types":         {"[11]"},
		"filer_types":          {"[1]"},
		"submitted_start_date": {from + " 00:00:00"},
		"submitted_end_date":   {to + " 23:59:59"},
		"candidate_state":      {""},
		"senator_state":        {""},
		"office_id":            {""},
		"first_name":           {""},
		"last_name":            {""},
	}

	// Five columns: first name, last name, office, report link, date filed.
	for i := 0; i < 5; i++ {
		p := fmt.Sprintf("columns[%d]", i)
		form.Set(p+"[data]", strconv.Itoa(i))
		form.Set(p+"[name]", "")
		form.Set(p+"[searchable]", "true")
		form.Set(p+"[orderable]", "true")
		form.Set(p+"[search][value]", "")
		form.Set(p+"[search][regex]", "false")
	}
	return form
}

// parseSearchRows converts raw DataTables rows into filings. Each row
// is [first, last, office, report link HTML, date filed] and the link
// cell embeds the report URL.
func (s *EFDScraper) parseSearchRows(rows [][]string) []Filing {
	filings := make([]Filing, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}

		name := strings.TrimSpace(strings.TrimSpace(row[0]) + " " + strings.TrimSpace(row[1]))
		office := strings.TrimSpace(row[2])
		dateFiled := strings.TrimSpace(row[4])

		reportURL, reportID := s.parseReportLink(row[3])

		filings = append(filings, Filing{
			Name:      name,
			Office:    office,
			ReportURL: reportURL,
			ReportID:  reportID,
			DateFiled: dateFiled,
		})
	}
	return filings
}

// parseReportLink extracts the absolute report URL and report ID from
// the anchor tag embedded in a search result cell.
func (s *EFDScraper) parseReportLink(cell string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cell))
	if err != nil {
		return "", ""
	}
	href, ok := doc.Find("a").First().Attr("href")
	if !ok || href == "" {
		return "", ""
	}

	reportURL := href
	if !strings.HasPrefix(href, "http") {
		reportURL = s.baseURL + href
	}

	reportID := ""
	parts := strings.Split(strings.Trim(href, "/"), "/")
	for i, part := range parts {
		if (part == "ptr" || part == "paper") && i+1 < len(parts) {
			reportID = parts[i+1]
			break
		}
	}
	return reportURL, reportID
}

// reportColumns maps transaction table fields to header keywords, in
// match priority order.
var reportColumns = []struct {
	field    string
	keywords []string
}{
	{"tx_date", []string{"transaction date", "date"}},
	{"owner", []string{"owner"}},
	{"ticker", []string{"ticker", "symbol"}},
	{"asset_name", []string{"asset name", "asset", "name", "description"}},
	{"tx_type", []string{"transaction type", "type", "transaction"}},
	{"amount", []string{"amount"}},
}

// FetchReport downloads one PTR report page and parses its transaction
// table into canonical trades. The filing's submission date is the
// disclosure date for every transaction on the report.
func (s *EFDScraper) FetchReport(ctx context.Context, filing Filing) ([]*contracts.Trade, error) {
	resp, err := s.client.GetWithHeaders(ctx, filing.ReportURL, map[string]string{
		"User-Agent": s.feeds.UserAgent,
		"Referer":    s.baseURL + "/search/",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch PTR report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PTR report returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse PTR report: %w", err)
	}

	table := findTransactionTable(doc)
	if table == nil {
		s.logger.WithField("report", filing.ReportURL).Warn("No transaction table on PTR report")
		return nil, nil
	}

	colMap := mapReportColumns(table)
	disclosureDate := parseDate(filing.DateFiled)

	var trades []*contracts.Trade
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		if t := s.parseReportRow(row, colMap, filing, disclosureDate); t != nil {
			trades = append(trades, t)
		}
	})
	if len(trades) == 0 {
		// Tables without a tbody list rows directly under the table.
		table.Find("tr").Each(func(ri int, row *goquery.Selection) {
			if ri == 0 {
				return
			}
			if t := s.parseReportRow(row, colMap, filing, disclosureDate); t != nil {
				trades = append(trades, t)
			}
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"report": filing.ReportURL,
		"trades": len(trades),
	}).Debug("Parsed PTR report")

	return trades, nil
}

// findTransactionTable locates the transactions table on a report page:
// a table whose header mentions transaction fields, else the first table.
func findTransactionTable(doc *goquery.Document) *goquery.Selection {
	var table *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		text := strings.ToLower(tbl.Text())
		if containsAny(text, "transaction date", "ticker", "asset name", "transaction type") {
			table = tbl
			return false
		}
		return true
	})
	if table == nil {
		first := doc.Find("table").First()
		if first.Length() > 0 {
			table = first
		}
	}
	return table
}

// mapReportColumns resolves header-cell indices by keyword. Sites vary
// the header wording, so each field tries its keywords in order, exact
// matches before containment, and a claimed column is never reused.
// That keeps "type" off the "asset type" column when both are present.
func mapReportColumns(table *goquery.Selection) map[string]int {
	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(strings.TrimSpace(th.Text())))
	})
	if len(headers) == 0 {
		table.Find("tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(strings.TrimSpace(cell.Text())))
		})
	}

	colMap := make(map[string]int)
	claimed := make(map[int]bool)
	for _, col := range reportColumns {
		if i := findColumn(headers, claimed, col.keywords); i >= 0 {
			colMap[col.field] = i
			claimed[i] = true
		}
	}
	return colMap
}

// findColumn returns the first unclaimed header matching any keyword,
// preferring exact matches over containment. -1 when nothing matches.
func findColumn(headers []string, claimed map[int]bool, keywords []string) int {
	for _, kw := range keywords {
		for i, h := range headers {
			if !claimed[i] && h == kw {
				return i
			}
		}
	}
	for _, kw := range keywords {
		for i, h := range headers {
			if !claimed[i] && strings.Contains(h, kw) {
				return i
			}
		}
	}
	return -1
}

// parseReportRow converts one transaction row into a canonical trade.
func (s *EFDScraper) parseReportRow(row *goquery.Selection, colMap map[string]int, filing Filing, disclosureDate contracts.Date) *contracts.Trade {
	cells := row.Find("td")
	if cells.Length() < 3 {
		return nil
	}

	cell := func(field string) string {
		idx, ok := colMap[field]
		if !ok || idx >= cells.Length() {
			return ""
		}
		return strings.TrimSpace(cells.Eq(idx).Text())
	}

	txDateRaw := cell("tx_date")
	owner := cell("owner")
	tickerRaw := cell("ticker")
	assetName := cell("asset_name")
	txTypeRaw := cell("tx_type")
	amountRaw := cell("amount")

	// Positional fallback. The usual order is date, owner, ticker,
	// asset name, type, amount.
	if tickerRaw == "" && cells.Length() >= 6 {
		txDateRaw = strings.TrimSpace(cells.Eq(0).Text())
		owner = strings.TrimSpace(cells.Eq(1).Text())
		tickerRaw = strings.TrimSpace(cells.Eq(2).Text())
		assetName = strings.TrimSpace(cells.Eq(3).Text())
		txTypeRaw = strings.TrimSpace(cells.Eq(4).Text())
		amountRaw = strings.TrimSpace(cells.Eq(5).Text())
	}

	txDate := parseDate(txDateRaw)
	txType := normalizeTxType(txTypeRaw)
	amountLow, amountHigh := parseAmount(amountRaw)
	ticker := cleanTicker(tickerRaw)

	return &contracts.Trade{
		ID:               TradeID(filing.Name, txDate, ticker, txType, amountLow, amountHigh),
		Politician:       filing.Name,
		Party:            senatePartyByName[filing.Name],
		State:            stateFromOffice(filing.Office),
		Chamber:          contracts.ChamberSenate,
		Ticker:           ticker,
		AssetDescription: assetName,
		AssetType:        detectAssetType(assetName),
		TxType:           txType,
		TxDate:           txDate,
		DisclosureDate:   disclosureDate,
		AmountLow:        amountLow,
		AmountHigh:       amountHigh,
		Owner:            normalizeOwner(owner),
		FilingURL:        filing.ReportURL,
		DaysLate:         daysLate(txDate, disclosureDate),
	}
}
