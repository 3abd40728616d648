package normalize

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NepsePulse/internal/domain/models"
	"NepsePulse/pkg/util"
)

// HTMLNormalizer converts scraped exchange pages into the typed data
// model. It is pure: no I/O, no retained state, and every returned value
// is detached from the payload it was parsed from.
type HTMLNormalizer struct{}

// New creates an HTMLNormalizer.
func New() *HTMLNormalizer {
	return &HTMLNormalizer{}
}

// NormalizeLive parses the live-trading page into one tick per symbol.
// Rows missing the symbol or last price are dropped; duplicate symbols
// keep the first occurrence. A page with no parseable rows at all is a
// normalization failure, not an empty result.
func (n *HTMLNormalizer) NormalizeLive(p *models.RawPayload) ([]models.MarketTick, error) {
	doc, err := parseDoc(p)
	if err != nil {
		return nil, err
	}
	ticks, err := parseTickTable(doc, asOfOrDefault(doc, p.FetchedAt))
	if err != nil {
		return nil, err
	}
	return ticks, nil
}

// NormalizeSummary parses the daily share-price page into a full market
// snapshot. Index rows the page does not carry are derived from the
// tick table instead.
func (n *HTMLNormalizer) NormalizeSummary(p *models.RawPayload) (*models.MarketSummary, error) {
	doc, err := parseDoc(p)
	if err != nil {
		return nil, err
	}
	asOf := asOfOrDefault(doc, p.FetchedAt)
	ticks, err := parseTickTable(doc, asOf)
	if err != nil {
		return nil, err
	}

	indices := parseIndices(doc)
	indices.Advances, indices.Declines, indices.Unchanged = countMoves(ticks)
	if indices.TotalTurnover == 0 {
		for _, t := range ticks {
			indices.TotalTurnover += t.LastPrice * float64(t.Volume)
		}
	}

	return &models.MarketSummary{
		AsOf:    asOf,
		Indices: indices,
		Ticks:   ticks,
	}, nil
}

// NormalizeDetail parses a company page. Symbol and last price are
// required; descriptive fields default to their zero values when the
// page omits them.
func (n *HTMLNormalizer) NormalizeDetail(p *models.RawPayload, symbol string) (*models.StockDetail, error) {
	doc, err := parseDoc(p)
	if err != nil {
		return nil, err
	}
	symbol = util.NormalizeSymbol(symbol)

	price, ok := findPrice(doc)
	if !ok {
		return nil, fmt.Errorf("%w: no last price on company page for %s", models.ErrNormalization, symbol)
	}

	detail := &models.StockDetail{
		MarketTick: models.MarketTick{
			Symbol:    symbol,
			LastPrice: price,
			Timestamp: asOfOrDefault(doc, p.FetchedAt),
		},
		CompanyName: findCompanyName(doc, symbol),
		Sector:      findLabelText(doc, "sector"),
		DayHigh:     findLabelDecimal(doc, "high"),
		DayLow:      findLabelDecimal(doc, "low"),
		WeekHigh52:  findLabelDecimal(doc, "52 week high", "52 weeks high"),
		WeekLow52:   findLabelDecimal(doc, "52 week low", "52 weeks low"),
	}
	detail.Change = findLabelDecimal(doc, "change")
	detail.PercentChange = findLabelDecimal(doc, "% change", "change %")
	if v, ok := util.ParseVolume(findLabelText(doc, "volume", "traded shares")); ok {
		detail.Volume = v
	}
	return detail, nil
}

func parseDoc(p *models.RawPayload) (*goquery.Document, error) {
	if p == nil || len(p.Body) == 0 {
		return nil, fmt.Errorf("%w: empty payload", models.ErrNormalization)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNormalization, err)
	}
	return doc, nil
}

// Column roles recognized in a tick table header. Unknown headers are
// carried through untranslated and ignored by the row parser.
const (
	colSymbol  = "symbol"
	colPrice   = "price"
	colChange  = "change"
	colPercent = "percent_change"
	colVolume  = "volume"
)

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	switch {
	case strings.Contains(h, "symbol"):
		return colSymbol
	case strings.Contains(h, "ltp"), strings.Contains(h, "last"), strings.Contains(h, "close"):
		return colPrice
	case strings.Contains(h, "% change"), strings.Contains(h, "percent"), strings.Contains(h, "diff %"):
		return colPercent
	case strings.Contains(h, "change"), strings.Contains(h, "diff"):
		return colChange
	case strings.Contains(h, "volume"), strings.Contains(h, "traded shares"), strings.Contains(h, "qty"):
		return colVolume
	}
	return strings.ReplaceAll(h, " ", "_")
}

// parseTickTable finds the first table whose header carries both a
// symbol and a price column and parses its rows.
func parseTickTable(doc *goquery.Document, asOf time.Time) ([]models.MarketTick, error) {
	var ticks []models.MarketTick
	seen := make(map[string]bool)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := tableHeaders(table)
		if headers[colSymbol] < 0 || headers[colPrice] < 0 {
			return true // not a tick table, keep looking
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			tick, ok := parseTickRow(row, headers, asOf)
			if !ok || seen[tick.Symbol] {
				return
			}
			seen[tick.Symbol] = true
			ticks = append(ticks, tick)
		})
		return false
	})

	if len(ticks) == 0 {
		return nil, fmt.Errorf("%w: no tick table found", models.ErrNormalization)
	}
	return ticks, nil
}

// tableHeaders maps column roles to cell positions, -1 when absent.
func tableHeaders(table *goquery.Selection) map[string]int {
	headers := map[string]int{
		colSymbol:  -1,
		colPrice:   -1,
		colChange:  -1,
		colPercent: -1,
		colVolume:  -1,
	}
	row := table.Find("thead tr").First()
	if row.Length() == 0 {
		row = table.Find("tr").First()
	}
	row.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		role := normalizeHeader(cell.Text())
		if pos, known := headers[role]; known && pos < 0 {
			headers[role] = i
		}
	})
	return headers
}

func parseTickRow(row *goquery.Selection, headers map[string]int, asOf time.Time) (models.MarketTick, bool) {
	cells := row.Find("td")
	cellText := func(role string) string {
		pos := headers[role]
		if pos < 0 || pos >= cells.Length() {
			return ""
		}
		return strings.TrimSpace(cells.Eq(pos).Text())
	}

	symbol := util.NormalizeSymbol(cellText(colSymbol))
	if !util.ValidSymbol(symbol) {
		return models.MarketTick{}, false
	}
	price, ok := util.ParseDecimal(cellText(colPrice))
	if !ok {
		return models.MarketTick{}, false
	}

	tick := models.MarketTick{
		Symbol:        symbol,
		LastPrice:     price,
		Change:        util.ParseDecimalDefault(cellText(colChange), 0),
		PercentChange: util.ParseDecimalDefault(cellText(colPercent), 0),
		Timestamp:     asOf,
	}
	if v, okV := util.ParseVolume(cellText(colVolume)); okV {
		tick.Volume = v
	}
	return tick, true
}

// asOfOrDefault scans banner headings for an "As of" date and falls
// back to the fetch instant when the page does not carry one.
func asOfOrDefault(doc *goquery.Document, fallback time.Time) time.Time {
	asOf := fallback
	doc.Find("h1, h4, h5, .date, .as-of").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "As of") && !strings.Contains(text, "As on") {
			return true
		}
		if t, ok := util.ParseAsOf(text); ok {
			asOf = t
			return false
		}
		return true
	})
	return asOf
}

// parseIndices pulls exchange-level figures from named rows. Rows are
// matched by their first cell; the value is the first numeric cell
// after it.
func parseIndices(doc *goquery.Document) models.MarketIndices {
	var idx models.MarketIndices
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.ToLower(strings.TrimSpace(cells.First().Text()))
		value, ok := firstDecimal(cells)
		if !ok {
			return
		}
		switch {
		case strings.Contains(name, "sensitive"):
			setIfZero(&idx.SensitiveIndex, value)
		case strings.Contains(name, "float"):
			setIfZero(&idx.FloatIndex, value)
		case strings.Contains(name, "nepse"):
			setIfZero(&idx.NepseIndex, value)
		case strings.Contains(name, "turnover"):
			setIfZero(&idx.TotalTurnover, value)
		}
	})
	return idx
}

func firstDecimal(cells *goquery.Selection) (float64, bool) {
	var value float64
	found := false
	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if i == 0 {
			return true // name cell
		}
		if v, ok := util.ParseDecimal(cell.Text()); ok {
			value, found = v, true
			return false
		}
		return true
	})
	return value, found
}

func setIfZero(dst *float64, v float64) {
	if *dst == 0 {
		*dst = v
	}
}

func countMoves(ticks []models.MarketTick) (advances, declines, unchanged int) {
	for _, t := range ticks {
		switch {
		case t.Change > 0:
			advances++
		case t.Change < 0:
			declines++
		default:
			unchanged++
		}
	}
	return
}

func findCompanyName(doc *goquery.Document, symbol string) string {
	if title := doc.Find("title").First().Text(); title != "" {
		name := strings.TrimSpace(strings.SplitN(title, "|", 2)[0])
		if name != "" {
			return name
		}
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return symbol
}

func findPrice(doc *goquery.Document) (float64, bool) {
	for _, sel := range []string{".price", ".current-price", ".ltp", ".close-price"} {
		if v, ok := util.ParseDecimal(doc.Find(sel).First().Text()); ok {
			return v, true
		}
	}
	if v, ok := util.ParseDecimal(findLabelText(doc, "ltp", "last traded price", "close price")); ok {
		return v, true
	}
	return 0, false
}

// findLabelText scans label/value pairs (th/td rows and dt/dd lists)
// for the first label matching any of the given names.
func findLabelText(doc *goquery.Document, labels ...string) string {
	var out string
	doc.Find("tr, dl > div, li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := strings.ToLower(strings.TrimSpace(s.Find("th, dt, .label").First().Text()))
		if label == "" {
			return true
		}
		for _, want := range labels {
			if labelMatches(label, want) {
				out = strings.TrimSpace(s.Find("td, dd, .value").First().Text())
				return out == ""
			}
		}
		return true
	})
	return out
}

// labelMatches guards short names against their qualified variants, so
// "high" does not claim the "52 week high" row and "change" does not
// claim "% change".
func labelMatches(label, want string) bool {
	if !strings.Contains(label, want) {
		return false
	}
	if !strings.Contains(want, "52") && strings.Contains(label, "52") {
		return false
	}
	if !strings.Contains(want, "%") && strings.Contains(label, "%") {
		return false
	}
	return true
}

func findLabelDecimal(doc *goquery.Document, labels ...string) float64 {
	return util.ParseDecimalDefault(findLabelText(doc, labels...), 0)
}
