package tickdata

import (
	"log/slog"
	"strconv"
	"strings"
)

// Delimiter separates fields in a day file.
const Delimiter = ";"

// Column names expected in the header row of a day file.
const (
	ColStockCode   = "STK_CODE"
	ColBuyerCode   = "BUYER_CODE"
	ColSellerCode  = "SELLER_CODE"
	ColVolume      = "VOLUME"
	ColPrice       = "PRICE"
	ColTradeType   = "TRADE_TYPE"
	ColTradeNumber = "TRADE_NO"
	ColTradeTime   = "TRADE_TIME"
	ColBuyOrder    = "BUY_ORDER_NO"
	ColSellOrder   = "SELL_ORDER_NO"
)

// requiredColumns must all be present for a file to yield records.
// TRADE_TIME is optional; records without a time still aggregate, they just
// cannot join an intraday time group.
var requiredColumns = []string{
	ColStockCode,
	ColBuyerCode,
	ColSellerCode,
	ColVolume,
	ColPrice,
	ColTradeType,
	ColTradeNumber,
	ColBuyOrder,
	ColSellOrder,
}

// stockCodeLength is the exact length a stock code must have; rows with any
// other length are dropped as malformed.
const stockCodeLength = 4

// Parser turns one day's raw delimited text into transaction records.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseDay parses a full day file. Malformed files yield an empty record
// set rather than an error; individual malformed rows are silently dropped.
func (p *Parser) ParseDay(content []byte) []Record {
	lines := splitLines(string(content))
	if len(lines) < 2 {
		p.logger.Warn("day file has no data rows", slog.Int("line_count", len(lines)))
		return nil
	}

	columns := resolveColumns(lines[0])
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			p.logger.Warn("day file is missing a required column, treating as empty",
				slog.String("column", name))
			return nil
		}
	}

	var records []Record
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, Delimiter)

		stock := fieldAt(fields, columns, ColStockCode)
		if len(stock) != stockCodeLength {
			continue
		}

		records = append(records, Record{
			StockCode:       stock,
			BuyerCode:       fieldAt(fields, columns, ColBuyerCode),
			SellerCode:      fieldAt(fields, columns, ColSellerCode),
			Volume:          parseInt(fieldAt(fields, columns, ColVolume)),
			Price:           parseFloat(fieldAt(fields, columns, ColPrice)),
			TradeType:       TradeType(fieldAt(fields, columns, ColTradeType)),
			TradeNumber:     fieldAt(fields, columns, ColTradeNumber),
			TradeTime:       fieldAt(fields, columns, ColTradeTime),
			BuyOrderNumber:  fieldAt(fields, columns, ColBuyOrder),
			SellOrderNumber: fieldAt(fields, columns, ColSellOrder),
		})
	}

	p.logger.Debug("parsed day file",
		slog.Int("line_count", len(lines)-1),
		slog.Int("record_count", len(records)))
	return records
}

// resolveColumns maps header names to field indices.
func resolveColumns(header string) map[string]int {
	columns := make(map[string]int)
	for i, name := range strings.Split(header, Delimiter) {
		columns[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	return columns
}

func fieldAt(fields []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

func parseInt(raw string) int64 {
	v, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(strings.TrimRight(content, "\n"), "\n")
}
