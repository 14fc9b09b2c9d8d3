package summary

import (
	"log/slog"
	"sort"

	"brokersum/internal/tickdata"
)

// Pivot selects the grouping dimension for an output file.
type Pivot string

const (
	// PivotBroker produces one row set per broker, rows keyed by stock.
	PivotBroker Pivot = "broker"
	// PivotStock produces one row set per stock, rows keyed by broker.
	PivotStock Pivot = "stock"
)

// Pivots returns both pivot directions in output order.
func Pivots() []Pivot {
	return []Pivot{PivotBroker, PivotStock}
}

// DefaultMarketOpenCutoff is the reference time separating opening-session
// order flow from continuous trading for order counting.
const DefaultMarketOpenCutoff = "08:58:00"

// Engine aggregates transaction records into position summaries.
type Engine struct {
	logger *slog.Logger
	cutoff string
}

// NewEngine creates an aggregation engine. An empty cutoff selects
// DefaultMarketOpenCutoff; a nil logger falls back to slog.Default.
func NewEngine(logger *slog.Logger, cutoff string) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cutoff == "" {
		cutoff = DefaultMarketOpenCutoff
	}
	return &Engine{logger: logger, cutoff: cutoff}
}

// Aggregate groups records, already filtered to a single trade type, by the
// pivot dimension and returns one row set per pivot entity. Rows within a
// row set are sorted by NetBuyValue descending.
func (e *Engine) Aggregate(records []tickdata.Record, pivot Pivot) map[string][]Position {
	groups := make(map[string]map[string][]tickdata.Record)
	add := func(primary, secondary string, r tickdata.Record) {
		bySecondary, ok := groups[primary]
		if !ok {
			bySecondary = make(map[string][]tickdata.Record)
			groups[primary] = bySecondary
		}
		bySecondary[secondary] = append(bySecondary[secondary], r)
	}

	for _, r := range records {
		switch pivot {
		case PivotBroker:
			add(r.BuyerCode, r.StockCode, r)
			if r.SellerCode != r.BuyerCode {
				add(r.SellerCode, r.StockCode, r)
			}
		default:
			add(r.StockCode, r.BuyerCode, r)
			if r.SellerCode != r.BuyerCode {
				add(r.StockCode, r.SellerCode, r)
			}
		}
	}

	out := make(map[string][]Position, len(groups))
	for primary, bySecondary := range groups {
		rows := make([]Position, 0, len(bySecondary))
		for secondary, recs := range bySecondary {
			broker, stock := primary, secondary
			if pivot == PivotStock {
				broker, stock = secondary, primary
			}
			rows = append(rows, e.buildPosition(broker, stock, recs))
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].NetBuyValue != rows[j].NetBuyValue {
				return rows[i].NetBuyValue > rows[j].NetBuyValue
			}
			if pivot == PivotStock {
				return rows[i].Broker < rows[j].Broker
			}
			return rows[i].Stock < rows[j].Stock
		})
		out[primary] = rows
	}

	e.logger.Debug("aggregated records",
		slog.String("pivot", string(pivot)),
		slog.Int("record_count", len(records)),
		slog.Int("entity_count", len(out)))
	return out
}

func (e *Engine) buildPosition(broker, stock string, recs []tickdata.Record) Position {
	var buySide, sellSide []tickdata.Record
	for _, r := range recs {
		if r.BuyerCode == broker {
			buySide = append(buySide, r)
		}
		if r.SellerCode == broker {
			sellSide = append(sellSide, r)
		}
	}

	p := Position{Broker: broker, Stock: stock}

	for _, r := range buySide {
		p.BuyerVol += r.Volume
		p.BuyerValue += r.Value()
	}
	for _, r := range sellSide {
		p.SellerVol += r.Volume
		p.SellerValue += r.Value()
	}
	p.BuyerAvgPrice = avgPrice(p.BuyerValue, p.BuyerVol)
	p.SellerAvgPrice = avgPrice(p.SellerValue, p.SellerVol)

	p.BuyerFreq = distinctTrades(buySide)
	p.SellerFreq = distinctTrades(sellSide)

	p.BuyerOrderCount = e.countOrders(buySide, broker, stock, buyOrderOf)
	p.SellerOrderCount = e.countOrders(sellSide, broker, stock, sellOrderOf)

	rawNetVol := p.BuyerVol - p.SellerVol
	rawNetValue := p.BuyerValue - p.SellerValue
	if rawNetVol >= 0 {
		p.NetBuyVol = rawNetVol
		p.NetBuyValue = rawNetValue
	} else {
		p.NetSellVol = -rawNetVol
		p.NetSellValue = -rawNetValue
	}
	p.NetBuyAvgPrice = avgPrice(p.NetBuyValue, p.NetBuyVol)
	p.NetSellAvgPrice = avgPrice(p.NetSellValue, p.NetSellVol)

	// Frequency and order-count nets are plain signed differences; they are
	// not sign-split and may be negative even when net volume is zero.
	p.NetBuyFreq = p.BuyerFreq - p.SellerFreq
	p.NetSellFreq = p.SellerFreq - p.BuyerFreq
	p.NetBuyOrderCount = p.BuyerOrderCount - p.SellerOrderCount
	p.NetSellOrderCount = p.SellerOrderCount - p.BuyerOrderCount

	return p
}

// countOrders counts distinct orders on one side of a position. At or after
// the cutoff, transactions are grouped by exact (broker, stock, HH:MM:SS)
// timestamp and only the first transaction's order number per group is
// taken; brokers report order times at second granularity, so orders
// sharing a reported timestamp collapse into one. Before-cutoff order
// numbers count distinctly. The result is the size of the union.
func (e *Engine) countOrders(side []tickdata.Record, broker, stock string, orderOf func(tickdata.Record) string) int64 {
	taken := make(map[string]struct{})
	seenGroups := make(map[string]struct{})
	before := make(map[string]struct{})

	for _, r := range side {
		ts := normalizeTime(r.TradeTime)
		if ts != "" && ts >= e.cutoff {
			groupKey := broker + "|" + stock + "|" + ts
			if _, ok := seenGroups[groupKey]; !ok {
				seenGroups[groupKey] = struct{}{}
				taken[orderOf(r)] = struct{}{}
			}
		} else {
			before[orderOf(r)] = struct{}{}
		}
	}

	count := int64(len(taken))
	for order := range before {
		if _, ok := taken[order]; !ok {
			count++
		}
	}
	return count
}

func distinctTrades(side []tickdata.Record) int64 {
	seen := make(map[string]struct{}, len(side))
	for _, r := range side {
		seen[r.TradeNumber] = struct{}{}
	}
	return int64(len(seen))
}

func avgPrice(value float64, volume int64) float64 {
	if volume <= 0 {
		return 0
	}
	return value / float64(volume)
}

func buyOrderOf(r tickdata.Record) string  { return r.BuyOrderNumber }
func sellOrderOf(r tickdata.Record) string { return r.SellOrderNumber }

// normalizeTime pads single-digit hours so timestamps compare lexically.
func normalizeTime(raw string) string {
	if len(raw) == 7 && raw[1] == ':' {
		return "0" + raw
	}
	return raw
}
