package summary

import "strconv"

// Position is one aggregated output row for a (broker, stock) pair within
// a single trade type and business day. Rows are immutable once computed.
type Position struct {
	Broker string
	Stock  string

	BuyerVol        int64
	BuyerValue      float64
	BuyerAvgPrice   float64
	BuyerFreq       int64
	BuyerOrderCount int64

	SellerVol        int64
	SellerValue      float64
	SellerAvgPrice   float64
	SellerFreq       int64
	SellerOrderCount int64

	NetBuyVol        int64
	NetBuyValue      float64
	NetBuyAvgPrice   float64
	NetBuyFreq       int64
	NetBuyOrderCount int64

	NetSellVol        int64
	NetSellValue      float64
	NetSellAvgPrice   float64
	NetSellFreq       int64
	NetSellOrderCount int64
}

// columns is the explicit output schema shared with the exporter. Field
// order here defines the column order of every artifact.
var columns = []string{
	"Broker",
	"Stock",
	"BuyerVol",
	"BuyerValue",
	"BuyerAvgPrice",
	"BuyerFreq",
	"BuyerOrderCount",
	"SellerVol",
	"SellerValue",
	"SellerAvgPrice",
	"SellerFreq",
	"SellerOrderCount",
	"NetBuyVol",
	"NetBuyValue",
	"NetBuyAvgPrice",
	"NetBuyFreq",
	"NetBuyOrderCount",
	"NetSellVol",
	"NetSellValue",
	"NetSellAvgPrice",
	"NetSellFreq",
	"NetSellOrderCount",
}

// Columns returns the output column names in schema order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Row renders the position's field values in schema order.
func (p Position) Row() []string {
	return []string{
		p.Broker,
		p.Stock,
		formatInt(p.BuyerVol),
		formatFloat(p.BuyerValue),
		formatFloat(p.BuyerAvgPrice),
		formatInt(p.BuyerFreq),
		formatInt(p.BuyerOrderCount),
		formatInt(p.SellerVol),
		formatFloat(p.SellerValue),
		formatFloat(p.SellerAvgPrice),
		formatInt(p.SellerFreq),
		formatInt(p.SellerOrderCount),
		formatInt(p.NetBuyVol),
		formatFloat(p.NetBuyValue),
		formatFloat(p.NetBuyAvgPrice),
		formatInt(p.NetBuyFreq),
		formatInt(p.NetBuyOrderCount),
		formatInt(p.NetSellVol),
		formatFloat(p.NetSellValue),
		formatFloat(p.NetSellAvgPrice),
		formatInt(p.NetSellFreq),
		formatInt(p.NetSellOrderCount),
	}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
