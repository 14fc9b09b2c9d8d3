package tickdata

// TradeType classifies the market session a transaction settled in.
type TradeType string

const (
	// TradeTypeRegular is the continuous-auction regular market.
	TradeTypeRegular TradeType = "RG"
	// TradeTypeCash is the cash market.
	TradeTypeCash TradeType = "TN"
	// TradeTypeNegotiated is the negotiated (off-exchange) market.
	TradeTypeNegotiated TradeType = "NG"
)

// TradeTypes returns the trade types in their fixed processing order.
func TradeTypes() []TradeType {
	return []TradeType{TradeTypeRegular, TradeTypeCash, TradeTypeNegotiated}
}

// Record is one trade line from a daily transaction export.
type Record struct {
	StockCode       string
	BuyerCode       string
	SellerCode      string
	Volume          int64
	Price           float64
	TradeType       TradeType
	TradeNumber     string
	TradeTime       string // HH:MM:SS, may be empty
	BuyOrderNumber  string
	SellOrderNumber string
}

// Value returns the traded value of the record.
func (r Record) Value() float64 {
	return float64(r.Volume) * r.Price
}

// FilterByType returns the records matching the given trade type.
func FilterByType(records []Record, t TradeType) []Record {
	var out []Record
	for _, r := range records {
		if r.TradeType == t {
			out = append(out, r)
		}
	}
	return out
}

// UniqueStocks returns the distinct stock codes present in records.
func UniqueStocks(records []Record) []string {
	seen := make(map[string]struct{}, len(records))
	var stocks []string
	for _, r := range records {
		if _, ok := seen[r.StockCode]; !ok {
			seen[r.StockCode] = struct{}{}
			stocks = append(stocks, r.StockCode)
		}
	}
	return stocks
}
