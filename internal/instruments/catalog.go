package instruments

import (
	"sort"
	"strings"

	"lv-tradecore/internal/types"

	"github.com/shopspring/decimal"
)

type Instrument struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Category     types.Category  `json:"category"`
	Digits       int32           `json:"digits"`
	ContractSize decimal.Decimal `json:"contractSize"`
	MinVolume    decimal.Decimal `json:"minVolume"`
	MaxVolume    decimal.Decimal `json:"maxVolume"`
	VolumeStep   decimal.Decimal `json:"volumeStep"`
	Popular      bool            `json:"popular"`
	SwapLong     decimal.Decimal `json:"swapLong"`
	SwapShort    decimal.Decimal `json:"swapShort"`
	VenueCode    string          `json:"-"`
	Business     types.Business  `json:"-"`
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	bySymbol map[string]Instrument
	byCode   map[string]string
	ordered  []string
}

type swapRate struct {
	long  decimal.Decimal
	short decimal.Decimal
}

// Per lot per night, in account currency.
var defaultSwapRates = map[types.Category]swapRate{
	types.CategoryForex:       {long: decimal.RequireFromString("-4.5"), short: decimal.RequireFromString("1.2")},
	types.CategoryMetals:      {long: decimal.RequireFromString("-12"), short: decimal.RequireFromString("4")},
	types.CategoryCommodities: {long: decimal.RequireFromString("-8"), short: decimal.RequireFromString("-3")},
	types.CategoryCrypto:      {long: decimal.RequireFromString("-15"), short: decimal.RequireFromString("-15")},
}

// Default builds the catalog of every instrument the venue carries.
func Default() *Catalog {
	return New(venueCodes)
}

// New builds a catalog from an internal symbol -> venue code table.
func New(codes map[string]string) *Catalog {
	c := &Catalog{
		bySymbol: make(map[string]Instrument, len(codes)),
		byCode:   make(map[string]string, len(codes)),
		ordered:  make([]string, 0, len(codes)),
	}
	for symbol, code := range codes {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		code = strings.ToUpper(strings.TrimSpace(code))
		if symbol == "" || code == "" {
			continue
		}
		business := businessForCode(code)
		category := categorize(symbol, business)
		rates := defaultSwapRates[category]
		c.bySymbol[symbol] = Instrument{
			Symbol:       symbol,
			Name:         displayName(symbol, category),
			Category:     category,
			Digits:       digitsFor(symbol, category),
			ContractSize: contractSizeFor(symbol, category),
			MinVolume:    decimal.RequireFromString("0.01"),
			MaxVolume:    decimal.NewFromInt(100),
			VolumeStep:   decimal.RequireFromString("0.01"),
			Popular:      popular[symbol],
			SwapLong:     rates.long,
			SwapShort:    rates.short,
			VenueCode:    code,
			Business:     business,
		}
		c.byCode[code] = symbol
		c.ordered = append(c.ordered, symbol)
	}
	sort.Strings(c.ordered)
	return c
}

func (c *Catalog) Get(symbol string) (Instrument, bool) {
	in, ok := c.bySymbol[symbol]
	return in, ok
}

func (c *Catalog) VenueCode(symbol string) (string, bool) {
	in, ok := c.bySymbol[symbol]
	if !ok {
		return "", false
	}
	return in.VenueCode, true
}

// Symbol translates a venue code back to the internal symbol.
func (c *Catalog) Symbol(code string) (string, bool) {
	s, ok := c.byCode[code]
	return s, ok
}

func (c *Catalog) All() []Instrument {
	out := make([]Instrument, 0, len(c.ordered))
	for _, s := range c.ordered {
		out = append(out, c.bySymbol[s])
	}
	return out
}

func (c *Catalog) ByBusiness(b types.Business) []Instrument {
	out := make([]Instrument, 0, len(c.ordered))
	for _, s := range c.ordered {
		if in := c.bySymbol[s]; in.Business == b {
			out = append(out, in)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.ordered)
}

func businessForCode(code string) types.Business {
	if strings.HasSuffix(code, "USDT") {
		return types.BusinessCrypto
	}
	return types.BusinessCommon
}

func categorize(symbol string, business types.Business) types.Category {
	switch {
	case strings.Contains(symbol, "XAU"), strings.Contains(symbol, "XAG"),
		strings.Contains(symbol, "XPT"), strings.Contains(symbol, "XPD"):
		return types.CategoryMetals
	case strings.Contains(symbol, "OIL"), symbol == "NGAS", symbol == "COPPER",
		symbol == "ALUMINUM", symbol == "NICKEL":
		return types.CategoryCommodities
	case business == types.BusinessCrypto:
		return types.CategoryCrypto
	default:
		return types.CategoryForex
	}
}

func digitsFor(symbol string, category types.Category) int32 {
	switch {
	case strings.Contains(symbol, "JPY"):
		return 3
	case symbol == "XAUUSD":
		return 2
	case symbol == "XAGUSD":
		return 3
	case category == types.CategoryCrypto:
		return 2
	default:
		return 5
	}
}

func contractSizeFor(symbol string, category types.Category) decimal.Decimal {
	switch {
	case category == types.CategoryCrypto:
		return decimal.NewFromInt(1)
	case symbol == "XAUUSD", symbol == "XAGUSD":
		return decimal.NewFromInt(100)
	default:
		return decimal.NewFromInt(100000)
	}
}

func displayName(symbol string, category types.Category) string {
	if name, ok := displayNames[symbol]; ok {
		return name
	}
	if category == types.CategoryForex && len(symbol) == 6 {
		return symbol[:3] + "/" + symbol[3:]
	}
	return symbol
}
