package price

import (
	"strings"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/shopspring/decimal"
)

const (
	BandFree   = "free"
	BandLow    = "low"
	BandMedium = "medium"
	BandHigh   = "high"
)

var million = decimal.NewFromInt(1_000_000)

// PerMillion converts an OpenRouter per-token price string ("0.000003") to
// USD per million tokens. Empty, invalid and negative (dynamic) prices are 0.
func PerMillion(perToken string) float64 {
	perToken = strings.TrimSpace(perToken)
	if perToken == "" {
		return 0
	}
	d, err := decimal.NewFromString(perToken)
	if err != nil || d.IsNegative() {
		return 0
	}
	return d.Mul(million).Round(6).InexactFloat64()
}

// CostBand buckets a model by the mean of its input and output prices per
// million tokens.
func CostBand(inPerMillion, outPerMillion float64) string {
	in := decimal.NewFromFloat(inPerMillion)
	out := decimal.NewFromFloat(outPerMillion)
	if in.IsZero() && out.IsZero() {
		return BandFree
	}
	avg := in.Add(out).Div(decimal.NewFromInt(2))
	switch {
	case avg.LessThan(decimal.NewFromInt(1)):
		return BandLow
	case avg.LessThan(decimal.NewFromInt(10)):
		return BandMedium
	default:
		return BandHigh
	}
}

// Cost is the USD cost of one exchange with m.
func Cost(m model.ModelDescriptor, promptTokens, completionTokens int) float64 {
	in := decimal.NewFromFloat(m.InputPricePerMillion).Mul(decimal.NewFromInt(int64(promptTokens)))
	out := decimal.NewFromFloat(m.OutputPricePerMillion).Mul(decimal.NewFromInt(int64(completionTokens)))
	return in.Add(out).Div(million).Round(8).InexactFloat64()
}
