package chat

import (
	"strings"

	"movie-gpt-api/internal/config"
)

// Pricing 每百万 token 的单价（美元）及换算到展示币种的倍率
type Pricing struct {
	InputPerMillion    float64
	OutputPerMillion   float64
	CurrencyMultiplier float64
	Currency           string
}

// DefaultPricing gpt-4o-mini 单价，按 1 USD = 17000 IDR 换算
var DefaultPricing = Pricing{
	InputPerMillion:    0.15,
	OutputPerMillion:   0.60,
	CurrencyMultiplier: 17000,
	Currency:           "IDR",
}

// PricingFromConfig 从配置读取费率
func PricingFromConfig(c config.PricingConfig) Pricing {
	return Pricing{
		InputPerMillion:    c.InputPerMillion,
		OutputPerMillion:   c.OutputPerMillion,
		CurrencyMultiplier: c.CurrencyMultiplier,
		Currency:           c.Currency,
	}
}

// Usage 近似用量。token 数按空白分词计数，不是真实 tokenizer 结果。
type Usage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	Currency     string  `json:"currency"`
}

// UsageEstimator 纯函数式用量估算
type UsageEstimator struct {
	pricing Pricing
}

func NewUsageEstimator(p Pricing) UsageEstimator {
	return UsageEstimator{pricing: p}
}

// Estimate cost = multiplier * (rate_in*in/1e6 + rate_out*out/1e6)
func (e UsageEstimator) Estimate(promptText, responseText string) Usage {
	in := CountTokens(promptText)
	out := CountTokens(responseText)
	p := e.pricing
	cost := p.CurrencyMultiplier * (p.InputPerMillion*float64(in)/1e6 + p.OutputPerMillion*float64(out)/1e6)
	return Usage{
		InputTokens:  in,
		OutputTokens: out,
		Cost:         cost,
		Currency:     p.Currency,
	}
}

// CountTokens 空白分词计数
func CountTokens(s string) int {
	return len(strings.Fields(s))
}
