package collector

import (
	"strings"
	"time"

	"github.com/agentpulse/agentpulse/pkg/models"
)

// modelRate is a price per million tokens, split by direction.
type modelRate struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// priceTable maps exact model identifiers to rates. Unknown identifiers
// fall back to substring tier matching, then to defaultRate.
var priceTable = map[string]modelRate{
	"claude-opus-4":     {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-sonnet-4":   {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-3-5-haiku":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	"gpt-4o":            {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini":       {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gemini-1.5-pro":    {InputPerMTok: 1.25, OutputPerMTok: 5.00},
	"gemini-1.5-flash":  {InputPerMTok: 0.075, OutputPerMTok: 0.30},
	"deepseek-chat":     {InputPerMTok: 0.27, OutputPerMTok: 1.10},
	"deepseek-reasoner": {InputPerMTok: 0.55, OutputPerMTok: 2.19},
}

// priceTiers match unrecognized model names by substring, checked in order.
var priceTiers = []struct {
	Substring string
	Rate      modelRate
}{
	{"opus", modelRate{InputPerMTok: 15.00, OutputPerMTok: 75.00}},
	{"sonnet", modelRate{InputPerMTok: 3.00, OutputPerMTok: 15.00}},
	{"haiku", modelRate{InputPerMTok: 0.80, OutputPerMTok: 4.00}},
	{"mini", modelRate{InputPerMTok: 0.15, OutputPerMTok: 0.60}},
	{"flash", modelRate{InputPerMTok: 0.075, OutputPerMTok: 0.30}},
}

var defaultRate = modelRate{InputPerMTok: 3.00, OutputPerMTok: 15.00}

// rateFor resolves a model name to a rate: exact match first, then
// substring tiers, then the default.
func rateFor(model string) modelRate {
	if rate, ok := priceTable[model]; ok {
		return rate
	}
	lower := strings.ToLower(model)
	for _, tier := range priceTiers {
		if strings.Contains(lower, tier.Substring) {
			return tier.Rate
		}
	}
	return defaultRate
}

// estimateCosts prices today's token usage. "Today" starts at local
// midnight. The billing model is chosen by majority vote across today's
// sessions, and the monthly figure is a crude projection of today's spend
// times the day of the month.
func estimateCosts(records []sessionRecord, now time.Time) (models.CostEstimate, *models.TokenCounts, map[string]int64) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var tokens models.TokenCounts
	modelVotes := make(map[string]int)
	modelUsage := make(map[string]int64)

	for _, rec := range records {
		if rec.LastActive.Before(midnight) {
			continue
		}
		tokens.Input += rec.InputTokens
		tokens.Output += rec.OutputTokens
		if rec.Model != "" {
			modelVotes[rec.Model]++
			modelUsage[rec.Model] += rec.InputTokens + rec.OutputTokens
		}
	}

	if tokens.Input == 0 && tokens.Output == 0 {
		return models.CostEstimate{}, nil, nil
	}

	var winner string
	var best int
	for model, votes := range modelVotes {
		if votes > best || (votes == best && model < winner) {
			winner = model
			best = votes
		}
	}

	rate := rateFor(winner)
	today := float64(tokens.Input)/1e6*rate.InputPerMTok +
		float64(tokens.Output)/1e6*rate.OutputPerMTok

	costs := models.CostEstimate{
		Today: today,
		Month: today * float64(now.Day()),
	}
	if len(modelUsage) == 0 {
		modelUsage = nil
	}
	return costs, &tokens, modelUsage
}
