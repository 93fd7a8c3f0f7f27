package analysis

import (
	"strings"

	"github.com/RustColeone/TradingAgents-web-managed/internal/models"
)

// Normalize maps free-form decision text to Buy/Hold/Sell. Any mention of
// "buy" wins over "sell"; everything else is Hold.
func Normalize(s string) models.Suggestion {
	v := strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(v, "buy") {
		return models.SuggestionBuy
	}
	if strings.Contains(v, "sell") {
		return models.SuggestionSell
	}
	return models.SuggestionHold
}

// ScanForDecision extracts a decision cue from a transcript chunk. Chunks
// that read like a conclusion ("final", "proposal", "decision") are
// matched first; otherwise any clear buy/sell/hold mention counts. The
// second return is false when the text carries no decision at all.
func ScanForDecision(text string) (models.Suggestion, bool) {
	txt := strings.ToLower(text)
	if txt == "" {
		return "", false
	}

	if strings.Contains(txt, "final") || strings.Contains(txt, "proposal") || strings.Contains(txt, "decision") {
		if s, ok := matchDecisionWord(txt); ok {
			return s, true
		}
	}
	return matchDecisionWord(txt)
}

// ScanReportForTicker scans an accumulated report for the last decision
// recorded on a line mentioning ticker. Only lines that look like a
// conclusion (containing "final", "proposal", "decision", or a colon) are
// considered; the last match wins.
func ScanReportForTicker(report, ticker string) (models.Suggestion, bool) {
	if report == "" {
		return "", false
	}

	upper := strings.ToUpper(ticker)
	var (
		decision models.Suggestion
		found    bool
	)
	for _, line := range strings.Split(report, "\n") {
		if !strings.Contains(strings.ToUpper(line), upper) {
			continue
		}
		low := strings.ToLower(line)
		if !strings.Contains(low, "final") && !strings.Contains(low, "proposal") &&
			!strings.Contains(low, "decision") && !strings.Contains(low, ":") {
			continue
		}
		if s, ok := matchDecisionWord(low); ok {
			decision = s
			found = true
		}
	}
	return decision, found
}

func matchDecisionWord(lower string) (models.Suggestion, bool) {
	switch {
	case strings.Contains(lower, "buy"):
		return models.SuggestionBuy, true
	case strings.Contains(lower, "sell"):
		return models.SuggestionSell, true
	case strings.Contains(lower, "hold"):
		return models.SuggestionHold, true
	}
	return "", false
}
