package journal

import (
	"strings"

	"trade-journal/internal/analytics"
	"trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// ParseQuery builds an analytics query from raw parameters. Empty values do
// not filter.
func ParseQuery(timeframe, strategy, period string) (analytics.Query, error) {
	var q analytics.Query

	if tf := strings.TrimSpace(timeframe); tf != "" {
		parsed, err := models.ParseTimeFrame(tf)
		if err != nil {
			return q, errors.NewValidationError("timeframe", tf, err.Error())
		}
		q.TimeFrame = parsed
	}

	q.Strategy = strings.TrimSpace(strategy)

	p, err := analytics.ParsePeriod(period)
	if err != nil {
		return q, errors.NewValidationError("period", period, err.Error())
	}
	q.Period = p
	return q, nil
}

// ParseDateFilter parses a date filter, reporting failures as validation errors.
func ParseDateFilter(s string) (analytics.DateFilter, error) {
	f, err := analytics.ParseDateFilter(s)
	if err != nil {
		return "", errors.NewValidationError("filter", s, err.Error())
	}
	return f, nil
}

// ParseGroupKey resolves a grouping dimension name.
func ParseGroupKey(name string) (analytics.KeyFunc, error) {
	if name == "" {
		name = "strategy"
	}
	key, ok := analytics.KeyFuncByName(strings.ToLower(name))
	if !ok {
		return nil, errors.NewValidationError("by", name,
			"unknown grouping, expected one of "+strings.Join(analytics.KeyNames(), ", "))
	}
	return key, nil
}
