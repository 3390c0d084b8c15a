// Package models provides domain models for the trading journal.
package models

import "fmt"

// Side represents the direction of a trade.
type Side string

const (
	SideLong  Side = "Long"
	SideShort Side = "Short"
)

// TimeFrame represents the chart time frame a trade was taken on.
type TimeFrame string

const (
	TimeFrameM1  TimeFrame = "1m"
	TimeFrameM5  TimeFrame = "5m"
	TimeFrameM15 TimeFrame = "15m"
	TimeFrameM30 TimeFrame = "30m"
	TimeFrameH1  TimeFrame = "1h"
	TimeFrameH4  TimeFrame = "4h"
	TimeFrameD1  TimeFrame = "1d"
	TimeFrameW1  TimeFrame = "1w"
)

// Confidence represents how confident the trader was in the setup.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// SetupQuality represents the trader's grading of the setup.
type SetupQuality string

const (
	SetupPoor      SetupQuality = "Poor"
	SetupGood      SetupQuality = "Good"
	SetupExcellent SetupQuality = "Excellent"
)

// MarketCondition represents the market regime at entry.
type MarketCondition string

const (
	MarketBearish MarketCondition = "Bearish"
	MarketNeutral MarketCondition = "Neutral"
	MarketBullish MarketCondition = "Bullish"
)

// Sides lists all sides in display order.
var Sides = []Side{SideLong, SideShort}

// TimeFrames lists all time frames in display order.
var TimeFrames = []TimeFrame{
	TimeFrameM1, TimeFrameM5, TimeFrameM15, TimeFrameM30,
	TimeFrameH1, TimeFrameH4, TimeFrameD1, TimeFrameW1,
}

// Confidences lists all confidence levels in display order.
var Confidences = []Confidence{ConfidenceLow, ConfidenceMedium, ConfidenceHigh}

// SetupQualities lists all setup grades in display order.
var SetupQualities = []SetupQuality{SetupPoor, SetupGood, SetupExcellent}

// MarketConditions lists all market conditions in display order.
var MarketConditions = []MarketCondition{MarketBearish, MarketNeutral, MarketBullish}

// ParseSide parses a side from its string value.
func ParseSide(s string) (Side, error) {
	for _, v := range Sides {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// ParseTimeFrame parses a time frame from its string value.
func ParseTimeFrame(s string) (TimeFrame, error) {
	for _, v := range TimeFrames {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown time frame %q", s)
}

// ParseConfidence parses a confidence level from its string value.
func ParseConfidence(s string) (Confidence, error) {
	for _, v := range Confidences {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown confidence %q", s)
}

// ParseSetupQuality parses a setup grade from its string value.
func ParseSetupQuality(s string) (SetupQuality, error) {
	for _, v := range SetupQualities {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown setup quality %q", s)
}

// ParseMarketCondition parses a market condition from its string value.
func ParseMarketCondition(s string) (MarketCondition, error) {
	for _, v := range MarketConditions {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown market condition %q", s)
}
