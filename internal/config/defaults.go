// ABOUTME: Centralized configuration defaults for readstate
// ABOUTME: Display formatting constants shared by the CLI

package config

// Display settings
const (
	FeedIDDisplayWidth = 30
	DateFormatShort    = "02 Jan 06 15:04 MST"
)
