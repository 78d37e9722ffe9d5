// Package pickandpack integrates the Pick&Pack warehouse: inbound and
// outbound submissions and decoding of its webhook messages.
package pickandpack

import (
	"errors"
	"fmt"
	"time"

	"github.com/giftcampaign/backend/internal/infrastructure/config"
)

// Errors for Pick&Pack configuration
var (
	ErrConfigMissingInboundURL  = errors.New("pickandpack: inbound url is required")
	ErrConfigMissingOutboundURL = errors.New("pickandpack: outbound url is required")
)

// Config holds the settings of the Pick&Pack adapter and decoder
type Config struct {
	InboundURL  string
	OutboundURL string
	// Token is sent as a bearer token when set
	Token     string
	Consignee string
	IDPrefix  string
	// Location is the timezone of dates without an offset
	Location *time.Location
	Timeout  time.Duration
	// Verbose logs every payload sent
	Verbose bool
}

// NewConfig builds the adapter configuration from application settings
func NewConfig(c config.PickAndPackConfig, timeout time.Duration) (*Config, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("pickandpack: invalid timezone %q: %w", c.Timezone, err)
	}
	return &Config{
		InboundURL:  c.InboundURL,
		OutboundURL: c.OutboundURL,
		Token:       c.Token,
		Consignee:   c.Consignee,
		IDPrefix:    c.IDPrefix,
		Location:    loc,
		Timeout:     timeout,
		Verbose:     c.Verbose,
	}, nil
}

// Validate checks the settings needed for outbound calls
func (c *Config) Validate() error {
	if c.InboundURL == "" {
		return ErrConfigMissingInboundURL
	}
	if c.OutboundURL == "" {
		return ErrConfigMissingOutboundURL
	}
	return nil
}

func (c *Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
