// Package orian integrates the Orian warehouse: master-data and shipment
// calls over its REST API, and decoding of the messages it publishes.
package orian

import (
	"errors"
	"fmt"
	"time"

	"github.com/giftcampaign/backend/internal/infrastructure/config"
)

// Errors for Orian configuration
var (
	ErrConfigMissingBaseURL = errors.New("orian: base url is required")
	ErrConfigMissingToken   = errors.New("orian: api token is required")
)

// DummyCustomer is the customer company every outbound is addressed to.
// The real delivery address travels with each outbound.
type DummyCustomer struct {
	ID           int64
	Name         string
	Street       string
	StreetNumber string
	City         string
	Phone        string
}

// Config holds the settings of the Orian adapter and decoder
type Config struct {
	BaseURL   string
	Token     string
	Consignee string
	// IDPrefix is inserted after NKS in every identifier sent to Orian
	IDPrefix string
	// Location is the timezone of dates in payloads and messages
	Location      *time.Location
	Timeout       time.Duration
	DummyCustomer DummyCustomer
}

// NewConfig builds the adapter configuration from application settings
func NewConfig(c config.OrianConfig, timeout time.Duration) (*Config, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("orian: invalid timezone %q: %w", c.Timezone, err)
	}
	return &Config{
		BaseURL:   c.BaseURL,
		Token:     c.Token,
		Consignee: c.Consignee,
		IDPrefix:  c.IDPrefix,
		Location:  loc,
		Timeout:   timeout,
		DummyCustomer: DummyCustomer{
			ID:           c.DummyCustomerID,
			Name:         c.DummyCustomerName,
			Street:       c.DummyCustomerStreet,
			StreetNumber: c.DummyCustomerStreetNumber,
			City:         c.DummyCustomerCity,
			Phone:        c.DummyCustomerPhone,
		},
	}, nil
}

// Validate checks the settings needed for outbound calls
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Token == "" {
		return ErrConfigMissingToken
	}
	return nil
}

func (c *Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
