// Package rabbitmq connects to AMQP brokers: the Orian queues consumed for
// warehouse events and the exchange supplier notifications are published to.
package rabbitmq

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	amqp "github.com/streadway/amqp"
)

const dialTimeout = 15 * time.Second

// Dial connects to url. amqps URLs use TLS; skipVerify disables certificate
// verification for brokers with self-signed certificates.
func Dial(rawURL string, skipVerify bool) (*amqp.Connection, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse amqp url: %w", err)
	}
	cfg := amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	}
	if u.Scheme == "amqps" {
		cfg.TLSClientConfig = &tls.Config{
			ServerName:         u.Hostname(),
			InsecureSkipVerify: skipVerify, //nolint:gosec // opt-in for the provider broker
			MinVersion:         tls.VersionTLS12,
		}
	}
	conn, err := amqp.DialConfig(rawURL, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ at %s: %w", u.Host, err)
	}
	return conn, nil
}
