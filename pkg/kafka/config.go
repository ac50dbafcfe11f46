package kafka

import (
	"crypto/tls"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Config holds broker addresses and connection security.
type Config struct {
	Brokers       []string
	ConsumerGroup string

	TLS bool

	SASLEnabled bool
	// SASLMechanism is PLAIN (the default), SCRAM-SHA-256 or SCRAM-SHA-512.
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

// Validate reports configuration the client could not connect with.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka: at least one broker is required")
	}
	if !c.SASLEnabled {
		return nil
	}
	_, err := c.mechanism()
	return err
}

func (c Config) mechanism() (sasl.Mechanism, error) {
	switch c.SASLMechanism {
	case "", "PLAIN":
		return plain.Mechanism{Username: c.SASLUsername, Password: c.SASLPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, c.SASLUsername, c.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, c.SASLUsername, c.SASLPassword)
	default:
		return nil, fmt.Errorf("kafka: unsupported SASL mechanism %q", c.SASLMechanism)
	}
}

// security returns the TLS and SASL settings shared by readers and writers.
// A nil mechanism means no SASL; invalid settings were rejected by Validate.
func (c Config) security() (*tls.Config, sasl.Mechanism) {
	var tlsCfg *tls.Config
	if c.TLS {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	var mech sasl.Mechanism
	if c.SASLEnabled {
		mech, _ = c.mechanism()
	}
	return tlsCfg, mech
}

// transport returns nil when the kafka-go default transport suffices.
func (c Config) transport() *kafkago.Transport {
	tlsCfg, mech := c.security()
	if tlsCfg == nil && mech == nil {
		return nil
	}
	return &kafkago.Transport{TLS: tlsCfg, SASL: mech}
}

// dialer returns nil when the kafka-go default dialer suffices.
func (c Config) dialer() *kafkago.Dialer {
	tlsCfg, mech := c.security()
	if tlsCfg == nil && mech == nil {
		return nil
	}
	return &kafkago.Dialer{DualStack: true, TLS: tlsCfg, SASLMechanism: mech}
}
