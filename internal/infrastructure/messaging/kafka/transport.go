package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// SecurityConfig is shared by the producer and the consumer.
type SecurityConfig struct {
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	TLSEnabled    bool
	TLSCAPath     string
}

func saslMechanism(cfg SecurityConfig) (sasl.Mechanism, error) {
	switch cfg.SASLMechanism {
	case "":
		return nil, nil
	case "PLAIN":
		return plain.Mechanism{Username: cfg.SASLUsername, Password: cfg.SASLPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.SASLUsername, cfg.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.SASLUsername, cfg.SASLPassword)
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unsupported SASL mechanism %q", cfg.SASLMechanism)
	}
}

// tlsConfig trusts the CA at TLSCAPath, or the system pool when unset.
func tlsConfig(cfg SecurityConfig) (*tls.Config, error) {
	if !cfg.TLSEnabled {
		return nil, nil
	}
	tc := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.TLSCAPath == "" {
		return tc, nil
	}
	pem, err := os.ReadFile(cfg.TLSCAPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "read kafka CA certificate")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New(errors.ErrCodeValidation, "kafka CA file contains no certificates")
	}
	tc.RootCAs = pool
	return tc, nil
}

//Personal.AI order the ending
