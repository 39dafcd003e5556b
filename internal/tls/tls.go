// Package tls loads the optional certificate pair used to serve HTTPS.
package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
)

// ErrIncompletePair is returned when only one of the certificate and key files is set.
var ErrIncompletePair = errors.New("both TLS certificate and key files must be set")

// Load returns a tls.Config for the given certificate pair, or nil when
// neither file is configured, in which case the server speaks plain HTTP.
func Load(certFile, keyFile string) (*tls.Config, error) {
	if certFile == "" && keyFile == "" {
		return nil, nil
	}
	if certFile == "" || keyFile == "" {
		return nil, ErrIncompletePair
	}

	// Validate that files exist before attempting to load
	if _, err := os.Stat(certFile); err != nil {
		return nil, fmt.Errorf("certificate file not found: %w", err)
	}
	if _, err := os.Stat(keyFile); err != nil {
		return nil, fmt.Errorf("key file not found: %w", err)
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
