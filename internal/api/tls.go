package api

import (
	"crypto/tls"
	"fmt"
)

// TLSConfig holds certificate paths from orbfi.yaml or ORBFI_TLS_*.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// NewTLSConfig returns nil unless both paths are set.
func NewTLSConfig(certFile, keyFile string) *TLSConfig {
	if certFile == "" || keyFile == "" {
		return nil
	}
	return &TLSConfig{CertFile: certFile, KeyFile: keyFile}
}

// Enabled reports whether TLS is configured. Safe on a nil receiver.
func (c *TLSConfig) Enabled() bool {
	return c != nil && c.CertFile != "" && c.KeyFile != ""
}

// Load reads the key pair into a tls.Config.
func (c *TLSConfig) Load() (*tls.Config, error) {
	if !c.Enabled() {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load TLS certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
