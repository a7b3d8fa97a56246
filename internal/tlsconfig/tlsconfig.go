// Package tlsconfig loads the client-side TLS settings shared by the HTTP and
// gRPC builders.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// ErrIncompleteKeyPair is returned when only one of CertFile and KeyFile is set.
var ErrIncompleteKeyPair = errors.New("tlsconfig: client certificate and key must be provided together")

// Files names the PEM files and overrides for a client TLS configuration.
// Every field is optional; the zero value yields system roots and TLS 1.2+.
type Files struct {
	CAFile     string
	CertFile   string
	KeyFile    string
	ServerName string

	// InsecureSkipVerify disables server certificate checks. Test use only.
	InsecureSkipVerify bool
}

// Enabled reports whether any setting differs from the zero value.
func (f Files) Enabled() bool {
	return f != Files{}
}

// Load builds a *tls.Config from f.
func Load(f Files) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         f.ServerName,
		InsecureSkipVerify: f.InsecureSkipVerify, // #nosec G402
	}

	if f.CAFile != "" {
		pool, err := loadCertPool(f.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}

	switch {
	case f.CertFile != "" && f.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(f.CertFile, f.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("tlsconfig: load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	case f.CertFile != "" || f.KeyFile != "":
		return nil, ErrIncompleteKeyPair
	}

	return cfg, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tlsconfig: read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("tlsconfig: no certificates found in %s", path)
	}
	return pool, nil
}
