package tlsconfig

import (
	"crypto/tls"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AmmannChristian/ccflow/testutil"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	caFile := filepath.Join(dir, "ca.pem")
	certFile := filepath.Join(dir, "client.pem")
	keyFile := filepath.Join(dir, "client.key")
	garbage := filepath.Join(dir, "garbage.pem")

	testutil.WriteTestCACert(t, caFile)
	testutil.WriteTestCertAndKey(t, certFile, keyFile)
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write garbage file: %v", err)
	}

	tests := []struct {
		name    string
		files   Files
		wantErr string
		check   func(t *testing.T, cfg *tls.Config)
	}{
		{
			name:  "zero value uses system roots",
			files: Files{},
			check: func(t *testing.T, cfg *tls.Config) {
				if cfg.RootCAs != nil || len(cfg.Certificates) != 0 || cfg.InsecureSkipVerify {
					t.Errorf("unexpected settings: %+v", cfg)
				}
			},
		},
		{
			name:  "custom CA and server name",
			files: Files{CAFile: caFile, ServerName: "api.internal"},
			check: func(t *testing.T, cfg *tls.Config) {
				if cfg.RootCAs == nil {
					t.Error("RootCAs should be set")
				}
				if cfg.ServerName != "api.internal" {
					t.Errorf("expected server name override, got %q", cfg.ServerName)
				}
			},
		},
		{
			name:  "mutual TLS",
			files: Files{CertFile: certFile, KeyFile: keyFile},
			check: func(t *testing.T, cfg *tls.Config) {
				if len(cfg.Certificates) != 1 {
					t.Errorf("expected one client certificate, got %d", len(cfg.Certificates))
				}
			},
		},
		{
			name:  "skip verify",
			files: Files{InsecureSkipVerify: true},
			check: func(t *testing.T, cfg *tls.Config) {
				if !cfg.InsecureSkipVerify {
					t.Error("InsecureSkipVerify should be set")
				}
			},
		},
		{name: "missing CA file", files: Files{CAFile: filepath.Join(dir, "missing.pem")}, wantErr: "read CA file"},
		{name: "CA without certificates", files: Files{CAFile: garbage}, wantErr: "no certificates found"},
		{name: "cert without key", files: Files{CertFile: certFile}, wantErr: "provided together"},
		{name: "key without cert", files: Files{KeyFile: keyFile}, wantErr: "provided together"},
		{name: "unreadable key pair", files: Files{CertFile: garbage, KeyFile: garbage}, wantErr: "load client certificate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.files)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.MinVersion != tls.VersionTLS12 {
				t.Errorf("expected TLS 1.2 minimum, got %x", cfg.MinVersion)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_IncompleteKeyPairSentinel(t *testing.T) {
	_, err := Load(Files{KeyFile: "client.key"})
	if !errors.Is(err, ErrIncompleteKeyPair) {
		t.Errorf("expected ErrIncompleteKeyPair, got %v", err)
	}
}

func TestFiles_Enabled(t *testing.T) {
	if (Files{}).Enabled() {
		t.Error("zero value should not be enabled")
	}
	if !(Files{ServerName: "x"}).Enabled() {
		t.Error("any field should enable TLS settings")
	}
}
