// Package tls builds TLS configurations for the predictor HTTP server and for
// its client to a remote seasonal model.
//
// Both sides require TLS 1.3. A CA file turns on peer verification:
//   - server: clients must present a certificate signed by the CA (mTLS)
//   - client: the remote service is verified against the CA instead of the
//     system pool, and the client presents its own certificate if one is set
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds TLS certificate file paths.
type Config struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
}

// Validate checks that every configured file exists. Disabled configs are
// always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.CertFile, validation.When(c.KeyFile != "", validation.Required.Error("required when a key file is set")), validation.By(fileExists)),
		validation.Field(&c.KeyFile, validation.When(c.CertFile != "", validation.Required.Error("required when a cert file is set")), validation.By(fileExists)),
		validation.Field(&c.CAFile, validation.By(fileExists)),
	)
}

// ValidateServer additionally requires the certificate and key a server must
// present.
func (c Config) ValidateServer() error {
	if !c.Enabled {
		return nil
	}
	if c.CertFile == "" || c.KeyFile == "" {
		return errors.New("tls enabled but cert/key files not specified")
	}
	return c.Validate()
}

func fileExists(value any) error {
	path, _ := value.(string)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %q: %w", path, err)
	}
	return nil
}

// NewServerConfig returns the server side configuration. The certificate
// itself is loaded by http.Server.ListenAndServeTLS.
func NewServerConfig(c Config) (*tls.Config, error) {
	if err := c.ValidateServer(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		MinVersion: tls.VersionTLS13,
	}

	if c.CAFile != "" {
		pool, err := loadCAPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return cfg, nil
}

// NewClientConfig returns the client side configuration, or nil when TLS is
// disabled so the default transport settings apply.
func NewClientConfig(c Config) (*tls.Config, error) {
	if !c.Enabled {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		MinVersion: tls.VersionTLS13,
	}

	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if c.CAFile != "" {
		pool, err := loadCAPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

func loadCAPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA certificate")
	}
	return pool, nil
}
