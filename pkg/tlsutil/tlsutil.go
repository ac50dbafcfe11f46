// Package tlsutil builds TLS configurations for the service listeners and
// its outbound HTTPS clients.
package tlsutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc/credentials"
)

// ServerFiles names the PEM files securing a listener. When ClientCAFile is
// set, clients must present a certificate signed by it.
type ServerFiles struct {
	CertFile     string
	KeyFile      string
	ClientCAFile string
}

// ServerConfig loads the listener key pair and, optionally, the client CA.
func ServerConfig(files ServerFiles) (*tls.Config, error) {
	if files.CertFile == "" || files.KeyFile == "" {
		return nil, errors.New("tlsutil: cert and key files are required")
	}
	pair, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: load server key pair: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}
	if files.ClientCAFile != "" {
		pool, err := loadPool(files.ClientCAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

// GRPCCredentials wraps ServerConfig for grpc.Creds.
func GRPCCredentials(files ServerFiles) (credentials.TransportCredentials, error) {
	cfg, err := ServerConfig(files)
	if err != nil {
		return nil, err
	}
	return credentials.NewTLS(cfg), nil
}

// ClientConfig trusts caFile, or the system roots when caFile is empty.
func ClientConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	pool, err := loadPool(caFile)
	if err != nil {
		return nil, err
	}
	cfg.RootCAs = pool
	return cfg, nil
}

func loadPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("tlsutil: no certificates found in %s", path)
	}
	return pool, nil
}

// GenerateDevCertificates writes a throwaway CA (ca.pem, ca-key.pem) and a
// leaf certificate for hosts (server.pem, server-key.pem) into dir. The leaf
// is valid for both server and client authentication.
func GenerateDevCertificates(dir string, hosts ...string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tlsutil: create %s: %w", dir, err)
	}

	now := time.Now()
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(now.UnixNano()),
		Subject:               pkix.Name{CommonName: "credwise dev CA"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.AddDate(5, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caDER, caKey, err := issue(caTmpl, nil, nil)
	if err != nil {
		return fmt.Errorf("tlsutil: issue CA: %w", err)
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return fmt.Errorf("tlsutil: parse CA: %w", err)
	}

	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(now.UnixNano() + 1),
		Subject:      pkix.Name{CommonName: "eligibility-service"},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.AddDate(1, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			leafTmpl.IPAddresses = append(leafTmpl.IPAddresses, ip)
			continue
		}
		leafTmpl.DNSNames = append(leafTmpl.DNSNames, h)
	}
	leafDER, leafKey, err := issue(leafTmpl, caCert, caKey)
	if err != nil {
		return fmt.Errorf("tlsutil: issue server certificate: %w", err)
	}

	for name, write := range map[string]func(string) error{
		"ca.pem":         certWriter(caDER),
		"ca-key.pem":     keyWriter(caKey),
		"server.pem":     certWriter(leafDER),
		"server-key.pem": keyWriter(leafKey),
	} {
		if err := write(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// issue signs tmpl with parentKey, or self-signs when parent is nil.
func issue(tmpl, parent *x509.Certificate, parentKey crypto.Signer) ([]byte, *ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	if parent == nil {
		parent, parentKey = tmpl, key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, key.Public(), parentKey)
	if err != nil {
		return nil, nil, err
	}
	return der, key, nil
}

func certWriter(der []byte) func(string) error {
	return func(path string) error {
		return writePEM(path, &pem.Block{Type: "CERTIFICATE", Bytes: der})
	}
}

func keyWriter(key *ecdsa.PrivateKey) func(string) error {
	return func(path string) error {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return fmt.Errorf("tlsutil: marshal key: %w", err)
		}
		return writePEM(path, &pem.Block{Type: "PRIVATE KEY", Bytes: der})
	}
}

func writePEM(path string, block *pem.Block) error {
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return fmt.Errorf("tlsutil: write %s: %w", path, err)
	}
	return nil
}
