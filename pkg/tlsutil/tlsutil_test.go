package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func devFiles(t *testing.T) (string, ServerFiles) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, GenerateDevCertificates(dir, "localhost", "127.0.0.1"))
	return dir, ServerFiles{
		CertFile: filepath.Join(dir, "server.pem"),
		KeyFile:  filepath.Join(dir, "server-key.pem"),
	}
}

func TestGenerateDevCertificates(t *testing.T) {
	dir, files := devFiles(t)

	for _, name := range []string{"ca.pem", "ca-key.pem", "server.pem", "server-key.pem"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), name)
	}

	cfg, err := ServerConfig(files)
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Equal(t, tls.NoClientCert, cfg.ClientAuth)

	leaf, err := x509.ParseCertificate(cfg.Certificates[0].Certificate[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, leaf.DNSNames)
	require.Len(t, leaf.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", leaf.IPAddresses[0].String())

	client, err := ClientConfig(filepath.Join(dir, "ca.pem"))
	require.NoError(t, err)
	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:     client.RootCAs,
		DNSName:   "localhost",
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	})
	assert.NoError(t, err)
}

func TestServerConfig_ClientCA(t *testing.T) {
	dir, files := devFiles(t)
	files.ClientCAFile = filepath.Join(dir, "ca.pem")

	cfg, err := ServerConfig(files)
	require.NoError(t, err)
	assert.Equal(t, tls.RequireAndVerifyClientCert, cfg.ClientAuth)
	assert.NotNil(t, cfg.ClientCAs)

	creds, err := GRPCCredentials(files)
	require.NoError(t, err)
	assert.Equal(t, "tls", creds.Info().SecurityProtocol)
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ServerConfig(ServerFiles{})
	assert.ErrorContains(t, err, "required")

	_, err = ServerConfig(ServerFiles{
		CertFile: filepath.Join(dir, "missing.pem"),
		KeyFile:  filepath.Join(dir, "missing-key.pem"),
	})
	assert.ErrorContains(t, err, "load server key pair")

	_, err = ClientConfig(filepath.Join(dir, "missing-ca.pem"))
	assert.ErrorContains(t, err, "read CA file")

	bad := filepath.Join(dir, "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not pem"), 0o600))
	_, err = ClientConfig(bad)
	assert.ErrorContains(t, err, "no certificates found")

	cfg, err := ClientConfig("")
	require.NoError(t, err)
	assert.Nil(t, cfg.RootCAs)
}
