package clickhouse_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/pseudomuto/hush/pkg/clickhouse"
	"github.com/pseudomuto/hush/pkg/consts"
	"github.com/stretchr/testify/require"
)

// writeCertificates writes a self-signed CA plus a client certificate signed
// by it into dir.
func writeCertificates(t *testing.T, dir string) TLSSettings {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "hush test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	require.NoError(t, err)

	clientKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	clientTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "hush"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	clientDER, err := x509.CreateCertificate(rand.Reader, clientTemplate, caTemplate, &clientKey.PublicKey, caKey)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(clientKey)
	require.NoError(t, err)

	settings := TLSSettings{
		CAFile:   filepath.Join(dir, "ca.crt"),
		CertFile: filepath.Join(dir, "client.crt"),
		KeyFile:  filepath.Join(dir, "client.key"),
	}

	writePEM(t, settings.CAFile, "CERTIFICATE", caDER)
	writePEM(t, settings.CertFile, "CERTIFICATE", clientDER)
	writePEM(t, settings.KeyFile, "EC PRIVATE KEY", keyDER)

	return settings
}

func writePEM(t *testing.T, path, blockType string, der []byte) {
	t.Helper()

	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	require.NoError(t, os.WriteFile(path, data, consts.ModeFile))
}

func TestGetTLSConfig(t *testing.T) {
	dir := t.TempDir()
	valid := writeCertificates(t, dir)

	notPEM := filepath.Join(dir, "empty.crt")
	require.NoError(t, os.WriteFile(notPEM, []byte("not a certificate"), consts.ModeFile))

	tests := []struct {
		name     string
		settings func(TLSSettings) TLSSettings
		err      string
	}{
		{
			name:     "valid configuration",
			settings: func(s TLSSettings) TLSSettings { return s },
		},
		{
			name:     "missing cert file",
			settings: func(s TLSSettings) TLSSettings { s.CertFile = "bogus.crt"; return s },
			err:      "unable to load certfile/keyfile",
		},
		{
			name:     "missing key file",
			settings: func(s TLSSettings) TLSSettings { s.KeyFile = "bogus.key"; return s },
			err:      "unable to load certfile/keyfile",
		},
		{
			name:     "missing CA file",
			settings: func(s TLSSettings) TLSSettings { s.CAFile = "bogus.crt"; return s },
			err:      "unable to load cafile",
		},
		{
			name:     "CA file without certificates",
			settings: func(s TLSSettings) TLSSettings { s.CAFile = notPEM; return s },
			err:      "no certificates found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := GetTLSConfig(ClientOptions{TLSSettings: tt.settings(valid)})
			if tt.err != "" {
				require.ErrorContains(t, err, tt.err)
				require.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.Len(t, cfg.Certificates, 1)
			require.NotNil(t, cfg.RootCAs)
		})
	}
}

func TestTLSSettings_Enabled(t *testing.T) {
	require.False(t, TLSSettings{}.Enabled())
	require.False(t, TLSSettings{CAFile: "ca", CertFile: "crt"}.Enabled())
	require.True(t, TLSSettings{CAFile: "ca", CertFile: "crt", KeyFile: "key"}.Enabled())
}
