package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/bipagem/config"
)

func TestNewMinioServiceDoesNotConnect(t *testing.T) {
	svc, err := NewMinioService(config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "relatorios",
	})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGetPublicURL(t *testing.T) {
	tests := []struct {
		name     string
		useSSL   bool
		endpoint string
		expected string
	}{
		{
			name:     "http url",
			endpoint: "localhost:9000",
			expected: "http://localhost:9000/arquivo/relatorios/2025-03-14/r.xlsx",
		},
		{
			name:     "https url",
			useSSL:   true,
			endpoint: "minio.example.com",
			expected: "https://minio.example.com/arquivo/relatorios/2025-03-14/r.xlsx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MinioService{
				bucket: "arquivo",
				config: config.MinioConfig{Endpoint: tt.endpoint, UseSSL: tt.useSSL},
			}
			assert.Equal(t, tt.expected, svc.GetPublicURL(ReportObjectName("2025-03-14", "r.xlsx")))
		})
	}
}
