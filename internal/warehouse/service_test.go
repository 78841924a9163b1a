package warehouse

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestService wires a mocked connection into a connected service.
func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewService(Config{Database: "NorthwindDW", Timeout: 5 * time.Second})
	s.db = db
	s.connected = true
	return s, mock
}

func TestNewService(t *testing.T) {
	config := Config{
		Server:   "dw.example.com",
		Port:     1433,
		Database: "NorthwindDW",
		Username: "etl",
		Password: "secret",
		Timeout:  30 * time.Second,
	}

	s := NewService(config)

	assert.NotNil(t, s)
	assert.Equal(t, config, s.config)
	assert.False(t, s.connected)
	assert.NotNil(t, s.logf)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid config",
			config: Config{
				Server:   "dw.example.com",
				Database: "NorthwindDW",
				Username: "etl",
				Password: "secret",
			},
			wantError: false,
		},
		{
			name: "trusted connection without credentials",
			config: Config{
				Server:            "dw.example.com",
				Database:          "NorthwindDW",
				TrustedConnection: true,
			},
			wantError: false,
		},
		{
			name:      "missing server",
			config:    Config{Database: "NorthwindDW", TrustedConnection: true},
			wantError: true,
			errorMsg:  "server is required",
		},
		{
			name:      "missing database",
			config:    Config{Server: "dw.example.com", TrustedConnection: true},
			wantError: true,
			errorMsg:  "database is required",
		},
		{
			name: "missing username",
			config: Config{
				Server:   "dw.example.com",
				Database: "NorthwindDW",
				Password: "secret",
			},
			wantError: true,
			errorMsg:  "username is required unless trusted_connection is set",
		},
		{
			name: "missing password",
			config: Config{
				Server:   "dw.example.com",
				Database: "NorthwindDW",
				Username: "etl",
			},
			wantError: true,
			errorMsg:  "password is required unless trusted_connection is set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildDSN(t *testing.T) {
	t.Run("credential connection", func(t *testing.T) {
		dsn := buildDSN(Config{
			Server:   "dw.example.com",
			Port:     1433,
			Database: "NorthwindDW",
			Username: "etl",
			Password: "secret",
		})
		assert.Contains(t, dsn, "sqlserver://")
		assert.Contains(t, dsn, "etl:secret@dw.example.com:1433")
		assert.Contains(t, dsn, "database=NorthwindDW")
	})

	t.Run("trusted connection omits credentials", func(t *testing.T) {
		dsn := buildDSN(Config{
			Server:            "dw.example.com",
			Database:          "NorthwindDW",
			TrustedConnection: true,
		})
		assert.NotContains(t, dsn, "@")
		assert.Contains(t, dsn, "trusted_connection=yes")
	})
}

func TestCloseWhenNotConnected(t *testing.T) {
	s := NewService(Config{})
	assert.NoError(t, s.Close())
}
