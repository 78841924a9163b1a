package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"starload/pkg/errors"
)

// Service provides warehouse database operations. The single connection
// is shared by the schema manager, the dimension loader, and the fact
// loader within one run; each logical insert is its own unit of work.
type Service struct {
	db        *sql.DB
	config    Config
	connected bool
	logf      func(format string, args ...interface{})
}

// Config holds the warehouse connection configuration.
type Config struct {
	Server            string
	Port              int
	Database          string
	Username          string
	Password          string
	TrustedConnection bool
	Timeout           time.Duration
}

// NewService creates a new warehouse service.
func NewService(config Config) *Service {
	return &Service{
		config: config,
		logf:   func(string, ...interface{}) {},
	}
}

// SetLogf routes the service's informational row-level messages, e.g. to
// the terminal UI. The default discards them.
func (s *Service) SetLogf(logf func(format string, args ...interface{})) {
	if logf != nil {
		s.logf = logf
	}
}

// Connect establishes the warehouse connection, retrying transient
// failures with backoff.
func (s *Service) Connect() error {
	if s.connected {
		return nil
	}

	return errors.RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		db, err := sql.Open("sqlserver", buildDSN(s.config))
		if err != nil {
			return errors.ConnectionError("Failed to open warehouse connection", err).
				WithContext("server", s.config.Server).
				WithContext("database", s.config.Database)
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(10 * time.Minute)

		connCtx, cancel := s.getContext(ctx)
		defer cancel()

		if err := db.PingContext(connCtx); err != nil {
			db.Close()
			return errors.ConnectionError("Failed to connect to warehouse", err).
				WithContext("server", s.config.Server).
				AsRecoverable()
		}

		s.db = db
		s.connected = true
		return nil
	})
}

// Close closes the warehouse connection.
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	s.connected = false
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// TestConnection verifies the warehouse is reachable.
func (s *Service) TestConnection() error {
	if !s.connected {
		if err := s.Connect(); err != nil {
			return err
		}
	}

	ctx, cancel := s.getContext(context.Background())
	defer cancel()

	return s.db.PingContext(ctx)
}

// DB returns the underlying database handle.
func (s *Service) DB() *sql.DB {
	return s.db
}

func (s *Service) getContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}

// ValidateConfig validates the warehouse configuration.
func ValidateConfig(config Config) error {
	if config.Server == "" {
		return fmt.Errorf("server is required")
	}
	if config.Database == "" {
		return fmt.Errorf("database is required")
	}
	if !config.TrustedConnection {
		if config.Username == "" {
			return fmt.Errorf("username is required unless trusted_connection is set")
		}
		if config.Password == "" {
			return fmt.Errorf("password is required unless trusted_connection is set")
		}
	}
	return nil
}

func buildDSN(config Config) string {
	host := config.Server
	if config.Port != 0 {
		host = fmt.Sprintf("%s:%d", config.Server, config.Port)
	}

	u := &url.URL{
		Scheme: "sqlserver",
		Host:   host,
	}
	q := url.Values{}
	q.Set("database", config.Database)
	if config.TrustedConnection {
		q.Set("trusted_connection", "yes")
	} else {
		u.User = url.UserPassword(config.Username, config.Password)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
