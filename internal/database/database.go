package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"dashboard-sync-service/internal/config"
	"dashboard-sync-service/internal/logger"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type Database struct {
	DB      *sqlx.DB
	Dialect Dialect
	Config  config.DatabaseConfig
}

func NewDatabase(cfg config.DatabaseConfig) (*Database, error) {
	dialect := Dialect(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	driverName, dsn, err := buildDSN(dialect, cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	attempts := 1
	if dialect != SQLite {
		attempts = 30
	}
	for i := 0; i < attempts; i++ {
		err = db.Ping()
		if err == nil {
			break
		}
		logger.Log.Info("Waiting for database...", zap.Error(err), zap.Int("attempt", i+1))
		if i+1 < attempts {
			time.Sleep(1 * time.Second)
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Connection pool settings. SQLite is a single file with one writer.
	switch {
	case dialect == SQLite:
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	default:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	logger.Log.Info("Connected to database",
		zap.String("driver", string(dialect)),
		zap.String("database", describe(dialect, cfg)),
	)

	return &Database{
		DB:      db,
		Dialect: dialect,
		Config:  cfg,
	}, nil
}

func buildDSN(dialect Dialect, cfg config.DatabaseConfig) (string, string, error) {
	switch dialect {
	case SQLite:
		if cfg.DSN != "" {
			return "sqlite", cfg.DSN, nil
		}
		abs, err := filepath.Abs(cfg.Path)
		if err != nil {
			return "", "", fmt.Errorf("resolve sqlite path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return "", "", fmt.Errorf("create sqlite directory: %w", err)
		}
		return "sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", abs), nil
	case MySQL:
		if cfg.DSN != "" {
			return "mysql", cfg.DSN, nil
		}
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
			cfg.User, cfg.Password, cfg.Host, port, cfg.Database), nil
	case Postgres:
		if cfg.DSN != "" {
			return "pgx", cfg.DSN, nil
		}
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			cfg.User, cfg.Password, cfg.Host, port, cfg.Database), nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func describe(dialect Dialect, cfg config.DatabaseConfig) string {
	if dialect == SQLite {
		return cfg.Path
	}
	return fmt.Sprintf("%s/%s", cfg.Host, cfg.Database)
}

func (d *Database) Close() error {
	return d.DB.Close()
}

// ExecTx executes a function within a transaction
func (d *Database) ExecTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// InsertReturningID runs an INSERT and reports the id of the new row.
// Postgres has no LastInsertId, so the statement is extended with RETURNING.
func (d *Database) InsertReturningID(ctx context.Context, ex sqlx.ExtContext, query string, args ...any) (int64, error) {
	if d.Dialect == Postgres {
		var id int64
		if err := ex.QueryRowxContext(ctx, ex.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := ex.ExecContext(ctx, ex.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ResyncSequence moves the id sequence of table past its highest id after
// rows were written with explicit ids. Only Postgres keeps a detached sequence.
func (d *Database) ResyncSequence(ctx context.Context, ex sqlx.ExecerContext, table string) error {
	if d.Dialect != Postgres {
		return nil
	}
	_, err := ex.ExecContext(ctx, fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)`,
		table, table))
	return err
}

// Raw exposes the pooled *sql.DB for libraries that do not speak sqlx.
func (d *Database) Raw() *sql.DB {
	return d.DB.DB
}
