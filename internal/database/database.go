package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/config"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
)

// DefaultBatchSize is the number of rows per generated INSERT statement
// when the caller does not specify one.
const DefaultBatchSize = 500

// DBAdapter defines the interface for database operations needed by the loader.
type DBAdapter interface {
	GenerateCreateTableSQL(tableName string, f *frame.Frame) (string, error)
	GenerateInsertSQL(tableName string, f *frame.Frame, batchSize int) ([]string, error)
	ExecuteSQLStatements(ctx context.Context, sqlStatements []string) error
	Ping(ctx context.Context) error
	Close() error
	GetConfig() config.DatabaseConfig
}

var _ DBAdapter = (*DB)(nil)

// DB holds the database connection pool and dialect handler.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.DatabaseConfig
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := dialectHandlers[dialect]; exists {
		zap.L().Warn("dialect handler is being overwritten", zap.String("dialect", dialect))
	}
	dialectHandlers[dialect] = handler
}

func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

func New(cfg config.DatabaseConfig) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var pool *sql.DB
	if strings.HasPrefix(cfg.Dialect, "cloudsql") {
		pool, err = handler.CreateCloudSQLPool(cfg)
	} else {
		pool, err = handler.CreateStandardPool(cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create database pool for dialect %s: %w", cfg.Dialect, err)
	}

	ctx := context.Background()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database (ping failed) for dialect %s: %w", cfg.Dialect, err)
	}

	return &DB{
		Pool:    pool,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (db *DB) GetConfig() config.DatabaseConfig {
	return db.Config
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	zap.L().Warn("attempted to close a nil database connection pool")
	return nil
}

// GenerateCreateTableSQL renders a CREATE TABLE statement matching the
// frame's schema. Column types are mapped by the dialect handler.
func (db *DB) GenerateCreateTableSQL(tableName string, f *frame.Frame) (string, error) {
	if db.Handler == nil {
		return "", fmt.Errorf("dialect handler not initialized")
	}
	if tableName == "" {
		return "", fmt.Errorf("table name cannot be empty")
	}
	if f == nil || f.NumCols() == 0 {
		return "", fmt.Errorf("cannot create table %s from a frame with no columns", tableName)
	}

	columnDefs := make([]string, f.NumCols())
	for i, col := range f.Columns {
		columnDefs[i] = fmt.Sprintf("%s %s", db.Handler.QuoteIdentifier(col.Name), db.Handler.ColumnType(col.Type))
	}
	return db.Handler.CreateTableSQL(tableName, columnDefs), nil
}

// GenerateInsertSQL renders multi-row INSERT statements for the frame,
// batchSize rows per statement. Values are embedded as SQL literals so
// the statements can be reviewed and applied as a plain script.
func (db *DB) GenerateInsertSQL(tableName string, f *frame.Frame, batchSize int) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	if tableName == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if f == nil || f.NumCols() == 0 {
		return nil, fmt.Errorf("cannot insert into table %s from a frame with no columns", tableName)
	}
	if f.NumRows() == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	quotedCols := make([]string, f.NumCols())
	for i, col := range f.Columns {
		quotedCols[i] = db.Handler.QuoteIdentifier(col.Name)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES",
		db.Handler.QuoteIdentifier(tableName), strings.Join(quotedCols, ", "))

	var statements []string
	for start := 0; start < f.NumRows(); start += batchSize {
		end := min(start+batchSize, f.NumRows())
		rows := make([]string, 0, end-start)
		for r := start; r < end; r++ {
			cells := make([]string, f.NumCols())
			for c, col := range f.Columns {
				cells[c] = db.Handler.FormatLiteral(col.Values[r], col.Type)
			}
			rows = append(rows, "("+strings.Join(cells, ", ")+")")
		}
		statements = append(statements, fmt.Sprintf("%s %s;", prefix, strings.Join(rows, ", ")))
	}
	return statements, nil
}

func (db *DB) ExecuteSQLStatements(ctx context.Context, sqlStatements []string) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	if len(sqlStatements) == 0 {
		zap.L().Info("no SQL statements provided to ExecuteSQLStatements")
		return nil
	}

	tx, err := db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range sqlStatements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		_, err = tx.ExecContext(ctx, trimmedStmt)
		if err != nil {
			zap.L().Error("failed executing statement",
				zap.Int("statement", i+1), zap.Error(err))
			return fmt.Errorf("failed executing statement #%d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DialectHandler covers the per-dialect pieces: pool construction,
// identifier quoting and the SQL rendering of types and values.
type DialectHandler interface {
	CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error)
	CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error)
	QuoteIdentifier(name string) string
	ColumnType(t frame.DataType) string
	FormatLiteral(v any, t frame.DataType) string
	CreateTableSQL(tableName string, columnDefs []string) string
}
