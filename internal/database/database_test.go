package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/config"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
)

// Mock DialectHandler implementation
type mockDialectHandler struct {
	mu                   sync.Mutex
	createCloudSQLPoolFn func(cfg config.DatabaseConfig) (*sql.DB, error)
	createStandardPoolFn func(cfg config.DatabaseConfig) (*sql.DB, error)
}

func (m *mockDialectHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createCloudSQLPoolFn != nil {
		return m.createCloudSQLPoolFn(cfg)
	}
	// Return a mock DB by default
	mockDb, _, _ := sqlmock.New()
	return mockDb, nil
}

func (m *mockDialectHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createStandardPoolFn != nil {
		return m.createStandardPoolFn(cfg)
	}
	mockDb, _, _ := sqlmock.New()
	return mockDb, nil
}

func (m *mockDialectHandler) QuoteIdentifier(name string) string { return fmt.Sprintf(`"%s"`, name) }

func (m *mockDialectHandler) ColumnType(t frame.DataType) string {
	switch t {
	case frame.Int32Type:
		return "INTEGER"
	case frame.Float32Type:
		return "REAL"
	case frame.BooleanType:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (m *mockDialectHandler) FormatLiteral(v any, t frame.DataType) string {
	if v == nil {
		return "NULL"
	}
	if t == frame.StringType {
		return fmt.Sprintf("'%s'", EscapeSingleQuotes(frame.FormatValue(v, t)))
	}
	return NumericLiteral(v, t)
}

func (m *mockDialectHandler) CreateTableSQL(tableName string, columnDefs []string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s);", tableName, strings.Join(columnDefs, ", "))
}

func TestRegisterAndGetDialectHandler(t *testing.T) {
	// Clean up handlers registered by other tests or init()
	mu.Lock()
	originalHandlers := make(map[string]DialectHandler)
	for k, v := range dialectHandlers {
		originalHandlers[k] = v
	}
	dialectHandlers = make(map[string]DialectHandler)
	mu.Unlock()

	// Restore original handlers after test
	defer func() {
		mu.Lock()
		dialectHandlers = originalHandlers
		mu.Unlock()
	}()

	mockHandler := &mockDialectHandler{}
	testDialect := "testdialect"

	// Test Get before Register
	_, err := GetDialectHandler(testDialect)
	if err == nil {
		t.Errorf("Expected error when getting unregistered dialect, got nil")
	}

	// Test Register
	RegisterDialectHandler(testDialect, mockHandler)

	// Test Get after Register
	handler, err := GetDialectHandler(testDialect)
	if err != nil {
		t.Errorf("Unexpected error getting registered dialect: %v", err)
	}
	if handler != mockHandler {
		t.Errorf("Got wrong handler back, expected mock, got %T", handler)
	}

	// Test Overwrite
	mockHandler2 := &mockDialectHandler{}
	RegisterDialectHandler(testDialect, mockHandler2)
	handler, err = GetDialectHandler(testDialect)
	if err != nil {
		t.Errorf("Unexpected error getting overwritten dialect: %v", err)
	}
	if handler != mockHandler2 {
		t.Errorf("Got wrong handler back after overwrite, expected mock2, got %T", handler)
	}

	// Test Get unknown dialect again
	_, err = GetDialectHandler("unknown")
	if err == nil {
		t.Errorf("Expected error when getting unknown dialect, got nil")
	}
}

func mustFrame(t *testing.T, cols []frame.Column) *frame.Frame {
	t.Helper()
	f, err := frame.New(cols)
	if err != nil {
		t.Fatalf("frame.New() returned unexpected error: %v", err)
	}
	return f
}

func TestGenerateCreateTableSQL(t *testing.T) {
	db := &DB{Handler: &mockDialectHandler{}}

	f := mustFrame(t, []frame.Column{
		{Name: "id", Type: frame.Int32Type, Values: []any{int32(1)}},
		{Name: "score", Type: frame.Float32Type, Values: []any{float32(0.5)}},
		{Name: "active", Type: frame.BooleanType, Values: []any{true}},
		{Name: "note", Type: frame.StringType, Values: []any{"x"}},
	})

	got, err := db.GenerateCreateTableSQL("events", f)
	if err != nil {
		t.Fatalf("GenerateCreateTableSQL() returned unexpected error: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS "events" ("id" INTEGER, "score" REAL, "active" BOOLEAN, "note" TEXT);`
	if got != want {
		t.Errorf("GenerateCreateTableSQL() = %q, want %q", got, want)
	}

	if _, err := db.GenerateCreateTableSQL("", f); err == nil {
		t.Errorf("Expected error for empty table name, got nil")
	}
	if _, err := db.GenerateCreateTableSQL("events", &frame.Frame{}); err == nil {
		t.Errorf("Expected error for frame with no columns, got nil")
	}
	noHandler := &DB{}
	if _, err := noHandler.GenerateCreateTableSQL("events", f); err == nil {
		t.Errorf("Expected error when handler is nil, got nil")
	}
}

func TestGenerateInsertSQL(t *testing.T) {
	db := &DB{Handler: &mockDialectHandler{}}

	f := mustFrame(t, []frame.Column{
		{Name: "id", Type: frame.Int32Type, Values: []any{int32(1), int32(2), int32(3)}},
		{Name: "note", Type: frame.StringType, Values: []any{"a", nil, "it's"}},
	})

	stmts, err := db.GenerateInsertSQL("events", f, 2)
	if err != nil {
		t.Fatalf("GenerateInsertSQL() returned unexpected error: %v", err)
	}
	want := []string{
		`INSERT INTO "events" ("id", "note") VALUES (1, 'a'), (2, NULL);`,
		`INSERT INTO "events" ("id", "note") VALUES (3, 'it''s');`,
	}
	if len(stmts) != len(want) {
		t.Fatalf("GenerateInsertSQL() returned %d statements, want %d: %v", len(stmts), len(want), stmts)
	}
	for i := range want {
		if stmts[i] != want[i] {
			t.Errorf("statement %d = %q, want %q", i, stmts[i], want[i])
		}
	}
}

func TestGenerateInsertSQLDefaultBatch(t *testing.T) {
	db := &DB{Handler: &mockDialectHandler{}}

	values := make([]any, DefaultBatchSize+1)
	for i := range values {
		values[i] = int32(i)
	}
	f := mustFrame(t, []frame.Column{{Name: "n", Type: frame.Int32Type, Values: values}})

	stmts, err := db.GenerateInsertSQL("nums", f, 0)
	if err != nil {
		t.Fatalf("GenerateInsertSQL() returned unexpected error: %v", err)
	}
	if len(stmts) != 2 {
		t.Errorf("Expected %d rows to split into 2 statements, got %d", DefaultBatchSize+1, len(stmts))
	}
}

func TestGenerateInsertSQLEdgeCases(t *testing.T) {
	db := &DB{Handler: &mockDialectHandler{}}

	empty := mustFrame(t, []frame.Column{{Name: "id", Type: frame.Int32Type, Values: []any{}}})
	stmts, err := db.GenerateInsertSQL("events", empty, 10)
	if err != nil {
		t.Errorf("GenerateInsertSQL() on empty frame returned unexpected error: %v", err)
	}
	if stmts != nil {
		t.Errorf("Expected no statements for empty frame, got %v", stmts)
	}

	if _, err := db.GenerateInsertSQL("", empty, 10); err == nil {
		t.Errorf("Expected error for empty table name, got nil")
	}
	noHandler := &DB{}
	if _, err := noHandler.GenerateInsertSQL("events", empty, 10); err == nil {
		t.Errorf("Expected error when handler is nil, got nil")
	}
}

func TestExecuteSQLStatements(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		sqlStatements []string
		mockSetup     func(mock sqlmock.Sqlmock) // Setup mock expectations
		expectedError bool
	}{
		{
			name:          "Success case",
			sqlStatements: []string{"SELECT 1;", "UPDATE t SET c=1;"},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("SELECT 1;").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("UPDATE t SET c=1;").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedError: false,
		},
		{
			name:          "Empty statements list",
			sqlStatements: []string{},
			mockSetup:     func(mock sqlmock.Sqlmock) { /* No expectations */ },
			expectedError: false,
		},
		{
			name:          "Statements with only whitespace",
			sqlStatements: []string{"  ", "\n\t ", ";"},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(";").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			expectedError: false,
		},
		{
			name:          "Begin fails",
			sqlStatements: []string{"SELECT 1;"},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("begin failed"))
				// No Exec or Commit/Rollback expected
			},
			expectedError: true,
		},
		{
			name:          "Exec fails",
			sqlStatements: []string{"SELECT 1;", "BAD SQL;", "SELECT 3;"},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("SELECT 1;").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("BAD SQL;").WillReturnError(errors.New("syntax error"))
				mock.ExpectRollback() // Expect rollback after error
			},
			expectedError: true,
		},
		{
			name:          "Commit fails",
			sqlStatements: []string{"SELECT 1;"},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("SELECT 1;").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit().WillReturnError(errors.New("commit failed"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDb, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
			}
			defer mockDb.Close()

			db := &DB{Pool: mockDb} // Simple DB struct for this test

			tt.mockSetup(mock)

			err = db.ExecuteSQLStatements(ctx, tt.sqlStatements)

			if (err != nil) != tt.expectedError {
				t.Errorf("ExecuteSQLStatements() error = %v, expectedError %v", err, tt.expectedError)
			}

			// Verify all expectations were met
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestPingAndGetConfig(t *testing.T) {
	mockDb, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	mock.ExpectPing()

	db := &DB{
		Pool:    mockDb,
		Handler: &mockDialectHandler{},
		Config:  config.DatabaseConfig{Dialect: "mock"},
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("db.Ping() returned unexpected error: %v", err)
	}

	cfg := db.GetConfig()
	if cfg.Dialect != "mock" {
		t.Errorf("db.GetConfig() returned wrong dialect, got %s, want mock", cfg.Dialect)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}

	var noPool DB
	if err := noPool.Ping(context.Background()); err == nil {
		t.Errorf("Expected error pinging with nil pool, got nil")
	}
}
