// internal/output/sql.go
package output

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/socialpulse/viralpipe/pkg/types"
)

const insertBatchSize = 500

// maxIdentifierLength is the PostgreSQL limit, the strictest of the
// supported warehouses.
const maxIdentifierLength = 63

var sqlIdentifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName rejects table names that are not plain SQL identifiers.
func validateTableName(table string) error {
	if len(table) > maxIdentifierLength {
		return fmt.Errorf("table name %q exceeds %d characters", table, maxIdentifierLength)
	}
	if !sqlIdentifierPattern.MatchString(table) {
		return fmt.Errorf("table name %q must start with a letter or underscore and contain only letters, digits and underscores", table)
	}
	return nil
}

// sqlDialect captures the differences between the supported SQL warehouses.
type sqlDialect struct {
	name        string
	numericType string
	boolType    string
	placeholder func(i int) string
	quote       func(ident string) string
}

var (
	postgresDialect = sqlDialect{
		name:        "postgresql",
		numericType: "DOUBLE PRECISION",
		boolType:    "BOOLEAN",
		placeholder: func(i int) string { return "$" + strconv.Itoa(i) },
		quote:       func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
	}
	mysqlDialect = sqlDialect{
		name:        "mysql",
		numericType: "DOUBLE",
		boolType:    "BOOLEAN",
		placeholder: func(int) string { return "?" },
		quote:       func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
	}
	sqliteDialect = sqlDialect{
		name:        "sqlite",
		numericType: "REAL",
		boolType:    "BOOLEAN",
		placeholder: func(int) string { return "?" },
		quote:       func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
	}
)

// numericColumns are the canonical fields stored as numbers; viral is the
// only boolean; everything else is text.
var numericColumns = map[string]bool{
	types.FieldViews:           true,
	types.FieldLikes:           true,
	types.FieldComments:        true,
	types.FieldDuration:        true,
	types.FieldEngagementScore: true,
}

// SQLSink writes the record set into a relational table, creating it with
// canonical-schema columns when absent.
type SQLSink struct {
	db      *sql.DB
	dialect sqlDialect
	table   string
}

// NewPostgresSink connects to PostgreSQL and returns a sink for table.
func NewPostgresSink(dsn, table string) (*SQLSink, error) {
	return openSQLSink("postgres", dsn, table, postgresDialect)
}

// NewMySQLSink connects to MySQL and returns a sink for table.
func NewMySQLSink(dsn, table string) (*SQLSink, error) {
	return openSQLSink("mysql", dsn, table, mysqlDialect)
}

// NewSQLiteSink opens (or creates) a SQLite database file and returns a sink
// for table.
func NewSQLiteSink(file, table string) (*SQLSink, error) {
	return openSQLSink("sqlite3", file, table, sqliteDialect)
}

func openSQLSink(driver, dsn, table string, dialect sqlDialect) (*SQLSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s sink requires a connection string", dialect.name)
	}
	if table == "" {
		return nil, fmt.Errorf("%s sink requires a table name", dialect.name)
	}
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect.name, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect.name, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLSink(db, dialect, table), nil
}

func newSQLSink(db *sql.DB, dialect sqlDialect, table string) *SQLSink {
	return &SQLSink{db: db, dialect: dialect, table: table}
}

func (s *SQLSink) Name() string { return s.dialect.name }

func (s *SQLSink) Write(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := s.ensureTable(ctx); err != nil {
		return err
	}

	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.insertBatch(ctx, records[start:end]); err != nil {
			return fmt.Errorf("failed to insert records %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *SQLSink) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// ensureTable creates the canonical-schema table when it does not exist.
func (s *SQLSink) ensureTable(ctx context.Context) error {
	cols := columns()
	defs := make([]string, 0, len(cols))
	for _, col := range cols {
		defs = append(defs, s.dialect.quote(col)+" "+s.columnType(col))
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		s.dialect.quote(s.table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLSink) columnType(col string) string {
	switch {
	case col == types.FieldViral:
		return s.dialect.boolType
	case numericColumns[col]:
		return s.dialect.numericType
	default:
		return "TEXT"
	}
}

func (s *SQLSink) insertBatch(ctx context.Context, batch []types.Record) error {
	cols := columns()

	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = s.dialect.quote(col)
	}

	rows := make([]string, len(batch))
	args := make([]interface{}, 0, len(batch)*len(cols))
	n := 1
	for i, rec := range batch {
		ph := make([]string, len(cols))
		for j, col := range cols {
			ph[j] = s.dialect.placeholder(n)
			n++
			args = append(args, convertValue(rec[col]))
		}
		rows[i] = "(" + strings.Join(ph, ", ") + ")"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		s.dialect.quote(s.table),
		strings.Join(quoted, ", "),
		strings.Join(rows, ", "))

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}
