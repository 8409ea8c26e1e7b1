// Package provisioner implements the tenant database lifecycle: creating a
// new per-tenant database, initializing its schema idempotently, and
// tearing it down. It is the Go counterpart of the administrative
// provisioning routine this engine's tenant isolation model depends on.
package provisioner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ingestio/enginecore/internal/config"
	"github.com/ingestio/enginecore/internal/provisioner/schema"
	"github.com/ingestio/enginecore/internal/tenantid"
)

// Provisioner creates, initializes, and drops per-tenant databases.
type Provisioner struct {
	cfg    config.AdminDBConfig
	logger *slog.Logger
}

// New creates a Provisioner bound to the administrative database
// credentials.
func New(cfg config.AdminDBConfig, logger *slog.Logger) *Provisioner {
	return &Provisioner{cfg: cfg, logger: logger}
}

// Provision ensures tenantID's database exists and has an initialized
// schema, creating and/or initializing it as needed. If forceRecreate is
// true, an existing database is dropped and rebuilt from scratch regardless
// of its current state. Provision never panics; any failure during schema
// initialization triggers a best-effort drop of the partially initialized
// database so a later retry starts clean, and the failure is returned to
// the caller rather than left half-applied.
func (p *Provisioner) Provision(ctx context.Context, tenantID string, forceRecreate bool) (bool, error) {
	dbName := tenantid.DatabaseName(tenantID)
	if ok, msg := config.IsValidPostgresIdentifier(dbName); !ok {
		return false, fmt.Errorf("provisioner: invalid database name %q: %s", dbName, msg)
	}
	log := p.logger.With("tenant_id", tenantID, "database", dbName)

	exists, err := p.databaseExists(ctx, dbName)
	if err != nil {
		return false, fmt.Errorf("provisioner: check existence of %s: %w", dbName, err)
	}

	if forceRecreate && exists {
		log.Info("provisioner: force recreate requested, dropping existing database")
		if err := p.dropDatabase(ctx, dbName); err != nil {
			return false, fmt.Errorf("provisioner: drop %s for recreate: %w", dbName, err)
		}
		exists = false
	}

	if exists {
		initialized, err := p.isSchemaInitialized(ctx, dbName)
		if err != nil {
			return false, fmt.Errorf("provisioner: check schema state of %s: %w", dbName, err)
		}
		if initialized {
			log.Debug("provisioner: database already provisioned")
			return true, nil
		}
		log.Info("provisioner: database exists but schema is uninitialized, initializing")
	} else {
		log.Info("provisioner: creating database")
		if err := p.createDatabase(ctx, dbName); err != nil {
			return false, fmt.Errorf("provisioner: create %s: %w", dbName, err)
		}
	}

	if err := p.initializeSchema(ctx, dbName); err != nil {
		log.Error("provisioner: schema initialization failed, rolling back", "error", err)
		if dropErr := p.dropDatabase(ctx, dbName); dropErr != nil {
			log.Error("provisioner: rollback drop also failed", "error", dropErr)
		}
		return false, fmt.Errorf("provisioner: initialize schema for %s: %w", dbName, err)
	}

	log.Info("provisioner: database provisioned")
	return true, nil
}

func (p *Provisioner) adminConn(ctx context.Context) (*pgx.Conn, error) {
	return pgx.Connect(ctx, p.cfg.URL(p.cfg.Database))
}

func (p *Provisioner) databaseExists(ctx context.Context, dbName string) (bool, error) {
	conn, err := p.adminConn(ctx)
	if err != nil {
		return false, fmt.Errorf("connect to admin database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, dbName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query pg_database: %w", err)
	}
	return exists, nil
}

// isSchemaInitialized probes for tenant_config, the first table the
// initialization sequence creates; its presence is a reliable signal that a
// prior initialization at least started successfully.
func (p *Provisioner) isSchemaInitialized(ctx context.Context, dbName string) (bool, error) {
	conn, err := pgx.Connect(ctx, p.cfg.URL(dbName))
	if err != nil {
		return false, fmt.Errorf("connect to %s: %w", dbName, err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM information_schema.tables WHERE table_name = 'tenant_config'
)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query information_schema: %w", err)
	}
	return exists, nil
}

// createDatabase issues CREATE DATABASE outside of any transaction block (a
// PostgreSQL requirement) and tolerates a concurrent provisioner having won
// the race: SQLSTATE 42P04 ("database already exists") is treated as
// success rather than an error.
func (p *Provisioner) createDatabase(ctx context.Context, dbName string) error {
	conn, err := p.adminConn(ctx)
	if err != nil {
		return fmt.Errorf("connect to admin database: %w", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, fmt.Sprintf(`CREATE DATABASE %s`, quoteIdentifier(dbName)))
	if err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("create database: %w", err)
	}
	return nil
}

// dropDatabase first terminates any lingering backend connections to
// dbName, since PostgreSQL refuses DROP DATABASE while sessions are
// attached, then drops it.
func (p *Provisioner) dropDatabase(ctx context.Context, dbName string) error {
	conn, err := p.adminConn(ctx)
	if err != nil {
		return fmt.Errorf("connect to admin database: %w", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
SELECT pg_terminate_backend(pid) FROM pg_stat_activity
WHERE datname = $1 AND pid <> pg_backend_pid()`, dbName)
	if err != nil {
		return fmt.Errorf("terminate connections to %s: %w", dbName, err)
	}

	_, err = conn.Exec(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %s`, quoteIdentifier(dbName)))
	if err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

// initializeSchema runs every embedded table definition in filename order,
// then every embedded function definition in filename order, all inside a
// single transaction so a failure partway through leaves no partial schema.
func (p *Provisioner) initializeSchema(ctx context.Context, dbName string) error {
	conn, err := pgx.Connect(ctx, p.cfg.URL(dbName))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", dbName, err)
	}
	defer conn.Close(ctx)

	tableFiles, err := sortedSQLFiles(schema.Tables, "tables")
	if err != nil {
		return err
	}
	functionFiles, err := sortedSQLFiles(schema.Functions, "functions")
	if err != nil {
		return err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	for _, f := range tableFiles {
		if err := execSQLFile(ctx, tx, f.path, f.content); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	for _, f := range functionFiles {
		if err := execSQLFile(ctx, tx, f.path, f.content); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}

	return tx.Commit(ctx)
}

type sqlFile struct {
	path    string
	content string
}

// sortedSQLFiles reads every *.sql file directly under dir in an embedded
// filesystem and returns them sorted by filename. Table and function files
// are both named with a numeric prefix (01_, 02_, ...) so lexical order is
// execution order.
func sortedSQLFiles(fsys fs.FS, dir string) ([]sqlFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	files := make([]sqlFile, 0, len(names))
	for _, name := range names {
		path := dir + "/" + name
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, sqlFile{path: path, content: string(content)})
	}
	return files, nil
}

// dollarQuoteMarkers are substrings that indicate a SQL file defines a
// function body, which must be executed as a single raw statement: a
// semicolon-split would cut the body apart at its internal statement
// boundaries.
var dollarQuoteMarkers = []string{"$function$", "$body$", "$$"}

func containsDollarQuote(content string) bool {
	upper := strings.ToUpper(content)
	if strings.Contains(upper, "CREATE OR REPLACE FUNCTION") || strings.Contains(upper, "CREATE FUNCTION") {
		return true
	}
	for _, marker := range dollarQuoteMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// execSQLFile executes a single SQL file's contents. Dollar-quoted function
// bodies run as one raw statement; everything else is split on ';' and run
// statement-by-statement, since a plain multi-statement Exec call is not
// portable across pgx's query execution modes.
func execSQLFile(ctx context.Context, tx pgx.Tx, path, content string) error {
	if containsDollarQuote(content) {
		if _, err := tx.Exec(ctx, content); err != nil {
			return fmt.Errorf("execute %s: %w", path, err)
		}
		return nil
	}

	for _, stmt := range strings.Split(content, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute %s: %w", path, err)
		}
	}
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isAlreadyExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "42p04")
}
