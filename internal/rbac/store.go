package rbac

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (permission_grants, scope_grants)
const currentSchemaVersion = 1

// Store is a SQLite-backed grant table implementing Authorizer.
// Uses WAL mode so Check reads stay concurrent with grant writes.
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens a grant database at the given path.
// Applies required pragmas and the schema automatically; safe to call on an
// existing database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grant database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to grant database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// GrantPermission records that subject holds permission. Idempotent.
func (s *Store) GrantPermission(ctx context.Context, subject, permission string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO permission_grants (subject, permission) VALUES (?, ?)",
		subject, permission)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

// GrantScope records a scope grant for subject. The grant may contain "ANY"
// wildcard segments. Idempotent.
func (s *Store) GrantScope(ctx context.Context, subject, scope string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO scope_grants (subject, scope) VALUES (?, ?)",
		subject, scope)
	if err != nil {
		return fmt.Errorf("failed to grant scope: %w", err)
	}
	return nil
}

// RevokePermission removes a permission grant.
func (s *Store) RevokePermission(ctx context.Context, subject, permission string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM permission_grants WHERE subject = ? AND permission = ?",
		subject, permission)
	if err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	return nil
}

// RevokeScope removes a scope grant.
func (s *Store) RevokeScope(ctx context.Context, subject, scope string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM scope_grants WHERE subject = ? AND scope = ?",
		subject, scope)
	if err != nil {
		return fmt.Errorf("failed to revoke scope: %w", err)
	}
	return nil
}

// Permissions returns the permissions granted to subject, sorted by the
// database's default ordering on the unique index.
func (s *Store) Permissions(ctx context.Context, subject string) ([]string, error) {
	return s.queryStrings(ctx,
		"SELECT permission FROM permission_grants WHERE subject = ? ORDER BY permission", subject)
}

// Scopes returns the scope grants recorded for subject.
func (s *Store) Scopes(ctx context.Context, subject string) ([]string, error) {
	return s.queryStrings(ctx,
		"SELECT scope FROM scope_grants WHERE subject = ? ORDER BY scope", subject)
}

func (s *Store) queryStrings(ctx context.Context, query, subject string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("grant query failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("grant scan failed: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grant iteration failed: %w", err)
	}
	return out, nil
}

// Check implements Authorizer against the stored grants.
func (s *Store) Check(ctx context.Context, id Identity, permissions []string, scopes []string) (bool, error) {
	for _, p := range permissions {
		var n int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM permission_grants WHERE subject = ? AND permission = ?",
			id.Subject, p).Scan(&n)
		if err != nil {
			return false, fmt.Errorf("permission check failed: %w", err)
		}
		if n == 0 {
			return false, nil
		}
	}

	if len(scopes) == 0 {
		return true, nil
	}
	granted, err := s.Scopes(ctx, id.Subject)
	if err != nil {
		return false, err
	}
	for _, requested := range scopes {
		if !anyScopeMatches(granted, requested) {
			return false, nil
		}
	}
	return true, nil
}
