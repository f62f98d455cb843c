// Package sqlitestore mirrors a snapshot into a SQLite database with the
// same two tables as the CSV output, related by a foreign key.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"ghscraper/pkg/models"

	_ "modernc.org/sqlite"
)

// Store is a SQLite database holding one snapshot
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the database at path and runs migrations
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// pragmas are per connection
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			login        TEXT PRIMARY KEY,
			name         TEXT NOT NULL DEFAULT '',
			company      TEXT NOT NULL DEFAULT '',
			location     TEXT NOT NULL DEFAULT '',
			email        TEXT NOT NULL DEFAULT '',
			hireable     INTEGER NOT NULL DEFAULT 0,
			bio          TEXT NOT NULL DEFAULT '',
			public_repos INTEGER NOT NULL DEFAULT 0,
			followers    INTEGER NOT NULL DEFAULT 0,
			following    INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL DEFAULT '',
			position     INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS repositories (
			id               INTEGER PRIMARY KEY,
			login            TEXT NOT NULL REFERENCES users(login) ON DELETE CASCADE,
			full_name        TEXT NOT NULL,
			created_at       TEXT NOT NULL DEFAULT '',
			stargazers_count INTEGER NOT NULL DEFAULT 0,
			watchers_count   INTEGER NOT NULL DEFAULT 0,
			forks_count      INTEGER NOT NULL DEFAULT 0,
			language         TEXT NOT NULL DEFAULT '',
			has_projects     INTEGER NOT NULL DEFAULT 0,
			has_wiki         INTEGER NOT NULL DEFAULT 0,
			license_name     TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_repositories_login ON repositories(login);
	`)
	if err != nil {
		return fmt.Errorf("creating repositories table: %w", err)
	}

	return nil
}

// Save replaces the stored snapshot in a single transaction
func (s *Store) Save(ctx context.Context, snapshot *models.Snapshot) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM repositories`); err != nil {
		return fmt.Errorf("sqlite: clearing repositories: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("sqlite: clearing users: %w", err)
	}

	userStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO users (login, name, company, location, email, hireable, bio,
			public_repos, followers, following, created_at, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: preparing user insert: %w", err)
	}
	defer userStmt.Close()

	for i, u := range snapshot.Users {
		_, err = userStmt.ExecContext(ctx,
			u.Login, u.Name, u.Company, u.Location, u.Email, u.Hireable, u.Bio,
			u.PublicRepos, u.Followers, u.Following, u.CreatedAt, i,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting user %s: %w", u.Login, err)
		}
	}

	repoStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO repositories (login, full_name, created_at, stargazers_count,
			watchers_count, forks_count, language, has_projects, has_wiki, license_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: preparing repository insert: %w", err)
	}
	defer repoStmt.Close()

	for _, r := range snapshot.Repositories {
		_, err = repoStmt.ExecContext(ctx,
			r.Login, r.FullName, r.CreatedAt, r.StargazersCount, r.WatchersCount,
			r.ForksCount, r.Language, r.HasProjects, r.HasWiki, r.LicenseName,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting repository %s: %w", r.FullName, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot back in its original row order
func (s *Store) Load(ctx context.Context) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT login, name, company, location, email, hireable, bio,
			public_repos, followers, following, created_at
		 FROM users ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying users: %w", err)
	}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Login, &u.Name, &u.Company, &u.Location, &u.Email,
			&u.Hireable, &u.Bio, &u.PublicRepos, &u.Followers, &u.Following, &u.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		snapshot.Users = append(snapshot.Users, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	rows.Close()

	rows, err = s.conn.QueryContext(ctx,
		`SELECT login, full_name, created_at, stargazers_count, watchers_count,
			forks_count, language, has_projects, has_wiki, license_name
		 FROM repositories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying repositories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.Repository
		if err := rows.Scan(&r.Login, &r.FullName, &r.CreatedAt, &r.StargazersCount,
			&r.WatchersCount, &r.ForksCount, &r.Language, &r.HasProjects, &r.HasWiki, &r.LicenseName); err != nil {
			return nil, fmt.Errorf("sqlite: scanning repository: %w", err)
		}
		snapshot.Repositories = append(snapshot.Repositories, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating repositories: %w", err)
	}

	return snapshot, nil
}

// Counts returns the number of stored users and repositories
func (s *Store) Counts(ctx context.Context) (users, repos int, err error) {
	if err = s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		return 0, 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	if err = s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM repositories`).Scan(&repos); err != nil {
		return 0, 0, fmt.Errorf("sqlite: counting repositories: %w", err)
	}
	return users, repos, nil
}
