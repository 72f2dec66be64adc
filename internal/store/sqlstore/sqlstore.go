// Package sqlstore is the SQL implementation of store.Store. One set of
// queries serves sqlite, mysql and postgres; sqlx rebinds placeholders and
// goose applies the per-dialect schema.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/Makepad-fr/chores/internal/domain"
	"github.com/Makepad-fr/chores/internal/store"
)

//go:embed migrations
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

type dialect struct {
	driver    string // database/sql driver name
	goose     string // goose dialect
	dir       string // migrations directory
	returning bool   // INSERT ... RETURNING support
}

var dialects = map[string]dialect{
	"sqlite":   {driver: "sqlite", goose: "sqlite3", dir: "migrations/sqlite", returning: true},
	"mysql":    {driver: "mysql", goose: "mysql", dir: "migrations/mysql"},
	"postgres": {driver: "pgx", goose: "postgres", dir: "migrations/postgres", returning: true},
}

const taskColumns = `id, title, completed, created_at`

type row struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Completed int       `db:"completed"`
	CreatedAt time.Time `db:"created_at"`
}

func (r row) task() domain.Task {
	return domain.Task{ID: r.ID, Title: r.Title, Completed: r.Completed != 0, CreatedAt: r.CreatedAt}
}

type Store struct {
	db *sqlx.DB
	d  dialect
}

// Open connects to name ("sqlite", "mysql" or "postgres"), checks the
// connection and migrates the schema.
func Open(ctx context.Context, name, dsn string) (*Store, error) {
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("sqlstore: unknown dialect %q", name)
	}
	if name == "mysql" {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", name, err)
	}
	if name == "sqlite" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s ping: %w", name, err)
	}
	if err := migrate(db.DB, d); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, d: d}, nil
}

// mysqlDSN forces the options the queries rely on: time.Time scanning and
// affected rows counted as matched rows.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

func migrate(db *sql.DB, d dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, d.dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) List(ctx context.Context) ([]domain.Task, error) {
	var rows []row
	q := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]domain.Task, len(rows))
	for i := range rows {
		out[i] = rows[i].task()
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, title string) (domain.Task, error) {
	if s.d.returning {
		var r row
		q := s.db.Rebind(`INSERT INTO tasks (title) VALUES (?) RETURNING ` + taskColumns)
		if err := s.db.QueryRowxContext(ctx, q, title).StructScan(&r); err != nil {
			return domain.Task{}, fmt.Errorf("create task: %w", err)
		}
		return r.task(), nil
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO tasks (title) VALUES (?)`), title)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id int64) (domain.Task, error) {
	var r row
	q := s.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	if err := s.db.GetContext(ctx, &r, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, store.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return r.task(), nil
}

func (s *Store) SetCompleted(ctx context.Context, id int64, completed bool) error {
	v := 0
	if completed {
		v = 1
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE tasks SET completed = ? WHERE id = ?`), v, id)
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

var _ store.Store = (*Store)(nil)
