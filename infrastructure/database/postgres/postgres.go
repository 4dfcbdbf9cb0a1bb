package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/nvezzaro/social-tracker-api/internal/config"
)

type Conn interface {
	Queryer
	Session(context.Context) (*sql.Conn, error)
	Close() error
	Ping(context.Context) error
}

type Connection struct {
	*sql.DB
}

func NewConnection(
	ctx context.Context,
	cfg config.Database,
) (*Connection, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return &Connection{DB: db}, nil
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Session pins a single connection from the pool. Advisory locks are
// session-scoped in Postgres, so acquire and release must happen on the same
// connection; the pool gives no such guarantee for plain Exec calls.
func (c *Connection) Session(ctx context.Context) (*sql.Conn, error) {
	return c.DB.Conn(ctx)
}
