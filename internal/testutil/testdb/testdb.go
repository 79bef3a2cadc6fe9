//go:build testutil
// +build testutil

// Package testdb spins up a throwaway MySQL container for repository tests.
// Guarded by the testutil build tag so the default test run stays hermetic.
package testdb

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/khlin/ticket-registration/internal/database"
)

type DBHandle struct {
	DB     *sql.DB
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start launches a MySQL container, opens a connection with the same DSN
// options production uses and applies the schema.
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	ctr, err := mysql.RunContainer(ctx,
		tc.WithImage("mysql:8.4"),
		mysql.WithDatabase("tickets"),
		mysql.WithUsername("tickets"),
		mysql.WithPassword("tickets"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	dsn, err := ctr.ConnectionString(ctx, "charset=utf8mb4", "parseTime=true", "loc=UTC", "clientFoundRows=true")
	if err != nil {
		_ = ctr.Terminate(ctx)
		cancel()
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		_ = ctr.Terminate(ctx)
		cancel()
		return nil, err
	}
	if err := waitReady(ctx, db); err != nil {
		_ = db.Close()
		_ = ctr.Terminate(ctx)
		cancel()
		return nil, err
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		_ = ctr.Terminate(ctx)
		cancel()
		return nil, err
	}

	return &DBHandle{DB: db, cancel: cancel, stop: ctr.Terminate}, nil
}

func waitReady(ctx context.Context, db *sql.DB) error {
	var err error
	for i := 0; i < 60; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return err
}
