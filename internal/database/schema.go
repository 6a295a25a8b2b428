package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// sandbox 後端的資料表；tickets 以 (class_offering_id, seat_id) 部分唯一索引
// 保證同一座位只會有一張未取消的車票
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		name          TEXT,
		email         TEXT UNIQUE,
		national_id   TEXT,
		gender        TEXT,
		phone_number  TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS class_offerings (
		id           SERIAL PRIMARY KEY,
		schedule_id  INT NOT NULL,
		class_name   TEXT NOT NULL,
		price        NUMERIC(12, 2) NOT NULL CHECK (price >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		id                 SERIAL PRIMARY KEY,
		class_offering_id  INT NOT NULL REFERENCES class_offerings(id),
		label              TEXT NOT NULL,
		position           TEXT NOT NULL DEFAULT '',
		seat_index         INT NOT NULL,
		UNIQUE (class_offering_id, seat_index)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id                 INT PRIMARY KEY,
		code               TEXT NOT NULL UNIQUE,
		user_id            INT NOT NULL REFERENCES users(id),
		class_offering_id  INT NOT NULL REFERENCES class_offerings(id),
		seat_id            INT NOT NULL REFERENCES seats(id),
		passenger_name     TEXT NOT NULL,
		national_id        TEXT NOT NULL,
		phone_number       TEXT NOT NULL,
		price              NUMERIC(12, 2) NOT NULL,
		status             TEXT NOT NULL,
		booked_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS tickets_active_seat_idx
		ON tickets (class_offering_id, seat_id)
		WHERE status <> 'dibatalkan'`,
	`CREATE TABLE IF NOT EXISTS payments (
		id           SERIAL PRIMARY KEY,
		ticket_id    INT NOT NULL REFERENCES tickets(id),
		method       TEXT NOT NULL,
		status       TEXT NOT NULL,
		amount       NUMERIC(12, 2) NOT NULL,
		invoice_url  TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema 建立 sandbox 需要的資料表（已存在則略過）
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
