package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureUsersTable()
	ensureSwapRequestsTable()
	ensureInteractionsTable()
	ensureProgressUpdatesTable()
	ensureNotificationsTable()
}

func ensureUsersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member', 'admin')),
			bio TEXT,
			avatar_url TEXT,
			skills TEXT[] NOT NULL DEFAULT '{}',
			categories TEXT[] NOT NULL DEFAULT '{}',
			city TEXT,
			organization_id UUID NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		log.Printf("failed to ensure users table: %v", err)
	}
}

func ensureSwapRequestsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS swap_requests (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			service_title TEXT NOT NULL,
			service_categories TEXT[] NOT NULL DEFAULT '{}',
			service_required TEXT NOT NULL,
			service_description TEXT NOT NULL DEFAULT '',
			years_of_experience INTEGER NULL CHECK (years_of_experience >= 0),
			preferred_location TEXT NOT NULL DEFAULT '',
			deadline TIMESTAMP WITH TIME ZONE NULL,
			status TEXT NOT NULL DEFAULT 'open'
				CHECK (status IN ('open', 'in_progress', 'completed', 'cancelled')),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_swap_requests_status_created
			ON swap_requests(status, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_swap_requests_owner ON swap_requests(owner_id);
	`)
	if err != nil {
		log.Printf("failed to ensure swap_requests table: %v", err)
	}
}

func ensureInteractionsTable() {
	ctx := context.Background()
	// The two partial unique indexes carry the ledger invariants: one active
	// interaction per (request, requester) pair, one approved partner per
	// request. Rejected rows stay behind so a requester may place again.
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS interactions (
			id UUID PRIMARY KEY,
			swap_request_id UUID NOT NULL REFERENCES swap_requests(id) ON DELETE CASCADE,
			requester_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'approved', 'rejected')),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			decided_at TIMESTAMP WITH TIME ZONE NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_interactions_active_pair
			ON interactions(swap_request_id, requester_id)
			WHERE status IN ('pending', 'approved');
		CREATE UNIQUE INDEX IF NOT EXISTS idx_interactions_one_approved
			ON interactions(swap_request_id)
			WHERE status = 'approved';
		CREATE INDEX IF NOT EXISTS idx_interactions_request ON interactions(swap_request_id);
	`)
	if err != nil {
		log.Printf("failed to ensure interactions table: %v", err)
	}
}

func ensureProgressUpdatesTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS progress_updates (
			id UUID PRIMARY KEY,
			swap_request_id UUID NOT NULL REFERENCES swap_requests(id) ON DELETE CASCADE,
			author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			percentage INTEGER NOT NULL CHECK (percentage >= 0 AND percentage <= 100),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_progress_updates_request_author
			ON progress_updates(swap_request_id, author_id, created_at DESC);
	`)
	if err != nil {
		log.Printf("failed to ensure progress_updates table: %v", err)
	}
}

func ensureNotificationsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			body TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			read_at TIMESTAMP WITH TIME ZONE NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_user_created
			ON notifications(user_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_notifications_user_unread
			ON notifications(user_id) WHERE read_at IS NULL;
	`)
	if err != nil {
		log.Printf("failed to create notifications table: %v", err)
	}
}
