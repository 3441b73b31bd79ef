package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			token_balance BIGINT NOT NULL DEFAULT 0 CHECK (token_balance >= 0),
			savings_balance DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (savings_balance >= 0),
			sponsor_code VARCHAR(16) UNIQUE NOT NULL,
			referred_by_code VARCHAR(16),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create offers table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS offers (
			id VARCHAR(36) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			domain VARCHAR(64) NOT NULL,
			owner_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			price_tokens DOUBLE PRECISION,
			price_cash DOUBLE PRECISION,
			product_id VARCHAR(64),
			is_unique BOOLEAN NOT NULL DEFAULT FALSE,
			meta JSONB,
			created_at TIMESTAMP NOT NULL,
			CHECK (price_tokens IS NOT NULL OR price_cash IS NOT NULL)
		)
	`)
	if err != nil {
		return err
	}

	// Create trades table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id VARCHAR(36) PRIMARY KEY,
			offer_id VARCHAR(36) NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
			from_user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			to_user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			tokens BIGINT NOT NULL CHECK (tokens > 0),
			status VARCHAR(10) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Create order_groups table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS order_groups (
			id VARCHAR(36) PRIMARY KEY,
			product_id VARCHAR(64) NOT NULL,
			min_units_per_client BIGINT NOT NULL CHECK (min_units_per_client > 0),
			total_units BIGINT NOT NULL DEFAULT 0 CHECK (total_units >= 0),
			status VARCHAR(10) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create order_group_participants table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS order_group_participants (
			group_id VARCHAR(36) NOT NULL REFERENCES order_groups(id) ON DELETE CASCADE,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			units BIGINT NOT NULL CHECK (units > 0),
			PRIMARY KEY (group_id, user_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create referral_stats table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS referral_stats (
			id VARCHAR(36) PRIMARY KEY,
			sponsor_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			invited_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			total_saved DOUBLE PRECISION NOT NULL DEFAULT 0,
			commission_earned DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (sponsor_id, invited_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create saving_transactions table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS saving_transactions (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_offers_domain ON offers(domain)",
		"CREATE INDEX IF NOT EXISTS idx_trades_offer_id ON trades(offer_id)",
		"CREATE INDEX IF NOT EXISTS idx_trades_from_user ON trades(from_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_trades_to_user ON trades(to_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_referral_stats_sponsor ON referral_stats(sponsor_id)",
		"CREATE INDEX IF NOT EXISTS idx_saving_transactions_user ON saving_transactions(user_id)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			logrus.WithError(err).Warn("failed to create index")
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
