package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// EnsureSchema creates the listing and submission tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	text := "TEXT"
	if dialect == MySQL {
		pk = "BIGINT PRIMARY KEY AUTO_INCREMENT"
		text = "LONGTEXT"
	}

	var statements []string
	for _, kind := range dal.Kinds {
		statements = append(statements, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id %s,
			make VARCHAR(50) NOT NULL,
			model VARCHAR(50) NOT NULL,
			year INTEGER NOT NULL,
			image_url VARCHAR(512) NOT NULL DEFAULT '',
			lease_price DOUBLE NOT NULL,
			term INTEGER NOT NULL,
			down_payment DOUBLE NOT NULL,
			mileage INTEGER NOT NULL,
			msrp DOUBLE NOT NULL,
			savings DOUBLE NULL,
			tags %s NULL,
			description %s NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, kind.Collection(), pk, text, text))
	}
	statements = append(statements,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vehicle_inquiries (
			id %s,
			vehicle_type VARCHAR(10) NOT NULL,
			listing_id BIGINT NOT NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(100) NOT NULL,
			phone VARCHAR(20) NOT NULL,
			snapshot %s NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, pk, text),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS lead_submissions (
			id %s,
			form_type VARCHAR(30) NOT NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(100) NOT NULL,
			phone_number VARCHAR(20) NOT NULL,
			payload %s NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, pk, text),
	)

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(strings.TrimSuffix(line, "("))
}
