// Package repository persists listings, vehicle inquiries and lead
// submissions through database/sql.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/apperr"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

const listingColumns = "id, make, model, year, image_url, lease_price, term, down_payment, mileage, msrp, savings, tags, description"

// Repository stores both listing kinds in their own tables.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// List returns every listing of kind in insertion order.
func (r *Repository) List(ctx context.Context, kind dal.Kind) ([]dal.Listing, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+listingColumns+" FROM "+table+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	listings := []dal.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return listings, nil
}

// Get loads one listing.
func (r *Repository) Get(ctx context.Context, kind dal.Kind, id int64) (dal.Listing, error) {
	table, err := tableFor(kind)
	if err != nil {
		return dal.Listing{}, err
	}
	row := r.db.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM "+table+" WHERE id = ?", id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dal.Listing{}, apperr.NotFound("%s %d not found", kind, id)
	}
	if err != nil {
		return dal.Listing{}, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return l, nil
}

// Create inserts l and returns it with the assigned id.
func (r *Repository) Create(ctx context.Context, kind dal.Kind, l dal.Listing) (dal.Listing, error) {
	table, err := tableFor(kind)
	if err != nil {
		return dal.Listing{}, err
	}
	args, err := listingArgs(l)
	if err != nil {
		return dal.Listing{}, err
	}
	query := "INSERT INTO " + table + " (make, model, year, image_url, lease_price, term, down_payment, mileage, msrp, savings, tags, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return dal.Listing{}, fmt.Errorf("create %s: %w", kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dal.Listing{}, fmt.Errorf("create %s: %w", kind, err)
	}
	l.ID = id
	return l, nil
}

// Update replaces every field of the listing with id l.ID.
func (r *Repository) Update(ctx context.Context, kind dal.Kind, l dal.Listing) (dal.Listing, error) {
	table, err := tableFor(kind)
	if err != nil {
		return dal.Listing{}, err
	}
	args, err := listingArgs(l)
	if err != nil {
		return dal.Listing{}, err
	}
	args = append(args, l.ID)
	query := "UPDATE " + table + " SET make = ?, model = ?, year = ?, image_url = ?, lease_price = ?, term = ?, down_payment = ?, mileage = ?, msrp = ?, savings = ?, tags = ?, description = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return dal.Listing{}, fmt.Errorf("update %s %d: %w", kind, l.ID, err)
	}
	if err := expectRow(res, kind, l.ID); err != nil {
		return dal.Listing{}, err
	}
	return l, nil
}

// Delete removes the listing with id.
func (r *Repository) Delete(ctx context.Context, kind dal.Kind, id int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	return expectRow(res, kind, id)
}

// SaveInquiry records a vehicle inquiry together with its snapshot.
func (r *Repository) SaveInquiry(ctx context.Context, inq dal.Inquiry) (int64, error) {
	snapshot, err := json.Marshal(inq.Vehicle)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}
	query := "INSERT INTO vehicle_inquiries (vehicle_type, listing_id, first_name, last_name, email, phone, snapshot) VALUES (?, ?, ?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, query, string(inq.VehicleType), inq.Vehicle.ID, inq.FirstName, inq.LastName, inq.Email, inq.Phone, string(snapshot))
	if err != nil {
		return 0, fmt.Errorf("save inquiry: %w", err)
	}
	return res.LastInsertId()
}

// SaveLead records a landing page form submission.
func (r *Repository) SaveLead(ctx context.Context, form dal.LeadForm) (int64, error) {
	payload, err := json.Marshal(form)
	if err != nil {
		return 0, fmt.Errorf("encode lead: %w", err)
	}
	query := "INSERT INTO lead_submissions (form_type, first_name, last_name, email, phone_number, payload) VALUES (?, ?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, query, string(form.FormType), form.FirstName, form.LastName, form.Email, form.PhoneNumber, string(payload))
	if err != nil {
		return 0, fmt.Errorf("save lead: %w", err)
	}
	return res.LastInsertId()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (dal.Listing, error) {
	var (
		l           dal.Listing
		savings     sql.NullFloat64
		tags        sql.NullString
		description sql.NullString
	)
	err := s.Scan(&l.ID, &l.Make, &l.Model, &l.Year, &l.ImageURL, &l.LeasePrice, &l.Term, &l.DownPayment, &l.Mileage, &l.MSRP, &savings, &tags, &description)
	if err != nil {
		return dal.Listing{}, err
	}
	if savings.Valid {
		l.Savings = dal.Savings(savings.Float64)
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &l.Tags); err != nil {
			return dal.Listing{}, fmt.Errorf("decode tags of %d: %w", l.ID, err)
		}
	}
	l.Description = description.String
	return l, nil
}

func listingArgs(l dal.Listing) ([]any, error) {
	var savings sql.NullFloat64
	if l.Savings != nil {
		savings = sql.NullFloat64{Float64: *l.Savings, Valid: true}
	}
	var tags sql.NullString
	if len(l.Tags) > 0 {
		b, err := json.Marshal(l.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		tags = sql.NullString{String: string(b), Valid: true}
	}
	description := sql.NullString{String: l.Description, Valid: l.Description != ""}
	return []any{l.Make, l.Model, l.Year, l.ImageURL, l.LeasePrice, l.Term, l.DownPayment, l.Mileage, l.MSRP, savings, tags, description}, nil
}

func expectRow(res sql.Result, kind dal.Kind, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", kind, id, err)
	}
	if n == 0 {
		return apperr.NotFound("%s %d not found", kind, id)
	}
	return nil
}

func tableFor(kind dal.Kind) (string, error) {
	if !kind.Valid() {
		return "", apperr.Validation(fmt.Sprintf("unknown listing kind %q", kind))
	}
	return kind.Collection(), nil
}
