package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrNotFound = errors.New("not found")

// Registration is a player profile submitted before a mission. The access
// code is only ever stored as a bcrypt hash.
type Registration struct {
	ID        string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Consent   bool
	Terms     bool
	Code      string
	ClientTS  int64
	CreatedAt time.Time
}

// Registrations logs player profiles in the registrations table.
type Registrations struct {
	db *sql.DB
}

func NewRegistrations(db *sql.DB) *Registrations {
	return &Registrations{db: db}
}

// Save stores reg and returns its generated id.
func (r *Registrations) Save(ctx context.Context, reg Registration) (string, error) {
	var codeHash string
	if reg.Code != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(reg.Code), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hashing access code: %w", err)
		}
		codeHash = string(h)
	}

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO registrations (id, first_name, last_name, phone, email, consent, terms, code_hash, client_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, reg.FirstName, reg.LastName, reg.Phone, reg.Email, reg.Consent, reg.Terms, codeHash, reg.ClientTS)
	if err != nil {
		return "", fmt.Errorf("inserting registration: %w", err)
	}
	return id, nil
}

// CodeMatches reports whether code is the access code registered under id.
func (r *Registrations) CodeMatches(ctx context.Context, id, code string) (bool, error) {
	var codeHash string
	err := r.db.QueryRowContext(ctx,
		`SELECT code_hash FROM registrations WHERE id = ?`, id,
	).Scan(&codeHash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if codeHash == "" {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(codeHash), []byte(code)) == nil, nil
}

// Count returns how many registrations share email.
func (r *Registrations) Count(ctx context.Context, email string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE email = ?`, email,
	).Scan(&n)
	return n, err
}
