// Package storage implements the repository ports on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"helpinghand/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// translateErr maps SQLite constraint failures onto the domain sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return core.ErrBrokenRef
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return core.ErrAlreadyExists
	}
	return err
}

// CampaignReader

func (r *SQLiteRepository) GetCampaign(ctx context.Context, id string) (core.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, goal_cents, raised_cents,
		       category_id, organizer_id, featured, start_date, end_date
		FROM campaigns WHERE id = ?`, id)

	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Campaign{}, core.ErrNotFound
		}
		return core.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}

	c.PaymentIDs, err = r.paymentRefs(ctx, id)
	if err != nil {
		return core.Campaign{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) ListCampaigns(ctx context.Context) ([]core.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, goal_cents, raised_cents,
		       category_id, organizer_id, featured, start_date, end_date
		FROM campaigns ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []core.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	for i := range out {
		out[i].PaymentIDs, err = r.paymentRefs(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteRepository) paymentRefs(ctx context.Context, campaignID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payment_id FROM campaign_payments
		WHERE campaign_id = ? ORDER BY position, payment_id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list payment refs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan payment ref: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CampaignLedger

// AddToRaised is a single UPDATE, so concurrent increments both apply; the
// database never sees a read-then-write.
func (r *SQLiteRepository) AddToRaised(ctx context.Context, campaignID string, amount core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET raised_cents = raised_cents + ? WHERE id = ?`,
		amount.Cents, campaignID)
	if err != nil {
		return fmt.Errorf("increment raised: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) AppendPaymentRef(ctx context.Context, campaignID, paymentID string) error {
	// One statement: position is derived inside the insert, and the primary
	// key makes a repeated append a no-op.
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO campaign_payments (campaign_id, payment_id, position)
		SELECT ?, ?, COALESCE(MAX(position), 0) + 1
		FROM campaign_payments WHERE campaign_id = ?`,
		campaignID, paymentID, campaignID)
	if err != nil {
		return fmt.Errorf("append payment ref: %w", translateErr(err))
	}
	return nil
}

// PaymentRepository

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, campaign_id, payer_id, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.CampaignID, p.PayerID, p.Amount.Cents, p.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("create payment: %w", translateErr(err))
	}

	slog.InfoContext(ctx, "Payment saved",
		"payment_id", p.ID,
		"campaign_id", p.CampaignID,
		"amount_cents", p.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id string) (core.Payment, error) {
	var p core.Payment
	var createdAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, payer_id, amount_cents, created_at
		FROM payments WHERE id = ?`, id).
		Scan(&p.ID, &p.CampaignID, &p.PayerID, &p.Amount.Cents, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Payment{}, core.ErrNotFound
		}
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

func (r *SQLiteRepository) ListPaymentsSince(ctx context.Context, since time.Time) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, payer_id, amount_cents, created_at
		FROM payments WHERE created_at >= ? ORDER BY created_at`,
		since.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var p core.Payment
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.CampaignID, &p.PayerID, &p.Amount.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SumAmounts(ctx context.Context) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments`).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum payments: %w", err)
	}
	return core.Money{Cents: total}, nil
}

func (r *SQLiteRepository) SumAmountsByPayer(ctx context.Context, payerID string) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE payer_id = ?`,
		payerID).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum payments by payer: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// IntentRepository

func (r *SQLiteRepository) CreateIntent(ctx context.Context, i core.PaymentIntent) error {
	if err := i.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_intents (id, campaign_id, payer_id, amount_cents, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		i.ID, i.CampaignID, i.PayerID, i.Amount.Cents, string(i.Status), i.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("create intent: %w", translateErr(err))
	}
	return nil
}

func (r *SQLiteRepository) GetIntent(ctx context.Context, id string) (core.PaymentIntent, error) {
	var i core.PaymentIntent
	var status string
	var createdAt int64
	var updatedAt sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, payer_id, amount_cents, status, created_at, updated_at
		FROM payment_intents WHERE id = ?`, id).
		Scan(&i.ID, &i.CampaignID, &i.PayerID, &i.Amount.Cents, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.PaymentIntent{}, core.ErrNotFound
		}
		return core.PaymentIntent{}, fmt.Errorf("get intent: %w", err)
	}
	i.Status = core.IntentStatus(status)
	i.CreatedAt = time.Unix(createdAt, 0).UTC()
	if updatedAt.Valid {
		i.UpdatedAt = time.Unix(updatedAt.Int64, 0).UTC()
	}
	return i, nil
}

func (r *SQLiteRepository) UpdateIntentStatus(ctx context.Context, id string, status core.IntentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_intents SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("update intent status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListIntentsByStatus(ctx context.Context, status core.IntentStatus, limit int) ([]core.PaymentIntent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, payer_id, amount_cents, status, created_at, updated_at
		FROM payment_intents WHERE status = ?
		ORDER BY created_at LIMIT ?`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list intents: %w", err)
	}
	defer rows.Close()

	var out []core.PaymentIntent
	for rows.Next() {
		var i core.PaymentIntent
		var s string
		var createdAt int64
		var updatedAt sql.NullInt64
		if err := rows.Scan(&i.ID, &i.CampaignID, &i.PayerID, &i.Amount.Cents, &s, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan intent: %w", err)
		}
		i.Status = core.IntentStatus(s)
		i.CreatedAt = time.Unix(createdAt, 0).UTC()
		if updatedAt.Valid {
			i.UpdatedAt = time.Unix(updatedAt.Int64, 0).UTC()
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// UserRepository / CategoryRepository

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, role FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrNotFound
		}
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Seed helpers for development and tests.

func (r *SQLiteRepository) InsertUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Role)
	if err != nil {
		return fmt.Errorf("insert user: %w", translateErr(err))
	}
	return nil
}

func (r *SQLiteRepository) InsertCampaign(ctx context.Context, c core.Campaign) error {
	featured := 0
	if c.Featured {
		featured = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, title, description, goal_cents, raised_cents,
		                       category_id, organizer_id, featured, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, c.Goal.Cents, c.Raised.Cents,
		c.CategoryID, c.OrganizerID, featured,
		c.StartDate.UTC().Unix(), c.EndDate.UTC().Unix())
	if err != nil {
		return fmt.Errorf("insert campaign: %w", translateErr(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (core.Campaign, error) {
	var c core.Campaign
	var featured int
	var start, end int64
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Goal.Cents, &c.Raised.Cents,
		&c.CategoryID, &c.OrganizerID, &featured, &start, &end)
	if err != nil {
		return core.Campaign{}, err
	}
	c.Featured = featured != 0
	c.StartDate = time.Unix(start, 0).UTC()
	c.EndDate = time.Unix(end, 0).UTC()
	return c, nil
}
