package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype/zeronull"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
)

// Repository is the PostgreSQL order store.
type Repository struct {
	db *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{
		db: pool,
	}
}

func (r *Repository) Order(ctx context.Context, id string) (entity.Order, error) {
	return r.orderWithHistory(ctx, selectOrder+" WHERE id = $1", id)
}

func (r *Repository) OrderByMerchantRef(ctx context.Context, merchantRefNo string) (entity.Order, error) {
	return r.orderWithHistory(ctx, selectOrder+" WHERE aba_merchant_ref_no = $1", merchantRefNo)
}

func (r *Repository) orderWithHistory(ctx context.Context, q string, arg any) (entity.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, q, arg))
	if err != nil {
		return entity.Order{}, err
	}

	o.ABA.StatusHistory, err = r.history(ctx, o.ID)
	if err != nil {
		return entity.Order{}, fmt.Errorf("get status history: %w", err)
	}

	return o, nil
}

func (r *Repository) history(ctx context.Context, orderID string) ([]entity.StatusHistoryEntry, error) {
	rows, err := r.db.Query(ctx, selectHistory, orderID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var entries []entity.StatusHistoryEntry

	for rows.Next() {
		var e entity.StatusHistoryEntry

		err = rows.Scan(&e.Status, &e.StatusCode, &e.Timestamp, &e.Source, &e.Details)
		if err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *Repository) SetMerchantRefNo(ctx context.Context, orderID, ref string, updatedAt time.Time) (string, error) {
	const q = `UPDATE orders SET aba_merchant_ref_no = $1, updated_at = $2
		WHERE id = $3 AND aba_merchant_ref_no IS NULL
		RETURNING aba_merchant_ref_no`

	var stored string

	err := r.db.QueryRow(ctx, q, ref, updatedAt, orderID).Scan(&stored)
	if err == nil {
		return stored, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	var existing zeronull.Text

	err = r.db.QueryRow(ctx, `SELECT aba_merchant_ref_no FROM orders WHERE id = $1`, orderID).Scan(&existing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", entity.ErrNotFound
		}

		return "", err
	}

	return string(existing), nil
}

func (r *Repository) MarkOrderPaid(ctx context.Context, paid entity.PaidOrder) error {
	const q = `UPDATE orders SET is_paid = TRUE, paid_at = $1, payment_result = $2, updated_at = $1
		WHERE id = $3 AND is_paid = FALSE`

	result, err := json.Marshal(paid.Result)
	if err != nil {
		return fmt.Errorf("marshal payment result: %w", err)
	}

	tag, err := r.db.Exec(ctx, q, paid.PaidAt, result, paid.OrderID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return r.unpaidMiss(ctx, paid.OrderID)
	}

	return nil
}

func (r *Repository) SetPaymentResult(ctx context.Context, orderID string, result entity.PaymentResult) error {
	const q = `UPDATE orders SET payment_result = $1, updated_at = $2 WHERE id = $3 AND is_paid = FALSE`

	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal payment result: %w", err)
	}

	tag, err := r.db.Exec(ctx, q, b, result.UpdateTime, orderID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return r.unpaidMiss(ctx, orderID)
	}

	return nil
}

// unpaidMiss explains why a conditional update on an unpaid order matched nothing.
func (r *Repository) unpaidMiss(ctx context.Context, orderID string) error {
	var isPaid bool

	err := r.db.QueryRow(ctx, `SELECT is_paid FROM orders WHERE id = $1`, orderID).Scan(&isPaid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.ErrNotFound
		}

		return err
	}

	if isPaid {
		return entity.ErrAlreadyPaid
	}

	return fmt.Errorf("order %q was not updated", orderID)
}

func (r *Repository) RecordProviderStatus(ctx context.Context, u entity.ProviderStatusUpdate) error {
	stmt := sq.Update("orders").
		Set("updated_at", u.Entry.Timestamp).
		Where(sq.Eq{"id": u.OrderID}).
		PlaceholderFormat(sq.Dollar)

	if !u.HistoryOnly {
		stmt = stmt.Set("aba_status", u.Entry.Status).Set("aba_status_code", u.Entry.StatusCode)
	}

	if u.TransactionID != "" {
		stmt = stmt.Set("aba_transaction_id", u.TransactionID)
	}

	if u.CallbackReceived {
		stmt = stmt.Set("aba_callback_received", true)
	}

	if u.CheckedAt != nil {
		stmt = stmt.Set("aba_last_checked_at", *u.CheckedAt)
	}

	q, args, err := stmt.ToSql()
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q, args...)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return entity.ErrNotFound
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO order_status_history (order_id, status, status_code, source, details, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			u.OrderID, u.Entry.Status, u.Entry.StatusCode, u.Entry.Source, u.Entry.Details, u.Entry.Timestamp,
		)

		return err
	})
}

// OrdersAwaitingPayment returns unpaid orders with a merchant reference and no
// callback yet. Status history is not loaded.
func (r *Repository) OrdersAwaitingPayment(ctx context.Context, f entity.PendingFilter) ([]entity.Order, error) {
	stmt := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{
			"payment_method":        f.PaymentMethod,
			"is_paid":               false,
			"aba_callback_received": false,
		}).
		Where(sq.NotEq{"aba_merchant_ref_no": nil}).
		Where(sq.GtOrEq{"created_at": f.CreatedAfter}).
		Where(sq.Lt{"created_at": f.CreatedBefore}).
		OrderBy("created_at").
		PlaceholderFormat(sq.Dollar)

	if f.Limit > 0 {
		stmt = stmt.Limit(f.Limit)
	}

	q, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var orders []entity.Order

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}

		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (entity.Order, error) {
	var (
		o          entity.Order
		result     []byte
		items      []byte
		customer   []byte
		statusCode zeronull.Int4
	)

	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.TotalPrice,
		&o.Currency,
		&o.PaymentMethod,
		&o.IsPaid,
		&o.PaidAt,
		&result,
		&items,
		&customer,
		(*zeronull.Text)(&o.ABA.MerchantRefNo),
		(*zeronull.Text)(&o.ABA.TransactionID),
		(*zeronull.Text)(&o.ABA.Status),
		&statusCode,
		&o.ABA.LastCheckedAt,
		&o.ABA.CallbackReceived,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Order{}, entity.ErrNotFound
		}

		return entity.Order{}, err
	}

	o.ABA.StatusCode = int(statusCode)

	if len(result) > 0 {
		o.PaymentResult = &entity.PaymentResult{}

		err = json.Unmarshal(result, o.PaymentResult)
		if err != nil {
			return entity.Order{}, fmt.Errorf("unmarshal payment result: %w", err)
		}
	}

	err = json.Unmarshal(items, &o.Items)
	if err != nil {
		return entity.Order{}, fmt.Errorf("unmarshal items: %w", err)
	}

	err = json.Unmarshal(customer, &o.Customer)
	if err != nil {
		return entity.Order{}, fmt.Errorf("unmarshal customer: %w", err)
	}

	return o, nil
}
