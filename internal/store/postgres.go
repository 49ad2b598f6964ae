package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"

	"github.com/morehouse/mhouse/internal/model"
)

// pqUndefinedTable is the SQLSTATE for a missing relation.
const pqUndefinedTable = "42P01"

var schemaName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PGSource reads snapshots from the shared Postgres database the CRM
// sync writes to. Tables live under a single schema.
type PGSource struct {
	db     *sql.DB
	schema string
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn, schema string) (*PGSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	src, err := NewPGSource(db, schema)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return src, nil
}

// NewPGSource wraps an open database handle.
func NewPGSource(db *sql.DB, schema string) (*PGSource, error) {
	if schema == "" {
		schema = "public"
	}
	if !schemaName.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name %q", schema)
	}
	return &PGSource{db: db, schema: schema}, nil
}

// Close closes the underlying connection pool.
func (p *PGSource) Close() error {
	return p.db.Close()
}

func (p *PGSource) table(name string) string {
	return pq.QuoteIdentifier(p.schema) + "." + pq.QuoteIdentifier(name)
}

// LoadSnapshot reads rooms, contracts, payment schedule, opex and viewings.
// A missing viewings table yields no viewings rather than an error.
func (p *PGSource) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	var err error

	if snap.Rooms, err = p.loadRooms(ctx); err != nil {
		return snap, fmt.Errorf("loading rooms: %w", err)
	}
	if snap.Contracts, err = p.loadContracts(ctx); err != nil {
		return snap, fmt.Errorf("loading contracts: %w", err)
	}
	if snap.Payments, err = p.loadPayments(ctx); err != nil {
		return snap, fmt.Errorf("loading payment schedule: %w", err)
	}
	if snap.Opex, err = p.loadOpex(ctx); err != nil {
		return snap, fmt.Errorf("loading opex: %w", err)
	}
	snap.Viewings, err = p.loadViewings(ctx)
	if err != nil && !isUndefinedTable(err) {
		return snap, fmt.Errorf("loading viewings: %w", err)
	}
	snap.LoadedAt = time.Now()
	return snap, nil
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable
}

func (p *PGSource) loadRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT room_id, COALESCE(floor, ''), COALESCE(category, ''), sqm, weekly_rate
		FROM `+p.table("rooms")+` ORDER BY room_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rooms []model.Room
	for rows.Next() {
		var r model.Room
		var category string
		var sqm, rate sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Floor, &category, &sqm, &rate); err != nil {
			return nil, err
		}
		r.Category = model.RoomCategory(category)
		r.Sqm = sqm.Float64
		r.WeeklyRate = rate.Float64
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (p *PGSource) loadContracts(ctx context.Context) ([]model.Contract, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT
		id, monday_id, room_id, resident_name, start_date, end_date,
		weekly_rate, total_value, weeks_booked, COALESCE(payment_plan, ''), COALESCE(status, 'active'),
		nationality, university, source
		FROM `+p.table("contracts")+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var contracts []model.Contract
	for rows.Next() {
		var c model.Contract
		var mondayID, nationality, university, source sql.NullString
		var rate, total, weeks sql.NullFloat64
		var plan, status string
		err := rows.Scan(&c.ID, &mondayID, &c.RoomID, &c.ResidentName, &c.StartDate, &c.EndDate,
			&rate, &total, &weeks, &plan, &status,
			&nationality, &university, &source)
		if err != nil {
			return nil, err
		}
		c.StartDate = model.Day(c.StartDate)
		c.EndDate = model.Day(c.EndDate)
		c.MondayID = mondayID.String
		c.WeeklyRate = rate.Float64
		c.TotalValue = total.Float64
		c.WeeksBooked = weeks.Float64
		c.PaymentPlan = model.PaymentPlan(plan)
		c.Status = model.ContractStatus(status)
		c.Nationality = nationality.String
		c.University = university.String
		c.Source = source.String
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func (p *PGSource) loadPayments(ctx context.Context) ([]model.ScheduledPayment, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT
		id, contract_id, due_date, amount, COALESCE(payment_type, 'rent'), COALESCE(status, 'pending'),
		paid_date, paid_amount
		FROM `+p.table("payment_schedule")+` ORDER BY due_date, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var payments []model.ScheduledPayment
	for rows.Next() {
		var sp model.ScheduledPayment
		var paidDate sql.NullTime
		var paidAmount sql.NullFloat64
		var kind, status string
		if err := rows.Scan(&sp.ID, &sp.ContractID, &sp.DueDate, &sp.Amount, &kind, &status, &paidDate, &paidAmount); err != nil {
			return nil, err
		}
		sp.DueDate = model.Day(sp.DueDate)
		sp.PaymentType = model.PaymentType(kind)
		sp.Status = model.PaymentStatus(status)
		if paidDate.Valid {
			sp.PaidDate = model.Day(paidDate.Time)
		}
		sp.PaidAmount = paidAmount.Float64
		payments = append(payments, sp)
	}
	return payments, rows.Err()
}

func (p *PGSource) loadOpex(ctx context.Context) ([]model.OpexBudget, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT month_date, COALESCE(category, ''), COALESCE(amount, 0)
		FROM `+p.table("opex_budget")+` ORDER BY month_date, category`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []model.OpexBudget
	for rows.Next() {
		var o model.OpexBudget
		if err := rows.Scan(&o.Month, &o.Category, &o.Amount); err != nil {
			return nil, err
		}
		o.Month = time.Date(o.Month.Year(), o.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		lines = append(lines, o)
	}
	return lines, rows.Err()
}

func (p *PGSource) loadViewings(ctx context.Context) ([]model.Viewing, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name, viewing_date, COALESCE(board, '')
		FROM `+p.table("viewings")+` ORDER BY viewing_date DESC, name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var viewings []model.Viewing
	for rows.Next() {
		var v model.Viewing
		if err := rows.Scan(&v.Name, &v.Date, &v.Board); err != nil {
			return nil, err
		}
		v.Date = model.Day(v.Date)
		viewings = append(viewings, v)
	}
	return viewings, rows.Err()
}
