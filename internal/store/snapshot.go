package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// LoadSnapshot reads every stored record into an immutable snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	var err error

	if snap.Rooms, err = s.loadRooms(ctx); err != nil {
		return snap, fmt.Errorf("loading rooms: %w", err)
	}
	if snap.Contracts, err = s.loadContracts(ctx); err != nil {
		return snap, fmt.Errorf("loading contracts: %w", err)
	}
	if snap.Payments, err = s.loadPayments(ctx); err != nil {
		return snap, fmt.Errorf("loading payment schedule: %w", err)
	}
	if snap.Opex, err = s.loadOpex(ctx); err != nil {
		return snap, fmt.Errorf("loading opex: %w", err)
	}
	if snap.Viewings, err = s.loadViewings(ctx); err != nil {
		return snap, fmt.Errorf("loading viewings: %w", err)
	}
	snap.LoadedAt = time.Now()
	return snap, nil
}

func (s *Store) loadRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room_id, floor, category, sqm, weekly_rate, monday_id FROM rooms ORDER BY room_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rooms []model.Room
	for rows.Next() {
		var r model.Room
		var category string
		var sqm, rate sql.NullFloat64
		var mondayID sql.NullString
		if err := rows.Scan(&r.ID, &r.Floor, &category, &sqm, &rate, &mondayID); err != nil {
			return nil, err
		}
		r.Category = model.RoomCategory(category)
		r.Sqm = sqm.Float64
		r.WeeklyRate = rate.Float64
		r.MondayID = mondayID.String
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (s *Store) loadContracts(ctx context.Context) ([]model.Contract, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, monday_id, room_id, resident_name, start_date, end_date, signed_date,
		weekly_rate, total_value, weeks_booked, payment_plan, status,
		nationality, university, source
		FROM contracts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var contracts []model.Contract
	for rows.Next() {
		var c model.Contract
		var mondayID, start, end, signed, nationality, university, source sql.NullString
		var rate, total, weeks sql.NullFloat64
		var plan, status string
		err := rows.Scan(&c.ID, &mondayID, &c.RoomID, &c.ResidentName, &start, &end, &signed,
			&rate, &total, &weeks, &plan, &status,
			&nationality, &university, &source)
		if err != nil {
			return nil, err
		}
		c.MondayID = mondayID.String
		c.StartDate = parseDate(start)
		c.EndDate = parseDate(end)
		c.SignedDate = parseDate(signed)
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

func (s *Store) loadPayments(ctx context.Context) ([]model.ScheduledPayment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, contract_id, due_date, amount, payment_type, status, paid_date, paid_amount
		FROM payment_schedule ORDER BY due_date, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var payments []model.ScheduledPayment
	for rows.Next() {
		var p model.ScheduledPayment
		var due, paidDate sql.NullString
		var paidAmount sql.NullFloat64
		var kind, status string
		if err := rows.Scan(&p.ID, &p.ContractID, &due, &p.Amount, &kind, &status, &paidDate, &paidAmount); err != nil {
			return nil, err
		}
		p.DueDate = parseDate(due)
		p.PaymentType = model.PaymentType(kind)
		p.Status = model.PaymentStatus(status)
		p.PaidDate = parseDate(paidDate)
		p.PaidAmount = paidAmount.Float64
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Store) loadOpex(ctx context.Context) ([]model.OpexBudget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT month, category, amount FROM opex_budget ORDER BY month, category`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []model.OpexBudget
	for rows.Next() {
		var o model.OpexBudget
		var month string
		if err := rows.Scan(&month, &o.Category, &o.Amount); err != nil {
			return nil, err
		}
		o.Month, err = time.Parse(model.MonthLayout, month)
		if err != nil {
			return nil, fmt.Errorf("bad opex month %q: %w", month, err)
		}
		lines = append(lines, o)
	}
	return lines, rows.Err()
}

func (s *Store) loadViewings(ctx context.Context) ([]model.Viewing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, viewing_date, board FROM viewings ORDER BY viewing_date DESC, name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var viewings []model.Viewing
	for rows.Next() {
		var v model.Viewing
		var date sql.NullString
		if err := rows.Scan(&v.Name, &date, &v.Board); err != nil {
			return nil, err
		}
		v.Date = parseDate(date)
		viewings = append(viewings, v)
	}
	return viewings, rows.Err()
}

// SaveSnapshot replaces every data table with the snapshot's records,
// keeping record IDs so schedules stay attached to their contracts.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"payment_schedule", "contracts", "rooms", "opex_budget", "viewings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := upsertRooms(ctx, tx, snap.Rooms); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range snap.Contracts {
		_, err := tx.ExecContext(ctx, `INSERT INTO contracts
				(id, monday_id, room_id, resident_name, start_date, end_date, signed_date,
				 weekly_rate, total_value, weeks_booked, payment_plan, status,
				 nationality, university, source, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, nullString(c.MondayID), c.RoomID, c.ResidentName,
			formatDate(c.StartDate), formatDate(c.EndDate), formatDate(c.SignedDate),
			c.WeeklyRate, c.TotalValue, c.WeeksBooked, string(c.PaymentPlan), string(c.Status),
			nullString(c.Nationality), nullString(c.University), nullString(c.Source), now,
		)
		if err != nil {
			return fmt.Errorf("mirroring contract %d: %w", c.ID, err)
		}
	}

	for _, p := range snap.Payments {
		_, err := tx.ExecContext(ctx, `INSERT INTO payment_schedule
				(id, contract_id, due_date, amount, payment_type, status, paid_date, paid_amount)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ContractID, formatDate(p.DueDate), p.Amount, string(p.PaymentType), string(p.Status),
			formatDate(p.PaidDate), nullFloat(p.PaidAmount),
		)
		if err != nil {
			return fmt.Errorf("mirroring payment %d: %w", p.ID, err)
		}
	}

	for _, o := range snap.Opex {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO opex_budget (month, category, amount) VALUES (?, ?, ?)`,
			o.Month.Format(model.MonthLayout), o.Category, o.Amount)
		if err != nil {
			return fmt.Errorf("mirroring opex: %w", err)
		}
	}

	for _, v := range snap.Viewings {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO viewings (name, viewing_date, board) VALUES (?, ?, ?)`,
			v.Name, model.Day(v.Date).Format(model.DateLayout), v.Board)
		if err != nil {
			return fmt.Errorf("mirroring viewing: %w", err)
		}
	}

	return tx.Commit()
}
