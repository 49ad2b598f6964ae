package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// UpsertRooms inserts or replaces room inventory rows.
func (s *Store) UpsertRooms(ctx context.Context, rooms []model.Room) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertRooms(ctx, tx, rooms); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertRooms(ctx context.Context, tx *sql.Tx, rooms []model.Room) error {
	for _, r := range rooms {
		_, err := tx.ExecContext(ctx, `INSERT INTO rooms (room_id, floor, category, sqm, weekly_rate, monday_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(room_id) DO UPDATE SET
				floor = excluded.floor,
				category = excluded.category,
				sqm = excluded.sqm,
				weekly_rate = excluded.weekly_rate,
				monday_id = COALESCE(excluded.monday_id, rooms.monday_id)`,
			r.ID, r.Floor, string(r.Category), nullFloat(r.Sqm), nullFloat(r.WeeklyRate), nullString(r.MondayID),
		)
		if err != nil {
			return fmt.Errorf("saving room %s: %w", r.ID, err)
		}
	}
	return nil
}

// EnsureRooms creates placeholder rows for room IDs not yet in inventory.
func (s *Store) EnsureRooms(ctx context.Context, roomIDs []string) (int, error) {
	created := 0
	for _, id := range roomIDs {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO rooms (room_id, floor, category) VALUES (?, '', '')`, id)
		if err != nil {
			return created, fmt.Errorf("ensuring room %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
		}
	}
	return created, nil
}

// UpsertContracts stores contracts, matching existing rows by CRM item ID or,
// failing that, by room, resident and start date. It returns the contracts
// with their stored IDs and how many were newly created.
func (s *Store) UpsertContracts(ctx context.Context, contracts []model.Contract) ([]model.Contract, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	saved := make([]model.Contract, 0, len(contracts))
	created := 0
	for _, c := range contracts {
		id, isNew, err := upsertContract(ctx, tx, c)
		if err != nil {
			return nil, 0, err
		}
		if isNew {
			created++
		}
		c.ID = id
		saved = append(saved, c)
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return saved, created, nil
}

func upsertContract(ctx context.Context, tx *sql.Tx, c model.Contract) (int64, bool, error) {
	id, err := findContract(ctx, tx, c)
	if err != nil {
		return 0, false, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	status := c.Status
	if status == "" {
		status = model.StatusActive
	}

	if id != 0 {
		_, err = tx.ExecContext(ctx, `UPDATE contracts SET
				monday_id = COALESCE(?, monday_id), room_id = ?, resident_name = ?,
				start_date = ?, end_date = ?, signed_date = ?, weekly_rate = ?,
				total_value = ?, weeks_booked = ?, payment_plan = ?, status = ?,
				nationality = ?, university = ?, source = ?, updated_at = ?
			WHERE id = ?`,
			nullString(c.MondayID), c.RoomID, c.ResidentName,
			formatDate(c.StartDate), formatDate(c.EndDate), formatDate(c.SignedDate), c.WeeklyRate,
			c.TotalValue, c.WeeksBooked, string(c.PaymentPlan), string(status),
			nullString(c.Nationality), nullString(c.University), nullString(c.Source), now,
			id,
		)
		if err != nil {
			return 0, false, fmt.Errorf("updating contract %d: %w", id, err)
		}
		return id, false, nil
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO contracts
			(monday_id, room_id, resident_name, start_date, end_date, signed_date,
			 weekly_rate, total_value, weeks_booked, payment_plan, status,
			 nationality, university, source, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullString(c.MondayID), c.RoomID, c.ResidentName,
		formatDate(c.StartDate), formatDate(c.EndDate), formatDate(c.SignedDate),
		c.WeeklyRate, c.TotalValue, c.WeeksBooked, string(c.PaymentPlan), string(status),
		nullString(c.Nationality), nullString(c.University), nullString(c.Source), now,
	)
	if err != nil {
		return 0, false, fmt.Errorf("inserting contract for %s: %w", c.RoomID, err)
	}
	id, err = res.LastInsertId()
	return id, true, err
}

func findContract(ctx context.Context, tx *sql.Tx, c model.Contract) (int64, error) {
	var id int64
	var err error
	if c.MondayID != "" {
		err = tx.QueryRowContext(ctx, "SELECT id FROM contracts WHERE monday_id = ?", c.MondayID).Scan(&id)
	} else {
		err = tx.QueryRowContext(ctx,
			"SELECT id FROM contracts WHERE room_id = ? AND resident_name = ? AND start_date = ?",
			c.RoomID, c.ResidentName, formatDate(c.StartDate)).Scan(&id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// ReplaceSchedule swaps a contract's scheduled payments for payments.
func (s *Store) ReplaceSchedule(ctx context.Context, contractID int64, payments []model.ScheduledPayment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM payment_schedule WHERE contract_id = ?", contractID); err != nil {
		return fmt.Errorf("clearing schedule for contract %d: %w", contractID, err)
	}
	for _, p := range payments {
		p.ContractID = contractID
		if err := insertPayment(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertPayment(ctx context.Context, tx *sql.Tx, p model.ScheduledPayment) error {
	kind := p.PaymentType
	if kind == "" {
		kind = model.PaymentRent
	}
	status := p.Status
	if status == "" {
		status = model.PaymentPending
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO payment_schedule
			(contract_id, due_date, amount, payment_type, status, paid_date, paid_amount)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ContractID, formatDate(p.DueDate), p.Amount, string(kind), string(status),
		formatDate(p.PaidDate), nullFloat(p.PaidAmount),
	)
	if err != nil {
		return fmt.Errorf("inserting payment for contract %d: %w", p.ContractID, err)
	}
	return nil
}

// SaveOpex inserts or replaces budgeted opex lines.
func (s *Store) SaveOpex(ctx context.Context, lines []model.OpexBudget) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, o := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO opex_budget (month, category, amount) VALUES (?, ?, ?)`,
			o.Month.Format(model.MonthLayout), o.Category, o.Amount)
		if err != nil {
			return fmt.Errorf("saving opex %s/%s: %w", o.Month.Format(model.MonthLayout), o.Category, err)
		}
	}
	return tx.Commit()
}

// SaveViewings records viewings, ignoring ones already stored.
func (s *Store) SaveViewings(ctx context.Context, viewings []model.Viewing) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	added := 0
	for _, v := range viewings {
		if v.Date.IsZero() {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO viewings (name, viewing_date, board) VALUES (?, ?, ?)`,
			v.Name, model.Day(v.Date).Format(model.DateLayout), v.Board)
		if err != nil {
			return 0, fmt.Errorf("saving viewing %s: %w", v.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, tx.Commit()
}
