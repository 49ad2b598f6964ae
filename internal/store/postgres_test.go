package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morehouse/mhouse/internal/model"
)

func setupMockSource(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PGSource) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	src, err := NewPGSource(db, "more_house")
	require.NoError(t, err)

	return db, mock, src
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expectCoreTables(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM "more_house"."rooms"`).
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "floor", "category", "sqm", "weekly_rate"}).
			AddRow("1.01", "1", "Standard", 14.5, 320.0).
			AddRow("MEZZ 10", "M", "Studio", nil, nil))

	mock.ExpectQuery(`FROM "more_house"."contracts"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "monday_id", "room_id", "resident_name", "start_date", "end_date",
			"weekly_rate", "total_value", "weeks_booked", "payment_plan", "status",
			"nationality", "university", "source",
		}).AddRow(7, "8801", "1.01", "Ada Lovelace", day(2025, 9, 1), day(2026, 6, 30),
			320.0, 13760.0, 43.0, "Installments", "active",
			"GB", nil, "Direct"))

	mock.ExpectQuery(`FROM "more_house"."payment_schedule"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "contract_id", "due_date", "amount", "payment_type", "status", "paid_date", "paid_amount",
		}).
			AddRow(1, 7, day(2025, 9, 1), 1376.0, "rent", "paid", day(2025, 8, 29), 1376.0).
			AddRow(2, 7, day(2025, 10, 1), 1376.0, "rent", "pending", nil, nil))

	mock.ExpectQuery(`FROM "more_house"."opex_budget"`).
		WillReturnRows(sqlmock.NewRows([]string{"month_date", "category", "amount"}).
			AddRow(day(2025, 9, 15), "Utilities", 4200.0))
}

func TestPGSourceLoadSnapshot(t *testing.T) {
	db, mock, src := setupMockSource(t)
	defer db.Close()

	expectCoreTables(mock)
	mock.ExpectQuery(`FROM "more_house"."viewings"`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "viewing_date", "board"}).
			AddRow("Grace Hopper", day(2025, 8, 20), "qualified"))

	snap, err := src.LoadSnapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Rooms, 2)
	assert.Equal(t, model.RoomCategory("Studio"), snap.Rooms[1].Category)
	assert.Zero(t, snap.Rooms[1].WeeklyRate)

	require.Len(t, snap.Contracts, 1)
	c := snap.Contracts[0]
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "8801", c.MondayID)
	assert.Equal(t, model.PlanInstallments, c.PaymentPlan)
	assert.Equal(t, model.StatusActive, c.Status)
	assert.Empty(t, c.University)
	assert.True(t, c.EndDate.Equal(day(2026, 6, 30)))

	require.Len(t, snap.Payments, 2)
	assert.Equal(t, 1376.0, snap.Payments[0].Paid())
	assert.True(t, snap.Payments[1].PaidDate.IsZero())

	require.Len(t, snap.Opex, 1)
	assert.True(t, snap.Opex[0].Month.Equal(day(2025, 9, 1)), "opex month should be normalized to the 1st")

	require.Len(t, snap.Viewings, 1)
	assert.False(t, snap.LoadedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGSourceMissingViewingsTable(t *testing.T) {
	db, mock, src := setupMockSource(t)
	defer db.Close()

	expectCoreTables(mock)
	mock.ExpectQuery(`FROM "more_house"."viewings"`).
		WillReturnError(&pq.Error{Code: pqUndefinedTable, Message: `relation "more_house.viewings" does not exist`})

	snap, err := src.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Viewings)
	assert.Len(t, snap.Contracts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGSourceQueryError(t *testing.T) {
	db, mock, src := setupMockSource(t)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM "more_house"."rooms"`).WillReturnError(boom)

	_, err := src.LoadSnapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "loading rooms")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPGSourceRejectsBadSchema(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewPGSource(db, `mh"; DROP TABLE rooms; --`)
	assert.Error(t, err)

	src, err := NewPGSource(db, "")
	require.NoError(t, err)
	assert.Equal(t, `"public"."rooms"`, src.table("rooms"))
}
