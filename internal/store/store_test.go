package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hospital-iot-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_UpsertDevice(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "devices" .* ON CONFLICT \("device_id"\) DO UPDATE SET`).
		WithArgs("BED-MONITOR-101-ICU", int64(1700000000), "error", "Battery Low").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.UpsertDevice(context.Background(), &model.Device{
		DeviceID: "BED-MONITOR-101-ICU",
		LastSeen: 1700000000,
		Status:   "error",
		Message:  "Battery Low",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_AppendHistory(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "device_history"`)).
		WithArgs("BED-MONITOR-101-ICU", int64(1700000000), "error", "Battery Low", Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	id, err := s.AppendHistory(context.Background(), &model.HistoryRecord{
		DeviceID:  "BED-MONITOR-101-ICU",
		Timestamp: 1700000000,
		Status:    "error",
		Message:   "Battery Low",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_AppendHistoryPropagatesErrors(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "device_history"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.AppendHistory(context.Background(), &model.HistoryRecord{DeviceID: "X", Status: "online"})
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ActiveTicketsLocksRows(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tickets" WHERE device_id = $1 AND is_active = $2 ORDER BY ticket_id FOR UPDATE`)).
		WithArgs("X", true).
		WillReturnRows(sqlmock.NewRows([]string{"ticket_id", "device_id", "is_active"}).
			AddRow("TKT-1", "X", true).
			AddRow("TKT-2", "X", true))

	tickets, err := s.ActiveTickets(context.Background(), "X")
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "TKT-1", tickets[0].TicketID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetDeviceNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "devices" WHERE device_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"device_id"}))

	_, err := s.GetDevice(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_TransactionRollsBackOnError(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.Transaction(context.Background(), func(tx Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryable(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("syntax error"), false},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, true},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"mysql lock wait", &mysql.MySQLError{Number: 1205}, true},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"wrapped", &StorageError{Op: "checkin", Err: &pgconn.PgError{Code: "40001"}}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
