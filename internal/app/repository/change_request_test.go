package repository

import (
	"context"
	"regexp"
	"testing"

	"backend/internal/app/ds"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &Repository{db: gdb}, mock
}

// Переход статуса проходит только при совпадении ожидаемого текущего статуса
func TestTransitionRequestCAS(t *testing.T) {
	repo, mock := newMockRepo(t)

	updateRe := regexp.QuoteMeta(`UPDATE "change_requests" SET`)

	// статус совпал — одна строка обновлена
	mock.ExpectBegin()
	mock.ExpectExec(updateRe).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.TransitionRequest(context.Background(), "6f1c0d1e-0000-0000-0000-000000000001",
		[]string{ds.StatusPaymentPending}, map[string]interface{}{"status": ds.StatusPaymentComplete})
	require.NoError(t, err)
	assert.True(t, ok)

	// другой писатель успел раньше — ноль строк, перехода нет, ошибки тоже нет
	mock.ExpectBegin()
	mock.ExpectExec(updateRe).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err = repo.TransitionRequest(context.Background(), "6f1c0d1e-0000-0000-0000-000000000001",
		[]string{ds.StatusPaymentPending}, map[string]interface{}{"status": ds.StatusPaymentComplete})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRequestFailureIncrementsAttempts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "change_requests" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.RecordRequestFailure(context.Background(), "6f1c0d1e-0000-0000-0000-000000000002",
		[]string{ds.StatusProcessing}, ds.StatusFailed, "executor blew up")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}
