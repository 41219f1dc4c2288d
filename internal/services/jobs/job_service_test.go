package jobs

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jobtradesasa/server/internal/apperr"
	"github.com/jobtradesasa/server/internal/models"
	"github.com/jobtradesasa/server/internal/testutil"
)

func jobRow(jobID, requesterID, categoryID uuid.UUID, providerID *uuid.UUID, status models.JobStatus) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "requester_id", "provider_id", "category_id",
		"title", "description", "lat", "lng", "address",
		"urgency", "status", "created_at", "updated_at",
	})
	var pid interface{}
	if providerID != nil {
		pid = providerID.String()
	}
	rows.AddRow(
		jobID.String(), requesterID.String(), pid, categoryID.String(),
		"Fix sink", "Kitchen sink is leaking badly", "-1.2921", "36.8219", "Moi Avenue",
		"normal", string(status), time.Now(), time.Now(),
	)
	return rows
}

// expectLoad covers the canonical projection: the job row plus its
// (empty) relation preloads.
func expectLoad(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id =`).WillReturnRows(rows)
	mock.ExpectQuery(`SELECT \* FROM "categories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
}

func TestAcceptWinner(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	mock.MatchExpectationsInOrder(false)
	svc := NewService(gdb)

	jobID, providerID := uuid.New(), uuid.New()
	requesterID, categoryID := uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE "jobs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectLoad(mock, jobRow(jobID, requesterID, categoryID, &providerID, models.JobStatusAccepted))

	job, err := svc.Accept(jobID, providerID, models.RoleProvider)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusAccepted, job.Status)
	require.NotNil(t, job.ProviderID)
	require.Equal(t, providerID, *job.ProviderID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptLoserGetsConflict(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	// conditional update hits nothing, but the job exists: someone won
	mock.ExpectExec(`UPDATE "jobs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.Accept(uuid.New(), uuid.New(), models.RoleProvider)
	require.ErrorIs(t, err, apperr.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptMissingJobIsNotFound(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	mock.ExpectExec(`UPDATE "jobs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := svc.Accept(uuid.New(), uuid.New(), models.RoleProvider)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAcceptRequesterForbidden(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	// no SQL runs at all
	_, err := svc.Accept(uuid.New(), uuid.New(), models.RoleRequester)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProviderForbidden(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	_, err := svc.Create(uuid.New(), models.RoleProvider, CreateInput{
		CategoryID:  uuid.New(),
		Title:       "Fix sink",
		Description: "Kitchen sink is leaking",
	})
	require.ErrorIs(t, err, apperr.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceHappyPath(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	mock.MatchExpectationsInOrder(false)
	svc := NewService(gdb)

	jobID, providerID := uuid.New(), uuid.New()
	requesterID, categoryID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id =`).
		WillReturnRows(jobRow(jobID, requesterID, categoryID, &providerID, models.JobStatusAccepted))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "jobs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectLoad(mock, jobRow(jobID, requesterID, categoryID, &providerID, models.JobStatusEnroute))

	job, err := svc.Advance(jobID, providerID, models.RoleProvider, models.JobStatusEnroute, nil)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusEnroute, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceSkippingRejected(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	jobID, providerID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id =`).
		WillReturnRows(jobRow(jobID, uuid.New(), uuid.New(), &providerID, models.JobStatusAccepted))

	_, err := svc.Advance(jobID, providerID, models.RoleProvider, models.JobStatusCompleted, nil)
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestAdvanceByStrangerForbidden(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	jobID, providerID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id =`).
		WillReturnRows(jobRow(jobID, uuid.New(), uuid.New(), &providerID, models.JobStatusAccepted))

	// a different provider than the assigned one
	_, err := svc.Advance(jobID, uuid.New(), models.RoleProvider, models.JobStatusEnroute, nil)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAdvanceTerminalIsConflict(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	jobID, providerID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id =`).
		WillReturnRows(jobRow(jobID, uuid.New(), uuid.New(), &providerID, models.JobStatusCompleted))

	_, err := svc.Advance(jobID, providerID, models.RoleProvider, models.JobStatusCancelled, nil)
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAdvanceUnknownStatusRejected(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	_, err := svc.Advance(uuid.New(), uuid.New(), models.RoleProvider, models.JobStatus("paused"), nil)
	require.ErrorIs(t, err, apperr.ErrInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelByRequester(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	mock.MatchExpectationsInOrder(false)
	svc := NewService(gdb)

	jobID, requesterID := uuid.New(), uuid.New()
	categoryID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id =`).
		WillReturnRows(jobRow(jobID, requesterID, categoryID, nil, models.JobStatusOpen))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "jobs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectLoad(mock, jobRow(jobID, requesterID, categoryID, nil, models.JobStatusCancelled))

	job, err := svc.Advance(jobID, requesterID, models.RoleRequester, models.JobStatusCancelled, nil)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusCancelled, job.Status)
}

func TestAdvanceRejectedLeavesPriceUnwritten(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	jobID, providerID := uuid.New(), uuid.New()
	price := int64(5000)

	// invalid skip: the lookup runs, nothing is written
	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id =`).
		WillReturnRows(jobRow(jobID, uuid.New(), uuid.New(), &providerID, models.JobStatusAccepted))

	_, err := svc.Advance(jobID, providerID, models.RoleProvider, models.JobStatusCompleted, &price)
	require.ErrorIs(t, err, apperr.ErrInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceNonPositivePriceRejected(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	svc := NewService(gdb)

	price := int64(0)
	_, err := svc.Advance(uuid.New(), uuid.New(), models.RoleProvider, models.JobStatusEnroute, &price)
	require.ErrorIs(t, err, apperr.ErrInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceCompletedWritesPriceInSameTx(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	mock.MatchExpectationsInOrder(false)
	svc := NewService(gdb)

	jobID, providerID := uuid.New(), uuid.New()
	requesterID, categoryID := uuid.New(), uuid.New()
	price := int64(7500)

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id =`).
		WillReturnRows(jobRow(jobID, requesterID, categoryID, &providerID, models.JobStatusOnsite))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "jobs" SET "status"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "jobs" SET "agreed_price"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "provider_profiles" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "earnings_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()
	expectLoad(mock, jobRow(jobID, requesterID, categoryID, &providerID, models.JobStatusCompleted))

	job, err := svc.Advance(jobID, providerID, models.RoleProvider, models.JobStatusCompleted, &price)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusCompleted, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
