package render

import (
	"context"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"fuel-economy/internal/common/database"
	"fuel-economy/internal/common/errors"
	"fuel-economy/internal/common/logger"
	"fuel-economy/internal/fueleconomy"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testReportID = uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	testNow      = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	insertSQL    = regexp.QuoteMeta(`INSERT INTO "variant_ranges" (report_id, position, vehicle_id, model, range_miles, record, created_at)`)
)

func newTestPostgresRenderer(t *testing.T) (*PostgresRenderer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := NewPostgresRenderer(database.NewPostgresFromDB(db), "variant_ranges", logger.NewTestLogger(t))
	r.newID = func() uuid.UUID { return testReportID }
	r.now = func() time.Time { return testNow }
	return r, mock
}

func TestPostgresRenderer_InsertsRankedRows(t *testing.T) {
	r, mock := newTestPostgresRenderer(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertSQL).
		WithArgs(testReportID.String(), 1, "40000", "Model S", 370.0, sqlmock.AnyArg(), testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertSQL).
		WithArgs(testReportID.String(), 2, "39838", "Model 3", 310.0, sqlmock.AnyArg(), testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertSQL).
		WithArgs(testReportID.String(), 3, "39839", "Model 3", 240.5, sqlmock.AnyArg(), testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := r.Render(context.Background(), sortedRecords())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRenderer_EmptyReportCommits(t *testing.T) {
	r, mock := newTestPostgresRenderer(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	assert.NoError(t, r.Render(context.Background(), []fueleconomy.VariantRecord{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRenderer_InsertFailureRollsBack(t *testing.T) {
	r, mock := newTestPostgresRenderer(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertSQL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertSQL).
		WillReturnError(stderrors.New("disk full"))
	mock.ExpectRollback()

	err := r.Render(context.Background(), sortedRecords())

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrRenderFailed))
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRenderer_BeginFailure(t *testing.T) {
	r, mock := newTestPostgresRenderer(t)

	mock.ExpectBegin().WillReturnError(stderrors.New("connection refused"))

	err := r.Render(context.Background(), sortedRecords())

	assert.True(t, stderrors.Is(err, errors.ErrRenderFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRenderer_QuotesTableName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewPostgresRenderer(database.NewPostgresFromDB(db), `ranges"; DROP TABLE x; --`, logger.NewNoOpLogger())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ranges""; DROP TABLE x; --"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, r.Render(context.Background(), sortedRecords()[:1]))
	assert.NoError(t, mock.ExpectationsWereMet())
}
