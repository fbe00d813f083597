package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
)

func f64(v float64) *float64 { return &v }

func samplePass() *model.PassReport {
	start := time.Date(2025, 3, 7, 21, 30, 0, 0, time.UTC)
	return &model.PassReport{
		RunID:             "run-1",
		StartedAt:         start,
		FinishedAt:        start.Add(4 * time.Second),
		NotificationsSent: 1,
		Results: []model.ItemReport{
			{
				Symbol: "AAPL", AssetClass: model.Equity, Status: model.StatusOK, Bars: 60,
				Alerted: true, Notified: true, Triggered: []model.Indicator{model.IndicatorMA10},
				Result: &model.SignalResult{
					Symbol: "AAPL", Price: 101.5, Bars: 60,
					Signals: model.Signals{MA10Break: true},
					Values: model.IndicatorValues{
						MA10: f64(100), MA14: f64(99.2),
						MACD: &model.MACDValue{MACD: -0.4, Signal: -0.5, Histogram: 0.1},
						KDJ:  &model.KDJValue{K: 30, D: 25, J: 40},
					},
				},
			},
			{Symbol: "XYZ", AssetClass: model.Crypto, Status: model.StatusInsufficientData},
		},
	}
}

func expectMigrate(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS evaluation_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_runs_started").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS signal_checks").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_checks_symbol_ts").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestRecordPass_WritesRunAndChecksInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectMigrate(mock)
	r, err := newRecorder(db, logger.Discard())
	require.NoError(t, err)

	pass := samplePass()
	finished := pass.FinishedAt.Unix()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO evaluation_runs").
		WithArgs("run-1", pass.StartedAt.Unix(), finished, 2, 1, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO signal_checks").
		WithArgs("run-1", finished, "AAPL", "ok", 60, 101.5,
			100.0, 99.2, -0.4, -0.5, 30.0, 25.0, 40.0,
			1, 0, 0, 0, 1, 1, "MA10", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO signal_checks").
		WithArgs("run-1", finished, "XYZ", "insufficient_data", 0, nil,
			nil, nil, nil, nil, nil, nil, nil,
			0, 0, 0, 0, 0, 0, "", "").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, r.RecordPass(pass))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPass_RollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectMigrate(mock)
	r, err := newRecorder(db, logger.Discard())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO evaluation_runs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO signal_checks").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = r.RecordPass(samplePass())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AAPL")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRecorder_MigrationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS evaluation_runs").WillReturnError(errors.New("readonly"))

	_, err = newRecorder(db, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CREATE TABLE IF NOT EXISTS eval")
	assert.Contains(t, err.Error(), "readonly")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "PRAGMA user_version", snippet("PRAGMA user_version", 40))
	assert.Equal(t, "", snippet("", 40))
	assert.Equal(t, "CREATE TABLE t ( id...", snippet("CREATE TABLE t (\n\t\tid INTEGER\n)", 19))
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), logger.Discard())
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.RecordPass(samplePass()))

	var runs, checks, alerted int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM evaluation_runs`).Scan(&runs))
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM signal_checks WHERE run_id = 'run-1'`).Scan(&checks))
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM signal_checks WHERE alerted = 1`).Scan(&alerted))
	assert.Equal(t, 1, runs)
	assert.Equal(t, 2, checks)
	assert.Equal(t, 1, alerted)

	var ma10 *float64
	require.NoError(t, r.db.QueryRow(`SELECT ma10 FROM signal_checks WHERE symbol = 'XYZ'`).Scan(&ma10))
	assert.Nil(t, ma10)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordPass(samplePass()))
	assert.NoError(t, r.Close())
}
