package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"SignalSentinel/internal/model"
)

// SQLiteRecorder persists evaluation passes to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log logrus.FieldLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log logrus.FieldLogger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while passes write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r, err := newRecorder(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func newRecorder(db *sql.DB, log logrus.FieldLogger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &SQLiteRecorder{db: db, log: log.WithField("component", "recorder")}
	if err := r.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluation_runs (
			run_id               TEXT PRIMARY KEY,
			started_at           INTEGER NOT NULL,
			finished_at          INTEGER NOT NULL,
			items                INTEGER,
			notifications_sent   INTEGER,
			notifications_failed INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON evaluation_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS signal_checks (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			status      TEXT NOT NULL,
			bars        INTEGER,
			price       REAL,
			ma10        REAL,
			ma14        REAL,
			macd        REAL,
			macd_signal REAL,
			k           REAL,
			d           REAL,
			j           REAL,
			ma10_break  INTEGER,
			ma14_break  INTEGER,
			macd_cross  INTEGER,
			kdj_cross   INTEGER,
			alerted     INTEGER,
			notified    INTEGER,
			triggered   TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checks_symbol_ts ON signal_checks(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", snippet(s, 40), err)
		}
	}
	return nil
}

// snippet collapses whitespace and caps s at n runes for error messages.
func snippet(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

// RecordPass stores the run row and one signal_checks row per item in a
// single transaction.
func (r *SQLiteRecorder) RecordPass(report *model.PassReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`INSERT INTO evaluation_runs
		(run_id, started_at, finished_at, items, notifications_sent, notifications_failed)
		VALUES (?,?,?,?,?,?)`,
		report.RunID, report.StartedAt.Unix(), report.FinishedAt.Unix(),
		len(report.Results), report.NotificationsSent, report.NotificationsFailed,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	ts := report.FinishedAt.Unix()
	for _, item := range report.Results {
		row := checkRow(item)
		if _, err := tx.Exec(`INSERT INTO signal_checks
			(run_id, timestamp, symbol, status, bars, price,
			 ma10, ma14, macd, macd_signal, k, d, j,
			 ma10_break, ma14_break, macd_cross, kdj_cross,
			 alerted, notified, triggered, error)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			append([]any{report.RunID, ts}, row...)...,
		); err != nil {
			return fmt.Errorf("insert check %s: %w", item.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// checkRow flattens an item report; undefined indicator values become NULL.
func checkRow(item model.ItemReport) []any {
	var (
		price                         any
		ma10, ma14, macd, sig         any
		k, d, j                       any
		ma10Hit, ma14Hit, macdHit, kj bool
	)
	if res := item.Result; res != nil {
		price = res.Price
		if res.Values.MA10 != nil {
			ma10 = *res.Values.MA10
		}
		if res.Values.MA14 != nil {
			ma14 = *res.Values.MA14
		}
		if m := res.Values.MACD; m != nil {
			macd, sig = m.MACD, m.Signal
		}
		if v := res.Values.KDJ; v != nil {
			k, d, j = v.K, v.D, v.J
		}
		ma10Hit = res.Signals.MA10Break
		ma14Hit = res.Signals.MA14Break
		macdHit = res.Signals.MACDGoldCrossBelowZero
		kj = res.Signals.KDJGoldCrossLow
	}

	triggered := make([]string, len(item.Triggered))
	for i, ind := range item.Triggered {
		triggered[i] = string(ind)
	}

	return []any{
		item.Symbol, string(item.Status), item.Bars, price,
		ma10, ma14, macd, sig, k, d, j,
		boolInt(ma10Hit), boolInt(ma14Hit), boolInt(macdHit), boolInt(kj),
		boolInt(item.Alerted), boolInt(item.Notified),
		strings.Join(triggered, ","), item.Error,
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
