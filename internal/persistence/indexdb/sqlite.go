package indexdb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"imperialism.ai/internal/persistence/snapshot"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index of the turn and audit logs.
// Writes are queued and applied by a single goroutine; the compressed
// JSONL logs stay the source of truth.
type SQLiteIndex struct {
	db *sqlx.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqTurn reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	turn     engine.TurnLogEntry
	audit    engine.AuditEntry
	snapshot SnapshotRow
}

type SnapshotRow struct {
	Turn    uint64 `db:"turn"`
	Path    string `db:"path"`
	Phase   string `db:"phase"`
	Nations int    `db:"nations"`
	Rails   int    `db:"rails"`
}

type TurnRow struct {
	Turn    uint64 `db:"turn"`
	Digest  string `db:"digest"`
	Nations int    `db:"nations"`
	Trades  int    `db:"trades"`
	Failed  int    `db:"failed"`
}

type TradeRow struct {
	Turn   uint64 `db:"turn"`
	Seq    int    `db:"seq"`
	Good   string `db:"good"`
	Price  uint32 `db:"price"`
	Seller string `db:"seller"`
	Buyer  string `db:"buyer"`
}

type PriceRow struct {
	Turn   uint64 `db:"turn"`
	Good   string `db:"good"`
	Price  uint32 `db:"price"`
	Supply uint32 `db:"supply"`
	Demand uint32 `db:"demand"`
}

type AuditRow struct {
	Turn    uint64 `db:"turn"`
	Seq     int    `db:"seq"`
	Nation  string `db:"nation"`
	Action  string `db:"action"`
	OrderID string `db:"order_id"`
	Code    string `db:"code"`
	Reason  string `db:"reason"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS catalogs (
	name TEXT PRIMARY KEY,
	digest TEXT NOT NULL,
	json TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	turn INTEGER PRIMARY KEY,
	digest TEXT NOT NULL,
	nations INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	raw_json TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	turn INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	good TEXT NOT NULL,
	price INTEGER NOT NULL,
	seller TEXT NOT NULL,
	buyer TEXT NOT NULL,
	PRIMARY KEY (turn, seq)
);
CREATE INDEX IF NOT EXISTS idx_trades_good_turn ON trades(good, turn);
CREATE TABLE IF NOT EXISTS prices (
	turn INTEGER NOT NULL,
	good TEXT NOT NULL,
	price INTEGER NOT NULL,
	supply INTEGER NOT NULL,
	demand INTEGER NOT NULL,
	PRIMARY KEY (turn, good)
);
CREATE TABLE IF NOT EXISTS audits (
	turn INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	nation TEXT NOT NULL,
	action TEXT NOT NULL,
	order_id TEXT NOT NULL,
	code TEXT NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (turn, seq)
);
CREATE INDEX IF NOT EXISTS idx_audits_nation_turn ON audits(nation, turn);
CREATE TABLE IF NOT EXISTS snapshots (
	turn INTEGER PRIMARY KEY,
	path TEXT NOT NULL,
	phase TEXT NOT NULL,
	nations INTEGER NOT NULL,
	rails INTEGER NOT NULL
);
`

func initSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Close drains queued writes and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped counts writes discarded because the queue was full.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

func (s *SQLiteIndex) WriteTurn(entry engine.TurnLogEntry) error {
	s.enqueue(req{kind: reqTurn, turn: entry})
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry engine.AuditEntry) error {
	s.enqueue(req{kind: reqAudit, audit: entry})
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	s.enqueue(req{kind: reqSnapshot, snapshot: SnapshotRow{
		Turn:    snap.Header.Turn,
		Path:    path,
		Phase:   snap.Phase,
		Nations: len(snap.Nations),
		Rails:   len(snap.Rails),
	}})
}

// UpsertCatalogs stores the catalogs and tuning the server started with.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "buildings.json")); err == nil {
			rows = append(rows, kv{name: "buildings", digest: cats.Buildings.Digest, json: b})
		}
	}
	if b, err := json.Marshal(cats.Goods.Palette); err == nil {
		rows = append(rows, kv{name: "goods", digest: cats.Goods.Digest, json: b})
	}
	if b, err := json.Marshal(tune); err == nil {
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`,
			r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sqlx.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second

		lastAuditTurn uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			s.dropped.Add(1)
			continue
		}
		var err error
		switch r.kind {
		case reqTurn:
			err = insertTurn(tx, r.turn)
		case reqAudit:
			if r.audit.Turn != lastAuditTurn {
				lastAuditTurn = r.audit.Turn
				auditSeq = 0
			}
			auditSeq++
			a := r.audit
			_, err = tx.Exec(`INSERT OR REPLACE INTO audits(turn,seq,nation,action,order_id,code,reason) VALUES(?,?,?,?,?,?,?)`,
				int64(a.Turn), auditSeq, a.Nation, a.Action, a.OrderID, a.Code, a.Reason)
		case reqSnapshot:
			_, err = tx.NamedExec(`INSERT OR REPLACE INTO snapshots(turn,path,phase,nations,rails) VALUES(:turn,:path,:phase,:nations,:rails)`, r.snapshot)
		}
		if err != nil {
			rollback()
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}

func insertTurn(tx *sqlx.Tx, e engine.TurnLogEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO turns(turn,digest,nations,trades,failed,raw_json) VALUES(?,?,?,?,?,?)`,
		int64(e.Turn), e.Digest, len(e.Nations), len(e.Trades), len(e.FailedTrades), string(raw)); err != nil {
		return err
	}
	for i, t := range e.Trades {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO trades(turn,seq,good,price,seller,buyer) VALUES(?,?,?,?,?,?)`,
			int64(e.Turn), i+1, string(t.Good), t.Price, t.Seller, t.Buyer); err != nil {
			return err
		}
	}
	for g, p := range e.Prices {
		v := e.Volumes[g]
		if _, err := tx.Exec(`INSERT OR REPLACE INTO prices(turn,good,price,supply,demand) VALUES(?,?,?,?,?)`,
			int64(e.Turn), string(g), p, v.Supply, v.Demand); err != nil {
			return err
		}
	}
	return nil
}

// Turns lists indexed turns, newest first.
func (s *SQLiteIndex) Turns(limit int) ([]TurnRow, error) {
	var out []TurnRow
	err := s.db.Select(&out, `SELECT turn,digest,nations,trades,failed FROM turns ORDER BY turn DESC LIMIT ?`, limit)
	return out, err
}

func (s *SQLiteIndex) Trades(turn uint64) ([]TradeRow, error) {
	var out []TradeRow
	err := s.db.Select(&out, `SELECT turn,seq,good,price,seller,buyer FROM trades WHERE turn = ? ORDER BY seq`, int64(turn))
	return out, err
}

// PriceHistory returns one good's clearing prices in turn order.
func (s *SQLiteIndex) PriceHistory(good string) ([]PriceRow, error) {
	var out []PriceRow
	err := s.db.Select(&out, `SELECT turn,good,price,supply,demand FROM prices WHERE good = ? ORDER BY turn`, good)
	return out, err
}

func (s *SQLiteIndex) Audits(nation string) ([]AuditRow, error) {
	var out []AuditRow
	err := s.db.Select(&out, `SELECT turn,seq,nation,action,order_id,code,reason FROM audits WHERE nation = ? ORDER BY turn, seq`, nation)
	return out, err
}

func (s *SQLiteIndex) Snapshots() ([]SnapshotRow, error) {
	var out []SnapshotRow
	err := s.db.Select(&out, `SELECT turn,path,phase,nations,rails FROM snapshots ORDER BY turn`)
	return out, err
}
