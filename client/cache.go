package client

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pingcap/errors"
	"github.com/siddontang/go-log/log"
)

const (
	defaultStmtCacheSize  = 256
	defaultQueryCacheSize = 256
)

// QueryCache is a bounded SQL -> Query mapping. Parsed queries carry no
// connection state, so one cache may be shared across connections.
type QueryCache struct {
	cache *lru.Cache[string, *Query]
}

func NewQueryCache(size int) *QueryCache {
	if size <= 0 {
		size = defaultQueryCacheSize
	}

	// the only construction error is a non-positive size
	c, _ := lru.New[string, *Query](size)
	return &QueryCache{cache: c}
}

// Get returns the parsed form of sql, parsing and caching on miss.
func (qc *QueryCache) Get(sql string) *Query {
	if q, ok := qc.cache.Get(sql); ok {
		return q
	}

	q := ParseQuery(sql)
	qc.cache.Add(sql, q)
	return q
}

// cachedStmt wraps a server-prepared handle with borrow bookkeeping so
// eviction cannot close a statement that an execute still holds.
type cachedStmt struct {
	stmt *Stmt

	mu       sync.Mutex
	borrows  int
	evicted  bool
	finished bool
}

// stmtCache is the bounded SQL -> server-statement-handle mapping with LRU
// eviction. Evicted handles are closed server-side once their last borrower
// releases them; close failures are logged, never propagated.
type stmtCache struct {
	conn *Conn

	mu    sync.Mutex
	cache *lru.Cache[string, *cachedStmt]
}

func newStmtCache(conn *Conn, size int) *stmtCache {
	if size <= 0 {
		size = defaultStmtCacheSize
	}

	sc := &stmtCache{conn: conn}
	sc.cache, _ = lru.NewWithEvict[string, *cachedStmt](size, sc.onEvict)
	return sc
}

func (sc *stmtCache) onEvict(sql string, entry *cachedStmt) {
	entry.mu.Lock()
	entry.evicted = true
	deferred := entry.borrows > 0
	done := entry.finished
	if !deferred {
		entry.finished = true
	}
	entry.mu.Unlock()

	if deferred || done {
		// the last borrower closes it
		return
	}

	sc.closeStmt(entry.stmt)
}

func (sc *stmtCache) closeStmt(stmt *Stmt) {
	if err := stmt.closeServer(); err != nil {
		log.Errorf("closing evicted prepared statement %d: %s", stmt.id, err)
	}
}

// borrow returns the cached handle for sql, preparing and caching on miss.
// The caller must release the entry after the execute finished.
func (sc *stmtCache) borrow(sql string) (*cachedStmt, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if entry, ok := sc.cache.Get(sql); ok {
		entry.mu.Lock()
		entry.borrows++
		entry.mu.Unlock()
		return entry, nil
	}

	stmt, err := sc.conn.Prepare(sql)
	if err != nil {
		return nil, errors.Trace(err)
	}

	entry := &cachedStmt{stmt: stmt, borrows: 1}
	sc.cache.Add(sql, entry)
	return entry, nil
}

// release returns a borrowed entry; an entry evicted while borrowed is
// closed here, once nobody holds it.
func (sc *stmtCache) release(entry *cachedStmt) {
	entry.mu.Lock()
	entry.borrows--
	shouldClose := entry.evicted && entry.borrows == 0 && !entry.finished
	if shouldClose {
		entry.finished = true
	}
	entry.mu.Unlock()

	if shouldClose {
		sc.closeStmt(entry.stmt)
	}
}

// purge drops every cached handle, closing unborrowed ones.
func (sc *stmtCache) purge() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache.Purge()
}
