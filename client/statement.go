package client

import (
	"github.com/pingcap/errors"
	"github.com/siddontang/go-log/log"

	"github.com/T45K/go-mysql-session/codec"
	"github.com/T45K/go-mysql-session/mysql"
)

// Statement is one executable statement. Implementations differ in which
// wire protocol carries the statement: direct text, or a server-prepared
// handle from the cache.
type Statement interface {
	// Execute runs the statement with one argument per parameter marker.
	Execute(args ...interface{}) (*mysql.Result, error)

	// FetchSize records the row-fetch hint; zero means fetch everything.
	FetchSize(rows int) error
}

// CreateStatement selects the statement flavor for sql.
//
// A simple statement (no markers) is textual unless the prepare predicate
// claims it. A parametrized statement is textual when no predicate is
// configured and server-prepared otherwise.
func (c *Conn) CreateStatement(sql string) (Statement, error) {
	if sql == "" {
		return nil, errors.New("sql must not be empty")
	}

	query := c.queryCache.Get(sql)

	if query.IsSimple() {
		if c.prepare != nil && c.prepare(sql) {
			log.Debugf("create a simple statement provided by prepare query")
			return &prepareSimpleStatement{conn: c, sql: sql}, nil
		}

		log.Debugf("create a simple statement provided by text query")
		return &textSimpleStatement{conn: c, sql: sql}, nil
	}

	if c.prepare == nil {
		log.Debugf("create a parametrized statement provided by text query")
		return &textParametrizedStatement{conn: c, query: query}, nil
	}

	log.Debugf("create a parametrized statement provided by prepare query")
	return &prepareParametrizedStatement{conn: c, query: query}, nil
}

type textSimpleStatement struct {
	conn *Conn
	sql  string
}

func (s *textSimpleStatement) Execute(args ...interface{}) (*mysql.Result, error) {
	if len(args) != 0 {
		return nil, errors.Errorf("statement has no parameter markers but got %d arguments", len(args))
	}
	return s.conn.exec(s.sql)
}

func (s *textSimpleStatement) FetchSize(rows int) error {
	return checkFetchSize(rows)
}

type prepareSimpleStatement struct {
	conn *Conn
	sql  string
}

func (s *prepareSimpleStatement) Execute(args ...interface{}) (*mysql.Result, error) {
	if len(args) != 0 {
		return nil, errors.Errorf("statement has no parameter markers but got %d arguments", len(args))
	}
	return s.conn.executePrepared(s.sql, nil)
}

func (s *prepareSimpleStatement) FetchSize(rows int) error {
	return checkFetchSize(rows)
}

type textParametrizedStatement struct {
	conn  *Conn
	query *Query
}

func (s *textParametrizedStatement) Execute(args ...interface{}) (*mysql.Result, error) {
	binding, err := s.conn.codecs.EncodeBinding(args, s.conn.codecCtx)
	if err != nil {
		return nil, errors.Trace(err)
	}

	sql, err := s.query.Format(binding)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return s.conn.exec(sql)
}

func (s *textParametrizedStatement) FetchSize(rows int) error {
	return checkFetchSize(rows)
}

type prepareParametrizedStatement struct {
	conn  *Conn
	query *Query
}

func (s *prepareParametrizedStatement) Execute(args ...interface{}) (*mysql.Result, error) {
	binding, err := s.conn.codecs.EncodeBinding(args, s.conn.codecCtx)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return s.conn.executePrepared(s.query.SQL(), binding)
}

func (s *prepareParametrizedStatement) FetchSize(rows int) error {
	return checkFetchSize(rows)
}

func checkFetchSize(rows int) error {
	if rows < 0 {
		return errors.New("fetch size must be greater or equal to zero")
	}
	return nil
}

// executePrepared runs sql through the prepared-statement cache: borrow the
// handle (preparing on miss), execute, release.
func (c *Conn) executePrepared(sql string, binding codec.Binding) (*mysql.Result, error) {
	entry, err := c.stmtCache.borrow(sql)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer c.stmtCache.release(entry)

	return entry.stmt.ExecuteBinding(binding)
}
