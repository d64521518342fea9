// Package driver implements the database/sql/driver interface, so the
// session client can be used through database/sql.
package driver

import (
	"context"
	"database/sql"
	sqldriver "database/sql/driver"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/client"
	"github.com/T45K/go-mysql-session/mysql"
)

var (
	_ sqldriver.Driver      = mysqlDriver{}
	_ sqldriver.Conn        = &conn{}
	_ sqldriver.Pinger      = &conn{}
	_ sqldriver.Validator   = &conn{}
	_ sqldriver.ConnBeginTx = &conn{}
	_ sqldriver.Stmt        = &stmt{}
)

var dsnRegex = regexp.MustCompile("@[^@]+/[^@/]+")

type mysqlDriver struct{}

type connInfo struct {
	standardDSN bool
	addr        string
	user        string
	password    string
	db          string
	params      url.Values
}

// parseDSN splits a DSN into address, user, password and database.
//
// Legacy form uses `?` as the db separator: user:password@addr[?db]
// Standard form uses `/`: user:password@addr/db?param=value
func parseDSN(dsn string) (connInfo, error) {
	ci := connInfo{}

	if strings.Contains(dsn, "@") {
		ci.standardDSN = dsnRegex.MatchString(dsn)
	} else {
		ci.standardDSN = strings.Contains(dsn, "/")
	}

	// Add a prefix so we can parse with url.Parse
	parsedDSN, parseErr := url.Parse("mysql://" + dsn)
	if parseErr != nil {
		return ci, errors.Errorf("invalid dsn, must be user:password@addr[/db[?param=X]]")
	}

	ci.addr = parsedDSN.Host
	ci.user = parsedDSN.User.Username()
	ci.password, _ = parsedDSN.User.Password()

	if ci.standardDSN {
		if parsedDSN.Path != "" {
			ci.db = parsedDSN.Path[1:]
		}
		ci.params = parsedDSN.Query()
	} else {
		ci.db = parsedDSN.RawQuery
		ci.params = url.Values{}
	}

	return ci, nil
}

// Open opens a session for the supplied DSN.
func (mysqlDriver) Open(dsn string) (sqldriver.Conn, error) {
	ci, err := parseDSN(dsn)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var options []client.Option

	if ci.standardDSN {
		if v := ci.params.Get("readTimeout"); v != "" {
			timeout, err := time.ParseDuration(v)
			if err != nil {
				return nil, errors.Annotate(err, "invalid readTimeout value")
			}
			options = append(options, func(c *client.Conn) error {
				c.ReadTimeout = timeout
				return nil
			})
		}
		if v := ci.params.Get("writeTimeout"); v != "" {
			timeout, err := time.ParseDuration(v)
			if err != nil {
				return nil, errors.Annotate(err, "invalid writeTimeout value")
			}
			options = append(options, func(c *client.Conn) error {
				c.WriteTimeout = timeout
				return nil
			})
		}
		if v := ci.params.Get("ssl"); v == "true" {
			options = append(options, func(c *client.Conn) error {
				c.UseSSL(false)
				return nil
			})
		}
	}

	c, err := client.Connect(ci.addr, ci.user, ci.password, ci.db, options...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &conn{c: c}, nil
}

type conn struct {
	c *client.Conn
}

func (c *conn) Prepare(query string) (sqldriver.Stmt, error) {
	st, err := c.c.CreateStatement(query)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &stmt{st: st, params: client.ParseQuery(query).ParamCount()}, nil
}

func (c *conn) Close() error {
	return c.c.Quit()
}

func (c *conn) Ping(context.Context) error {
	if err := c.c.Ping(); err != nil {
		return sqldriver.ErrBadConn
	}
	return nil
}

func (c *conn) IsValid() bool {
	return c.c.Validate(client.ValidationLocal)
}

func (c *conn) Begin() (sqldriver.Tx, error) {
	if err := c.c.Begin(); err != nil {
		return nil, errors.Trace(err)
	}
	return &tx{c: c.c}, nil
}

func (c *conn) BeginTx(_ context.Context, opts sqldriver.TxOptions) (sqldriver.Tx, error) {
	var def client.TransactionDefinition

	if opts.ReadOnly {
		readOnly := true
		def.ReadOnly = &readOnly
	}

	if opts.Isolation != sqldriver.IsolationLevel(sql.LevelDefault) {
		level, err := isolationLevel(sql.IsolationLevel(opts.Isolation))
		if err != nil {
			return nil, errors.Trace(err)
		}
		def.IsolationLevel = &level
	}

	if err := c.c.BeginTx(def); err != nil {
		return nil, errors.Trace(err)
	}
	return &tx{c: c.c}, nil
}

func isolationLevel(level sql.IsolationLevel) (client.IsolationLevel, error) {
	switch level {
	case sql.LevelReadUncommitted:
		return client.LevelReadUncommitted, nil
	case sql.LevelReadCommitted:
		return client.LevelReadCommitted, nil
	case sql.LevelRepeatableRead:
		return client.LevelRepeatableRead, nil
	case sql.LevelSerializable:
		return client.LevelSerializable, nil
	default:
		return 0, errors.Errorf("unsupported isolation level %s", level)
	}
}

func (c *conn) Exec(query string, args []sqldriver.Value) (sqldriver.Result, error) {
	r, err := c.c.Execute(query, valueArgs(args)...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &result{r: r}, nil
}

func (c *conn) Query(query string, args []sqldriver.Value) (sqldriver.Rows, error) {
	r, err := c.c.Execute(query, valueArgs(args)...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	rows, err := newRows(r.Resultset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func valueArgs(args []sqldriver.Value) []interface{} {
	out := make([]interface{}, len(args))
	for i := range args {
		out[i] = args[i]
	}
	return out
}

type stmt struct {
	st     client.Statement
	params int
}

func (s *stmt) Close() error {
	return nil
}

func (s *stmt) NumInput() int {
	return s.params
}

func (s *stmt) Exec(args []sqldriver.Value) (sqldriver.Result, error) {
	r, err := s.st.Execute(valueArgs(args)...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &result{r: r}, nil
}

func (s *stmt) Query(args []sqldriver.Value) (sqldriver.Rows, error) {
	r, err := s.st.Execute(valueArgs(args)...)
	if err != nil {
		return nil, errors.Trace(err)
	}

	rows, err := newRows(r.Resultset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type tx struct {
	c *client.Conn
}

func (t *tx) Commit() error {
	return t.c.Commit()
}

func (t *tx) Rollback() error {
	return t.c.Rollback()
}

type result struct {
	r *mysql.Result
}

func (r *result) LastInsertId() (int64, error) {
	return int64(r.r.InsertId), nil
}

func (r *result) RowsAffected() (int64, error) {
	return int64(r.r.AffectedRows), nil
}

type rows struct {
	rs  *mysql.Resultset
	pos int
}

func newRows(rs *mysql.Resultset) (*rows, error) {
	if rs == nil {
		return nil, errors.New("query did not return a result set")
	}
	return &rows{rs: rs}, nil
}

func (r *rows) Columns() []string {
	cols := make([]string, len(r.rs.Fields))
	for i, f := range r.rs.Fields {
		cols[i] = string(f.Name)
	}
	return cols
}

func (r *rows) Close() error {
	r.pos = len(r.rs.Values)
	return nil
}

func (r *rows) Next(dest []sqldriver.Value) error {
	if r.pos >= len(r.rs.Values) {
		return io.EOF
	}

	for i := range r.rs.Values[r.pos] {
		dest[i] = r.rs.Values[r.pos][i].Value()
	}

	r.pos++
	return nil
}

func init() {
	sql.Register("mysql-session", mysqlDriver{})
}
