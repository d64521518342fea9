package client

import (
	"strings"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/codec"
)

// Query is one parsed SQL text: either simple (no parameter markers) or
// parametrized, with the marker offsets and the literal segments between
// them. Parsing is idempotent and side-effect-free, so queries may be shared
// across connections through the query cache.
type Query struct {
	sql string

	// markers holds the byte offset of every `?` outside literals and
	// comments.
	markers []int

	// parts holds len(markers)+1 literal segments; the formatted statement
	// interleaves them with rendered parameters.
	parts []string
}

// ParseQuery scans sql for parameter markers, skipping string literals,
// quoted identifiers and comments.
func ParseQuery(sql string) *Query {
	var markers []int

	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '?':
			markers = append(markers, i)

		case '\'', '"', '`':
			quote := sql[i]
			i++
			for i < len(sql) {
				if sql[i] == '\\' && quote != '`' {
					i++
				} else if sql[i] == quote {
					// doubled quote stays inside the literal
					if i+1 < len(sql) && sql[i+1] == quote {
						i++
					} else {
						break
					}
				}
				i++
			}

		case '#':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}

		case '-':
			if i+2 < len(sql) && sql[i+1] == '-' && sql[i+2] == ' ' {
				for i < len(sql) && sql[i] != '\n' {
					i++
				}
			}

		case '/':
			if i+1 < len(sql) && sql[i+1] == '*' {
				i += 2
				for i+1 < len(sql) && !(sql[i] == '*' && sql[i+1] == '/') {
					i++
				}
				i++
			}
		}
	}

	q := &Query{sql: sql, markers: markers}

	if len(markers) > 0 {
		q.parts = make([]string, 0, len(markers)+1)
		prev := 0
		for _, pos := range markers {
			q.parts = append(q.parts, sql[prev:pos])
			prev = pos + 1
		}
		q.parts = append(q.parts, sql[prev:])
	}

	return q
}

// SQL returns the original statement text.
func (q *Query) SQL() string {
	return q.sql
}

// IsSimple reports whether the statement has no parameter markers.
func (q *Query) IsSimple() bool {
	return len(q.markers) == 0
}

// ParamCount returns the number of parameter markers.
func (q *Query) ParamCount() int {
	return len(q.markers)
}

// MarkerOffsets returns the byte offsets of the markers, in order.
func (q *Query) MarkerOffsets() []int {
	return q.markers
}

// Format substitutes a binding into the statement, rendering each parameter
// through its text serialisation.
func (q *Query) Format(binding codec.Binding) (string, error) {
	if q.IsSimple() {
		return q.sql, nil
	}

	if len(binding) != len(q.markers) {
		return "", errors.Errorf("binding mismatch, need %d parameters but got %d", len(q.markers), len(binding))
	}

	var sb strings.Builder
	sb.Grow(len(q.sql) + 16*len(binding))

	for i, p := range binding {
		sb.WriteString(q.parts[i])
		if err := p.WriteText(&sb); err != nil {
			return "", errors.Trace(err)
		}
	}
	sb.WriteString(q.parts[len(q.parts)-1])

	return sb.String(), nil
}
