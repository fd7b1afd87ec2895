// Package query composes typed filter predicates and orderings into a
// selection that can be applied to a gorm statement. Predicates are rendered
// with squirrel so the same builder serves subqueries and plain filters.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownOrder is returned by ParseOrder for tokens outside the allowed set.
var ErrUnknownOrder = errors.New("unknown order")

// Predicate is a single filter condition.
type Predicate struct {
	expr squirrel.Sqlizer
}

// ToSql renders the predicate with '?' placeholders.
func (p Predicate) ToSql() (string, []interface{}, error) {
	return p.expr.ToSql()
}

// Equals matches rows where column equals value exactly.
func Equals(column string, value interface{}) Predicate {
	return Predicate{expr: squirrel.Eq{column: value}}
}

// ContainsFold matches rows where column contains substr, ignoring case.
// Both sides are folded by the database's LOWER so they agree on every
// character it knows how to fold. LIKE wildcards in substr are matched
// literally.
func ContainsFold(column, substr string) Predicate {
	pattern := "%" + escapeLike(substr) + "%"
	return Predicate{expr: squirrel.Expr("LOWER("+column+") LIKE LOWER(?) ESCAPE '\\'", pattern)}
}

// In matches rows where column is one of values. An empty set matches nothing.
func In[T any](column string, values ...T) Predicate {
	if len(values) == 0 {
		return Predicate{expr: squirrel.Expr("1=0")}
	}
	return Predicate{expr: squirrel.Eq{column: values}}
}

// InSubquery matches rows where column is contained in the subquery's result.
func InSubquery(column string, sub squirrel.SelectBuilder) Predicate {
	return Predicate{expr: subquery{column: column, sub: sub}}
}

type subquery struct {
	column string
	sub    squirrel.SelectBuilder
}

func (s subquery) ToSql() (string, []interface{}, error) {
	sql, args, err := s.sub.ToSql()
	if err != nil {
		return "", nil, err
	}
	return s.column + " IN (" + sql + ")", args, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Order is a single sort key.
type Order struct {
	Column string
	Desc   bool
}

func Asc(column string) Order {
	return Order{Column: column}
}

func Desc(column string) Order {
	return Order{Column: column, Desc: true}
}

// String renders the order as a sort token: "column" or "-column".
func (o Order) String() string {
	if o.Desc {
		return "-" + o.Column
	}
	return o.Column
}

// ParseOrder turns a sort token into an Order. A leading "-" means descending.
// The token must be one of allowed, compared literally.
func ParseOrder(token string, allowed ...string) (Order, error) {
	for _, candidate := range allowed {
		if candidate != token {
			continue
		}
		if strings.HasPrefix(token, "-") {
			return Desc(strings.TrimPrefix(token, "-")), nil
		}
		return Asc(token), nil
	}
	return Order{}, fmt.Errorf("%w: %q", ErrUnknownOrder, token)
}

// Query collects predicates and orderings for one selection.
type Query struct {
	where []Predicate
	order []Order
}

func New() *Query {
	return &Query{}
}

// Where adds predicates; all predicates must hold.
func (q *Query) Where(preds ...Predicate) *Query {
	q.where = append(q.where, preds...)
	return q
}

// OrderBy appends sort keys, earlier keys take precedence.
func (q *Query) OrderBy(orders ...Order) *Query {
	q.order = append(q.order, orders...)
	return q
}

func (q *Query) Predicates() []Predicate {
	return q.where
}

func (q *Query) Orders() []Order {
	return q.order
}

// Apply attaches the query to a gorm statement.
func (q *Query) Apply(db *gorm.DB) (*gorm.DB, error) {
	for _, pred := range q.where {
		sql, args, err := pred.ToSql()
		if err != nil {
			return nil, fmt.Errorf("render predicate: %w", err)
		}
		db = db.Where(sql, args...)
	}

	for _, o := range q.order {
		db = db.Order(clause.OrderByColumn{
			Column: clause.Column{Name: o.Column},
			Desc:   o.Desc,
		})
	}

	return db, nil
}
