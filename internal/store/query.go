package store

import (
	"strings"

	"github.com/satonic/auction-api/internal/models"
)

// sortColumns maps API sort fields onto column names
var sortColumns = map[string]string{
	"createdAt":  "created_at",
	"endsAt":     "ends_at",
	"startPrice": "start_price",
	"title":      "title",
	"amount":     "amount",
}

// orderBy renders an ORDER BY clause with id as the tiebreaker. Bids sorted
// by amount break ties by the earliest id so that the ranking matches the
// winner rule.
func orderBy(s models.Sort) string {
	return orderByOn("", s)
}

// orderByOn is orderBy for queries that join tables, qualifying the sort
// and tiebreak columns with prefix.
func orderByOn(prefix string, s models.Sort) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = "created_at"
	}

	dir, tie := "ASC", "ASC"
	if s.Desc {
		dir, tie = "DESC", "DESC"
	}
	if s.Field == "amount" {
		tie = "ASC"
	}
	return " ORDER BY " + prefix + col + " " + dir + ", " + prefix + "id " + tie
}

// where accumulates AND-ed conditions with ?-placeholders
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
