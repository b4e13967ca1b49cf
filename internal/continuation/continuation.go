package continuation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// separator splits the timestamp from the id. Epoch millis never contain it,
// so ids are free to.
const separator = "_"

// Continuation is a decoded pagination cursor: the sort timestamp and the unique id of the last row seen
type Continuation struct {
	Timestamp time.Time
	ID        string
}

// String encodes the continuation as `<epochMillis>_<id>`
func (c Continuation) String() string {
	return Encode(c.Timestamp, c.ID)
}

// Encode builds a cursor string from a timestamp and an id
func Encode(ts time.Time, id string) string {
	return strconv.FormatInt(ts.UnixMilli(), 10) + separator + id
}

// Decode parses a cursor string. An empty string decodes to nil, meaning the first page.
func Decode(s string) (*Continuation, error) {
	if s == "" {
		return nil, nil
	}

	millis, id, ok := strings.Cut(s, separator)
	if !ok || millis == "" || id == "" {
		return nil, fmt.Errorf("%w: %q", domain.ErrBadCursor, s)
	}

	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrBadCursor, s)
	}

	return &Continuation{Timestamp: time.UnixMilli(ms).UTC(), ID: id}, nil
}

// Direction is the sort direction of a paginated read
type Direction string

const (
	Desc Direction = "DESC"
	Asc  Direction = "ASC"
)

// PageQuery describes one page of a keyset-paginated read
type PageQuery struct {
	Direction Direction
	After     *Continuation
	Limit     int
}

// NewPageQuery decodes the cursor and clamps the limit
func NewPageQuery(direction Direction, cursor string, limit int) (PageQuery, error) {
	after, err := Decode(cursor)
	if err != nil {
		return PageQuery{}, err
	}
	if direction != Asc {
		direction = Desc
	}
	if limit <= 0 {
		limit = domain.DEFAULT_PAGE_SIZE
	}
	if limit > domain.MAX_PAGE_SIZE {
		limit = domain.MAX_PAGE_SIZE
	}
	return PageQuery{Direction: direction, After: after, Limit: limit}, nil
}

// Scope returns a gorm scope applying the keyset predicate, ordering and limit.
// For DESC the predicate is `(sort < ts) OR (sort = ts AND id < id)`, mirrored for ASC.
func (q PageQuery) Scope(sortColumn, idColumn string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		op := "<"
		desc := true
		if q.Direction == Asc {
			op = ">"
			desc = false
		}

		if q.After != nil {
			db = db.Where(
				fmt.Sprintf("((%s %s ?) OR (%s = ? AND %s %s ?))", sortColumn, op, sortColumn, idColumn, op),
				q.After.Timestamp, q.After.Timestamp, q.After.ID,
			)
		}

		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: sortColumn, Raw: true}, Desc: desc}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: idColumn, Raw: true}, Desc: desc})

		if q.Limit > 0 {
			db = db.Limit(q.Limit)
		}
		return db
	}
}

// Page is a page of rows plus the cursor to the next page
type Page[T any] struct {
	Items        []T    `json:"items"`
	Continuation string `json:"continuation,omitempty"`
}

// NextPage wraps rows into a page. The continuation is set only when the page is full.
func NextPage[T any](rows []T, limit int, key func(T) Continuation) Page[T] {
	page := Page[T]{Items: rows}
	if len(rows) > 0 && len(rows) >= limit {
		page.Continuation = key(rows[len(rows)-1]).String()
	}
	return page
}
