package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"agristack/internal/records/models"
	dErrors "agristack/pkg/domain-errors"
	"agristack/pkg/platform/sentinel"
	"agristack/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// tables maps collections onto the field apps' table names.
var tables = map[models.Collection]string{
	models.CollectionFarmers:     "farmers",
	models.CollectionInspections: "seed_inspections",
	models.CollectionOutreach:    "gyan_vahan",
}

// Postgres persists records in PostgreSQL.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// dbtx is the subset of *sql.DB and *sql.Tx the store uses.
type dbtx interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// conn returns the transaction carried by ctx, or the pool.
func (s *Postgres) conn(ctx context.Context) dbtx {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// Snapshot runs fn inside a read-only repeatable-read transaction so every
// query it issues sees the same data. Nested calls reuse the outer one.
func (s *Postgres) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}
	t, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return unavailable("begin snapshot", err)
	}
	if err := fn(tx.WithTx(ctx, t)); err != nil {
		_ = t.Rollback()
		return err
	}
	if err := t.Commit(); err != nil {
		return unavailable("commit snapshot", err)
	}
	return nil
}

func (s *Postgres) Query(ctx context.Context, q Query) (*Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if !q.WithTotal {
		return s.query(ctx, q)
	}
	// The page and its total must agree.
	var page *Page
	err := s.Snapshot(ctx, func(ctx context.Context) error {
		var err error
		page, err = s.query(ctx, q)
		return err
	})
	return page, err
}

func (s *Postgres) query(ctx context.Context, q Query) (*Page, error) {
	db := s.conn(ctx)
	table := tables[q.Collection]
	cols := models.Columns(q.Collection)

	where, args := buildWhere(q.Where)
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s %s, id %s",
		strings.Join(cols, ", "), table, where, q.orderColumn(), dir, dir)
	if q.Limit > 0 {
		stmt += " LIMIT " + strconv.Itoa(q.Limit)
	}
	if q.Offset > 0 {
		stmt += " OFFSET " + strconv.Itoa(q.Offset)
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, unavailable("query "+table, err)
	}
	defer rows.Close()

	page := &Page{Records: make([]models.Record, 0)}
	for rows.Next() {
		rec := models.New(q.Collection)
		if err := rows.Scan(rec.ScanDest()...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		page.Records = append(page.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate "+table, err)
	}

	if q.WithTotal {
		countStmt := "SELECT count(*) FROM " + table + where
		if err := db.QueryRowContext(ctx, countStmt, args...).Scan(&page.Total); err != nil {
			return nil, unavailable("count "+table, err)
		}
	}
	return page, nil
}

func (s *Postgres) Insert(ctx context.Context, rec models.Record) (models.Record, error) {
	if rec == nil || !rec.Collection().IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "record is required")
	}
	stored := models.Clone(rec)
	stampNew(stored, s.now())

	table := tables[stored.Collection()]
	fields := stored.Fields()
	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = f.Key
		marks[i] = "$" + strconv.Itoa(i+1)
		args[i] = f.Value
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "), strings.Join(cols, ", "))

	out := models.New(stored.Collection())
	if err := s.conn(ctx).QueryRowContext(ctx, stmt, args...).Scan(out.ScanDest()...); err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, unavailable("insert "+table, err)
	}
	return out, nil
}

func (s *Postgres) Update(ctx context.Context, c models.Collection, id uuid.UUID, patch models.Patch) (models.Record, error) {
	if err := patch.Validate(c); err != nil {
		return nil, err
	}
	table := tables[c]
	keys := patch.Keys(c)
	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+2)
	for _, k := range keys {
		args = append(args, patch[k])
		sets = append(sets, k+" = $"+strconv.Itoa(len(args)))
	}
	args = append(args, s.now())
	sets = append(sets, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, id)

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		table, strings.Join(sets, ", "), len(args), strings.Join(models.Columns(c), ", "))

	out := models.New(c)
	err := s.conn(ctx).QueryRowContext(ctx, stmt, args...).Scan(out.ScanDest()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, unavailable("update "+table, err)
	}
	return out, nil
}

func (s *Postgres) Delete(ctx context.Context, c models.Collection, id uuid.UUID) error {
	table, ok := tables[c]
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "unknown collection")
	}
	res, err := s.conn(ctx).ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return unavailable("delete "+table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete "+table, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// buildWhere renders predicates with positional parameters. Column names
// were checked by Query.Validate.
func buildWhere(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(preds))
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	for _, p := range preds {
		switch p.Op {
		case OpContainsAny:
			mark := next("%" + escapeLike(fmt.Sprint(p.Value)) + "%")
			ors := make([]string, len(p.Fields))
			for i, f := range p.Fields {
				ors[i] = f + "::text ILIKE " + mark
			}
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		case OpIn:
			vals := make([]string, len(p.Values))
			for i, v := range p.Values {
				vals[i] = toString(v)
			}
			clauses = append(clauses, p.Field+"::text = ANY("+next(pq.Array(vals))+")")
		case OpIsNull:
			clauses = append(clauses, p.Field+" IS NULL")
		default:
			clauses = append(clauses, p.Field+" "+sqlOps[p.Op]+" "+next(p.Value))
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNeq: "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
}
