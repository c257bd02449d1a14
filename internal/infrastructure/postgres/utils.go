package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/pkg/textfold"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// insertErr traduce la violación de unicidad a ErrDuplicate.
func insertErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("insert %s: %w", entity, domain.ErrDuplicate)
	}
	return fmt.Errorf("insert %s: %w", entity, err)
}

// nullIfEmpty convierte "" en NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// str lee una columna TEXT que admite NULL.
func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// pageClause LIMIT/OFFSET; limit 0 no limita.
func pageClause(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}

// where arma condiciones con placeholders numerados.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// afterVersionedUpdate si el UPDATE ... WHERE row_version = $n no tocó filas,
// distingue entre fila inexistente y versión desactualizada.
func afterVersionedUpdate(ctx context.Context, q Querier, table, entity, id string, expected int, tag pgconn.CommandTag) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	var actual int
	err := q.QueryRow(ctx, `SELECT row_version FROM `+table+` WHERE id = $1`, id).Scan(&actual)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check %s version: %w", entity, err)
	}
	return &domain.ConflictError{Entity: entity, ID: id, Expected: expected, Actual: actual}
}

// mustAffect ErrNotFound cuando la sentencia no tocó ninguna fila.
func mustAffect(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern patrón LIKE sobre columnas *_folded.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(textfold.Fold(search)) + "%"
}

func toStrings[S ~string](in []S) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
