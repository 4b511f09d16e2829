package character

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"charvault/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

// ListQuery narrows and orders a catalog listing. Q is a case-insensitive
// substring match across name, type, and release; Type and Release are
// exact filters. Sort accepts "type_asc"/"type_desc" for tier-rank order,
// anything else sorts by name.
type ListQuery struct {
	Q       string
	Type    string
	Release string
	Sort    string
	Limit   int
	Offset  int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const selectCols = `id, record, name, image, pimage, type, "release",
	str_init, agi_init, sta_init, str_mul_in, agi_mul_in, sta_mul_in,
	bmv_str, bmv_agi, bmv_sta, chinese, created_at`

func scanCharacter(row interface{ Scan(dest ...any) error }) (models.Character, error) {
	var (
		c       models.Character
		chinese int
	)
	err := row.Scan(
		&c.ID, &c.Record, &c.Name, &c.Image, &c.PImage, &c.Type, &c.Release,
		&c.StrInit, &c.AgiInit, &c.StaInit, &c.StrMul, &c.AgiMul, &c.StaMul,
		&c.BmvStr, &c.BmvAgi, &c.BmvSta, &chinese, &c.CreatedAt,
	)
	c.Chinese = chinese != 0
	return c, err
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Character, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+selectCols+`
		FROM characters
		WHERE id = ?
	`, id)

	c, err := scanCharacter(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return &c, nil
}

// FetchAll returns the whole catalog, newest first.
func (r *Repo) FetchAll(ctx context.Context) ([]models.Character, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+selectCols+`
		FROM characters
		ORDER BY created_at DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("fetch all query: %w", err)
	}
	defer rows.Close()
	return collect(rows, 0)
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	row := r.DB.QueryRowContext(ctx, sqlStr, args...)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Character, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()
	return collect(rows, q.Limit)
}

func collect(rows *sql.Rows, capHint int) ([]models.Character, error) {
	out := make([]models.Character, 0, capHint)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// buildListSQL builds either COUNT(*) or the SELECT list.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	baseSelect := `SELECT ` + selectCols + ` FROM characters`
	if countOnly {
		baseSelect = `SELECT COUNT(*) FROM characters`
	}

	var where []string
	var args []any

	if kw := strings.TrimSpace(q.Q); kw != "" {
		where = append(where, `(LOWER(name) LIKE ? OR LOWER(type) LIKE ? OR LOWER("release") LIKE ?)`)
		like := "%" + strings.ToLower(kw) + "%"
		args = append(args, like, like, like)
	}
	if t := strings.TrimSpace(q.Type); t != "" {
		where = append(where, "type = ?")
		args = append(args, t)
	}
	if rel := strings.TrimSpace(q.Release); rel != "" {
		where = append(where, `"release" = ?`)
		args = append(args, rel)
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		switch q.Sort {
		case "type_asc":
			sqlStr += " ORDER BY " + tierRankExpr + " ASC, name ASC"
		case "type_desc":
			sqlStr += " ORDER BY " + tierRankExpr + " DESC, name ASC"
		default:
			sqlStr += " ORDER BY name ASC"
		}

		limit := q.Limit
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		sqlStr += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	return sqlStr, args
}

// tierRankExpr orders rows by the tier list's declared rank; unknown tiers
// land after every known one.
var tierRankExpr = func() string {
	var b strings.Builder
	b.WriteString("CASE type")
	for i, t := range models.CharacterTypes {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", strings.ReplaceAll(t, "'", "''"), i)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(models.CharacterTypes))
	return b.String()
}()

// Upsert persists a record wholesale, assigning an id when it has none,
// and returns the stored row.
func (r *Repo) Upsert(ctx context.Context, c models.Character) (*models.Character, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO characters (id, record, name, image, pimage, type, "release",
			str_init, agi_init, sta_init, str_mul_in, agi_mul_in, sta_mul_in,
			bmv_str, bmv_agi, bmv_sta, chinese)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  record = excluded.record,
		  name = excluded.name,
		  image = excluded.image,
		  pimage = excluded.pimage,
		  type = excluded.type,
		  "release" = excluded."release",
		  str_init = excluded.str_init,
		  agi_init = excluded.agi_init,
		  sta_init = excluded.sta_init,
		  str_mul_in = excluded.str_mul_in,
		  agi_mul_in = excluded.agi_mul_in,
		  sta_mul_in = excluded.sta_mul_in,
		  bmv_str = excluded.bmv_str,
		  bmv_agi = excluded.bmv_agi,
		  bmv_sta = excluded.bmv_sta,
		  chinese = excluded.chinese
	`, upsertArgs(c)...)
	if err != nil {
		return nil, fmt.Errorf("exec upsert for %s: %w", c.ID, err)
	}

	return r.GetByID(ctx, c.ID)
}

// BulkInsert writes the batch in one transaction, assigning ids, and
// returns the stored rows in input order.
func (r *Repo) BulkInsert(ctx context.Context, chars []models.Character) ([]models.Character, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO characters (id, record, name, image, pimage, type, "release",
			str_init, agi_init, sta_init, str_mul_in, agi_mul_in, sta_mul_in,
			bmv_str, bmv_agi, bmv_sta, chinese)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	stored := make([]models.Character, 0, len(chars))
	for _, c := range chars {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, upsertArgs(c)...); err != nil {
			return nil, fmt.Errorf("exec insert for %s: %w", c.Name, err)
		}
		stored = append(stored, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return stored, nil
}

func upsertArgs(c models.Character) []any {
	chinese := 0
	if c.Chinese {
		chinese = 1
	}
	return []any{
		c.ID, c.Record, c.Name, c.Image, c.PImage, c.Type, c.Release,
		c.StrInit, c.AgiInit, c.StaInit, c.StrMul, c.AgiMul, c.StaMul,
		c.BmvStr, c.BmvAgi, c.BmvSta, chinese,
	}
}

// Delete removes one record. The bool reports whether it existed.
func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteSet removes an explicit batch of ids and returns how many rows went.
func (r *Repo) DeleteSet(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM characters WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete set: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete set rows: %w", err)
	}
	return affected, nil
}

// GetByIDs fetches the given records, preserving the requested order and
// skipping ids that no longer exist.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) ([]models.Character, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+selectCols+` FROM characters WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("get by ids query: %w", err)
	}
	defer rows.Close()

	found, err := collect(rows, len(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Character, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]models.Character, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// CountByType returns per-tier record counts for the classification rail.
func (r *Repo) CountByType(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM characters GROUP BY type
	`)
	if err != nil {
		return nil, fmt.Errorf("count by type query: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("count by type scan: %w", err)
		}
		counts[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return counts, nil
}
