package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users       { return &users{db: s.db} }
func (s *pgStore) History() store.History   { return &history{db: s.db} }
func (s *pgStore) Patterns() store.Patterns { return &patterns{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (email, usage_count, is_active, region, language)
        VALUES ($1, 0, TRUE, $2, $3)
        RETURNING created_at
    `, m.Email, m.Preferences.Region, m.Preferences.Language)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrConflict
		}
		return nil, err
	}
	out := *m
	out.UsageCount = 0
	out.IsActive = true
	out.CreatedAt = created
	return &out, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var out model.User
	var last *time.Time
	row := u.db.QueryRowContext(ctx, `
        SELECT email, usage_count, created_at, last_active, is_active, region, language
        FROM users WHERE email=$1
    `, email)
	if err := row.Scan(&out.Email, &out.UsageCount, &out.CreatedAt, &last,
		&out.IsActive, &out.Preferences.Region, &out.Preferences.Language); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	out.LastActive = last
	return &out, nil
}

func (u *users) IncrementUsage(ctx context.Context, email string) error {
	res, err := u.db.ExecContext(ctx, `
        UPDATE users SET usage_count = usage_count + 1, last_active = now()
        WHERE email=$1
    `, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- History ---

type history struct{ db *sql.DB }

func (h *history) Create(ctx context.Context, r *model.RewriteHistoryRecord) (*model.RewriteHistoryRecord, error) {
	id := r.RecordID
	if id == "" {
		id = uuid.New().String()
	}
	diffs, err := json.Marshal(r.Differences)
	if err != nil {
		return nil, err
	}
	var created time.Time
	row := h.db.QueryRowContext(ctx, `
        INSERT INTO rewrite_history
            (record_id, user_id, original_message, safe_version, region,
             response_time_ms, cached, red_flags_fixed, differences)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at
    `, id, r.UserID, r.OriginalMessage, r.SafeVersion, r.Region,
		r.ResponseTimeMs, r.Cached, r.RedFlagsFixed, diffs)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *r
	out.RecordID = id
	out.CreatedAt = created
	return &out, nil
}

func (h *history) List(ctx context.Context, req model.ListHistoryRequest) (*model.HistoryPage, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	order := "DESC"
	if req.SortAsc {
		order = "ASC"
	}

	var total int64
	if err := h.db.QueryRowContext(ctx,
		`SELECT count(*) FROM rewrite_history WHERE user_id=$1`, req.UserID,
	).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := h.db.QueryContext(ctx, fmt.Sprintf(`
        SELECT record_id, user_id, original_message, safe_version, region,
               created_at, response_time_ms, cached, red_flags_fixed, differences
        FROM rewrite_history WHERE user_id=$1
        ORDER BY created_at %s
        LIMIT $2 OFFSET $3
    `, order), req.UserID, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*model.RewriteHistoryRecord
	for rows.Next() {
		var r model.RewriteHistoryRecord
		var diffs []byte
		if err := rows.Scan(&r.RecordID, &r.UserID, &r.OriginalMessage, &r.SafeVersion,
			&r.Region, &r.CreatedAt, &r.ResponseTimeMs, &r.Cached, &r.RedFlagsFixed, &diffs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(diffs, &r.Differences); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &model.HistoryPage{Records: records, Page: page, PageSize: size, Total: total}, nil
}

func (h *history) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx,
		`DELETE FROM rewrite_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (h *history) Analytics(ctx context.Context, f model.AnalyticsFilter) (*model.AnalyticsReport, error) {
	where, args := analyticsFilter(f)

	report := &model.AnalyticsReport{}
	row := h.db.QueryRowContext(ctx, `
        SELECT count(*),
               count(DISTINCT user_id) FILTER (WHERE user_id IS NOT NULL),
               coalesce(avg(response_time_ms), 0),
               coalesce(avg(CASE WHEN cached THEN 1.0 ELSE 0.0 END), 0)
        FROM rewrite_history `+where, args...)
	if err := row.Scan(&report.TotalRequests, &report.UniqueUsers,
		&report.AvgLatencyMs, &report.CacheHitRate); err != nil {
		return nil, err
	}

	regions, err := h.topRegions(ctx, where, args)
	if err != nil {
		return nil, err
	}
	report.TopRegions = regions

	daily, err := h.dailyCounts(ctx, where, args)
	if err != nil {
		return nil, err
	}
	report.DailyCounts = daily

	cats, err := topCategories(ctx, h.db, f)
	if err != nil {
		return nil, err
	}
	report.TopCategories = cats
	return report, nil
}

func (h *history) topRegions(ctx context.Context, where string, args []interface{}) ([]model.RegionCount, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT region, count(*) FROM rewrite_history `+where+`
        GROUP BY region ORDER BY count(*) DESC LIMIT 5`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.RegionCount
	for rows.Next() {
		var rc model.RegionCount
		if err := rows.Scan(&rc.Region, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (h *history) dailyCounts(ctx context.Context, where string, args []interface{}) ([]model.DailyCount, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT date_trunc('day', created_at), count(*) FROM rewrite_history `+where+`
        GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.DailyCount
	for rows.Next() {
		var dc model.DailyCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func topCategories(ctx context.Context, db *sql.DB, f model.AnalyticsFilter) ([]model.CategoryCount, error) {
	q := `SELECT category, sum(frequency) FROM scam_patterns WHERE is_active`
	var args []interface{}
	if !f.From.IsZero() {
		args = append(args, f.From)
		q += fmt.Sprintf(" AND last_seen >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		q += fmt.Sprintf(" AND last_seen <= $%d", len(args))
	}
	q += " GROUP BY category ORDER BY sum(frequency) DESC LIMIT 5"

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.CategoryCount
	for rows.Next() {
		var cc model.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Frequency); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// analyticsFilter builds the rewrite_history WHERE clause for a filter.
func analyticsFilter(f model.AnalyticsFilter) (string, []interface{}) {
	clauses := ""
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		if clauses == "" {
			clauses = " WHERE "
		} else {
			clauses += " AND "
		}
		clauses += fmt.Sprintf(cond, len(args))
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}
	if f.Region != "" {
		add("region = $%d", f.Region)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	return clauses, args
}

// --- Patterns ---

type patterns struct{ db *sql.DB }

func (p *patterns) Upsert(ctx context.Context, hash string, category model.Category, severity model.Severity, example string) (*model.ScamPattern, error) {
	example = truncateExample(example)
	// frequency increments atomically at the row level; the example is
	// appended only when new and the list is below its cap.
	row := p.db.QueryRowContext(ctx, `
        INSERT INTO scam_patterns (pattern_hash, category, frequency, examples, severity)
        VALUES ($1, $2, 1, jsonb_build_array($4::text), $3)
        ON CONFLICT (pattern_hash) DO UPDATE SET
            frequency = scam_patterns.frequency + 1,
            last_seen = now(),
            severity  = EXCLUDED.severity,
            examples  = CASE
                WHEN scam_patterns.examples ? $4::text THEN scam_patterns.examples
                WHEN jsonb_array_length(scam_patterns.examples) >= $5 THEN scam_patterns.examples
                ELSE scam_patterns.examples || to_jsonb($4::text)
            END
        RETURNING pattern_hash, category, frequency, examples, severity,
                  created_at, last_seen, is_active
    `, hash, category, severity, example, model.MaxPatternExamples)

	var out model.ScamPattern
	var examples []byte
	if err := row.Scan(&out.PatternHash, &out.Category, &out.Frequency, &examples,
		&out.Severity, &out.CreatedAt, &out.LastSeen, &out.IsActive); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(examples, &out.Examples); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *patterns) Trending(ctx context.Context, limit int) ([]*model.TrendingPattern, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	rows, err := p.db.QueryContext(ctx, `
        SELECT category, frequency, severity, last_seen, examples
        FROM scam_patterns WHERE is_active
        ORDER BY frequency DESC, last_seen DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.TrendingPattern
	for rows.Next() {
		var tp model.TrendingPattern
		var examples []byte
		if err := rows.Scan(&tp.Category, &tp.Frequency, &tp.Severity, &tp.LastSeen, &examples); err != nil {
			return nil, err
		}
		var ex []string
		if err := json.Unmarshal(examples, &ex); err != nil {
			return nil, err
		}
		if len(ex) > 3 {
			ex = ex[:3]
		}
		tp.Examples = ex
		out = append(out, &tp)
	}
	return out, rows.Err()
}

// truncateExample bounds stored examples so one oversized message cannot
// bloat the pattern row.
func truncateExample(s string) string {
	const maxExampleLen = 500
	if len(s) > maxExampleLen {
		return s[:maxExampleLen]
	}
	return s
}
