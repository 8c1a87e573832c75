package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"codele_backend/internal/common"
	"codele_backend/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	Get(ctx context.Context, dateKey string) (*model.Problem, error)
	FindRange(ctx context.Context, minKey, maxKey string) ([]model.Problem, error)
	FindAll(ctx context.Context) ([]model.Problem, error)
	FindLatest(ctx context.Context) (*model.Problem, error)
	CountAfter(ctx context.Context, dateKey string) (int, error)
	ListTitles(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, tx *sql.Tx, p *model.Problem) error
	InsertMany(ctx context.Context, tx *sql.Tx, problems []model.Problem) error
	Update(ctx context.Context, tx *sql.Tx, p *model.Problem) error
	Delete(ctx context.Context, tx *sql.Tx, dateKey string) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

const problemColumns = `date_key, title, difficulty, description, starter_code, test_cases, topics, embedding, created_at, updated_at`

func scanProblem(row interface{ Scan(...interface{}) error }) (*model.Problem, error) {
	p := &model.Problem{}
	var testCases, topics []byte
	var embedding sql.NullString
	err := row.Scan(
		&p.DateKey, &p.Title, &p.Difficulty, &p.Description, &p.StarterCode,
		&testCases, &topics, &embedding, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(testCases, &p.TestCases); err != nil {
		return nil, fmt.Errorf("decode test_cases for %s: %w", p.DateKey, err)
	}
	if err := json.Unmarshal(topics, &p.Topics); err != nil {
		return nil, fmt.Errorf("decode topics for %s: %w", p.DateKey, err)
	}
	if embedding.Valid {
		if err := json.Unmarshal([]byte(embedding.String), &p.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", p.DateKey, err)
		}
	}
	return p, nil
}

func encodeProblem(p *model.Problem) (testCases, topics []byte, embedding interface{}, err error) {
	if p.TestCases == nil {
		p.TestCases = []model.TestCase{}
	}
	if p.Topics == nil {
		p.Topics = []string{}
	}
	testCases, err = json.Marshal(p.TestCases)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode test_cases: %w", err)
	}
	topics, err = json.Marshal(p.Topics)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode topics: %w", err)
	}
	if p.Embedding != nil {
		b, merr := json.Marshal(p.Embedding)
		if merr != nil {
			return nil, nil, nil, fmt.Errorf("encode embedding: %w", merr)
		}
		embedding = string(b)
	}
	return testCases, topics, embedding, nil
}

func (r *pgProblemRepository) Get(ctx context.Context, dateKey string) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE date_key = $1`
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, dateKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.Get: %w", err)
	}
	return p, nil
}

// FindRange returns problems with minKey <= date_key <= maxKey, ascending.
func (r *pgProblemRepository) FindRange(ctx context.Context, minKey, maxKey string) ([]model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE date_key >= $1 AND date_key <= $2 ORDER BY date_key ASC`
	return r.queryProblems(ctx, "FindRange", query, minKey, maxKey)
}

// FindAll returns every problem ordered by date_key ascending. This order
// is the enumeration the fallback selector indexes into, so it must be
// stable across replicas.
func (r *pgProblemRepository) FindAll(ctx context.Context) ([]model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems ORDER BY date_key ASC`
	return r.queryProblems(ctx, "FindAll", query)
}

func (r *pgProblemRepository) queryProblems(ctx context.Context, op, query string, args ...interface{}) ([]model.Problem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("pgProblemRepository.%s scan: %w", op, err)
		}
		problems = append(problems, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.%s rows.Err: %w", op, err)
	}
	return problems, nil
}

// FindLatest returns the problem with the greatest date_key, or ErrNotFound
// on an empty store.
func (r *pgProblemRepository) FindLatest(ctx context.Context) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems ORDER BY date_key DESC LIMIT 1`
	p, err := scanProblem(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindLatest: %w", err)
	}
	return p, nil
}

// CountAfter counts problems scheduled strictly after the given key
// (the content buffer depth).
func (r *pgProblemRepository) CountAfter(ctx context.Context, dateKey string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems WHERE date_key > $1`, dateKey).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pgProblemRepository.CountAfter: %w", err)
	}
	return count, nil
}

func (r *pgProblemRepository) ListTitles(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT title FROM problems ORDER BY date_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListTitles query: %w", err)
	}
	defer rows.Close()

	titles := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListTitles scan: %w", err)
		}
		titles = append(titles, title)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListTitles rows.Err: %w", err)
	}
	return titles, nil
}

// Insert fails with ErrConflict when the date_key is already taken; a
// concurrent writer targeting the same slot loses instead of overwriting.
func (r *pgProblemRepository) Insert(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	testCases, topics, embedding, err := encodeProblem(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Insert: %w", err)
	}

	query := `INSERT INTO problems (date_key, title, difficulty, description, starter_code, test_cases, topics, embedding)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, p.DateKey, p.Title, p.Difficulty, p.Description, p.StarterCode, testCases, topics, embedding)
	} else {
		_, err = r.db.ExecContext(ctx, query, p.DateKey, p.Title, p.Difficulty, p.Description, p.StarterCode, testCases, topics, embedding)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Primary key on date_key
			return fmt.Errorf("problem already scheduled for %s: %w", p.DateKey, common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.Insert: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) InsertMany(ctx context.Context, tx *sql.Tx, problems []model.Problem) error {
	for i := range problems {
		if err := r.Insert(ctx, tx, &problems[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *pgProblemRepository) Update(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	testCases, topics, embedding, err := encodeProblem(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}

	query := `UPDATE problems SET
	            title = $1, difficulty = $2, description = $3, starter_code = $4,
	            test_cases = $5, topics = $6, embedding = $7, updated_at = CURRENT_TIMESTAMP
	          WHERE date_key = $8`
	var res sql.Result
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, p.Title, p.Difficulty, p.Description, p.StarterCode, testCases, topics, embedding, p.DateKey)
	} else {
		res, err = r.db.ExecContext(ctx, query, p.Title, p.Difficulty, p.Description, p.StarterCode, testCases, topics, embedding, p.DateKey)
	}
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) Delete(ctx context.Context, tx *sql.Tx, dateKey string) error {
	query := `DELETE FROM problems WHERE date_key = $1`
	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, dateKey)
	} else {
		res, err = r.db.ExecContext(ctx, query, dateKey)
	}
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
