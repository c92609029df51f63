package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pavelanni/paperbank/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serialises writers from parallel ingest workers and
	// keeps ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS papers (
		filename TEXT PRIMARY KEY,
		subject_code TEXT NOT NULL,
		session TEXT NOT NULL,
		year INTEGER NOT NULL,
		paper_type TEXT NOT NULL,
		paper_number INTEGER NOT NULL,
		variant INTEGER NOT NULL DEFAULT 0,
		content_hash TEXT NOT NULL DEFAULT '',
		profile_name TEXT NOT NULL DEFAULT '',
		profile_version INTEGER NOT NULL DEFAULT 0,
		run_id TEXT NOT NULL DEFAULT '',
		imported_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_papers_subject ON papers(subject_code, year);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		paper_filename TEXT NOT NULL,
		position INTEGER NOT NULL,
		question_number INTEGER NOT NULL,
		number_inferred INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL,
		max_marks INTEGER NOT NULL,
		has_diagram INTEGER NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL,
		FOREIGN KEY (paper_filename) REFERENCES papers(filename) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_questions_paper ON questions(paper_filename, position);

	CREATE TABLE IF NOT EXISTS subparts (
		question_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		marks INTEGER NOT NULL,
		PRIMARY KEY (question_id, position),
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS mark_schemes (
		paper_filename TEXT PRIMARY KEY,
		raw_text TEXT NOT NULL,
		linked_question_paper TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (paper_filename) REFERENCES papers(filename) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS ingest_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// upsertPaper replaces the paper row and everything extracted from it.
func upsertPaper(tx *sql.Tx, p model.Paper) error {
	if _, err := tx.Exec(`DELETE FROM subparts WHERE question_id IN (SELECT id FROM questions WHERE paper_filename = ?)`, p.Filename); err != nil {
		return fmt.Errorf("delete subparts: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM questions WHERE paper_filename = ?`, p.Filename); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM mark_schemes WHERE paper_filename = ?`, p.Filename); err != nil {
		return fmt.Errorf("delete mark scheme: %w", err)
	}

	importedAt := p.ImportedAt
	if importedAt.IsZero() {
		importedAt = time.Now()
	}
	id := p.Identity
	_, err := tx.Exec(
		`INSERT INTO papers (filename, subject_code, session, year, paper_type, paper_number, variant,
		                     content_hash, profile_name, profile_version, run_id, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
		   content_hash = excluded.content_hash,
		   profile_name = excluded.profile_name,
		   profile_version = excluded.profile_version,
		   run_id = excluded.run_id,
		   imported_at = excluded.imported_at`,
		p.Filename, id.SubjectCode, id.Session, id.Year, id.PaperType, id.PaperNumber, id.Variant,
		p.ContentHash, p.ProfileName, p.ProfileVer, p.RunID, importedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert paper: %w", err)
	}
	return nil
}

// SaveQuestionPaper stores a question paper and its questions, replacing any
// earlier import of the same file.
func (s *Store) SaveQuestionPaper(p model.Paper, questions []model.ExtractedQuestion) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertPaper(tx, p); err != nil {
		return err
	}

	for i, q := range questions {
		res, err := tx.Exec(
			`INSERT INTO questions (paper_filename, position, question_number, number_inferred, text, max_marks, has_diagram, difficulty)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Filename, i, q.QuestionNumber, q.NumberInferred, q.Text, q.MaxMarks, q.HasDiagram, q.Difficulty,
		)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", q.QuestionNumber, err)
		}
		qid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for j, sp := range q.Subparts {
			if _, err := tx.Exec(
				`INSERT INTO subparts (question_id, position, label, marks) VALUES (?, ?, ?, ?)`,
				qid, j, sp.Label, sp.Marks,
			); err != nil {
				return fmt.Errorf("insert subpart %s of question %d: %w", sp.Label, q.QuestionNumber, err)
			}
		}
	}

	return tx.Commit()
}

// SaveMarkScheme stores a mark scheme document.
func (s *Store) SaveMarkScheme(p model.Paper, ms model.ExtractedMarkScheme) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertPaper(tx, p); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO mark_schemes (paper_filename, raw_text, linked_question_paper) VALUES (?, ?, ?)`,
		p.Filename, ms.RawText, ms.LinkedQuestionPaper,
	); err != nil {
		return fmt.Errorf("insert mark scheme: %w", err)
	}
	return tx.Commit()
}

// ContentHash returns the stored content hash of a paper, or "" if it has
// never been imported.
func (s *Store) ContentHash(filename string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT content_hash FROM papers WHERE filename = ?`, filename).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

const paperColumns = `p.filename, p.subject_code, p.session, p.year, p.paper_type, p.paper_number, p.variant,
	p.content_hash, p.profile_name, p.profile_version, p.run_id, p.imported_at,
	(SELECT COUNT(*) FROM questions q WHERE q.paper_filename = p.filename)`

type scanner interface {
	Scan(dest ...any) error
}

func scanPaper(row scanner) (model.Paper, error) {
	var p model.Paper
	err := row.Scan(&p.Filename, &p.Identity.SubjectCode, &p.Identity.Session, &p.Identity.Year,
		&p.Identity.PaperType, &p.Identity.PaperNumber, &p.Identity.Variant,
		&p.ContentHash, &p.ProfileName, &p.ProfileVer, &p.RunID, &p.ImportedAt, &p.NumQuestions)
	return p, err
}

// GetPaper returns a paper by filename, or nil if it does not exist.
func (s *Store) GetPaper(filename string) (*model.Paper, error) {
	p, err := scanPaper(s.db.QueryRow(`SELECT `+paperColumns+` FROM papers p WHERE p.filename = ?`, filename))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPapers returns papers matching the filter, newest first.
func (s *Store) ListPapers(f model.PaperFilter) ([]model.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers p WHERE 1=1`
	var args []any
	if f.SubjectCode != "" {
		query += ` AND p.subject_code = ?`
		args = append(args, f.SubjectCode)
	}
	if f.Year != 0 {
		query += ` AND p.year = ?`
		args = append(args, f.Year)
	}
	if f.Session != "" {
		query += ` AND p.session = ?`
		args = append(args, f.Session)
	}
	if f.PaperType != "" {
		query += ` AND p.paper_type = ?`
		args = append(args, f.PaperType)
	}
	query += ` ORDER BY p.year DESC, p.session, p.paper_number, p.variant, p.paper_type`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var papers []model.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

const questionColumns = `q.id, q.question_number, q.number_inferred, q.text, q.max_marks, q.has_diagram, q.difficulty,
	p.filename, p.paper_number, p.year, p.session`

func (s *Store) queryQuestions(where string, args ...any) ([]model.StoredQuestion, error) {
	rows, err := s.db.Query(
		`SELECT `+questionColumns+` FROM questions q JOIN papers p ON p.filename = q.paper_filename
		 WHERE `+where+` ORDER BY p.filename, q.position`, args...)
	if err != nil {
		return nil, err
	}
	var questions []model.StoredQuestion
	for rows.Next() {
		var q model.StoredQuestion
		if err := rows.Scan(&q.ID, &q.QuestionNumber, &q.NumberInferred, &q.Text, &q.MaxMarks, &q.HasDiagram,
			&q.Difficulty, &q.SourcePaper, &q.PaperNumber, &q.Year, &q.Session); err != nil {
			rows.Close()
			return nil, err
		}
		q.Subparts = []model.Subpart{}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.attachSubparts(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// attachSubparts loads subparts for questions. Rows of the question query
// must be closed first: the store holds a single connection.
func (s *Store) attachSubparts(questions []model.StoredQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	index := make(map[int64]int, len(questions))
	placeholders := make([]string, 0, len(questions))
	args := make([]any, 0, len(questions))
	for i, q := range questions {
		index[q.ID] = i
		placeholders = append(placeholders, "?")
		args = append(args, q.ID)
	}

	rows, err := s.db.Query(
		`SELECT question_id, label, marks FROM subparts WHERE question_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY question_id, position`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var qid int64
		var sp model.Subpart
		if err := rows.Scan(&qid, &sp.Label, &sp.Marks); err != nil {
			return err
		}
		i := index[qid]
		questions[i].Subparts = append(questions[i].Subparts, sp)
	}
	return rows.Err()
}

// ListQuestions returns the questions of one paper in source order.
func (s *Store) ListQuestions(filename string) ([]model.StoredQuestion, error) {
	return s.queryQuestions(`p.filename = ?`, filename)
}

// ListQuestionsFiltered returns questions matching the given filters.
// Empty strings mean no filtering on that field.
func (s *Store) ListQuestionsFiltered(subjectCode string, difficulty model.Difficulty) ([]model.StoredQuestion, error) {
	where := `1=1`
	var args []any
	if subjectCode != "" {
		where += ` AND p.subject_code = ?`
		args = append(args, subjectCode)
	}
	if difficulty != "" {
		where += ` AND q.difficulty = ?`
		args = append(args, difficulty)
	}
	return s.queryQuestions(where, args...)
}

// QuestionCount returns the total number of stored questions.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// GetMarkScheme returns a stored mark scheme by its own filename, or nil.
func (s *Store) GetMarkScheme(filename string) (*model.ExtractedMarkScheme, error) {
	var ms model.ExtractedMarkScheme
	err := s.db.QueryRow(
		`SELECT p.filename, m.raw_text, m.linked_question_paper, p.paper_number, p.year, p.session
		 FROM mark_schemes m JOIN papers p ON p.filename = m.paper_filename
		 WHERE p.filename = ?`, filename,
	).Scan(&ms.SourcePaper, &ms.RawText, &ms.LinkedQuestionPaper, &ms.PaperNumber, &ms.Year, &ms.Session)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ms, nil
}
