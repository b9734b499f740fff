package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/erlanggapranata/uploader/internal/config"
	"github.com/erlanggapranata/uploader/internal/model"
)

// ErrNotFound is returned when no record exists for a short code.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateCode is returned by Insert when the short code is already
// taken. The unique index on short_code is the final authority on code
// uniqueness, even when the generator pre-checked.
var ErrDuplicateCode = errors.New("short code already exists")

// Store provides access to the urls table. It is constructed once at
// startup and passed to handlers; Close releases the connection.
type Store struct {
	*sql.DB
}

// NewStore opens a new SQLite database connection
func NewStore(config *config.Config) (*Store, error) {
	db, err := sql.Open("sqlite3", config.SQLitePath)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &Store{db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.DB.Close()
}

const recordColumns = `id, short_code, filename, original_name, uploaded_at, size, mimetype, access_count, last_accessed_at`

// Insert persists a new record and assigns its surrogate id. A duplicate
// short code is rejected with ErrDuplicateCode.
func (s *Store) Insert(rec *model.UrlRecord) error {
	stmt, err := s.Prepare(`
		INSERT INTO urls (short_code, filename, original_name, uploaded_at, size, mimetype, access_count, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, NULL)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(rec.ShortCode, rec.Filename, rec.OriginalName, rec.UploadedAt, rec.Size, rec.Mimetype)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, rec.ShortCode)
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	rec.AccessCount = 0
	rec.LastAccessedAt = nil

	return nil
}

// FindByShortCode returns the record for a short code, or ErrNotFound.
func (s *Store) FindByShortCode(code string) (*model.UrlRecord, error) {
	row := s.QueryRow(`SELECT `+recordColumns+` FROM urls WHERE short_code = ?`, code)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		return nil, err
	}
	return rec, nil
}

// ExistsByShortCode reports whether a short code is already taken.
func (s *Store) ExistsByShortCode(code string) (bool, error) {
	var exists int
	err := s.QueryRow(`SELECT COUNT(1) FROM urls WHERE short_code = ?`, code).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// IncrementAccess bumps the access counter and stamps last_accessed_at in a
// single UPDATE, so concurrent accesses to the same record never lose an
// increment. Unknown codes are a no-op.
func (s *Store) IncrementAccess(code string) error {
	_, err := s.Exec(`
		UPDATE urls
		SET access_count = access_count + 1, last_accessed_at = ?
		WHERE short_code = ?
	`, time.Now(), code)
	return err
}

// ListPaged returns records ordered by upload time, newest first.
func (s *Store) ListPaged(limit, offset int) ([]model.UrlRecord, error) {
	rows, err := s.Query(`
		SELECT `+recordColumns+` FROM urls
		ORDER BY uploaded_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// Count returns the total number of records.
func (s *Store) Count() (int64, error) {
	var count int64
	err := s.QueryRow(`SELECT COUNT(*) FROM urls`).Scan(&count)
	return count, err
}

// Search matches original names case-insensitively against a substring.
func (s *Store) Search(substring string, limit int) ([]model.UrlRecord, error) {
	rows, err := s.Query(`
		SELECT `+recordColumns+` FROM urls
		WHERE LOWER(original_name) LIKE '%' || LOWER(?) || '%'
		ORDER BY uploaded_at DESC, id DESC
		LIMIT ?
	`, substring, limit)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// MostAccessed returns records that have been retrieved at least once,
// most accessed first.
func (s *Store) MostAccessed(limit int) ([]model.UrlRecord, error) {
	rows, err := s.Query(`
		SELECT `+recordColumns+` FROM urls
		WHERE access_count > 0
		ORDER BY access_count DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// Recent returns the most recently uploaded records.
func (s *Store) Recent(limit int) ([]model.UrlRecord, error) {
	return s.ListPaged(limit, 0)
}

// Delete removes the record for a short code and reports whether a row was
// actually removed.
func (s *Store) Delete(code string) (bool, error) {
	res, err := s.Exec(`DELETE FROM urls WHERE short_code = ?`, code)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// AggregateStats summarizes the table. All values are zero for an empty
// table, including the average.
func (s *Store) AggregateStats() (*model.AggregateStats, error) {
	stats := &model.AggregateStats{}
	err := s.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(size), 0), COALESCE(SUM(access_count), 0)
		FROM urls
	`).Scan(&stats.Count, &stats.TotalSize, &stats.TotalAccess)
	if err != nil {
		return nil, err
	}

	if stats.Count > 0 {
		stats.AverageSize = stats.TotalSize / stats.Count
	}

	return stats, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.UrlRecord, error) {
	var rec model.UrlRecord
	var lastAccessed sql.NullTime

	err := row.Scan(
		&rec.ID,
		&rec.ShortCode,
		&rec.Filename,
		&rec.OriginalName,
		&rec.UploadedAt,
		&rec.Size,
		&rec.Mimetype,
		&rec.AccessCount,
		&lastAccessed,
	)
	if err != nil {
		return nil, err
	}

	if lastAccessed.Valid {
		t := lastAccessed.Time
		rec.LastAccessedAt = &t
	}

	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]model.UrlRecord, error) {
	defer rows.Close()

	var records []model.UrlRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}
