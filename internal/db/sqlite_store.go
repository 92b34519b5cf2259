package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/brkosebay/QR-Code-Manager/internal/models"
	"github.com/brkosebay/QR-Code-Manager/internal/services"
)

// SQLiteStore persists respondents and admin accounts. Both state
// transitions are single conditional UPDATE statements, so each applies at
// most once per token even when validations race.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateRespondent(r *models.Respondent) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin create respondent: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO respondents (token, has_completed_survey, has_received_gift, gift_received_at) VALUES (?, ?, ?, ?)`,
		r.Token, boolToInt64(r.HasCompletedSurvey), boolToInt64(r.HasReceivedGift), r.GiftReceivedTimestamp.Unix(),
	); err != nil {
		return translateConstraint(err, "token already exists")
	}
	for _, id := range r.Identifiers {
		if _, err := tx.Exec(
			`INSERT INTO respondent_identifiers (identifier, token) VALUES (?, ?)`, id, r.Token,
		); err != nil {
			return translateConstraint(err, "respondent with this identifier already exists")
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create respondent: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRespondentByToken(token string) (*models.Respondent, error) {
	row := s.db.QueryRow(
		`SELECT token, has_completed_survey, has_received_gift, gift_received_at FROM respondents WHERE token = ?`,
		token,
	)
	return s.scanRespondent(row)
}

func (s *SQLiteStore) FindRespondentByAnyIdentifier(identifiers []string) (*models.Respondent, error) {
	if len(identifiers) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(identifiers))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(identifiers))
	for _, id := range identifiers {
		args = append(args, id)
	}
	row := s.db.QueryRow(
		`SELECT r.token, r.has_completed_survey, r.has_received_gift, r.gift_received_at
		 FROM respondents r
		 JOIN respondent_identifiers ri ON ri.token = r.token
		 WHERE ri.identifier IN (`+placeholders+`)
		 LIMIT 1`,
		args...,
	)
	return s.scanRespondent(row)
}

func (s *SQLiteStore) MarkSurveyCompleted(token string) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE respondents SET has_completed_survey = 1 WHERE token = ? AND has_completed_survey = 0`,
		token,
	)
	if err != nil {
		return false, fmt.Errorf("mark survey completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) MarkGiftReceived(token string, at time.Time) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE respondents SET has_received_gift = 1, gift_received_at = ?
		 WHERE token = ? AND has_completed_survey = 1 AND has_received_gift = 0`,
		at.Unix(), token,
	)
	if err != nil {
		return false, fmt.Errorf("mark gift received: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAllRespondents wipes the respondent tables for a database rebuild.
func (s *SQLiteStore) DeleteAllRespondents() error {
	if _, err := s.db.Exec(`DELETE FROM respondents`); err != nil {
		return fmt.Errorf("delete respondents: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindAdminByEmail(email string) (*models.AdminUser, error) {
	row := s.db.QueryRow(`SELECT id, email, pass_hash, created_at FROM admin_users WHERE email = ?`, email)
	var u models.AdminUser
	var createdAt string
	if err := row.Scan(&u.ID, &u.Email, &u.PassHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		u.CreatedAt = t
	}
	return &u, nil
}

func (s *SQLiteStore) AddAdmin(u *models.AdminUser) error {
	if _, err := s.db.Exec(
		`INSERT INTO admin_users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return translateConstraint(err, "admin email already exists")
	}
	return nil
}

func (s *SQLiteStore) scanRespondent(row *sql.Row) (*models.Respondent, error) {
	var r models.Respondent
	var completed, gifted, giftedAt int64
	if err := row.Scan(&r.Token, &completed, &gifted, &giftedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan respondent: %w", err)
	}
	r.HasCompletedSurvey = int64ToBool(completed)
	r.HasReceivedGift = int64ToBool(gifted)
	r.GiftReceivedTimestamp = time.Unix(giftedAt, 0).UTC()

	ids, err := s.identifiersFor(r.Token)
	if err != nil {
		return nil, err
	}
	r.Identifiers = ids
	return &r, nil
}

func (s *SQLiteStore) identifiersFor(token string) ([]string, error) {
	rows, err := s.db.Query(`SELECT identifier FROM respondent_identifiers WHERE token = ? ORDER BY identifier`, token)
	if err != nil {
		return nil, fmt.Errorf("list identifiers: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func translateConstraint(err error, msg string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return services.NewConflictError(msg)
	}
	return err
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

var (
	_ services.IssueStore     = (*SQLiteStore)(nil)
	_ services.ReconcileStore = (*SQLiteStore)(nil)
	_ services.AuthStore      = (*SQLiteStore)(nil)
)
