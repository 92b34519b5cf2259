package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brkosebay/QR-Code-Manager/internal/models"
)

// ReconcileStore abstracts persistence operations required by ReconcileService.
// Both Mark methods are conditional updates: they report whether the row
// actually transitioned, so a transition is applied at most once per token
// even when validations race.
type ReconcileStore interface {
	GetRespondentByToken(token string) (*models.Respondent, error)
	MarkSurveyCompleted(token string) (bool, error)
	MarkGiftReceived(token string, at time.Time) (bool, error)
}

// RowFetcher fetches the full row range of the external survey-response
// spreadsheet. The first cell of each row is the respondent-supplied email.
type RowFetcher interface {
	FetchRows(ctx context.Context) ([][]string, error)
}

type ValidationStatus string

const (
	StatusInvalidToken    ValidationStatus = "invalid_token"
	StatusNotCompleted    ValidationStatus = "not_completed"
	StatusGiftGranted     ValidationStatus = "gift_granted"
	StatusAlreadyReceived ValidationStatus = "already_received"
)

type ValidationResult struct {
	Status ValidationStatus
	// GiftReceivedAt is set for StatusGiftGranted and StatusAlreadyReceived.
	GiftReceivedAt time.Time
}

// ReconcileService matches a respondent's identifier set against spreadsheet
// rows and drives the survey-completed and gift-received transitions.
type ReconcileService struct {
	store ReconcileStore
	rows  RowFetcher
	now   func() time.Time
}

func NewReconcileService(store ReconcileStore, rows RowFetcher) *ReconcileService {
	return &ReconcileService{
		store: store,
		rows:  rows,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ValidateToken classifies a scanned token as invalid / not completed /
// newly eligible / already received. The spreadsheet is re-fetched on every
// call; a fetch failure aborts the attempt without touching stored state.
func (s *ReconcileService) ValidateToken(ctx context.Context, token string) (*ValidationResult, error) {
	r, err := s.store.GetRespondentByToken(token)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return &ValidationResult{Status: StatusInvalidToken}, nil
	}

	rows, err := s.rows.FetchRows(ctx)
	if err != nil {
		return nil, NewBadGatewayError("fetch survey responses: " + err.Error())
	}

	if matchesAnyRow(r.Identifiers, rows) && !r.HasCompletedSurvey {
		if _, err := s.store.MarkSurveyCompleted(token); err != nil {
			return nil, err
		}
	}

	// Re-read for a consistent post-update view before the gift decision.
	r, err = s.store.GetRespondentByToken(token)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("respondent %s vanished during validation", token)
	}

	switch {
	case r.HasCompletedSurvey && !r.HasReceivedGift:
		at := s.now()
		applied, err := s.store.MarkGiftReceived(token, at)
		if err != nil {
			return nil, err
		}
		if applied {
			return &ValidationResult{Status: StatusGiftGranted, GiftReceivedAt: at}, nil
		}
		// A concurrent validation won the conditional update; report the
		// timestamp it recorded.
		r, err = s.store.GetRespondentByToken(token)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, fmt.Errorf("respondent %s vanished during validation", token)
		}
		return &ValidationResult{Status: StatusAlreadyReceived, GiftReceivedAt: r.GiftReceivedTimestamp}, nil
	case r.HasCompletedSurvey && r.HasReceivedGift:
		return &ValidationResult{Status: StatusAlreadyReceived, GiftReceivedAt: r.GiftReceivedTimestamp}, nil
	default:
		return &ValidationResult{Status: StatusNotCompleted}, nil
	}
}

// matchesAnyRow scans rows in source order and reports whether any row's
// first cell hashes into the identifier set, either directly or with the
// first rune's case toggled. The first match wins.
func matchesAnyRow(identifiers []string, rows [][]string) bool {
	set := make(map[string]struct{}, len(identifiers))
	for _, id := range identifiers {
		set[id] = struct{}{}
	}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		email := row[0]
		if strings.TrimSpace(email) == "" {
			continue
		}
		for _, h := range CandidateHashes(email) {
			if _, ok := set[h]; ok {
				return true
			}
		}
	}
	return false
}
