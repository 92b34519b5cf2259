package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brkosebay/QR-Code-Manager/internal/models"
)

// IssueStore abstracts persistence operations required by IssueService.
type IssueStore interface {
	FindRespondentByAnyIdentifier(identifiers []string) (*models.Respondent, error)
	CreateRespondent(r *models.Respondent) error
}

// QRGenerator renders the validation link for a token as a scannable image
// and returns the path of the written file.
type QRGenerator interface {
	Generate(emails []string, token string) (string, error)
}

type IssueService struct {
	store    IssueStore
	qr       QRGenerator
	newToken func() string
}

type IssueResult struct {
	Token      string
	QRCodePath string
}

func NewIssueService(store IssueStore, qr QRGenerator) *IssueService {
	return &IssueService{
		store:    store,
		qr:       qr,
		newToken: uuid.NewString,
	}
}

// Issue registers a new respondent for the given emails and generates the
// QR artifact encoding its validation URL. Blank emails are dropped; the
// remaining ones are hashed and become the respondent's identifier set.
func (s *IssueService) Issue(ctx context.Context, emails []string) (*IssueResult, error) {
	filtered := make([]string, 0, len(emails))
	for _, e := range emails {
		if strings.TrimSpace(e) != "" {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		return nil, NewInvalidError("at least one non-blank email is required")
	}

	identifiers := make([]string, 0, len(filtered))
	for _, e := range filtered {
		identifiers = append(identifiers, HashEmail(e))
	}

	existing, err := s.store.FindRespondentByAnyIdentifier(identifiers)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("respondent with this identifier already exists")
	}

	r := &models.Respondent{
		Token:                 s.newToken(),
		Identifiers:           identifiers,
		GiftReceivedTimestamp: time.Unix(0, 0).UTC(),
	}
	if err := s.store.CreateRespondent(r); err != nil {
		return nil, err
	}

	path, err := s.qr.Generate(filtered, r.Token)
	if err != nil {
		return nil, fmt.Errorf("generate qr code for %s: %w", r.Token, err)
	}
	return &IssueResult{Token: r.Token, QRCodePath: path}, nil
}
