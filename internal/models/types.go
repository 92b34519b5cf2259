package models

import "time"

// Respondent represents one invited participant. Raw emails are never
// stored; only SHA-256 digests of them live in Identifiers.
type Respondent struct {
	Token                 string
	Identifiers           []string
	HasCompletedSurvey    bool
	HasReceivedGift       bool
	GiftReceivedTimestamp time.Time // Unix epoch until the gift is issued
}

// AdminUser is an operator account allowed to issue respondent tokens.
type AdminUser struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}
