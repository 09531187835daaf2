// Package statements persists and serves the financial statements derived
// from company ledgers, and orchestrates when they are recomputed. All
// arithmetic lives in the finance package; this package owns storage,
// caching, and the serialisation of rebuilds against concurrent ledger
// writes.
package statements

import (
	"errors"
	"time"

	"github.com/finboard/finboard/internal/finance"
)

// CompanyRef identifies one portfolio company and its opening cash position.
type CompanyRef struct {
	ID            string
	Name          string
	BeginningCash float64
}

// StoredPeriod is one persisted period statement row.
type StoredPeriod struct {
	CompanyID  string
	Period     time.Time
	Statements finance.FinancialStatements
	ComputedAt time.Time
}

// ErrCompanyNotFound occurs when a referenced company does not exist.
var ErrCompanyNotFound = errors.New("statements: company not found")
