// Package ledger stores the append-only transaction records the statement
// engine consumes. Records are immutable once written; corrections are new
// reversing entries, never updates.
package ledger

import (
	"time"

	"github.com/finboard/finboard/internal/finance"
)

// TransactionRecord is one persisted ledger entry for a company.
type TransactionRecord struct {
	ID          string
	CompanyID   string
	Date        time.Time
	Type        finance.TransactionType
	Category    string
	Amount      float64
	Description string

	AffectsPL       bool
	AffectsCashFlow bool
	AffectsBalance  bool

	CreatedAt time.Time
}

// Transaction converts the stored record into the engine's value type.
func (r TransactionRecord) Transaction() finance.Transaction {
	return finance.Transaction{
		ID:              r.ID,
		Date:            r.Date,
		Type:            r.Type,
		Category:        r.Category,
		Amount:          r.Amount,
		Description:     r.Description,
		AffectsPL:       r.AffectsPL,
		AffectsCashFlow: r.AffectsCashFlow,
		AffectsBalance:  r.AffectsBalance,
	}
}

// RecordInput captures a transaction to append. A nil Amount or Date is a
// structural error reported by the service before anything is stored.
type RecordInput struct {
	ID          string
	Date        *time.Time
	Type        string
	Category    string
	Amount      *float64
	Description string

	AffectsPL       bool
	AffectsCashFlow bool
	AffectsBalance  bool
}

// Draft converts the input into the engine's shape-validation type.
func (in RecordInput) Draft() finance.TransactionDraft {
	return finance.TransactionDraft{
		ID:              in.ID,
		Date:            in.Date,
		Type:            in.Type,
		Category:        in.Category,
		Amount:          in.Amount,
		Description:     in.Description,
		AffectsPL:       in.AffectsPL,
		AffectsCashFlow: in.AffectsCashFlow,
		AffectsBalance:  in.AffectsBalance,
	}
}
