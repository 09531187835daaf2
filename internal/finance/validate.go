package finance

import "time"

// TransactionDraft is a partially supplied transaction as received from a
// form, bulk import, or automated posting. Amount and Date are pointers so a
// missing value is distinguishable from a legitimate zero.
type TransactionDraft struct {
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

// ValidateTransactionShape checks that the structurally required fields are
// present. It returns one message per missing field; an empty slice means the
// draft is structurally valid. Business-rule validity is out of scope: an
// unknown category is accepted and simply falls through classification.
func ValidateTransactionShape(draft TransactionDraft) []string {
	var missing []string
	if draft.Type == "" {
		missing = append(missing, "transaction type is required")
	}
	if draft.Category == "" {
		missing = append(missing, "transaction category is required")
	}
	if draft.Amount == nil {
		missing = append(missing, "transaction amount is required")
	}
	if draft.Date == nil || draft.Date.IsZero() {
		missing = append(missing, "transaction date is required")
	}
	return missing
}

// Transaction materialises a structurally valid draft. Callers should check
// ValidateTransactionShape first; missing pointer fields are treated as zero.
func (d TransactionDraft) Transaction() Transaction {
	tx := Transaction{
		ID:              d.ID,
		Type:            TransactionType(d.Type),
		Category:        d.Category,
		Description:     d.Description,
		AffectsPL:       d.AffectsPL,
		AffectsCashFlow: d.AffectsCashFlow,
		AffectsBalance:  d.AffectsBalance,
	}
	if d.Date != nil {
		tx.Date = *d.Date
	}
	if d.Amount != nil {
		tx.Amount = *d.Amount
	}
	return tx
}
