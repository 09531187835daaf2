// Package finance derives Profit & Loss, Cash Flow, and Balance Sheet
// statements from a flat ledger of dated transactions, sequences them into
// calendar-month periods with cash carried forward, and consolidates
// statements across a portfolio of companies with intercompany elimination.
//
// Every function in this package is a pure computation over its inputs:
// no clock, no I/O, no state retained between calls. Callers may invoke any
// operation concurrently on the same inputs.
package finance

import "time"

// TransactionType enumerates the ledger account natures.
type TransactionType string

const (
	TypeRevenue   TransactionType = "revenue"
	TypeExpense   TransactionType = "expense"
	TypeAsset     TransactionType = "asset"
	TypeLiability TransactionType = "liability"
	TypeEquity    TransactionType = "equity"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeRevenue, TypeExpense, TypeAsset, TypeLiability, TypeEquity:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry. Amount is signed: positive
// increases the natural balance of the account. The three Affects flags gate
// independently whether the entry contributes to each statement; a capital
// contribution may affect the balance sheet without touching the P&L, and an
// accrued unpaid sale may affect the P&L without moving cash.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description,omitempty"`

	AffectsPL       bool `json:"affects_pl"`
	AffectsCashFlow bool `json:"affects_cash_flow"`
	AffectsBalance  bool `json:"affects_balance"`
}

// ProfitAndLoss summarises revenue and expenses.
type ProfitAndLoss struct {
	Revenue           float64 `json:"revenue"`
	COGS              float64 `json:"cogs"`
	OperatingExpenses float64 `json:"operating_expenses"`
	TotalExpenses     float64 `json:"total_expenses"`
	NetProfit         float64 `json:"net_profit"`
	ProfitMargin      float64 `json:"profit_margin"`
}

// CashFlow summarises cash movement by activity for the covered window.
type CashFlow struct {
	BeginningCash     float64 `json:"beginning_cash"`
	OperatingCashFlow float64 `json:"operating_cash_flow"`
	InvestingCashFlow float64 `json:"investing_cash_flow"`
	FinancingCashFlow float64 `json:"financing_cash_flow"`
	NetCashFlow       float64 `json:"net_cash_flow"`
	EndingCash        float64 `json:"ending_cash"`
}

// BalanceSheetAssets lists the asset lines. Cash always mirrors the paired
// cash flow statement's ending cash.
type BalanceSheetAssets struct {
	Cash               float64 `json:"cash"`
	AccountsReceivable float64 `json:"accounts_receivable"`
	Inventory          float64 `json:"inventory"`
	FixedAssets        float64 `json:"fixed_assets"`
	TotalAssets        float64 `json:"total_assets"`
}

// BalanceSheetLiabilities lists the liability lines. Lines accumulate as
// non-negative magnitudes regardless of the sign of source amounts.
type BalanceSheetLiabilities struct {
	AccountsPayable  float64 `json:"accounts_payable"`
	ShortTermDebt    float64 `json:"short_term_debt"`
	LongTermDebt     float64 `json:"long_term_debt"`
	TotalLiabilities float64 `json:"total_liabilities"`
}

// BalanceSheetEquity carries the opening balance and retained earnings.
// OpeningBalance is the capital behind the beginning cash position; without
// it any nonzero beginning cash would appear in assets with no counterpart
// and the accounting equation could never hold.
type BalanceSheetEquity struct {
	OpeningBalance   float64 `json:"opening_balance"`
	RetainedEarnings float64 `json:"retained_earnings"`
	TotalEquity      float64 `json:"total_equity"`
}

// BalanceSheet is the statement of financial position. Balances asserts the
// accounting equation within BalanceEpsilon.
type BalanceSheet struct {
	Assets      BalanceSheetAssets      `json:"assets"`
	Liabilities BalanceSheetLiabilities `json:"liabilities"`
	Equity      BalanceSheetEquity      `json:"equity"`
	Balances    bool                    `json:"balances"`
}

// FinancialStatements bundles the three statements for one company with the
// structural validation outcome. Inconsistent inputs still produce complete
// numbers; the violations are listed in Errors.
type FinancialStatements struct {
	PL           ProfitAndLoss `json:"pl"`
	BalanceSheet BalanceSheet  `json:"balance_sheet"`
	CashFlow     CashFlow      `json:"cash_flow"`
	IsValid      bool          `json:"is_valid"`
	Errors       []string      `json:"errors,omitempty"`
}

// PeriodStatement is one element of the chronological sequence produced by
// CalculatePeriods. Period is the first day of the calendar month, UTC.
type PeriodStatement struct {
	Period     time.Time           `json:"period"`
	Statements FinancialStatements `json:"statements"`
}

// CompanyFinancials is one consolidation member: its ledger snapshot plus the
// statements derived from it.
type CompanyFinancials struct {
	CompanyID     string              `json:"company_id"`
	CompanyName   string              `json:"company_name"`
	Transactions  []Transaction       `json:"transactions,omitempty"`
	BeginningCash float64             `json:"beginning_cash"`
	Statements    FinancialStatements `json:"statements"`
}

// IntercompanyEliminations reports the matched receivable/payable volume
// removed from the consolidated statements.
type IntercompanyEliminations struct {
	Receivables float64 `json:"receivables"`
	Payables    float64 `json:"payables"`
	Eliminated  float64 `json:"eliminated"`
	Unmatched   float64 `json:"unmatched"`
}

// ConsolidatedFinancials aggregates statements across a portfolio after
// eliminating intercompany receivable/payable pairs.
type ConsolidatedFinancials struct {
	Companies    []CompanyFinancials      `json:"companies"`
	PL           ProfitAndLoss            `json:"pl"`
	BalanceSheet BalanceSheet             `json:"balance_sheet"`
	CashFlow     CashFlow                 `json:"cash_flow"`
	Eliminations IntercompanyEliminations `json:"intercompany_eliminations"`
	IsValid      bool                     `json:"is_valid"`
	Errors       []string                 `json:"errors,omitempty"`
}

// BalanceEpsilon is the tolerance for the accounting equation, in currency
// units.
const BalanceEpsilon = 0.01
