package finance

import "strings"

// ExpenseBucket assigns an expense to a P&L section.
type ExpenseBucket int

const (
	BucketOperating ExpenseBucket = iota
	BucketCOGS
)

// AssetLine assigns an asset transaction to a balance sheet line.
// AssetUnclassified covers cash-like categories, which reach the balance
// sheet only through the cash flow statement's ending cash.
type AssetLine int

const (
	AssetUnclassified AssetLine = iota
	AssetReceivable
	AssetInventory
	AssetFixed
)

// LiabilityLine assigns a liability transaction to a balance sheet line.
type LiabilityLine int

const (
	LiabilityUnclassified LiabilityLine = iota
	LiabilityPayable
	LiabilityShortTermDebt
	LiabilityLongTermDebt
)

// CashFlowActivity assigns a transaction to a cash flow statement section.
type CashFlowActivity int

const (
	ActivityNone CashFlowActivity = iota
	ActivityOperating
	ActivityInvesting
	ActivityFinancing
)

// normalizeCategory folds a free-form category for keyword matching:
// lower-cased, trimmed, underscores treated the same as spaces.
func normalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	return strings.ReplaceAll(c, "_", " ")
}

// ClassifyExpense maps an expense category to its P&L bucket. Direct-cost and
// infrastructure keywords (and the literal "cogs") land in COGS; everything
// else is an operating expense.
func ClassifyExpense(category string) ExpenseBucket {
	c := normalizeCategory(category)
	if strings.Contains(c, "direct cost") || strings.Contains(c, "infrastructure") || c == "cogs" {
		return BucketCOGS
	}
	return BucketOperating
}

// ClassifyAsset maps an asset category to its balance sheet line.
func ClassifyAsset(category string) AssetLine {
	c := normalizeCategory(category)
	switch {
	case strings.Contains(c, "receivable"):
		return AssetReceivable
	case strings.Contains(c, "inventory"):
		return AssetInventory
	case strings.Contains(c, "equipment"), strings.Contains(c, "fixed"), strings.Contains(c, "property"):
		return AssetFixed
	}
	return AssetUnclassified
}

// ClassifyLiability maps a liability category to its balance sheet line.
func ClassifyLiability(category string) LiabilityLine {
	c := normalizeCategory(category)
	switch {
	case strings.Contains(c, "payable"):
		return LiabilityPayable
	case strings.Contains(c, "short") && strings.Contains(c, "debt"):
		return LiabilityShortTermDebt
	case strings.Contains(c, "long") && strings.Contains(c, "debt"):
		return LiabilityLongTermDebt
	}
	return LiabilityUnclassified
}

// ClassifyCashFlow maps a transaction's type and category to its cash flow
// activity. Revenue and expenses are operating; investing covers equipment,
// inventory and fixed asset movements; financing covers equity and debt/loan
// liabilities. Every other combination stays out of the cash flow statement.
func ClassifyCashFlow(txType TransactionType, category string) CashFlowActivity {
	switch txType {
	case TypeRevenue, TypeExpense:
		return ActivityOperating
	case TypeAsset:
		switch ClassifyAsset(category) {
		case AssetInventory, AssetFixed:
			return ActivityInvesting
		}
		return ActivityNone
	case TypeEquity:
		return ActivityFinancing
	case TypeLiability:
		c := normalizeCategory(category)
		if strings.Contains(c, "debt") || strings.Contains(c, "loan") {
			return ActivityFinancing
		}
	}
	return ActivityNone
}
