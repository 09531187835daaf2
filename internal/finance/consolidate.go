package finance

import (
	"fmt"
	"math"
	"strings"
)

const intercompanyMarker = "intercompany"

// Consolidate aggregates statements across a portfolio of companies,
// eliminates matched intercompany receivable/payable pairs, and re-validates
// the consolidated balance sheet. One company's unbalanced books never abort
// the aggregate: its numbers are still summed and its violations surface in
// Errors prefixed with the company name.
func Consolidate(companies []CompanyFinancials) ConsolidatedFinancials {
	result := ConsolidatedFinancials{
		Companies: make([]CompanyFinancials, 0, len(companies)),
	}

	for _, company := range companies {
		company.Statements = CalculateStatements(company.Transactions, company.BeginningCash)
		result.Companies = append(result.Companies, company)

		label := company.CompanyName
		if label == "" {
			label = company.CompanyID
		}
		for _, msg := range company.Statements.Errors {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", label, msg))
		}

		addProfitAndLoss(&result.PL, company.Statements.PL)
		addCashFlow(&result.CashFlow, company.Statements.CashFlow)
		addBalanceSheet(&result.BalanceSheet, company.Statements.BalanceSheet)
	}

	if result.PL.Revenue != 0 {
		result.PL.ProfitMargin = result.PL.NetProfit / result.PL.Revenue * 100
	}

	result.Eliminations = detectIntercompany(companies)
	applyElimination(&result.BalanceSheet, result.Eliminations.Eliminated)

	// Elimination changes asset and liability totals but not the economic
	// equity of the group, so total equity is re-derived rather than summed.
	// The summed opening balances stay as the opening component and retained
	// earnings absorbs the remainder.
	result.BalanceSheet.Equity.TotalEquity = result.BalanceSheet.Assets.TotalAssets - result.BalanceSheet.Liabilities.TotalLiabilities
	result.BalanceSheet.Equity.RetainedEarnings = result.BalanceSheet.Equity.TotalEquity - result.BalanceSheet.Equity.OpeningBalance
	result.BalanceSheet.Balances = math.Abs(result.BalanceSheet.Assets.TotalAssets-
		(result.BalanceSheet.Liabilities.TotalLiabilities+result.BalanceSheet.Equity.TotalEquity)) < BalanceEpsilon

	if !result.BalanceSheet.Balances {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"consolidated balance sheet does not balance: assets %.2f, liabilities %.2f, equity %.2f",
			result.BalanceSheet.Assets.TotalAssets,
			result.BalanceSheet.Liabilities.TotalLiabilities,
			result.BalanceSheet.Equity.TotalEquity))
	}
	if result.Eliminations.Unmatched > BalanceEpsilon {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"intercompany mismatch: receivables %.2f vs payables %.2f leave %.2f unmatched",
			result.Eliminations.Receivables,
			result.Eliminations.Payables,
			result.Eliminations.Unmatched))
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func addProfitAndLoss(dst *ProfitAndLoss, src ProfitAndLoss) {
	dst.Revenue += src.Revenue
	dst.COGS += src.COGS
	dst.OperatingExpenses += src.OperatingExpenses
	dst.TotalExpenses += src.TotalExpenses
	dst.NetProfit += src.NetProfit
}

func addCashFlow(dst *CashFlow, src CashFlow) {
	dst.BeginningCash += src.BeginningCash
	dst.OperatingCashFlow += src.OperatingCashFlow
	dst.InvestingCashFlow += src.InvestingCashFlow
	dst.FinancingCashFlow += src.FinancingCashFlow
	dst.NetCashFlow += src.NetCashFlow
	dst.EndingCash += src.EndingCash
}

func addBalanceSheet(dst *BalanceSheet, src BalanceSheet) {
	dst.Assets.Cash += src.Assets.Cash
	dst.Assets.AccountsReceivable += src.Assets.AccountsReceivable
	dst.Assets.Inventory += src.Assets.Inventory
	dst.Assets.FixedAssets += src.Assets.FixedAssets
	dst.Assets.TotalAssets += src.Assets.TotalAssets
	dst.Liabilities.AccountsPayable += src.Liabilities.AccountsPayable
	dst.Liabilities.ShortTermDebt += src.Liabilities.ShortTermDebt
	dst.Liabilities.LongTermDebt += src.Liabilities.LongTermDebt
	dst.Liabilities.TotalLiabilities += src.Liabilities.TotalLiabilities
	dst.Equity.OpeningBalance += src.Equity.OpeningBalance
	dst.Equity.RetainedEarnings += src.Equity.RetainedEarnings
	dst.Equity.TotalEquity += src.Equity.TotalEquity
}

// detectIntercompany scans every company's ledger for entries marked as
// intercompany in their category or description and sums asset amounts into
// receivables and liability amounts into payables, both as magnitudes.
func detectIntercompany(companies []CompanyFinancials) IntercompanyEliminations {
	var e IntercompanyEliminations
	for _, company := range companies {
		for _, tx := range company.Transactions {
			if !isIntercompany(tx) {
				continue
			}
			switch tx.Type {
			case TypeAsset:
				e.Receivables += math.Abs(tx.Amount)
			case TypeLiability:
				e.Payables += math.Abs(tx.Amount)
			}
		}
	}
	e.Eliminated = math.Min(e.Receivables, e.Payables)
	e.Unmatched = math.Abs(e.Receivables - e.Payables)
	return e
}

func isIntercompany(tx Transaction) bool {
	return strings.Contains(strings.ToLower(tx.Category), intercompanyMarker) ||
		strings.Contains(strings.ToLower(tx.Description), intercompanyMarker)
}

// applyElimination removes the matched volume from both sides of the
// consolidated balance sheet.
func applyElimination(bs *BalanceSheet, eliminated float64) {
	bs.Assets.AccountsReceivable -= eliminated
	bs.Assets.TotalAssets -= eliminated
	bs.Liabilities.AccountsPayable -= eliminated
	bs.Liabilities.TotalLiabilities -= eliminated
}
