package finance

import (
	"math"
	"strings"
	"testing"
	"time"

	_ "github.com/finboard/finboard/testing"
)

func intercompanyTx(id string, txType TransactionType, category string, amount float64) Transaction {
	return Transaction{
		ID:             id,
		Date:           day(2024, time.January, 15),
		Type:           txType,
		Category:       category,
		Amount:         amount,
		AffectsBalance: true,
	}
}

func TestConsolidateBalancedPortfolio(t *testing.T) {
	companies := []CompanyFinancials{
		{
			CompanyID: "alpha", CompanyName: "Alpha Ltd",
			Transactions: []Transaction{cashTx(TypeRevenue, "sales", 1000)},
		},
		{
			CompanyID: "beta", CompanyName: "Beta GmbH",
			Transactions: []Transaction{cashTx(TypeExpense, "admin", 400)},
		},
	}

	c := Consolidate(companies)

	if !c.IsValid {
		t.Fatalf("expected valid consolidation, errors: %v", c.Errors)
	}
	if c.PL.Revenue != 1000 || c.PL.OperatingExpenses != 400 {
		t.Fatalf("unexpected consolidated P&L: %+v", c.PL)
	}
	if c.PL.NetProfit != 600 {
		t.Fatalf("expected consolidated net profit 600 got %v", c.PL.NetProfit)
	}
	if c.PL.ProfitMargin != 60 {
		t.Fatalf("expected consolidated margin 60 got %v", c.PL.ProfitMargin)
	}
	if c.CashFlow.EndingCash != 600 {
		t.Fatalf("expected consolidated ending cash 600 got %v", c.CashFlow.EndingCash)
	}
	if c.BalanceSheet.Equity.TotalEquity != 600 {
		t.Fatalf("expected consolidated equity 600 got %v", c.BalanceSheet.Equity.TotalEquity)
	}
	if !c.BalanceSheet.Balances {
		t.Fatal("expected consolidated balance sheet to balance")
	}
	if len(c.Companies) != 2 {
		t.Fatalf("expected 2 member results got %d", len(c.Companies))
	}
	if !c.Companies[0].Statements.IsValid || !c.Companies[1].Statements.IsValid {
		t.Fatal("expected member statements to be computed and valid")
	}
}

func TestConsolidateEliminatesMatchedIntercompanyPair(t *testing.T) {
	companies := []CompanyFinancials{
		{
			CompanyID: "alpha", CompanyName: "Alpha Ltd",
			Transactions: []Transaction{
				intercompanyTx("ic-ar", TypeAsset, "intercompany receivable", 500),
			},
		},
		{
			CompanyID: "beta", CompanyName: "Beta GmbH",
			Transactions: []Transaction{
				intercompanyTx("ic-ap", TypeLiability, "intercompany payable", 500),
			},
		},
	}

	c := Consolidate(companies)

	if c.Eliminations.Receivables != 500 || c.Eliminations.Payables != 500 {
		t.Fatalf("unexpected detection: %+v", c.Eliminations)
	}
	if c.Eliminations.Eliminated != 500 {
		t.Fatalf("expected eliminated 500 got %v", c.Eliminations.Eliminated)
	}
	if c.Eliminations.Unmatched != 0 {
		t.Fatalf("expected unmatched 0 got %v", c.Eliminations.Unmatched)
	}
	if c.BalanceSheet.Assets.AccountsReceivable != 0 {
		t.Fatalf("expected consolidated AR 0 after elimination got %v", c.BalanceSheet.Assets.AccountsReceivable)
	}
	if c.BalanceSheet.Liabilities.AccountsPayable != 0 {
		t.Fatalf("expected consolidated AP 0 after elimination got %v", c.BalanceSheet.Liabilities.AccountsPayable)
	}
	if !c.BalanceSheet.Balances {
		t.Fatal("expected consolidated balance sheet to balance after elimination")
	}
}

func TestConsolidateDetectsIntercompanyViaDescription(t *testing.T) {
	tx := intercompanyTx("ic", TypeAsset, "accounts_receivable", 200)
	tx.Category = "accounts_receivable"
	tx.Description = "Intercompany loan to Beta"

	c := Consolidate([]CompanyFinancials{{CompanyID: "alpha", Transactions: []Transaction{tx}}})

	if c.Eliminations.Receivables != 200 {
		t.Fatalf("expected description match to contribute 200 got %v", c.Eliminations.Receivables)
	}
}

func TestConsolidateReportsUnmatchedElimination(t *testing.T) {
	companies := []CompanyFinancials{
		{
			CompanyID: "alpha", CompanyName: "Alpha Ltd",
			Transactions: []Transaction{
				intercompanyTx("ic-ar", TypeAsset, "intercompany receivable", 500),
			},
		},
		{
			CompanyID: "beta", CompanyName: "Beta GmbH",
			Transactions: []Transaction{
				intercompanyTx("ic-ap", TypeLiability, "intercompany payable", 300),
			},
		},
	}

	c := Consolidate(companies)

	if c.Eliminations.Eliminated != 300 {
		t.Fatalf("expected eliminated 300 got %v", c.Eliminations.Eliminated)
	}
	if c.Eliminations.Unmatched != 200 {
		t.Fatalf("expected unmatched 200 got %v", c.Eliminations.Unmatched)
	}
	found := false
	for _, msg := range c.Errors {
		if strings.Contains(msg, "intercompany mismatch") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an intercompany mismatch error, got %v", c.Errors)
	}
}

func TestConsolidateEliminationBound(t *testing.T) {
	mixes := [][2]float64{{0, 0}, {500, 500}, {500, 300}, {100, 900}, {0, 250}}
	for _, mix := range mixes {
		companies := []CompanyFinancials{
			{CompanyID: "a", Transactions: []Transaction{
				intercompanyTx("r", TypeAsset, "intercompany receivable", mix[0]),
			}},
			{CompanyID: "b", Transactions: []Transaction{
				intercompanyTx("p", TypeLiability, "intercompany payable", mix[1]),
			}},
		}
		c := Consolidate(companies)
		if c.Eliminations.Eliminated > math.Min(c.Eliminations.Receivables, c.Eliminations.Payables) {
			t.Errorf("mix %v: eliminated %v exceeds min(r, p)", mix, c.Eliminations.Eliminated)
		}
		if got, want := c.Eliminations.Unmatched, math.Abs(mix[0]-mix[1]); got != want {
			t.Errorf("mix %v: unmatched %v want %v", mix, got, want)
		}
	}
}

func TestConsolidatePrefixesMemberErrors(t *testing.T) {
	companies := []CompanyFinancials{
		{
			CompanyID: "alpha", CompanyName: "Alpha Ltd",
			// One-sided liability: Alpha's own books cannot balance.
			Transactions: []Transaction{
				intercompanyTx("ap", TypeLiability, "accounts_payable", 100),
			},
		},
		{
			CompanyID: "beta", CompanyName: "Beta GmbH",
			Transactions: []Transaction{cashTx(TypeRevenue, "sales", 1000)},
		},
	}

	c := Consolidate(companies)

	if c.IsValid {
		t.Fatal("expected invalid consolidation when a member is unbalanced")
	}
	found := false
	for _, msg := range c.Errors {
		if strings.HasPrefix(msg, "Alpha Ltd: ") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a company-prefixed error, got %v", c.Errors)
	}
	// Beta's valid numbers are still aggregated.
	if c.PL.Revenue != 1000 {
		t.Fatalf("expected best-effort aggregation to keep revenue 1000, got %v", c.PL.Revenue)
	}
}

func TestConsolidateEmptyPortfolio(t *testing.T) {
	c := Consolidate(nil)
	if !c.IsValid {
		t.Fatalf("expected empty portfolio to be valid, errors: %v", c.Errors)
	}
	if !c.BalanceSheet.Balances {
		t.Fatal("expected empty consolidated balance sheet to balance")
	}
}
