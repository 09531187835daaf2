package finance

import (
	"math"
	"reflect"
	"testing"
	"time"

	_ "github.com/finboard/finboard/testing"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cashTx(txType TransactionType, category string, amount float64) Transaction {
	return Transaction{
		ID:              category,
		Date:            day(2024, time.January, 15),
		Type:            txType,
		Category:        category,
		Amount:          amount,
		AffectsPL:       txType == TypeRevenue || txType == TypeExpense,
		AffectsCashFlow: true,
		AffectsBalance:  true,
	}
}

func TestCalculateStatementsRevenueAndOperatingExpense(t *testing.T) {
	txs := []Transaction{
		cashTx(TypeRevenue, "sales", 1000),
		cashTx(TypeExpense, "admin", 300),
	}

	st := CalculateStatements(txs, 0)

	if st.PL.Revenue != 1000 {
		t.Fatalf("expected revenue 1000 got %v", st.PL.Revenue)
	}
	if st.PL.COGS != 0 {
		t.Fatalf("expected cogs 0 got %v", st.PL.COGS)
	}
	if st.PL.OperatingExpenses != 300 {
		t.Fatalf("expected opex 300 got %v", st.PL.OperatingExpenses)
	}
	if st.PL.NetProfit != 700 {
		t.Fatalf("expected net profit 700 got %v", st.PL.NetProfit)
	}
	if st.PL.ProfitMargin != 70 {
		t.Fatalf("expected margin 70 got %v", st.PL.ProfitMargin)
	}
	if st.CashFlow.EndingCash != 700 {
		t.Fatalf("expected ending cash 700 got %v", st.CashFlow.EndingCash)
	}
	if st.BalanceSheet.Assets.Cash != 700 {
		t.Fatalf("expected balance sheet cash 700 got %v", st.BalanceSheet.Assets.Cash)
	}
	if st.BalanceSheet.Assets.TotalAssets != 700 {
		t.Fatalf("expected total assets 700 got %v", st.BalanceSheet.Assets.TotalAssets)
	}
	if st.BalanceSheet.Equity.TotalEquity != 700 {
		t.Fatalf("expected equity 700 got %v", st.BalanceSheet.Equity.TotalEquity)
	}
	if !st.BalanceSheet.Balances {
		t.Fatal("expected balance sheet to balance")
	}
	if !st.IsValid || len(st.Errors) != 0 {
		t.Fatalf("expected valid statements, errors: %v", st.Errors)
	}
}

func TestCalculateStatementsSplitsExpenseBuckets(t *testing.T) {
	txs := []Transaction{
		cashTx(TypeRevenue, "sales", 1000),
		cashTx(TypeExpense, "direct_costs", 200),
		cashTx(TypeExpense, "admin", 300),
	}

	st := CalculateStatements(txs, 0)

	if st.PL.COGS != 200 {
		t.Fatalf("expected cogs 200 got %v", st.PL.COGS)
	}
	if st.PL.OperatingExpenses != 300 {
		t.Fatalf("expected opex 300 got %v", st.PL.OperatingExpenses)
	}
	if st.PL.TotalExpenses != 500 {
		t.Fatalf("expected total expenses 500 got %v", st.PL.TotalExpenses)
	}
	if st.PL.NetProfit != 500 {
		t.Fatalf("expected net profit 500 got %v", st.PL.NetProfit)
	}
}

func TestCalculateStatementsNegativeEquityStillBalances(t *testing.T) {
	st := CalculateStatements([]Transaction{cashTx(TypeExpense, "admin", 500)}, 0)

	if st.CashFlow.EndingCash != -500 {
		t.Fatalf("expected ending cash -500 got %v", st.CashFlow.EndingCash)
	}
	if st.BalanceSheet.Equity.TotalEquity != -500 {
		t.Fatalf("expected equity -500 got %v", st.BalanceSheet.Equity.TotalEquity)
	}
	if !st.BalanceSheet.Balances {
		t.Fatal("negative equity must still satisfy the accounting identity")
	}
}

func TestCalculateStatementsLiabilitiesNeverNegative(t *testing.T) {
	tx := Transaction{
		ID:             "ap-reduction",
		Date:           day(2024, time.March, 1),
		Type:           TypeLiability,
		Category:       "Accounts Payable",
		Amount:         -100,
		AffectsBalance: true,
	}

	st := CalculateStatements([]Transaction{tx}, 0)

	if st.BalanceSheet.Liabilities.AccountsPayable != 100 {
		t.Fatalf("expected AP magnitude 100 got %v", st.BalanceSheet.Liabilities.AccountsPayable)
	}
	if st.BalanceSheet.Liabilities.TotalLiabilities < 0 {
		t.Fatalf("liabilities must never go negative, got %v", st.BalanceSheet.Liabilities.TotalLiabilities)
	}
	// A one-sided liability entry cannot balance; the imbalance is reported,
	// not swallowed.
	if st.IsValid {
		t.Fatal("expected invalid statements for a one-sided liability entry")
	}
	if len(st.Errors) == 0 {
		t.Fatal("expected an imbalance error")
	}
}

func TestCalculateStatementsNonCashAccruals(t *testing.T) {
	txs := []Transaction{
		{
			ID: "accrued-revenue", Date: day(2024, time.February, 10),
			Type: TypeRevenue, Category: "consulting", Amount: 800,
			AffectsPL: true, AffectsCashFlow: false, AffectsBalance: true,
		},
		{
			ID: "accrued-expense", Date: day(2024, time.February, 12),
			Type: TypeExpense, Category: "legal", Amount: 300,
			AffectsPL: true, AffectsCashFlow: false, AffectsBalance: true,
		},
	}

	st := CalculateStatements(txs, 0)

	if st.CashFlow.EndingCash != 0 {
		t.Fatalf("accruals must not move cash, got %v", st.CashFlow.EndingCash)
	}
	if st.BalanceSheet.Assets.AccountsReceivable != 800 {
		t.Fatalf("expected AR 800 got %v", st.BalanceSheet.Assets.AccountsReceivable)
	}
	if st.BalanceSheet.Liabilities.AccountsPayable != 300 {
		t.Fatalf("expected AP 300 got %v", st.BalanceSheet.Liabilities.AccountsPayable)
	}
	if st.BalanceSheet.Equity.TotalEquity != 500 {
		t.Fatalf("expected equity 500 got %v", st.BalanceSheet.Equity.TotalEquity)
	}
	if !st.BalanceSheet.Balances {
		t.Fatal("accrual entries must create their own offsets and balance")
	}
}

func TestCalculateStatementsEmptyLedger(t *testing.T) {
	st := CalculateStatements(nil, 0)

	if st.PL != (ProfitAndLoss{}) {
		t.Fatalf("expected zero P&L got %+v", st.PL)
	}
	if !st.BalanceSheet.Balances {
		t.Fatal("empty ledger must balance")
	}
	if !st.IsValid {
		t.Fatalf("empty ledger must be valid, errors: %v", st.Errors)
	}
}

func TestCalculateStatementsBeginningCashFlowsThrough(t *testing.T) {
	st := CalculateStatements([]Transaction{cashTx(TypeRevenue, "sales", 250)}, 1000)

	if st.CashFlow.BeginningCash != 1000 {
		t.Fatalf("expected beginning cash 1000 got %v", st.CashFlow.BeginningCash)
	}
	if st.CashFlow.EndingCash != 1250 {
		t.Fatalf("expected ending cash 1250 got %v", st.CashFlow.EndingCash)
	}
	if st.BalanceSheet.Assets.Cash != 1250 {
		t.Fatalf("expected balance sheet cash 1250 got %v", st.BalanceSheet.Assets.Cash)
	}
	if st.BalanceSheet.Equity.OpeningBalance != 1000 {
		t.Fatalf("expected opening balance 1000 got %v", st.BalanceSheet.Equity.OpeningBalance)
	}
	if st.BalanceSheet.Equity.TotalEquity != 1250 {
		t.Fatalf("expected equity 1250 got %v", st.BalanceSheet.Equity.TotalEquity)
	}
	if !st.IsValid {
		t.Fatalf("nonzero beginning cash must not break the identity, errors: %v", st.Errors)
	}
}

func TestCalculateStatementsEmptyLedgerWithBeginningCash(t *testing.T) {
	st := CalculateStatements(nil, 500)

	if st.BalanceSheet.Assets.TotalAssets != 500 {
		t.Fatalf("expected assets 500 got %v", st.BalanceSheet.Assets.TotalAssets)
	}
	if st.BalanceSheet.Equity.OpeningBalance != 500 {
		t.Fatalf("expected opening balance 500 got %v", st.BalanceSheet.Equity.OpeningBalance)
	}
	if !st.BalanceSheet.Balances || !st.IsValid {
		t.Fatalf("seed cash alone must balance, errors: %v", st.Errors)
	}
}

func TestCalculateStatementsAccountingIdentity(t *testing.T) {
	ledgers := map[string][]Transaction{
		"empty": nil,
		"all expense": {
			cashTx(TypeExpense, "admin", 120),
			cashTx(TypeExpense, "direct_costs", 80),
		},
		"mixed accruals": {
			cashTx(TypeRevenue, "sales", 900),
			{ID: "a1", Date: day(2024, time.April, 2), Type: TypeRevenue, Category: "consulting",
				Amount: 400, AffectsPL: true, AffectsBalance: true},
			{ID: "a2", Date: day(2024, time.April, 3), Type: TypeExpense, Category: "hosting infrastructure",
				Amount: 150, AffectsPL: true, AffectsBalance: true},
		},
		"debt financing": {
			cashTx(TypeRevenue, "sales", 500),
			{ID: "loan", Date: day(2024, time.April, 5), Type: TypeLiability, Category: "long_term_debt",
				Amount: 1000, AffectsCashFlow: true, AffectsBalance: true},
		},
	}

	for name, txs := range ledgers {
		for _, beginning := range []float64{0, 500, -250} {
			st := CalculateStatements(txs, beginning)
			lhs := st.BalanceSheet.Assets.TotalAssets
			rhs := st.BalanceSheet.Liabilities.TotalLiabilities + st.BalanceSheet.Equity.TotalEquity
			if math.Abs(lhs-rhs) >= BalanceEpsilon {
				t.Errorf("%s (cash %v): identity violated, assets %v vs liabilities+equity %v", name, beginning, lhs, rhs)
			}
			if st.BalanceSheet.Assets.Cash != st.CashFlow.EndingCash {
				t.Errorf("%s (cash %v): balance sheet cash %v != ending cash %v",
					name, beginning, st.BalanceSheet.Assets.Cash, st.CashFlow.EndingCash)
			}
		}
	}
}

func TestCalculateStatementsIdempotent(t *testing.T) {
	txs := []Transaction{
		cashTx(TypeRevenue, "sales", 1000),
		cashTx(TypeExpense, "direct_costs", 450),
		{ID: "loan", Date: day(2024, time.May, 1), Type: TypeLiability, Category: "bank loan",
			Amount: 2000, AffectsCashFlow: true, AffectsBalance: true},
	}

	first := CalculateStatements(txs, 100)
	second := CalculateStatements(txs, 100)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output for identical input:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCalculateStatementsDoesNotMutateInput(t *testing.T) {
	txs := []Transaction{
		cashTx(TypeRevenue, "sales", 1000),
		cashTx(TypeExpense, "admin", 300),
	}
	snapshot := append([]Transaction(nil), txs...)

	_ = CalculateStatements(txs, 0)

	if !reflect.DeepEqual(txs, snapshot) {
		t.Fatal("input transactions must not be mutated")
	}
}

func TestValidateTransactionShape(t *testing.T) {
	amount := 10.0
	date := day(2024, time.June, 1)

	if msgs := ValidateTransactionShape(TransactionDraft{
		Type: "revenue", Category: "sales", Amount: &amount, Date: &date,
	}); len(msgs) != 0 {
		t.Fatalf("expected valid draft, got %v", msgs)
	}

	msgs := ValidateTransactionShape(TransactionDraft{})
	if len(msgs) != 4 {
		t.Fatalf("expected 4 missing fields got %d: %v", len(msgs), msgs)
	}

	zero := 0.0
	if msgs := ValidateTransactionShape(TransactionDraft{
		Type: "expense", Category: "admin", Amount: &zero, Date: &date,
	}); len(msgs) != 0 {
		t.Fatalf("zero amount is present, not missing: %v", msgs)
	}
}
