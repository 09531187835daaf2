package http

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/finboard/finboard/internal/finance"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

var amountPrinter = message.NewPrinter(language.English)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	_, err := s.buf.WriteString(line)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

func formatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

func writeConsolidatedCSV(w io.Writer, result finance.ConsolidatedFinancials) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeComment(fmt.Sprintf("# Consolidated statements across %d companies", len(result.Companies))); err != nil {
		return err
	}
	if err := streamer.writeComment(fmt.Sprintf("# Generated %s", time.Now().UTC().Format(time.RFC3339))); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Company", "Revenue", "Net Profit", "Ending Cash", "Total Assets", "Total Liabilities", "Total Equity"}); err != nil {
		return err
	}
	for _, member := range result.Companies {
		st := member.Statements
		row := []string{
			member.CompanyName,
			formatAmount(st.PL.Revenue),
			formatAmount(st.PL.NetProfit),
			formatAmount(st.CashFlow.EndingCash),
			formatAmount(st.BalanceSheet.Assets.TotalAssets),
			formatAmount(st.BalanceSheet.Liabilities.TotalLiabilities),
			formatAmount(st.BalanceSheet.Equity.TotalEquity),
		}
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	if err := streamer.writeRow([]string{"", "", "", "", "", "", ""}); err != nil {
		return err
	}
	totals := [][]string{
		{"Consolidated", formatAmount(result.PL.Revenue), formatAmount(result.PL.NetProfit),
			formatAmount(result.CashFlow.EndingCash), formatAmount(result.BalanceSheet.Assets.TotalAssets),
			formatAmount(result.BalanceSheet.Liabilities.TotalLiabilities), formatAmount(result.BalanceSheet.Equity.TotalEquity)},
		{"Eliminated intercompany", formatAmount(result.Eliminations.Eliminated), "", "", "", "", ""},
		{"Unmatched intercompany", formatAmount(result.Eliminations.Unmatched), "", "", "", "", ""},
	}
	for _, row := range totals {
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func writePeriodsCSV(w io.Writer, companyID string, periods []finance.PeriodStatement) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeComment(fmt.Sprintf("# Monthly statements for company %s", companyID)); err != nil {
		return err
	}
	if err := streamer.writeComment(fmt.Sprintf("# Generated %s", time.Now().UTC().Format(time.RFC3339))); err != nil {
		return err
	}
	header := []string{
		"Period", "Revenue", "COGS", "Operating Expenses", "Total Expenses", "Net Profit", "Profit Margin %",
		"Operating CF", "Investing CF", "Financing CF", "Net Cash Flow", "Ending Cash",
		"Total Assets", "Total Liabilities", "Total Equity", "Balanced",
	}
	if err := streamer.writeRow(header); err != nil {
		return err
	}
	for _, p := range periods {
		st := p.Statements
		row := []string{
			p.Period.Format("2006-01"),
			formatAmount(st.PL.Revenue),
			formatAmount(st.PL.COGS),
			formatAmount(st.PL.OperatingExpenses),
			formatAmount(st.PL.TotalExpenses),
			formatAmount(st.PL.NetProfit),
			fmt.Sprintf("%.2f", st.PL.ProfitMargin),
			formatAmount(st.CashFlow.OperatingCashFlow),
			formatAmount(st.CashFlow.InvestingCashFlow),
			formatAmount(st.CashFlow.FinancingCashFlow),
			formatAmount(st.CashFlow.NetCashFlow),
			formatAmount(st.CashFlow.EndingCash),
			formatAmount(st.BalanceSheet.Assets.TotalAssets),
			formatAmount(st.BalanceSheet.Liabilities.TotalLiabilities),
			formatAmount(st.BalanceSheet.Equity.TotalEquity),
			fmt.Sprintf("%t", st.BalanceSheet.Balances),
		}
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	return streamer.Close()
}
