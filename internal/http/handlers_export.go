package http

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
	"fintrack/internal/engine"
)

var exportHeader = []string{"S.No", "Description", "Amount", "Category", "Kind", "Date", "Created At"}

// handleExport streams the session's transactions as csv (default) or xlsx.
// An optional kind filter narrows the export to income or expense records.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	var txs []core.Transaction
	name := "transactions"
	switch r.URL.Query().Get("kind") {
	case string(core.Income):
		txs = eng.IncomeOf()
		name = "income"
	case string(core.Expense):
		txs = eng.ExpensesOf()
		name = "expenses"
	case "":
		txs = eng.Transactions()
	default:
		writeError(w, http.StatusUnprocessableEntity, "kind must be income or expense")
		return
	}

	filename := fmt.Sprintf("%s-%s", name, time.Now().Format("2006-01-02-1504"))

	switch r.URL.Query().Get("format") {
	case "xlsx":
		s.exportXLSX(w, r, txs, filename)
	case "csv", "":
		s.exportCSV(w, r, txs, filename)
	default:
		writeError(w, http.StatusUnprocessableEntity, "format must be csv or xlsx")
	}
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request, txs []core.Transaction, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))

	// UTF-8 BOM so Excel detects the encoding.
	_, _ = w.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(w)
	defer writer.Flush()

	_ = writer.Write(exportHeader)

	var total core.Money
	for i, t := range txs {
		total = total.Add(t.Amount)
		_ = writer.Write([]string{
			strconv.Itoa(i + 1),
			t.Description,
			t.Amount.String(),
			t.Category,
			string(t.Kind),
			exportDate(t),
			t.RecordedAt.Format("2006-01-02 15:04:05"),
		})
	}
	_ = writer.Write([]string{"", "TOTAL", total.String(), "", "", "", ""})
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request, txs []core.Transaction, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create worksheet", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range exportHeader {
		cell := fmt.Sprintf("%c1", 'A'+i)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	var total core.Money
	for idx, t := range txs {
		row := idx + 2
		total = total.Add(t.Amount)

		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), idx+1)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), t.Description)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), t.Amount.Units())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), t.Category)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), string(t.Kind))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), exportDate(t))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), t.RecordedAt.Format("2006-01-02 15:04:05"))
	}

	totalRow := len(txs) + 2
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", totalRow), "TOTAL")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", totalRow), total.Units())

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "B", 30)
	_ = f.SetColWidth(sheetName, "C", "C", 12)
	_ = f.SetColWidth(sheetName, "D", "D", 20)
	_ = f.SetColWidth(sheetName, "E", "E", 10)
	_ = f.SetColWidth(sheetName, "F", "F", 12)
	_ = f.SetColWidth(sheetName, "G", "G", 20)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".xlsx"))

	if err := f.Write(w); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write workbook", "error", err)
	}
}

// exportDate prefers the user-chosen date and falls back to the recording
// timestamp, matching the month bucketing rule.
func exportDate(t core.Transaction) string {
	if !t.OccurredOn.IsEmpty() {
		return t.OccurredOn.String()
	}
	return t.RecordedAt.Format("2006-01-02")
}
