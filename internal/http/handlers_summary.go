package http

import (
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/engine"
)

const defaultRecentLimit = 5

type summaryResponse struct {
	Success            bool                      `json:"success"`
	TotalIncome        core.Money                `json:"totalIncome"`
	TotalExpenses      core.Money                `json:"totalExpenses"`
	Balance            core.Money                `json:"balance"`
	ExpensesByCategory map[string]core.Money     `json:"expensesByCategory"`
	MonthlyTotals      map[string]core.MonthFlow `json:"monthlyTotals"`
	Recent             []core.Transaction        `json:"recent"`
	Count              int                       `json:"count"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	limit := defaultRecentLimit
	if v := strings.TrimSpace(r.URL.Query().Get("recent")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	recent := eng.Recent(limit)
	if recent == nil {
		recent = []core.Transaction{}
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Success:            true,
		TotalIncome:        eng.TotalIncome(),
		TotalExpenses:      eng.TotalExpenses(),
		Balance:            eng.Balance(),
		ExpensesByCategory: eng.ExpensesByCategory(),
		MonthlyTotals:      eng.MonthlyTotals(),
		Recent:             recent,
		Count:              len(eng.Transactions()),
	})
}

type categoriesResponse struct {
	Success bool     `json:"success"`
	Income  []string `json:"income,omitempty"`
	Expense []string `json:"expense,omitempty"`
}

// handleCategories serves the fixed category lists. No auth needed, the
// lists are the same for everyone.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("kind") {
	case string(core.Income):
		writeJSON(w, http.StatusOK, categoriesResponse{Success: true, Income: core.CategoriesFor(core.Income)})
	case string(core.Expense):
		writeJSON(w, http.StatusOK, categoriesResponse{Success: true, Expense: core.CategoriesFor(core.Expense)})
	case "":
		writeJSON(w, http.StatusOK, categoriesResponse{
			Success: true,
			Income:  core.CategoriesFor(core.Income),
			Expense: core.CategoriesFor(core.Expense),
		})
	default:
		writeError(w, http.StatusUnprocessableEntity, "kind must be income or expense")
	}
}
