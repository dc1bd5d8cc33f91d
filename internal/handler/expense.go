package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"travel-planner/internal/models"
	"travel-planner/internal/storage"
	"travel-planner/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// BudgetAnalyzer 是预算分析的最小接口（ai.Planner 实现）
type BudgetAnalyzer interface {
	AnalyzeBudget(ctx context.Context, expenses []models.Expense, budget float64) string
}

// ExpenseHandler 负责开销记录相关接口
type ExpenseHandler struct {
	Store    storage.Store
	Analyzer BudgetAnalyzer
}

// NewExpenseHandler 构造函数
func NewExpenseHandler(store storage.Store, analyzer BudgetAnalyzer) *ExpenseHandler {
	return &ExpenseHandler{Store: store, Analyzer: analyzer}
}

// ---------- 记一笔开销 ----------

type addExpenseReq struct {
	PlanID  uint                 `json:"plan_id" binding:"required"`
	Expense storage.ExpenseInput `json:"expense" binding:"required"`
}

func (h *ExpenseHandler) AddExpense(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "未登录")
		return
	}

	var req addExpenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "参数错误")
		return
	}

	req.Expense.Category = strings.TrimSpace(req.Expense.Category)
	if err := util.ValidateCategory(req.Expense.Category); err != nil {
		util.Error(c, http.StatusBadRequest, "请选择类别")
		return
	}
	if err := util.ValidateAmount(req.Expense.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, "请输入有效金额")
		return
	}
	if err := util.ValidateDate(req.Expense.Date); err != nil {
		util.Error(c, http.StatusBadRequest, "日期格式错误，应为 YYYY-MM-DD")
		return
	}

	if err := h.Store.AddExpense(req.PlanID, user.ID, req.Expense); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			util.Error(c, http.StatusNotFound, "计划不存在")
			return
		}
		util.Error(c, http.StatusInternalServerError, "添加开销失败")
		return
	}

	util.Success(c, util.Response{"message": "记录成功"})
}

// ListExpenses 返回计划下的开销记录（按日期倒序）
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "未登录")
		return
	}

	id, ok := planID(c)
	if !ok {
		util.Error(c, http.StatusBadRequest, "ID 不合法")
		return
	}

	expenses, err := h.Store.ListExpenses(id, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "查询开销记录失败")
		return
	}

	util.Success(c, util.Response{"expenses": expenses})
}

// ---------- 预算分析 ----------

type analyzeBudgetReq struct {
	PlanID uint `json:"plan_id" binding:"required"`
}

// AnalyzeBudget 把计划预算和已有开销交给 AI，返回自由文本分析
func (h *ExpenseHandler) AnalyzeBudget(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "未登录")
		return
	}

	var req analyzeBudgetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "参数错误")
		return
	}

	plan, err := h.Store.GetPlan(req.PlanID, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "查询计划失败")
		return
	}
	if plan == nil {
		util.Error(c, http.StatusNotFound, "计划不存在")
		return
	}

	expenses, err := h.Store.ListExpenses(req.PlanID, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "查询开销记录失败")
		return
	}

	analysis := h.Analyzer.AnalyzeBudget(c.Request.Context(), expenses, planBudget(plan.Plan))

	util.Success(c, util.Response{"analysis": analysis})
}

// planBudget 从行程对象里尽力取出预算数字：
// 优先 budget 字段的数字部分，其次 budget_breakdown.total，取不到返回 0。
func planBudget(plan *models.Itinerary) float64 {
	if plan == nil {
		return 0
	}
	if b := strings.TrimSpace(plan.Budget); b != "" {
		cleaned := strings.TrimFunc(b, func(r rune) bool {
			return (r < '0' || r > '9') && r != '.'
		})
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
	}
	if plan.BudgetBreakdown != nil {
		return plan.BudgetBreakdown["total"]
	}
	return 0
}

// ---------- 导出 ----------

var exportHeader = []string{"类别", "金额(元)", "说明", "日期"}

// ExportExpenses 导出计划的开销记录，?format=csv|xlsx，默认 csv
func (h *ExpenseHandler) ExportExpenses(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "未登录")
		return
	}

	id, ok := planID(c)
	if !ok {
		util.Error(c, http.StatusBadRequest, "ID 不合法")
		return
	}

	// 确认计划归属，避免导出别人的数据
	plan, err := h.Store.GetPlan(id, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "查询计划失败")
		return
	}
	if plan == nil {
		util.Error(c, http.StatusNotFound, "计划不存在")
		return
	}

	expenses, err := h.Store.ListExpenses(id, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "查询开销记录失败")
		return
	}

	if c.DefaultQuery("format", "csv") == "xlsx" {
		h.exportXLSX(c, expenses)
		return
	}
	h.exportCSV(c, expenses)
}

func (h *ExpenseHandler) exportCSV(c *gin.Context, expenses []models.Expense) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"expenses_%s.csv\"",
		time.Now().Format("20060102")))

	// UTF-8 BOM（让 Excel 正确识别中文）
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeader)
	for i := range expenses {
		e := &expenses[i]
		writer.Write([]string{
			e.Category,
			strconv.FormatFloat(e.Amount, 'f', 2, 64),
			e.Description,
			e.Date,
		})
	}
}

func (h *ExpenseHandler) exportXLSX(c *gin.Context, expenses []models.Expense) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for row := range expenses {
		e := &expenses[row]
		values := []interface{}{e.Category, e.Amount, e.Description, e.Date}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"expenses_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, "导出失败")
	}
}
