package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"travel-planner/internal/models"
	"travel-planner/internal/storage"
	"travel-planner/internal/util"

	"github.com/gin-gonic/gin"
)

// PlanGenerator 是计划生成器的最小接口（ai.Planner 实现）
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, userInput string) *models.Itinerary
}

// PlanHandler 负责旅行计划相关接口
type PlanHandler struct {
	Store   storage.Store
	Planner PlanGenerator
}

// NewPlanHandler 构造函数
func NewPlanHandler(store storage.Store, planner PlanGenerator) *PlanHandler {
	return &PlanHandler{Store: store, Planner: planner}
}

type generatePlanReq struct {
	Input string `json:"input" binding:"required"`
}

// GeneratePlan 调用 AI 生成计划并落库。
// 模型失败不会变成 5xx：降级对象照常保存并返回给前端。
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "未登录")
		return
	}

	var req generatePlanReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Input) == "" {
		util.Error(c, http.StatusBadRequest, "请输入旅行需求")
		return
	}

	plan := h.Planner.GeneratePlan(c.Request.Context(), req.Input)

	planID, err := h.Store.SavePlan(user.ID, plan)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "保存计划失败")
		return
	}

	util.Success(c, util.Response{
		"plan":    plan,
		"plan_id": planID,
	})
}

// ListPlans 返回当前用户的计划列表（创建时间倒序）
func (h *PlanHandler) ListPlans(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "未登录")
		return
	}

	plans, err := h.Store.ListPlans(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "查询计划列表失败")
		return
	}

	util.Success(c, util.Response{"plans": plans})
}

// planID 解析路径里的计划 ID
func planID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// GetPlan 返回单个计划（只能看自己的，查不到和无权限都按 404 处理）
func (h *PlanHandler) GetPlan(c *gin.Context) {
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

	plan, err := h.Store.GetPlan(id, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "查询计划失败")
		return
	}
	if plan == nil {
		util.Error(c, http.StatusNotFound, "计划不存在")
		return
	}

	util.Success(c, util.Response{"plan": plan})
}

// UpdatePlan 整体更新一个计划（全量覆盖 plan_data）
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
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

	var plan models.Itinerary
	if err := c.ShouldBindJSON(&plan); err != nil {
		util.Error(c, http.StatusBadRequest, "参数错误")
		return
	}

	if err := h.Store.UpdatePlan(id, user.ID, &plan); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			util.Error(c, http.StatusNotFound, "计划不存在")
			return
		}
		util.Error(c, http.StatusInternalServerError, "更新计划失败")
		return
	}

	util.Success(c, util.Response{"message": "计划已更新"})
}

// DeletePlan 删除计划，连带删除其下所有开销记录
func (h *PlanHandler) DeletePlan(c *gin.Context) {
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

	if err := h.Store.DeletePlan(id, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			util.Error(c, http.StatusNotFound, "计划不存在或无权限删除")
			return
		}
		util.Error(c, http.StatusInternalServerError, "删除失败")
		return
	}

	util.Success(c, util.Response{"message": "计划已删除"})
}
