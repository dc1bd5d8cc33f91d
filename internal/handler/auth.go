package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"travel-planner/internal/middleware"
	"travel-planner/internal/models"
	"travel-planner/internal/storage"
	"travel-planner/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责登录/注册相关接口
type AuthHandler struct {
	Store     storage.Store
	JWTSecret string
	TokenTTL  time.Duration
}

// NewAuthHandler 构造函数
func NewAuthHandler(store storage.Store, jwtSecret string, ttlHours int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		Store:     store,
		JWTSecret: jwtSecret,
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
	}
}

// ---------- 注册 ----------

type registerReq struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "参数错误")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	// 用户名规则：3-20 位，仅字母、数字、下划线
	if !usernameRe.MatchString(req.Username) {
		util.Error(c, http.StatusBadRequest, "用户名必须为3-20位字母、数字或下划线")
		return
	}
	if !emailRe.MatchString(req.Email) {
		util.Error(c, http.StatusBadRequest, "邮箱格式不正确")
		return
	}
	if len(req.Password) < 6 {
		util.Error(c, http.StatusBadRequest, "密码至少6位")
		return
	}

	if err := h.Store.CreateUser(req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// 唯一性冲突：给用户可读的提示，不暴露内部错误
			util.Error(c, http.StatusBadRequest, "用户名或邮箱已存在")
			return
		}
		util.Error(c, http.StatusInternalServerError, "注册失败，请重试")
		return
	}

	util.Success(c, util.Response{"message": "注册成功"})
}

// ---------- 登录 ----------

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "参数错误")
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	user, err := h.Store.Authenticate(req.Username, req.Password)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "查询用户失败")
		return
	}
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	token, err := util.GenerateToken(h.JWTSecret, user.ID, user.Username, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "生成 token 失败")
		return
	}

	// 会话标识放进 cookie，浏览器端无需自己带 Header
	c.SetCookie(middleware.CookieName, token, int(h.TokenTTL.Seconds()), "/", "", false, true)

	util.Success(c, util.Response{
		"message": "登录成功",
		"token":   token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Logout 清除会话 cookie 并回到首页
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// GetMe 返回当前登录用户信息（需要经过 AuthMiddleware）
func GetMe(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "未登录")
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"created_at": user.CreatedAt,
		},
	})
}

// currentUser 从 context 取出 AuthMiddleware 放入的用户，取不到返回 nil
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("currentUser")
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
