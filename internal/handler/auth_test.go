package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"travel-planner/internal/middleware"
	"travel-planner/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func setupAuthRouter(t *testing.T) (*gin.Engine, *AuthHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := newLocalStore(t)
	h := NewAuthHandler(s, testSecret, 24)

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)
	return r, h
}

// TestRegister 测试注册及各类校验失败分支
func TestRegister(t *testing.T) {
	r, _ := setupAuthRouter(t)

	w := doJSON(r, http.MethodPost, "/register",
		`{"username":"alice","email":"a@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "注册成功")

	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"用户名太短", `{"username":"ab","email":"b@x.com","password":"secret1"}`, "用户名必须为3-20位"},
		{"用户名非法字符", `{"username":"a b c","email":"b@x.com","password":"secret1"}`, "用户名必须为3-20位"},
		{"邮箱格式错误", `{"username":"bob","email":"not-an-email","password":"secret1"}`, "邮箱格式不正确"},
		{"密码太短", `{"username":"bob","email":"b@x.com","password":"12345"}`, "密码至少6位"},
		{"用户名重复", `{"username":"alice","email":"c@x.com","password":"secret1"}`, "用户名或邮箱已存在"},
		{"邮箱重复", `{"username":"carol","email":"a@x.com","password":"secret1"}`, "用户名或邮箱已存在"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.msg)
		})
	}
}

// TestLogin 测试登录成功返回 token 和 cookie，失败返回 401
func TestLogin(t *testing.T) {
	r, h := setupAuthRouter(t)
	require.NoError(t, h.Store.CreateUser("alice", "a@x.com", "secret1"))

	w := doJSON(r, http.MethodPost, "/login", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "a@x.com", resp.User.Email)

	// token 必须能被同一密钥解析回来
	claims, err := util.ParseToken(testSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	// 会话 cookie 已下发
	cookieSet := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.CookieName && ck.Value != "" {
			cookieSet = true
		}
	}
	assert.True(t, cookieSet)

	// 密码错误
	w = doJSON(r, http.MethodPost, "/login", `{"username":"alice","password":"wrong!"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "用户名或密码错误")

	// 用户不存在：和密码错误返回同样的提示
	w = doJSON(r, http.MethodPost, "/login", `{"username":"nobody","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "用户名或密码错误")
}

// TestLogout 测试登出清 cookie 并跳转首页
func TestLogout(t *testing.T) {
	r, _ := setupAuthRouter(t)

	w := doJSON(r, http.MethodGet, "/logout", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	cleared := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.CookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
