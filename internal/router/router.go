package router

import (
	"net/http"

	"travel-planner/internal/ai"
	"travel-planner/internal/config"
	"travel-planner/internal/handler"
	"travel-planner/internal/middleware"
	"travel-planner/internal/models"
	"travel-planner/internal/storage"
	"travel-planner/internal/voice"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures Gin engine, templates and static resources.
// 所有依赖在这里一次性装配好，handler 不持有任何全局状态。
func SetupRouter(cfg *config.Config, store storage.Store) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestLog())

	// static files and templates
	r.Static("/static", "./web/static")
	r.LoadHTMLGlob("web/templates/*")

	planner := ai.NewPlanner(ai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL))
	voiceSvc := voice.NewService(cfg.Voice.AppID, cfg.Voice.APIKey, cfg.Voice.APISecret)

	authHandler := handler.NewAuthHandler(store, cfg.JWT.Secret, cfg.JWT.ExpireHours)
	planHandler := handler.NewPlanHandler(store, planner)
	expenseHandler := handler.NewExpenseHandler(store, planner)
	configHandler := handler.NewClientConfigHandler(voiceSvc, cfg.Map)

	// ====== 页面 ======
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"title": "AI 旅行规划助手",
		})
	})
	r.GET("/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "login.html", gin.H{
			"title": "AI 旅行规划助手 - 登录",
		})
	})

	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)
	r.GET("/logout", authHandler.Logout)

	// 规划页需要登录
	authed := middleware.AuthMiddleware(cfg.JWT.Secret, store)
	r.GET("/planner", authed, func(c *gin.Context) {
		var username string
		if v, ok := c.Get("currentUser"); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				username = user.Username
			}
		}
		c.HTML(http.StatusOK, "planner.html", gin.H{
			"title":    "AI 旅行规划助手 - 规划",
			"username": username,
		})
	})

	// ====== API ======
	api := r.Group("/api")

	// 不需要鉴权的配置接口
	api.GET("/voice-config", configHandler.VoiceConfig)
	api.GET("/map-config", configHandler.MapConfig)

	// 需要登录才能访问的接口
	protected := api.Group("")
	protected.Use(authed)

	protected.GET("/me", handler.GetMe)
	protected.GET("/voice-signature", configHandler.VoiceSignature)

	protected.POST("/generate-plan", planHandler.GeneratePlan)
	protected.GET("/my-plans", planHandler.ListPlans)
	protected.GET("/plan/:id", planHandler.GetPlan)
	protected.PUT("/plan/:id", planHandler.UpdatePlan)
	protected.DELETE("/plan/:id", planHandler.DeletePlan)

	protected.POST("/expense", expenseHandler.AddExpense)
	protected.GET("/plan/:id/expenses", expenseHandler.ListExpenses)
	protected.GET("/plan/:id/expenses/export", expenseHandler.ExportExpenses)
	protected.POST("/analyze-budget", expenseHandler.AnalyzeBudget)

	return r
}
