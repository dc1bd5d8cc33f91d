package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"travel-planner/internal/config"
	"travel-planner/internal/models"
)

var (
	// ErrDuplicate 用户名或邮箱唯一性冲突
	ErrDuplicate = errors.New("username or email already exists")
	// ErrNotFound 记录不存在，或存在但不属于当前用户（两者对外不作区分）
	ErrNotFound = errors.New("record not found")
)

// PlanSummary 是计划列表项（不含 plan_data 正文）
type PlanSummary struct {
	ID        uint      `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PlanRecord 是单个计划的完整记录，Plan 字段已从 plan_data 反序列化
type PlanRecord struct {
	ID        uint              `json:"id"`
	UserID    uint              `json:"user_id"`
	Title     string            `json:"title"`
	Plan      *models.Itinerary `json:"plan_data"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ExpenseInput 是新增开销的输入，description 可选
type ExpenseInput struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// Store 是持久化抽象，本地 SQLite 和云端 Postgres 两个实现，契约完全一致。
//
// 所有按 id 的读/改/删都必须同时按归属用户过滤，绝不允许只按 id 查询；
// 查不到和不属于当前用户对调用方来说不可区分（都返回 nil / 错误）。
type Store interface {
	CreateUser(username, email, password string) error
	Authenticate(username, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)

	SavePlan(userID uint, plan *models.Itinerary) (uint, error)
	UpdatePlan(planID, userID uint, plan *models.Itinerary) error
	ListPlans(userID uint) ([]PlanSummary, error)
	GetPlan(planID, userID uint) (*PlanRecord, error)
	DeletePlan(planID, userID uint) error

	AddExpense(planID, userID uint, in ExpenseInput) error
	ListExpenses(planID, userID uint) ([]models.Expense, error)
}

// New 在进程启动时选择存储后端：云端配置齐全用云端，否则用本地并自建表。
// 选定后整个进程生命周期内不再切换。
func New(cfg *config.Config) (Store, error) {
	if cfg.UseCloud() {
		log.Println("使用云端 Postgres 数据库")
		return NewCloudStore(cfg.Cloud.URL, cfg.Cloud.Key)
	}
	log.Println("使用本地 SQLite 数据库")
	return NewLocalStore(cfg.Database.Path)
}

// hashPassword 密码哈希：无盐 SHA-256，十六进制编码。
// 方案与既有存量数据保持一致，不在此处升级。
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// defaultTitle 计划标题缺省值
const defaultTitle = "未命名计划"

// titleOf 从行程对象推导计划标题
func titleOf(plan *models.Itinerary) string {
	if plan == nil || plan.Destination == "" {
		return defaultTitle
	}
	return plan.Destination
}
