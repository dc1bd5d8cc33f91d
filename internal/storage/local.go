package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"travel-planner/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LocalStore 本地 SQLite 存储
type LocalStore struct {
	db *gorm.DB
}

// NewLocalStore 打开本地数据库并完成建表（幂等）
func NewLocalStore(path string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	// SQLite performance and reliability tuning
	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")
	_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")

	s := &LocalStore{db: db}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Init 建表，create-if-not-exists 语义，可重复调用
func (s *LocalStore) Init() error {
	if err := s.db.AutoMigrate(
		&models.User{},
		&models.TravelPlan{},
		&models.Expense{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ---------- 用户 ----------

func (s *LocalStore) CreateUser(username, email, password string) error {
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashPassword(password),
	}
	if err := s.db.Create(&user).Error; err != nil {
		// SQLite 的唯一约束冲突没有专用错误类型，按错误文本识别
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(strings.ToLower(err.Error()), "unique") {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *LocalStore) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ? AND password_hash = ?", username, hashPassword(password)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return &user, nil
}

func (s *LocalStore) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// ---------- 计划 ----------

func (s *LocalStore) SavePlan(userID uint, plan *models.Itinerary) (uint, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("marshal plan: %w", err)
	}

	row := models.TravelPlan{
		UserID:   userID,
		Title:    titleOf(plan),
		PlanData: string(data),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("save plan: %w", err)
	}
	return row.ID, nil
}

func (s *LocalStore) UpdatePlan(planID, userID uint, plan *models.Itinerary) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	// 只允许更新自己的计划；影响 0 行视同不存在
	res := s.db.Model(&models.TravelPlan{}).
		Where("id = ? AND user_id = ?", planID, userID).
		Updates(map[string]interface{}{
			"title":     titleOf(plan),
			"plan_data": string(data),
		})
	if res.Error != nil {
		return fmt.Errorf("update plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *LocalStore) ListPlans(userID uint) ([]PlanSummary, error) {
	var rows []models.TravelPlan
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	plans := make([]PlanSummary, 0, len(rows))
	for i := range rows {
		plans = append(plans, PlanSummary{
			ID:        rows[i].ID,
			Title:     rows[i].Title,
			CreatedAt: rows[i].CreatedAt,
			UpdatedAt: rows[i].UpdatedAt,
		})
	}
	return plans, nil
}

func (s *LocalStore) GetPlan(planID, userID uint) (*PlanRecord, error) {
	var row models.TravelPlan
	err := s.db.Where("id = ? AND user_id = ?", planID, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var plan models.Itinerary
	if err := json.Unmarshal([]byte(row.PlanData), &plan); err != nil {
		// 存量数据损坏时退化为原文
		plan = models.Itinerary{RawResponse: row.PlanData}
	}

	return &PlanRecord{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Plan:      &plan,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (s *LocalStore) DeletePlan(planID, userID uint) error {
	// 本地库不依赖数据库级联，先删开销再删计划，放在一个事务里
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ? AND user_id = ?", planID, userID).
			Delete(&models.Expense{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", planID, userID).
			Delete(&models.TravelPlan{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("删除计划失败: %v", err)
		}
		return err
	}
	return nil
}

// ---------- 开销 ----------

func (s *LocalStore) AddExpense(planID, userID uint, in ExpenseInput) error {
	// 开销必须挂在自己的计划下
	var count int64
	if err := s.db.Model(&models.TravelPlan{}).
		Where("id = ? AND user_id = ?", planID, userID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check plan: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}

	expense := models.Expense{
		PlanID:      planID,
		UserID:      userID,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
	}
	if err := s.db.Create(&expense).Error; err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	return nil
}

func (s *LocalStore) ListExpenses(planID, userID uint) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := s.db.Where("plan_id = ? AND user_id = ?", planID, userID).
		Order("date DESC, id DESC").
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}
