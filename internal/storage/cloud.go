package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"

	"travel-planner/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CloudStore 云端 Postgres 存储（Supabase 托管实例，直连数据库）。
// 表结构由云端预先建好，这里不做任何 DDL。
type CloudStore struct {
	db *sqlx.DB
}

// NewCloudStore 连接云端数据库。
// cloudURL 是 postgres:// DSN；key 是服务密钥，DSN 未带密码时用它作为连接密码。
func NewCloudStore(cloudURL, key string) (*CloudStore, error) {
	dsn, err := buildCloudDSN(cloudURL, key)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect cloud db: %w", err)
	}
	return &CloudStore{db: db}, nil
}

// buildCloudDSN 把服务密钥并入连接串
func buildCloudDSN(cloudURL, key string) (string, error) {
	u, err := url.Parse(cloudURL)
	if err != nil {
		return "", fmt.Errorf("parse cloud url: %w", err)
	}
	if u.User == nil {
		u.User = url.UserPassword("postgres", key)
	} else if _, has := u.User.Password(); !has && key != "" {
		u.User = url.UserPassword(u.User.Username(), key)
	}
	return u.String(), nil
}

// isUniqueViolation Postgres 唯一约束冲突（23505）
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// ---------- 用户 ----------

func (s *CloudStore) CreateUser(username, email, password string) error {
	_, err := s.db.Exec(
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3)`,
		username, email, hashPassword(password),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *CloudStore) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Get(&user,
		`SELECT id, username, email, password_hash, created_at
		   FROM users WHERE username = $1 AND password_hash = $2`,
		username, hashPassword(password),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return &user, nil
}

func (s *CloudStore) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Get(&user,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// ---------- 计划 ----------

func (s *CloudStore) SavePlan(userID uint, plan *models.Itinerary) (uint, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("marshal plan: %w", err)
	}

	var id uint
	err = s.db.QueryRow(
		`INSERT INTO travel_plans (user_id, title, plan_data) VALUES ($1, $2, $3) RETURNING id`,
		userID, titleOf(plan), string(data),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save plan: %w", err)
	}
	return id, nil
}

func (s *CloudStore) UpdatePlan(planID, userID uint, plan *models.Itinerary) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	res, err := s.db.Exec(
		`UPDATE travel_plans SET title = $1, plan_data = $2, updated_at = now()
		  WHERE id = $3 AND user_id = $4`,
		titleOf(plan), string(data), planID, userID,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CloudStore) ListPlans(userID uint) ([]PlanSummary, error) {
	plans := []PlanSummary{}
	err := s.db.Select(&plans,
		`SELECT id, title, created_at, updated_at
		   FROM travel_plans WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

func (s *CloudStore) GetPlan(planID, userID uint) (*PlanRecord, error) {
	var row struct {
		ID        uint           `db:"id"`
		UserID    uint           `db:"user_id"`
		Title     string         `db:"title"`
		PlanData  string         `db:"plan_data"`
		CreatedAt sql.NullTime   `db:"created_at"`
		UpdatedAt sql.NullTime   `db:"updated_at"`
	}
	err := s.db.Get(&row,
		`SELECT id, user_id, title, plan_data, created_at, updated_at
		   FROM travel_plans WHERE id = $1 AND user_id = $2`, planID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var plan models.Itinerary
	if err := json.Unmarshal([]byte(row.PlanData), &plan); err != nil {
		plan = models.Itinerary{RawResponse: row.PlanData}
	}

	rec := &PlanRecord{
		ID:     row.ID,
		UserID: row.UserID,
		Title:  row.Title,
		Plan:   &plan,
	}
	if row.CreatedAt.Valid {
		rec.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		rec.UpdatedAt = row.UpdatedAt.Time
	}
	return rec, nil
}

func (s *CloudStore) DeletePlan(planID, userID uint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM expenses WHERE plan_id = $1 AND user_id = $2`, planID, userID); err != nil {
		_ = tx.Rollback()
		log.Printf("删除计划失败: %v", err)
		return fmt.Errorf("delete expenses: %w", err)
	}

	res, err := tx.Exec(
		`DELETE FROM travel_plans WHERE id = $1 AND user_id = $2`, planID, userID)
	if err != nil {
		_ = tx.Rollback()
		log.Printf("删除计划失败: %v", err)
		return fmt.Errorf("delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return ErrNotFound
	}

	return tx.Commit()
}

// ---------- 开销 ----------

func (s *CloudStore) AddExpense(planID, userID uint, in ExpenseInput) error {
	var count int
	if err := s.db.Get(&count,
		`SELECT COUNT(*) FROM travel_plans WHERE id = $1 AND user_id = $2`,
		planID, userID); err != nil {
		return fmt.Errorf("check plan: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}

	_, err := s.db.Exec(
		`INSERT INTO expenses (plan_id, user_id, category, amount, description, date)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		planID, userID, in.Category, in.Amount, in.Description, in.Date,
	)
	if err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	return nil
}

func (s *CloudStore) ListExpenses(planID, userID uint) ([]models.Expense, error) {
	expenses := []models.Expense{}
	err := s.db.Select(&expenses,
		`SELECT id, plan_id, user_id, category, amount, description, date, created_at
		   FROM expenses WHERE plan_id = $1 AND user_id = $2 ORDER BY date DESC, id DESC`,
		planID, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}
