package models

import "time"

// TravelPlan 表示一份已保存的旅行计划
// plan_data 里存的是 Itinerary 序列化后的 JSON 文本
type TravelPlan struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"` // 归属用户，创建后不可变
	Title     string    `gorm:"size:128;not null" json:"title"`
	PlanData  string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expense 表示一条旅行开销记录，只增不改，随计划级联删除
type Expense struct {
	ID          uint      `gorm:"primaryKey" json:"id" db:"id"`
	PlanID      uint      `gorm:"index;not null" json:"plan_id" db:"plan_id"`
	UserID      uint      `gorm:"index;not null" json:"user_id" db:"user_id"` // 必须等于计划的归属用户
	Category    string    `gorm:"size:32;not null" json:"category" db:"category"`
	Amount      float64   `gorm:"not null" json:"amount" db:"amount"`
	Description string    `gorm:"size:255" json:"description" db:"description"`
	Date        string    `gorm:"size:16;not null" json:"date" db:"date"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
