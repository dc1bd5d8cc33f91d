package storage

import (
	"path/filepath"
	"testing"

	"travel-planner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return s
}

func kyotoPlan() *models.Itinerary {
	return &models.Itinerary{
		Destination: "Kyoto",
		Duration:    "3天",
		Budget:      "5000",
		Travelers:   "2",
		Preferences: []string{"美食", "古迹"},
		Days: []models.DayPlan{
			{
				Day:  1,
				Date: "2025-04-01",
				Activities: []models.Activity{
					{Time: "09:00", Activity: "清水寺", Location: "东山区", Cost: 400, Notes: "早点去避开人流"},
				},
			},
		},
		Accommodation: []models.Lodging{
			{Name: "町屋旅馆", Location: "衹园", Nights: 2, Cost: 1600},
		},
		Transportation: &models.Transportation{
			ToDestination: &models.TransportLeg{Type: "新干线", Cost: 550},
			Local:         &models.TransportLeg{Type: "巴士一日券", Cost: 70},
		},
		BudgetBreakdown: map[string]float64{
			"transportation": 1170,
			"accommodation":  1600,
			"food":           1200,
			"total":          5000,
		},
		Tips: []string{"提前订住宿"},
	}
}

// TestInit_Idempotent 测试重复初始化不报错（create-if-not-exists 语义）
func TestInit_Idempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Init())
	require.NoError(t, s.Init())
}

// TestCreateUser_Duplicate 测试注册和唯一性冲突
func TestCreateUser_Duplicate(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))

	// 同用户名
	err := s.CreateUser("alice", "other@x.com", "pw2")
	assert.ErrorIs(t, err, ErrDuplicate)

	// 同邮箱
	err = s.CreateUser("bob", "a@x.com", "pw2")
	assert.ErrorIs(t, err, ErrDuplicate)
}

// TestAuthenticate 测试登录验证
func TestAuthenticate(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))

	user, err := s.Authenticate("alice", "pw1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@x.com", user.Email)

	// 密码错误 -> nil
	user, err = s.Authenticate("alice", "wrong")
	require.NoError(t, err)
	assert.Nil(t, user)

	// 用户不存在 -> nil
	user, err = s.Authenticate("nobody", "pw1")
	require.NoError(t, err)
	assert.Nil(t, user)
}

// TestGetUserByID 测试按 ID 查用户
func TestGetUserByID(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))

	user, err := s.Authenticate("alice", "pw1")
	require.NoError(t, err)
	require.NotNil(t, user)

	got, err := s.GetUserByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	got, err = s.GetUserByID(9999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// TestSaveAndGetPlan_RoundTrip 测试保存后取回的 plan_data 深度相等
func TestSaveAndGetPlan_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))
	user, _ := s.Authenticate("alice", "pw1")

	plan := kyotoPlan()
	planID, err := s.SavePlan(user.ID, plan)
	require.NoError(t, err)
	assert.Greater(t, planID, uint(0))

	rec, err := s.GetPlan(planID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Kyoto", rec.Title)
	assert.Equal(t, plan, rec.Plan)
}

// TestSavePlan_DefaultTitle 测试缺少目的地时的标题缺省值
func TestSavePlan_DefaultTitle(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))
	user, _ := s.Authenticate("alice", "pw1")

	planID, err := s.SavePlan(user.ID, &models.Itinerary{RawResponse: "乱码"})
	require.NoError(t, err)

	rec, err := s.GetPlan(planID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "未命名计划", rec.Title)
}

// TestListPlans 测试列表内容和倒序排序
func TestListPlans(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))
	user, _ := s.Authenticate("alice", "pw1")

	_, err := s.SavePlan(user.ID, &models.Itinerary{Destination: "Kyoto"})
	require.NoError(t, err)
	_, err = s.SavePlan(user.ID, &models.Itinerary{Destination: "Osaka"})
	require.NoError(t, err)

	plans, err := s.ListPlans(user.ID)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	titles := []string{plans[0].Title, plans[1].Title}
	assert.Contains(t, titles, "Kyoto")
	assert.Contains(t, titles, "Osaka")
	// created_at 倒序
	assert.False(t, plans[0].CreatedAt.Before(plans[1].CreatedAt))
}

// TestOwnership_Isolation 测试用户 A 的计划对用户 B 完全不可见
func TestOwnership_Isolation(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))
	require.NoError(t, s.CreateUser("bob", "b@x.com", "pw2"))
	alice, _ := s.Authenticate("alice", "pw1")
	bob, _ := s.Authenticate("bob", "pw2")

	planID, err := s.SavePlan(alice.ID, kyotoPlan())
	require.NoError(t, err)

	// B 查不到
	rec, err := s.GetPlan(planID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, rec)

	// B 删不掉
	err = s.DeletePlan(planID, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// B 改不了
	err = s.UpdatePlan(planID, bob.ID, &models.Itinerary{Destination: "Nara"})
	assert.ErrorIs(t, err, ErrNotFound)

	// B 挂不上开销
	err = s.AddExpense(planID, bob.ID, ExpenseInput{Category: "餐饮", Amount: 100, Date: "2025-04-01"})
	assert.ErrorIs(t, err, ErrNotFound)

	// A 自己一切正常
	rec, err = s.GetPlan(planID, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

// TestUpdatePlan 测试全量更新
func TestUpdatePlan(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))
	user, _ := s.Authenticate("alice", "pw1")

	planID, err := s.SavePlan(user.ID, &models.Itinerary{Destination: "Kyoto"})
	require.NoError(t, err)

	require.NoError(t, s.UpdatePlan(planID, user.ID, &models.Itinerary{Destination: "Nara"}))

	rec, err := s.GetPlan(planID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Nara", rec.Title)
	assert.Equal(t, "Nara", rec.Plan.Destination)
}

// TestDeletePlan_CascadesExpenses 测试删计划时级联删除开销记录
func TestDeletePlan_CascadesExpenses(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))
	user, _ := s.Authenticate("alice", "pw1")

	planID, err := s.SavePlan(user.ID, kyotoPlan())
	require.NoError(t, err)

	require.NoError(t, s.AddExpense(planID, user.ID,
		ExpenseInput{Category: "餐饮", Amount: 120.5, Date: "2025-04-01"}))
	require.NoError(t, s.AddExpense(planID, user.ID,
		ExpenseInput{Category: "交通", Amount: 70, Description: "巴士券", Date: "2025-04-02"}))

	expenses, err := s.ListExpenses(planID, user.ID)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	// 日期倒序
	assert.Equal(t, "2025-04-02", expenses[0].Date)

	require.NoError(t, s.DeletePlan(planID, user.ID))

	// 计划没了
	rec, err := s.GetPlan(planID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, rec)

	// 开销也没了
	expenses, err = s.ListExpenses(planID, user.ID)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

// TestAddExpense_MissingPlan 测试挂到不存在的计划上报错
func TestAddExpense_MissingPlan(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser("alice", "a@x.com", "pw1"))
	user, _ := s.Authenticate("alice", "pw1")

	err := s.AddExpense(9999, user.ID, ExpenseInput{Category: "餐饮", Amount: 10, Date: "2025-04-01"})
	assert.ErrorIs(t, err, ErrNotFound)
}
