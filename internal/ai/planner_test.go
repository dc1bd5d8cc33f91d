package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"travel-planner/internal/models"
)

// fakeCompleter 返回预设内容或错误
type fakeCompleter struct {
	content string
	err     error

	gotSystem string
	gotUser   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.gotSystem = system
	f.gotUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

// TestGeneratePlan_ValidJSON 测试模型返回纯 JSON
func TestGeneratePlan_ValidJSON(t *testing.T) {
	fake := &fakeCompleter{content: `{
		"destination": "京都",
		"duration": "3天",
		"itinerary": [{"day": 1, "date": "2025-04-01", "activities": [
			{"time": "09:00", "activity": "清水寺", "location": "东山区", "cost": 400}
		]}],
		"budget_breakdown": {"food": 1200, "total": 5000},
		"tips": ["提前订住宿"]
	}`}
	p := NewPlanner(fake)

	plan := p.GeneratePlan(context.Background(), "去京都玩3天")

	if plan == nil {
		t.Fatal("GeneratePlan() = nil")
	}
	if plan.Failed() || plan.Unparsed() {
		t.Fatalf("plan degraded unexpectedly: %+v", plan)
	}
	if plan.Destination != "京都" {
		t.Errorf("Destination = %q, want 京都", plan.Destination)
	}
	if len(plan.Days) != 1 || plan.Days[0].Day != 1 {
		t.Errorf("Days = %+v, want one day", plan.Days)
	}
	if plan.BudgetBreakdown["total"] != 5000 {
		t.Errorf("total = %v, want 5000", plan.BudgetBreakdown["total"])
	}

	// 用户输入必须原样作为 user turn
	if fake.gotUser != "去京都玩3天" {
		t.Errorf("user turn = %q", fake.gotUser)
	}
	// 系统指令必须带 JSON 结构约定
	if fake.gotSystem == "" || !strings.Contains(fake.gotSystem, "budget_breakdown") {
		t.Error("system prompt missing schema contract")
	}
}

// TestGeneratePlan_JSONInProse 测试 JSON 被说明文字包裹时的截取兜底
func TestGeneratePlan_JSONInProse(t *testing.T) {
	fake := &fakeCompleter{content: "好的，这是为您生成的计划：\n```json\n" +
		`{"destination": "大阪", "duration": "2天"}` + "\n```\n祝旅途愉快！"}
	p := NewPlanner(fake)

	plan := p.GeneratePlan(context.Background(), "大阪两日游")

	if plan.Failed() || plan.Unparsed() {
		t.Fatalf("plan degraded unexpectedly: %+v", plan)
	}
	if plan.Destination != "大阪" {
		t.Errorf("Destination = %q, want 大阪", plan.Destination)
	}
}

// TestGeneratePlan_Unparseable 测试完全无法解析时保留原文
func TestGeneratePlan_Unparseable(t *testing.T) {
	fake := &fakeCompleter{content: "抱歉，我只能提供文字建议。"}
	p := NewPlanner(fake)

	plan := p.GeneratePlan(context.Background(), "随便")

	if !plan.Unparsed() {
		t.Fatalf("want unparsed variant, got %+v", plan)
	}
	if plan.RawResponse != "抱歉，我只能提供文字建议。" {
		t.Errorf("RawResponse = %q", plan.RawResponse)
	}
}

// TestGeneratePlan_CallFailure 测试模型调用失败的降级对象
func TestGeneratePlan_CallFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("API 调用失败: 500")}
	p := NewPlanner(fake)

	plan := p.GeneratePlan(context.Background(), "去京都")

	if !plan.Failed() {
		t.Fatalf("want failed variant, got %+v", plan)
	}
	if plan.Destination != "未知" {
		t.Errorf("Destination = %q, want 未知", plan.Destination)
	}
	if plan.Error == "" || plan.Message == "" {
		t.Errorf("degraded object incomplete: %+v", plan)
	}
}

// TestAnalyzeBudget 测试预算分析的提示词和结果
func TestAnalyzeBudget(t *testing.T) {
	fake := &fakeCompleter{content: "预算使用良好"}
	p := NewPlanner(fake)

	expenses := []models.Expense{
		{Category: "餐饮", Amount: 120.5, Date: "2025-04-01"},
	}
	got := p.AnalyzeBudget(context.Background(), expenses, 5000)

	if got != "预算使用良好" {
		t.Errorf("AnalyzeBudget() = %q", got)
	}
	if fake.gotSystem != "你是一个旅行预算分析专家" {
		t.Errorf("system = %q", fake.gotSystem)
	}
	if !strings.Contains(fake.gotUser, "5000.00") || !strings.Contains(fake.gotUser, "餐饮") {
		t.Errorf("prompt missing budget or expenses: %q", fake.gotUser)
	}
}

// TestAnalyzeBudget_CallFailure 测试调用失败返回错误描述字符串
func TestAnalyzeBudget_CallFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("network down")}
	p := NewPlanner(fake)

	got := p.AnalyzeBudget(context.Background(), nil, 1000)

	if !strings.Contains(got, "预算分析出错") {
		t.Errorf("AnalyzeBudget() = %q, want error string", got)
	}
}

// TestExtractJSON 测试 JSON 片段截取
func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"text {\"a\":1} tail", `{"a":1}`, true},
		{"前缀 {\"a\":{\"b\":2}} 后缀", `{"a":{"b":2}}`, true},
		{"no json here", "", false},
		{"}{", "", false},
	}
	for _, tc := range cases {
		got, ok := extractJSON(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("extractJSON(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
