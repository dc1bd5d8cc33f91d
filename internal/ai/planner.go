package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"travel-planner/internal/models"
)

// Completer 是补全调用的最小接口，方便测试时替换
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Planner 把用户的自由文本需求变成结构化行程
type Planner struct {
	llm Completer
}

// NewPlanner 构造函数
func NewPlanner(llm Completer) *Planner {
	return &Planner{llm: llm}
}

// planSystemPrompt 固定的系统指令，规定模型必须输出的 JSON 结构
const planSystemPrompt = `你是一个专业的旅行规划助手。根据用户的需求，生成详细的旅行计划。

请以 JSON 格式返回计划，包含以下字段：
{
  "destination": "目的地",
  "duration": "天数",
  "budget": "预算（元）",
  "travelers": "人数",
  "preferences": ["偏好1", "偏好2"],
  "itinerary": [
    {
      "day": 1,
      "date": "日期",
      "activities": [
        {
          "time": "时间",
          "activity": "活动",
          "location": "地点",
          "cost": 费用,
          "notes": "备注"
        }
      ]
    }
  ],
  "accommodation": [
    {
      "name": "酒店名称",
      "location": "位置",
      "nights": 晚数,
      "cost": 费用
    }
  ],
  "transportation": {
    "to_destination": {"type": "交通方式", "cost": 费用},
    "local": {"type": "交通方式", "cost": 费用},
    "from_destination": {"type": "交通方式", "cost": 费用}
  },
  "budget_breakdown": {
    "transportation": 费用,
    "accommodation": 费用,
    "food": 费用,
    "activities": 费用,
    "shopping": 费用,
    "emergency": 费用,
    "total": 总费用
  },
  "tips": ["建议1", "建议2"]
}`

// GeneratePlan 根据用户输入生成旅行计划。
// 永不返回错误：模型调用失败、返回不可解析时都降级成对应形态的 Itinerary。
func (p *Planner) GeneratePlan(ctx context.Context, userInput string) *models.Itinerary {
	content, err := p.llm.Complete(ctx, planSystemPrompt, userInput)
	if err != nil {
		log.Printf("AI 服务错误: %v", err)
		return &models.Itinerary{
			Error:       err.Error(),
			Destination: "未知",
			Message:     "生成计划时出错，请稍后重试",
		}
	}

	// 两段式解析：先按纯 JSON 解析，失败再截取首个 {...} 片段重试
	var plan models.Itinerary
	if err := json.Unmarshal([]byte(content), &plan); err == nil {
		return &plan
	}
	if span, ok := extractJSON(content); ok {
		plan = models.Itinerary{}
		if err := json.Unmarshal([]byte(span), &plan); err == nil {
			return &plan
		}
	}

	// 两段都失败：显式标记为未解析，保留原文
	return &models.Itinerary{RawResponse: content}
}

// extractJSON 从文本中截取第一个 '{' 到最后一个 '}' 之间的片段，
// 用于剥掉模型包在 JSON 外面的说明文字或 markdown 代码块。
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// AnalyzeBudget 分析预算使用情况，返回自由文本；失败时返回错误描述字符串
func (p *Planner) AnalyzeBudget(ctx context.Context, expenses []models.Expense, budget float64) string {
	spent, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Sprintf("预算分析出错: %v", err)
	}

	prompt := fmt.Sprintf(`分析以下旅行开销情况：
预算：%.2f 元
已花费：%s

请提供：
1. 预算使用分析
2. 各类别开销占比
3. 节省建议
4. 剩余预算建议`, budget, string(spent))

	content, err := p.llm.Complete(ctx, "你是一个旅行预算分析专家", prompt)
	if err != nil {
		return fmt.Sprintf("预算分析出错: %v", err)
	}
	return content
}
