package models

// Itinerary 是 AI 生成的结构化行程对象（plan_data 的载荷）。
// 所有字段都是可选的：模型输出不做服务端 schema 校验，
// 消费方必须把每个字段当作可能缺失的数据来处理。
//
// 三种形态（互斥，用 Failed/Unparsed 判断）：
//   - 正常解析：行程字段被填充
//   - 生成失败：Error + Message 被填充，Destination 固定为 "未知"
//   - 无法解析：RawResponse 保存模型原始文本
type Itinerary struct {
	Destination     string             `json:"destination,omitempty"`
	Duration        string             `json:"duration,omitempty"`
	Budget          string             `json:"budget,omitempty"`
	Travelers       string             `json:"travelers,omitempty"`
	Preferences     []string           `json:"preferences,omitempty"`
	Days            []DayPlan          `json:"itinerary,omitempty"`
	Accommodation   []Lodging          `json:"accommodation,omitempty"`
	Transportation  *Transportation    `json:"transportation,omitempty"`
	BudgetBreakdown map[string]float64 `json:"budget_breakdown,omitempty"` // 分类 -> 金额，含 "total"
	Tips            []string           `json:"tips,omitempty"`

	// 降级形态
	Error       string `json:"error,omitempty"`
	Message     string `json:"message,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}

// DayPlan 是单日行程
type DayPlan struct {
	Day        int        `json:"day"`
	Date       string     `json:"date,omitempty"`
	Activities []Activity `json:"activities,omitempty"`
}

// Activity 是单个活动条目
type Activity struct {
	Time     string  `json:"time,omitempty"`
	Activity string  `json:"activity,omitempty"`
	Location string  `json:"location,omitempty"`
	Cost     float64 `json:"cost,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

// Lodging 是一条住宿安排
type Lodging struct {
	Name     string  `json:"name,omitempty"`
	Location string  `json:"location,omitempty"`
	Nights   int     `json:"nights,omitempty"`
	Cost     float64 `json:"cost,omitempty"`
}

// Transportation 汇总往返和当地交通
type Transportation struct {
	ToDestination   *TransportLeg `json:"to_destination,omitempty"`
	Local           *TransportLeg `json:"local,omitempty"`
	FromDestination *TransportLeg `json:"from_destination,omitempty"`
}

// TransportLeg 是一段交通安排
type TransportLeg struct {
	Type string  `json:"type,omitempty"`
	Cost float64 `json:"cost,omitempty"`
}

// Failed 表示这是一次生成失败的降级对象
func (it *Itinerary) Failed() bool {
	return it != nil && it.Error != ""
}

// Unparsed 表示模型返回了无法解析成行程的文本
func (it *Itinerary) Unparsed() bool {
	return it != nil && it.RawResponse != "" && !it.Failed()
}
