package model

// AICallLog AI 调用日志
type AICallLog struct {
	BaseModel

	// 关联
	ItemID int64 `gorm:"index;comment:库存商品ID(可为0)"`

	// 调用信息
	CallType  string `gorm:"size:32;index;comment:调用类型"`
	ModelName string `gorm:"size:64;comment:模型名称"`

	// 用量统计
	InputTokens  int `gorm:"default:0;comment:输入token数"`
	OutputTokens int `gorm:"default:0;comment:输出token数"`
	ImageCount   int `gorm:"default:0;comment:输入图片数量"`

	// 性能
	DurationMs int64 `gorm:"comment:耗时(毫秒)"`

	// 状态
	Status   string `gorm:"size:32;index;default:success;comment:状态(success/failed)"`
	ErrorMsg string `gorm:"size:1024;comment:错误信息"`
}

func (AICallLog) TableName() string {
	return "ai_call_logs"
}

const (
	AICallTypeIdentify = "identify"

	AICallStatusSuccess = "success"
	AICallStatusFailed  = "failed"
)
