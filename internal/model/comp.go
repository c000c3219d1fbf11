package model

import "time"

// SoldListingRecord 已成交的可比商品（comp）
// 没有去重键：标题/价格/日期完全相同的两条记录按两笔成交计算
type SoldListingRecord struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"-"`
	CreatedAt       time.Time      `gorm:"index" json:"-"`
	Query           string         `gorm:"size:255;index;not null;comment:查询关键词" json:"-"`
	Title           string         `gorm:"size:255" json:"title"`
	Price           float64        `json:"price"`
	ShippingCost    *float64       `json:"shipping_cost,omitempty"`
	Condition       ConditionGrade `gorm:"size:32" json:"condition,omitempty"`
	SoldDate        time.Time      `json:"sold_date"`
	IsAuctionFormat bool           `gorm:"default:false" json:"is_auction_format"`
}

func (*SoldListingRecord) TableName() string {
	return "sold_comps"
}

// CompAnalysis 可比成交的统计快照，每次聚合重新生成
type CompAnalysis struct {
	AveragePrice      float64     `json:"average_price"`
	MedianPrice       float64     `json:"median_price"`
	LowPrice          float64     `json:"low_price"`
	HighPrice         float64     `json:"high_price"`
	TotalSales        int         `json:"total_sales"`
	DemandLevel       DemandLevel `json:"demand_level"`
	MarketConfidence  float64     `json:"market_confidence"`
	AverageDaysToSell float64     `json:"average_days_to_sell"`
}
