package model

// Challenge 由挑战目录服务维护，本子系统只读
// swagger:model Challenge
type Challenge struct {
	BaseModel
	Title              string `gorm:"size:200;not null" json:"title"`
	Category           string `gorm:"size:50;index" json:"category"`
	PointsReward       int    `gorm:"default:0" json:"pointsReward"`
	RequiresPeerReview bool   `gorm:"default:false;index" json:"requiresPeerReview"`
}

func (Challenge) TableName() string {
	return "challenges"
}
