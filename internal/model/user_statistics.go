package model

import (
	"time"
)

// UserStatistics 每个用户一行的聚合计数，首次产生账本事件时创建
// swagger:model UserStatistics
type UserStatistics struct {
	UserID              uint       `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	TotalPoints         int        `gorm:"default:0;not null;index:idx_stats_rank,priority:1" json:"totalPoints"`
	ExperiencePoints    int        `gorm:"default:0;not null" json:"experiencePoints"`
	ChallengesCompleted int        `gorm:"default:0;not null;index:idx_stats_rank,priority:2" json:"challengesCompleted"`
	PeerReviewsGiven    int        `gorm:"default:0;not null" json:"peerReviewsGiven"`
	PeerReviewsReceived int        `gorm:"default:0;not null" json:"peerReviewsReceived"`
	CurrentStreakDays   int        `gorm:"default:0;not null" json:"currentStreakDays"`
	LongestStreakDays   int        `gorm:"default:0;not null" json:"longestStreakDays"`
	LastActivityDate    *time.Time `gorm:"type:date" json:"lastActivityDate"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `gorm:"index" json:"updatedAt"`
}

func (UserStatistics) TableName() string {
	return "user_statistics"
}

// Streak 连续天数状态机的状态
type Streak struct {
	LastActivityDate *time.Time
	Current          int
	Longest          int
}

func (s *UserStatistics) Streak() Streak {
	return Streak{
		LastActivityDate: s.LastActivityDate,
		Current:          s.CurrentStreakDays,
		Longest:          s.LongestStreakDays,
	}
}

// Counter 可以被账本递增的完成计数
type Counter string

const (
	CounterChallengesCompleted Counter = "challenges_completed"
	CounterPeerReviewsGiven    Counter = "peer_reviews_given"
	CounterPeerReviewsReceived Counter = "peer_reviews_received"
)

// StatisticsDelta 一次原子递增
type StatisticsDelta struct {
	Points   int
	Counters []Counter
}
