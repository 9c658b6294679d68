package model

import (
	"time"
)

type ProgressEventType string

const (
	EventPeerReviewGiven    ProgressEventType = "peer_review_given"
	EventChallengeCompleted ProgressEventType = "challenge_completed"
)

// ProgressEvent 只追加的积分流水，写入后不更新不删除
// swagger:model ProgressEvent
type ProgressEvent struct {
	ID           uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint              `gorm:"not null;index:idx_event_user_time,priority:1" json:"userId"`
	EventType    ProgressEventType `gorm:"size:50;not null;index" json:"eventType"`
	PointsEarned int               `gorm:"not null;default:0" json:"pointsEarned"`
	SubmissionID *uint             `gorm:"index" json:"submissionId,omitempty"`
	ChallengeID  *uint             `gorm:"index" json:"challengeId,omitempty"`
	CreatedAt    time.Time         `gorm:"index:idx_event_user_time,priority:2;index" json:"createdAt"`
}

func (ProgressEvent) TableName() string {
	return "progress_events"
}
