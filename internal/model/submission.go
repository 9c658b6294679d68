package model

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionInReview  SubmissionStatus = "in_review"
	SubmissionCompleted SubmissionStatus = "completed"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Reviewable 是否仍可接受评审
func (s SubmissionStatus) Reviewable() bool {
	return s == SubmissionSubmitted || s == SubmissionInReview
}

// Submission 作者对某个挑战的一次提交
// swagger:model Submission
type Submission struct {
	ID          uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint             `gorm:"index;not null" json:"userId"`
	ChallengeID uint             `gorm:"index;not null" json:"challengeId"`
	Content     string           `gorm:"type:text" json:"content,omitempty"`
	Status      SubmissionStatus `gorm:"type:enum('submitted','in_review','completed','failed');default:'submitted';index" json:"status"`
	// Score 只在 status 变为 completed 时写入一次
	Score       *int       `json:"score"`
	SubmittedAt time.Time  `gorm:"not null;index" json:"submittedAt"`
	FinalizedAt *time.Time `json:"finalizedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Submission) TableName() string {
	return "submissions"
}
