package model

import (
	"time"
)

// PeerReview 一个评审者对一次提交的评价，(reviewer_id, submission_id) 唯一
// swagger:model PeerReview
type PeerReview struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReviewerID   uint      `gorm:"not null;uniqueIndex:idx_reviewer_submission,priority:1" json:"reviewerId"`
	RevieweeID   uint      `gorm:"not null;index" json:"revieweeId"`
	SubmissionID uint      `gorm:"not null;uniqueIndex:idx_reviewer_submission,priority:2;index" json:"submissionId"`
	Rating       int       `gorm:"not null" json:"rating"`
	Feedback     string    `gorm:"type:text;not null" json:"feedback"`
	IsAnonymous  bool      `gorm:"default:false" json:"isAnonymous"`
	IsCompleted  bool      `gorm:"default:true;index" json:"isCompleted"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (PeerReview) TableName() string {
	return "peer_reviews"
}
