package repository

import (
	"context"
	"errors"
	"time"

	"skillwise_backend/internal/model"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("duplicate record")
)

// QueueFilter 待评审队列查询条件
type QueueFilter struct {
	ReviewerID uint
	Category   string
	Quorum     int
	Offset     int
	Limit      int
}

// Tx 在单个事务内执行的读写操作
type Tx interface {
	// LockSubmission 读取并锁定提交行，后续的评审计数在锁内保持一致
	LockSubmission(ctx context.Context, submissionID uint) (*model.Submission, error)
	FindChallenge(ctx context.Context, challengeID uint) (*model.Challenge, error)
	HasReview(ctx context.Context, reviewerID, submissionID uint) (bool, error)
	CompletedRatings(ctx context.Context, submissionID uint) ([]int, error)
	CreateReview(ctx context.Context, review *model.PeerReview) error
	// MarkInReview 仅在状态为 submitted 时生效
	MarkInReview(ctx context.Context, submissionID uint) error
	// FinalizeSubmission 条件写入 WHERE status <> 'completed'，返回是否由本次调用完成
	FinalizeSubmission(ctx context.Context, submissionID uint, score int, at time.Time) (bool, error)

	// LockStatistics 不存在则创建，并在事务内锁定该行
	LockStatistics(ctx context.Context, userID uint) (*model.UserStatistics, error)
	IncrementStatistics(ctx context.Context, userID uint, delta model.StatisticsDelta) error
	SaveStreak(ctx context.Context, userID uint, streak model.Streak) error
	AppendEvent(ctx context.Context, event *model.ProgressEvent) error
}

// Store 评审子系统的存储抽象
type Store interface {
	// Transaction 全部成功才提交，fn 返回错误时全部回滚
	Transaction(ctx context.Context, fn func(tx Tx) error) error

	FindSubmission(ctx context.Context, submissionID uint) (*model.Submission, error)
	ListReviews(ctx context.Context, submissionID uint) ([]model.PeerReview, error)
	ReviewQueue(ctx context.Context, filter QueueFilter) ([]model.Submission, int64, error)
	FindStatistics(ctx context.Context, userID uint) (*model.UserStatistics, error)

	// Leaderboard since 为 nil 时使用累计聚合，否则汇总 since 之后的积分流水
	Leaderboard(ctx context.Context, since *time.Time, limit int) ([]model.LeaderboardRow, error)
	// RankOf 统计严格排在 row 之前的不同 (points, completed) 组合数量
	RankOf(ctx context.Context, since *time.Time, userID uint) (*model.LeaderboardRow, int, error)

	Ping(ctx context.Context) error
}
