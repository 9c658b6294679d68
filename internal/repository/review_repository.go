package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillwise_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository 基于 gorm 的事务型存储实现
type ReviewRepository struct {
	DB *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

var _ Store = (*ReviewRepository)(nil)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (r *ReviewRepository) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (r *ReviewRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *ReviewRepository) FindSubmission(ctx context.Context, submissionID uint) (*model.Submission, error) {
	var submission model.Submission
	if err := r.DB.WithContext(ctx).First(&submission, submissionID).Error; err != nil {
		return nil, translate(err)
	}
	return &submission, nil
}

func (r *ReviewRepository) ListReviews(ctx context.Context, submissionID uint) ([]model.PeerReview, error) {
	var reviews []model.PeerReview
	err := r.DB.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC, id ASC").
		Find(&reviews).Error
	return reviews, translate(err)
}

// ReviewQueue 查询评审者仍可评审的提交，按提交时间倒序
func (r *ReviewRepository) ReviewQueue(ctx context.Context, filter QueueFilter) ([]model.Submission, int64, error) {
	var submissions []model.Submission
	var total int64

	db := r.DB.WithContext(ctx).Model(&model.Submission{}).
		Joins("JOIN challenges ON challenges.id = submissions.challenge_id").
		Where("submissions.user_id <> ?", filter.ReviewerID).
		Where("challenges.requires_peer_review = ?", true).
		Where("submissions.status IN ?", []model.SubmissionStatus{model.SubmissionSubmitted, model.SubmissionInReview}).
		Where("NOT EXISTS (SELECT 1 FROM peer_reviews pr WHERE pr.submission_id = submissions.id AND pr.reviewer_id = ?)", filter.ReviewerID).
		Where("(SELECT COUNT(*) FROM peer_reviews pc WHERE pc.submission_id = submissions.id AND pc.is_completed = ?) < ?", true, filter.Quorum)

	if filter.Category != "" {
		db = db.Where("challenges.category = ?", filter.Category)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Select("submissions.*").
		Order("submissions.submitted_at DESC, submissions.id DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&submissions).Error

	return submissions, total, err
}

func (r *ReviewRepository) FindStatistics(ctx context.Context, userID uint) (*model.UserStatistics, error) {
	var stats model.UserStatistics
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, translate(err)
	}
	return &stats, nil
}

const leaderboardOrder = "total_points DESC, challenges_completed DESC, user_id ASC"

// periodAggregate 按时间窗口汇总积分流水
func (r *ReviewRepository) periodAggregate(ctx context.Context, since time.Time) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.ProgressEvent{}).
		Select("user_id, SUM(points_earned) AS total_points, SUM(CASE WHEN event_type = ? THEN 1 ELSE 0 END) AS challenges_completed",
			model.EventChallengeCompleted).
		Where("created_at >= ?", since).
		Group("user_id")
}

func (r *ReviewRepository) Leaderboard(ctx context.Context, since *time.Time, limit int) ([]model.LeaderboardRow, error) {
	var rows []model.LeaderboardRow

	if since == nil {
		err := r.DB.WithContext(ctx).Model(&model.UserStatistics{}).
			Select("user_id, total_points, challenges_completed").
			Order(leaderboardOrder).
			Limit(limit).
			Scan(&rows).Error
		return rows, err
	}

	err := r.DB.WithContext(ctx).
		Table("(?) AS agg", r.periodAggregate(ctx, *since)).
		Order(leaderboardOrder).
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *ReviewRepository) RankOf(ctx context.Context, since *time.Time, userID uint) (*model.LeaderboardRow, int, error) {
	var source *gorm.DB
	if since == nil {
		source = r.DB.WithContext(ctx).Model(&model.UserStatistics{}).
			Select("user_id, total_points, challenges_completed")
	} else {
		source = r.periodAggregate(ctx, *since)
	}

	row := model.LeaderboardRow{UserID: userID}
	var found []model.LeaderboardRow
	err := r.DB.WithContext(ctx).
		Table("(?) AS agg", source).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(&found).Error
	if err != nil {
		return nil, 0, err
	}
	if len(found) == 1 {
		row = found[0]
	}

	var ahead int64
	distinct := r.DB.WithContext(ctx).
		Table("(?) AS agg", source).
		Distinct("total_points", "challenges_completed").
		Where("total_points > ? OR (total_points = ? AND challenges_completed > ?)",
			row.TotalPoints, row.TotalPoints, row.ChallengesCompleted)
	err = r.DB.WithContext(ctx).Table("(?) AS ahead", distinct).Count(&ahead).Error
	if err != nil {
		return nil, 0, err
	}

	return &row, int(ahead) + 1, nil
}

// gormTx 事务内的操作，全部使用同一个 *gorm.DB 事务句柄
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) LockSubmission(ctx context.Context, submissionID uint) (*model.Submission, error) {
	var submission model.Submission
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&submission, submissionID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &submission, nil
}

func (t *gormTx) FindChallenge(ctx context.Context, challengeID uint) (*model.Challenge, error) {
	var challenge model.Challenge
	if err := t.db.WithContext(ctx).First(&challenge, challengeID).Error; err != nil {
		return nil, translate(err)
	}
	return &challenge, nil
}

func (t *gormTx) HasReview(ctx context.Context, reviewerID, submissionID uint) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&model.PeerReview{}).
		Where("reviewer_id = ? AND submission_id = ?", reviewerID, submissionID).
		Count(&count).Error
	return count > 0, err
}

func (t *gormTx) CompletedRatings(ctx context.Context, submissionID uint) ([]int, error) {
	var ratings []int
	err := t.db.WithContext(ctx).Model(&model.PeerReview{}).
		Where("submission_id = ? AND is_completed = ?", submissionID, true).
		Order("id ASC").
		Pluck("rating", &ratings).Error
	return ratings, err
}

func (t *gormTx) CreateReview(ctx context.Context, review *model.PeerReview) error {
	return translate(t.db.WithContext(ctx).Create(review).Error)
}

func (t *gormTx) MarkInReview(ctx context.Context, submissionID uint) error {
	return t.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND status = ?", submissionID, model.SubmissionSubmitted).
		Update("status", model.SubmissionInReview).Error
}

func (t *gormTx) FinalizeSubmission(ctx context.Context, submissionID uint, score int, at time.Time) (bool, error) {
	result := t.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND status <> ?", submissionID, model.SubmissionCompleted).
		Updates(map[string]interface{}{
			"status":       model.SubmissionCompleted,
			"score":        score,
			"finalized_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (t *gormTx) ensureStatistics(ctx context.Context, userID uint) error {
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserStatistics{UserID: userID}).Error
}

func (t *gormTx) LockStatistics(ctx context.Context, userID uint) (*model.UserStatistics, error) {
	if err := t.ensureStatistics(ctx, userID); err != nil {
		return nil, err
	}

	var stats model.UserStatistics
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&stats).Error
	if err != nil {
		return nil, translate(err)
	}
	return &stats, nil
}

var counterColumns = map[model.Counter]string{
	model.CounterChallengesCompleted: "challenges_completed",
	model.CounterPeerReviewsGiven:    "peer_reviews_given",
	model.CounterPeerReviewsReceived: "peer_reviews_received",
}

func (t *gormTx) IncrementStatistics(ctx context.Context, userID uint, delta model.StatisticsDelta) error {
	if err := t.ensureStatistics(ctx, userID); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if delta.Points != 0 {
		updates["total_points"] = gorm.Expr("total_points + ?", delta.Points)
		updates["experience_points"] = gorm.Expr("experience_points + ?", delta.Points)
	}
	increments := make(map[string]int, len(delta.Counters))
	for _, counter := range delta.Counters {
		column, ok := counterColumns[counter]
		if !ok {
			return fmt.Errorf("unknown statistics counter %q", counter)
		}
		increments[column]++
	}
	for column, n := range increments {
		updates[column] = gorm.Expr(column+" + ?", n)
	}

	return t.db.WithContext(ctx).Model(&model.UserStatistics{}).
		Where("user_id = ?", userID).
		UpdateColumns(updates).Error
}

func (t *gormTx) SaveStreak(ctx context.Context, userID uint, streak model.Streak) error {
	return t.db.WithContext(ctx).Model(&model.UserStatistics{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"current_streak_days": streak.Current,
			"longest_streak_days": streak.Longest,
			"last_activity_date":  streak.LastActivityDate,
			"updated_at":          time.Now(),
		}).Error
}

func (t *gormTx) AppendEvent(ctx context.Context, event *model.ProgressEvent) error {
	return t.db.WithContext(ctx).Create(event).Error
}
