package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"skillwise_backend/internal/model"
	"skillwise_backend/internal/repository"
	"skillwise_backend/internal/util"
	"skillwise_backend/pkg/logger"
	"skillwise_backend/pkg/monitoring"
	"skillwise_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxFeedbackLength = 5000

// ReviewInput 评审请求
type ReviewInput struct {
	Rating      int    `json:"rating"`
	Feedback    string `json:"feedback"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// Validate 进入事务前的边界校验
func (in ReviewInput) Validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return util.InvalidInput("rating must be between 1 and 5, got %d", in.Rating)
	}
	feedback := strings.TrimSpace(in.Feedback)
	if feedback == "" {
		return util.InvalidInput("feedback must not be empty")
	}
	if utf8.RuneCountInString(feedback) > maxFeedbackLength {
		return util.InvalidInput("feedback must be at most %d characters", maxFeedbackLength)
	}
	return nil
}

// ReviewOutcome 一次被接受的评审及其对提交的影响
type ReviewOutcome struct {
	Review           *model.PeerReview      `json:"review"`
	SubmissionStatus model.SubmissionStatus `json:"submissionStatus"`
	Verdict          Verdict                `json:"verdict"`
	Streak           model.Streak           `json:"-"`
	AuthorAwarded    int                    `json:"authorAwarded,omitempty"`
}

// Invalidator 评审提交后失效相关缓存
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type ReviewService struct {
	Store       repository.Store
	Ledger      *Ledger
	Quorum      *QuorumEvaluator
	Invalidator Invalidator
	Now         func() time.Time
}

func NewReviewService(store repository.Store, ledger *Ledger, quorum *QuorumEvaluator, invalidator Invalidator) *ReviewService {
	return &ReviewService{
		Store:       store,
		Ledger:      ledger,
		Quorum:      quorum,
		Invalidator: invalidator,
		Now:         time.Now,
	}
}

// SubmitReview 校验并写入评审，同一事务内更新统计、连续天数并判定共识
func (s *ReviewService) SubmitReview(ctx context.Context, reviewerID, submissionID uint, input ReviewInput) (*ReviewOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ReviewService.SubmitReview", trace.WithAttributes(
		attribute.Int64("review.reviewer_id", int64(reviewerID)),
		attribute.Int64("review.submission_id", int64(submissionID)),
	))
	defer span.End()

	outcome, err := s.submit(ctx, reviewerID, submissionID, input)
	if err != nil {
		err = util.Persistence(err)
		code := util.CodeOf(err)
		monitoring.ReviewsSubmitted.WithLabelValues(string(code)).Inc()
		span.SetAttributes(attribute.String("review.outcome", string(code)))

		if util.IsExpected(err) {
			logger.Log.Debug("review rejected",
				zap.Uint("reviewer_id", reviewerID),
				zap.Uint("submission_id", submissionID),
				zap.String("code", string(code)),
			)
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persistence failure")
			logger.Log.Error("review transaction failed",
				zap.Uint("reviewer_id", reviewerID),
				zap.Uint("submission_id", submissionID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	monitoring.ReviewsSubmitted.WithLabelValues("accepted").Inc()
	if outcome.Verdict.Finalized {
		monitoring.ObserveFinalized(outcome.Verdict.Passed)
		logger.Log.Info("submission finalized",
			zap.Uint("submission_id", submissionID),
			zap.Int("score", outcome.Verdict.Score),
			zap.Bool("passed", outcome.Verdict.Passed),
		)
	}

	if s.Invalidator != nil {
		if err := s.Invalidator.Invalidate(ctx); err != nil {
			logger.Log.Warn("failed to invalidate leaderboard cache", zap.Error(err))
		}
	}

	return outcome, nil
}

func (s *ReviewService) submit(ctx context.Context, reviewerID, submissionID uint, input ReviewInput) (*ReviewOutcome, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.Now()
	var outcome *ReviewOutcome

	err := s.Store.Transaction(ctx, func(tx repository.Tx) error {
		// 先锁定提交行，同一提交的并发评审在此串行化
		submission, err := tx.LockSubmission(ctx, submissionID)
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrSubmissionNotFound
		}
		if err != nil {
			return err
		}

		if submission.UserID == reviewerID {
			return util.ErrSelfReview
		}

		reviewed, err := tx.HasReview(ctx, reviewerID, submissionID)
		if err != nil {
			return err
		}
		if reviewed {
			return util.ErrAlreadyReviewed
		}

		if !submission.Status.Reviewable() {
			return util.ErrSubmissionFinalized
		}

		ratings, err := tx.CompletedRatings(ctx, submissionID)
		if err != nil {
			return err
		}
		if len(ratings) >= s.Quorum.Quorum {
			return util.ErrQuorumReached
		}

		review := &model.PeerReview{
			ReviewerID:   reviewerID,
			RevieweeID:   submission.UserID,
			SubmissionID: submissionID,
			Rating:       input.Rating,
			Feedback:     strings.TrimSpace(input.Feedback),
			IsAnonymous:  input.IsAnonymous,
			IsCompleted:  true,
			CreatedAt:    now,
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return util.ErrAlreadyReviewed
			}
			return err
		}

		status := submission.Status
		if status == model.SubmissionSubmitted {
			if err := tx.MarkInReview(ctx, submissionID); err != nil {
				return err
			}
			status = model.SubmissionInReview
		}

		if err := s.Ledger.AwardPoints(ctx, tx, reviewerID, ReviewReward, model.CounterPeerReviewsGiven); err != nil {
			return err
		}
		challengeID := submission.ChallengeID
		if err := s.Ledger.AppendEvent(ctx, tx, &model.ProgressEvent{
			UserID:       reviewerID,
			EventType:    model.EventPeerReviewGiven,
			PointsEarned: ReviewReward,
			SubmissionID: &submissionID,
			ChallengeID:  &challengeID,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		if err := s.Ledger.AwardPoints(ctx, tx, submission.UserID, 0, model.CounterPeerReviewsReceived); err != nil {
			return err
		}

		streak, err := s.Ledger.RecordActivity(ctx, tx, reviewerID, now)
		if err != nil {
			return err
		}

		verdict, err := s.Quorum.Evaluate(ctx, tx, submissionID)
		if err != nil {
			return err
		}

		outcome = &ReviewOutcome{
			Review:           review,
			SubmissionStatus: status,
			Verdict:          verdict,
			Streak:           streak.Streak,
		}
		if !verdict.Finalized {
			return nil
		}

		finalized, err := tx.FinalizeSubmission(ctx, submissionID, verdict.Score, now)
		if err != nil {
			return err
		}
		if !finalized {
			// 其他事务已完成该提交，本次评审整体回滚
			return util.ErrSubmissionFinalized
		}
		outcome.SubmissionStatus = model.SubmissionCompleted

		if !verdict.Passed {
			return nil
		}

		challenge, err := tx.FindChallenge(ctx, challengeID)
		if err != nil {
			return err
		}
		if err := s.Ledger.AwardPoints(ctx, tx, submission.UserID, challenge.PointsReward, model.CounterChallengesCompleted); err != nil {
			return err
		}
		if err := s.Ledger.AppendEvent(ctx, tx, &model.ProgressEvent{
			UserID:       submission.UserID,
			EventType:    model.EventChallengeCompleted,
			PointsEarned: challenge.PointsReward,
			SubmissionID: &submissionID,
			ChallengeID:  &challengeID,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		outcome.AuthorAwarded = challenge.PointsReward
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// GetSubmission 查询单个提交
func (s *ReviewService) GetSubmission(ctx context.Context, submissionID uint) (*model.Submission, error) {
	submission, err := s.Store.FindSubmission(ctx, submissionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, util.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, util.Persistence(err)
	}
	return submission, nil
}

// ListReviews 返回提交的全部评审，匿名评审对他人隐藏评审者
func (s *ReviewService) ListReviews(ctx context.Context, submissionID, viewerID uint) ([]model.PeerReview, error) {
	if _, err := s.GetSubmission(ctx, submissionID); err != nil {
		return nil, err
	}

	reviews, err := s.Store.ListReviews(ctx, submissionID)
	if err != nil {
		return nil, util.Persistence(err)
	}

	for i := range reviews {
		if reviews[i].IsAnonymous && reviews[i].ReviewerID != viewerID {
			reviews[i].ReviewerID = 0
		}
	}
	if reviews == nil {
		reviews = []model.PeerReview{}
	}
	return reviews, nil
}
