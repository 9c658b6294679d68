package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"skillwise_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTransactionRollback(t *testing.T) {
	repo := NewMemoryRepository()
	submission := repo.AddSubmission(model.Submission{UserID: 1, ChallengeID: 1})
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateReview(ctx, &model.PeerReview{ReviewerID: 2, SubmissionID: submission.ID, Rating: 4, IsCompleted: true}))
		require.NoError(t, tx.MarkInReview(ctx, submission.ID))
		require.NoError(t, tx.IncrementStatistics(ctx, 2, model.StatisticsDelta{Points: 5, Counters: []model.Counter{model.CounterPeerReviewsGiven}}))
		require.NoError(t, tx.AppendEvent(ctx, &model.ProgressEvent{UserID: 2, EventType: model.EventPeerReviewGiven, PointsEarned: 5}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reviews, err := repo.ListReviews(ctx, submission.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	stored, err := repo.FindSubmission(ctx, submission.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionSubmitted, stored.Status)

	_, err = repo.FindStatistics(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, repo.Events(2))
}

func TestMemoryCreateReviewDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx Tx) error {
		if err := tx.CreateReview(ctx, &model.PeerReview{ReviewerID: 2, SubmissionID: 1, Rating: 3}); err != nil {
			return err
		}
		return tx.CreateReview(ctx, &model.PeerReview{ReviewerID: 2, SubmissionID: 1, Rating: 5})
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryFinalizeSubmissionOnce(t *testing.T) {
	repo := NewMemoryRepository()
	submission := repo.AddSubmission(model.Submission{UserID: 1, ChallengeID: 1, Status: model.SubmissionInReview})
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	var first, second bool
	err := repo.Transaction(ctx, func(tx Tx) error {
		var err error
		if first, err = tx.FinalizeSubmission(ctx, submission.ID, 80, at); err != nil {
			return err
		}
		second, err = tx.FinalizeSubmission(ctx, submission.ID, 40, at.Add(time.Hour))
		return err
	})
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	stored, err := repo.FindSubmission(ctx, submission.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionCompleted, stored.Status)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 80, *stored.Score)
	assert.True(t, stored.FinalizedAt.Equal(at))
}

func TestMemoryMarkInReviewOnlyFromSubmitted(t *testing.T) {
	repo := NewMemoryRepository()
	failed := repo.AddSubmission(model.Submission{UserID: 1, ChallengeID: 1, Status: model.SubmissionFailed})
	ctx := context.Background()

	require.NoError(t, repo.Transaction(ctx, func(tx Tx) error {
		return tx.MarkInReview(ctx, failed.ID)
	}))

	stored, err := repo.FindSubmission(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionFailed, stored.Status)
}

func TestMemoryIncrementStatistics(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Transaction(ctx, func(tx Tx) error {
		return tx.IncrementStatistics(ctx, 3, model.StatisticsDelta{
			Points:   10,
			Counters: []model.Counter{model.CounterChallengesCompleted, model.CounterPeerReviewsReceived, model.CounterPeerReviewsReceived},
		})
	}))

	stats, err := repo.FindStatistics(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalPoints)
	assert.Equal(t, 10, stats.ExperiencePoints)
	assert.Equal(t, 1, stats.ChallengesCompleted)
	assert.Equal(t, 2, stats.PeerReviewsReceived)

	err = repo.Transaction(ctx, func(tx Tx) error {
		return tx.IncrementStatistics(ctx, 3, model.StatisticsDelta{Points: 1, Counters: []model.Counter{"badges"}})
	})
	assert.Error(t, err)

	stats, err = repo.FindStatistics(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalPoints)
}

func TestMemoryTransactionCanceled(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := repo.Transaction(ctx, func(Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.ErrorIs(t, repo.Ping(ctx), context.Canceled)
}

func TestMemoryRankOfCountsDistinctTuplesAhead(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutStatistics(model.UserStatistics{UserID: 1, TotalPoints: 100, ChallengesCompleted: 2})
	repo.PutStatistics(model.UserStatistics{UserID: 2, TotalPoints: 100, ChallengesCompleted: 2})
	repo.PutStatistics(model.UserStatistics{UserID: 3, TotalPoints: 100, ChallengesCompleted: 1})
	repo.PutStatistics(model.UserStatistics{UserID: 4, TotalPoints: 50, ChallengesCompleted: 3})

	row, rank, err := repo.RankOf(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 50, row.TotalPoints)
	assert.Equal(t, 3, rank)

	rows, err := repo.Leaderboard(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, []uint{rows[0].UserID, rows[1].UserID})
}

func TestMemoryReviewQueueClampsOffset(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	ch := repo.AddChallenge(model.Challenge{Title: "c", Category: "algorithms", RequiresPeerReview: true})
	for i := 0; i < 3; i++ {
		repo.AddSubmission(model.Submission{ChallengeID: ch.ID, UserID: 1})
	}

	var (
		page  []model.Submission
		total int64
		err   error
	)
	require.NotPanics(t, func() {
		page, total, err = repo.ReviewQueue(ctx, QueueFilter{ReviewerID: 9, Quorum: 3, Offset: -20, Limit: 2})
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	// 超大 limit 不会让 offset+limit 溢出
	page, _, err = repo.ReviewQueue(ctx, QueueFilter{ReviewerID: 9, Quorum: 3, Offset: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}
