package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillwise_backend/internal/model"
	"skillwise_backend/internal/repository"
	"skillwise_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func TestNextStreak(t *testing.T) {
	cases := []struct {
		name        string
		current     model.Streak
		event       time.Time
		wantCurrent int
		wantLongest int
		wantApplied bool
	}{
		{
			name:        "first activity",
			current:     model.Streak{},
			event:       day(2024, 1, 1),
			wantCurrent: 1,
			wantLongest: 1,
			wantApplied: true,
		},
		{
			name:        "next day extends streak",
			current:     model.Streak{LastActivityDate: datePtr(2024, 1, 1), Current: 5, Longest: 5},
			event:       day(2024, 1, 2),
			wantCurrent: 6,
			wantLongest: 6,
			wantApplied: true,
		},
		{
			name:        "gap resets streak and keeps longest",
			current:     model.Streak{LastActivityDate: datePtr(2024, 1, 2), Current: 6, Longest: 6},
			event:       day(2024, 1, 10),
			wantCurrent: 1,
			wantLongest: 6,
			wantApplied: true,
		},
		{
			name:        "same day is idempotent",
			current:     model.Streak{LastActivityDate: datePtr(2024, 1, 2), Current: 3, Longest: 8},
			event:       time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC),
			wantCurrent: 3,
			wantLongest: 8,
			wantApplied: true,
		},
		{
			name:        "out of order event is ignored",
			current:     model.Streak{LastActivityDate: datePtr(2024, 1, 5), Current: 2, Longest: 4},
			event:       day(2024, 1, 3),
			wantCurrent: 2,
			wantLongest: 4,
			wantApplied: false,
		},
		{
			name:        "month boundary counts as consecutive",
			current:     model.Streak{LastActivityDate: datePtr(2024, 1, 31), Current: 1, Longest: 1},
			event:       day(2024, 2, 1),
			wantCurrent: 2,
			wantLongest: 2,
			wantApplied: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, applied := NextStreak(tc.current, tc.event)
			assert.Equal(t, tc.wantApplied, applied)
			assert.Equal(t, tc.wantCurrent, next.Current)
			assert.Equal(t, tc.wantLongest, next.Longest)
			require.NotNil(t, next.LastActivityDate)
			if applied {
				assert.True(t, next.LastActivityDate.Equal(calendarDay(tc.event)))
			}
		})
	}
}

func TestNextStreakLongestNeverDecreases(t *testing.T) {
	streak := model.Streak{}
	longest := 0
	events := []time.Time{
		day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3),
		day(2024, 1, 7), day(2024, 1, 8), day(2024, 1, 8),
		day(2024, 1, 4), day(2024, 2, 1),
	}
	for _, e := range events {
		streak, _ = NextStreak(streak, e)
		assert.GreaterOrEqual(t, streak.Longest, longest)
		assert.GreaterOrEqual(t, streak.Longest, streak.Current)
		longest = streak.Longest
	}
	assert.Equal(t, 3, streak.Longest)
	assert.Equal(t, 1, streak.Current)
}

func TestRecordActivityUsesLedgerTimezone(t *testing.T) {
	repo := repository.NewMemoryRepository()
	shanghai := time.FixedZone("UTC+8", 8*3600)
	ledger := NewLedger(repo, shanghai)
	ctx := context.Background()

	repo.PutStatistics(model.UserStatistics{
		UserID:            7,
		LastActivityDate:  datePtr(2024, 1, 1),
		CurrentStreakDays: 5,
		LongestStreakDays: 5,
	})

	// UTC 1月1日 20:00 在 UTC+8 已是 1月2日
	var update StreakUpdate
	err := repo.Transaction(ctx, func(tx repository.Tx) error {
		var err error
		update, err = ledger.RecordActivity(ctx, tx, 7, time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC))
		return err
	})
	require.NoError(t, err)
	assert.True(t, update.Applied)
	assert.Equal(t, 6, update.Streak.Current)

	stats, err := repo.FindStatistics(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.CurrentStreakDays)
	assert.Equal(t, 6, stats.LongestStreakDays)
	assert.True(t, stats.LastActivityDate.Equal(day(2024, 1, 2)))
}

func TestRecordActivityOutOfOrderLeavesRowUntouched(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ledger := NewLedger(repo, nil)
	ctx := context.Background()
	repo.PutStatistics(model.UserStatistics{
		UserID:            3,
		LastActivityDate:  datePtr(2024, 3, 10),
		CurrentStreakDays: 4,
		LongestStreakDays: 9,
	})

	err := repo.Transaction(ctx, func(tx repository.Tx) error {
		update, err := ledger.RecordActivity(ctx, tx, 3, day(2024, 3, 1))
		assert.False(t, update.Applied)
		return err
	})
	require.NoError(t, err)

	stats, err := repo.FindStatistics(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.CurrentStreakDays)
	assert.Equal(t, 9, stats.LongestStreakDays)
	assert.True(t, stats.LastActivityDate.Equal(day(2024, 3, 10)))
}

func TestAwardPoints(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ledger := NewLedger(repo, time.UTC)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx repository.Tx) error {
		if err := ledger.AwardPoints(ctx, tx, 5, 200, model.CounterChallengesCompleted); err != nil {
			return err
		}
		return ledger.AwardPoints(ctx, tx, 5, ReviewReward, model.CounterPeerReviewsGiven, model.CounterPeerReviewsGiven)
	})
	require.NoError(t, err)

	stats, err := ledger.Statistics(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 205, stats.TotalPoints)
	assert.Equal(t, 205, stats.ExperiencePoints)
	assert.Equal(t, 1, stats.ChallengesCompleted)
	assert.Equal(t, 2, stats.PeerReviewsGiven)
}

func TestAwardPointsRejectsNegative(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ledger := NewLedger(repo, time.UTC)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx repository.Tx) error {
		return ledger.AwardPoints(ctx, tx, 5, -1)
	})
	assert.True(t, errors.Is(err, util.ErrInvalidInput))

	_, err = repo.FindStatistics(ctx, 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStatisticsZeroValueForUnknownUser(t *testing.T) {
	ledger := NewLedger(repository.NewMemoryRepository(), time.UTC)

	stats, err := ledger.Statistics(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), stats.UserID)
	assert.Zero(t, stats.TotalPoints)
	assert.Nil(t, stats.LastActivityDate)
}
