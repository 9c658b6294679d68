package repository

import (
	"context"
	"testing"
	"time"

	"skillwise_backend/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*ReviewRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return NewReviewRepository(db), mock
}

func TestGormFinalizeSubmissionReportsRowsAffected(t *testing.T) {
	cases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "already completed", affected: 0, want: false},
		{name: "first finalize", affected: 1, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			ctx := context.Background()
			at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE `submissions` SET .*`finalized_at`=\\?.*`score`=\\?.*`status`=\\?.*WHERE id = \\? AND status <> \\?").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			var finalized bool
			err := repo.Transaction(ctx, func(tx Tx) error {
				var err error
				finalized, err = tx.FinalizeSubmission(ctx, 3, 80, at)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, finalized)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormCreateReviewTranslatesDuplicateKey(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `peer_reviews`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry '11-3' for key 'idx_reviewer_submission'"})
	mock.ExpectRollback()

	err := repo.Transaction(ctx, func(tx Tx) error {
		return tx.CreateReview(ctx, &model.PeerReview{ReviewerID: 11, RevieweeID: 1, SubmissionID: 3, Rating: 4, Feedback: "Good", IsCompleted: true})
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLockSubmissionUsesRowLock(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `submissions` WHERE `submissions`.`id` = \\? .*FOR UPDATE").
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "challenge_id", "status"}))
	mock.ExpectRollback()

	err := repo.Transaction(ctx, func(tx Tx) error {
		_, err := tx.LockSubmission(ctx, 3)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReviewQueueFiltersAndOrders(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()
	const reviewer uint = 9

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `submissions` JOIN challenges ON challenges.id = submissions.challenge_id " +
		"WHERE submissions.user_id <> \\? AND challenges.requires_peer_review = \\? AND submissions.status IN \\(\\?,\\?\\) " +
		"AND \\(?NOT EXISTS \\(SELECT 1 FROM peer_reviews pr WHERE pr.submission_id = submissions.id AND pr.reviewer_id = \\?\\)\\)? " +
		"AND \\(?\\(SELECT COUNT\\(\\*\\) FROM peer_reviews pc WHERE pc.submission_id = submissions.id AND pc.is_completed = \\?\\) < \\?\\)? " +
		"AND challenges.category = \\?").
		WithArgs(reviewer, true, "submitted", "in_review", reviewer, true, 3, "algorithms").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(12))

	mock.ExpectQuery("SELECT submissions.\\* FROM `submissions` JOIN challenges .*" +
		"ORDER BY submissions.submitted_at DESC, submissions.id DESC LIMIT \\? OFFSET \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "challenge_id", "status"}).
			AddRow(8, 2, 1, "in_review").
			AddRow(5, 3, 1, "submitted"))

	submissions, total, err := repo.ReviewQueue(ctx, QueueFilter{
		ReviewerID: reviewer,
		Category:   "algorithms",
		Quorum:     3,
		Offset:     10,
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, submissions, 2)
	assert.Equal(t, uint(8), submissions[0].ID)
	assert.Equal(t, model.SubmissionSubmitted, submissions[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPeriodLeaderboardAggregatesEvents(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM \\(SELECT user_id, SUM\\(points_earned\\) AS total_points, " +
		"SUM\\(CASE WHEN event_type = \\? THEN 1 ELSE 0 END\\) AS challenges_completed FROM `progress_events` " +
		"WHERE created_at >= \\? GROUP BY `user_id`\\) AS agg " +
		"ORDER BY total_points DESC, challenges_completed DESC, user_id ASC LIMIT \\?").
		WithArgs("challenge_completed", since, 5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "total_points", "challenges_completed"}).
			AddRow(4, 205, 1).
			AddRow(11, 10, 0))

	rows, err := repo.Leaderboard(ctx, &since, 5)
	require.NoError(t, err)
	assert.Equal(t, []model.LeaderboardRow{
		{UserID: 4, TotalPoints: 205, ChallengesCompleted: 1},
		{UserID: 11, TotalPoints: 10},
	}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRankOfCountsDistinctTuplesAhead(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT \\* FROM \\(SELECT user_id, total_points, challenges_completed FROM `user_statistics`\\) AS agg WHERE user_id = \\?").
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "total_points", "challenges_completed"}).AddRow(7, 100, 1))

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM \\(SELECT DISTINCT `total_points`,`challenges_completed` FROM " +
		"\\(SELECT user_id, total_points, challenges_completed FROM `user_statistics`\\) AS agg " +
		"WHERE total_points > \\? OR \\(total_points = \\? AND challenges_completed > \\?\\)\\) AS ahead").
		WithArgs(100, 100, 1).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(2))

	row, rank, err := repo.RankOf(ctx, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, rank)
	assert.Equal(t, 100, row.TotalPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormIncrementStatisticsUsesColumnExpressions(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_statistics` .*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE `user_statistics` SET `experience_points`=experience_points \\+ \\?," +
		"`peer_reviews_given`=peer_reviews_given \\+ \\?,`total_points`=total_points \\+ \\?,`updated_at`=\\? " +
		"WHERE user_id = \\?").
		WithArgs(5, 2, 5, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Transaction(ctx, func(tx Tx) error {
		return tx.IncrementStatistics(ctx, 7, model.StatisticsDelta{
			Points:   5,
			Counters: []model.Counter{model.CounterPeerReviewsGiven, model.CounterPeerReviewsGiven},
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormIncrementStatisticsRejectsUnknownCounter(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_statistics`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Transaction(ctx, func(tx Tx) error {
		return tx.IncrementStatistics(ctx, 7, model.StatisticsDelta{Counters: []model.Counter{"badges"}})
	})
	assert.ErrorContains(t, err, "unknown statistics counter")
	assert.NoError(t, mock.ExpectationsWereMet())
}
