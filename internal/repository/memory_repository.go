package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"skillwise_backend/internal/model"
)

// MemoryRepository 内存实现，事务在副本上执行，成功后整体替换
type MemoryRepository struct {
	mu    sync.Mutex
	state *memoryState
	now   func() time.Time
}

var _ Store = (*MemoryRepository)(nil)

type memoryState struct {
	challenges  map[uint]model.Challenge
	submissions map[uint]model.Submission
	reviews     []model.PeerReview
	stats       map[uint]model.UserStatistics
	events      []model.ProgressEvent

	nextChallengeID  uint
	nextSubmissionID uint
	nextReviewID     uint
	nextEventID      uint
}

func newMemoryState() *memoryState {
	return &memoryState{
		challenges:  make(map[uint]model.Challenge),
		submissions: make(map[uint]model.Submission),
		stats:       make(map[uint]model.UserStatistics),
	}
}

func (s *memoryState) clone() *memoryState {
	c := *s
	c.challenges = make(map[uint]model.Challenge, len(s.challenges))
	for k, v := range s.challenges {
		c.challenges[k] = v
	}
	c.submissions = make(map[uint]model.Submission, len(s.submissions))
	for k, v := range s.submissions {
		c.submissions[k] = v
	}
	c.stats = make(map[uint]model.UserStatistics, len(s.stats))
	for k, v := range s.stats {
		c.stats[k] = v
	}
	c.reviews = append([]model.PeerReview(nil), s.reviews...)
	c.events = append([]model.ProgressEvent(nil), s.events...)
	return &c
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		state: newMemoryState(),
		now:   time.Now,
	}
}

// SetClock 替换事务内使用的时钟
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// AddChallenge 模拟挑战目录写入
func (m *MemoryRepository) AddChallenge(challenge model.Challenge) model.Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	if challenge.ID == 0 {
		m.state.nextChallengeID++
		challenge.ID = m.state.nextChallengeID
	} else if challenge.ID > m.state.nextChallengeID {
		m.state.nextChallengeID = challenge.ID
	}
	m.state.challenges[challenge.ID] = challenge
	return challenge
}

// AddSubmission 模拟作者开始挑战时创建提交
func (m *MemoryRepository) AddSubmission(submission model.Submission) model.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	if submission.ID == 0 {
		m.state.nextSubmissionID++
		submission.ID = m.state.nextSubmissionID
	} else if submission.ID > m.state.nextSubmissionID {
		m.state.nextSubmissionID = submission.ID
	}
	if submission.Status == "" {
		submission.Status = model.SubmissionSubmitted
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = m.now()
	}
	m.state.submissions[submission.ID] = submission
	return submission
}

// PutStatistics 直接写入统计行，仅用于构造测试前置状态
func (m *MemoryRepository) PutStatistics(stats model.UserStatistics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.stats[stats.UserID] = stats
}

// Events 返回用户的积分流水
func (m *MemoryRepository) Events(userID uint) []model.ProgressEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []model.ProgressEvent
	for _, e := range m.state.events {
		if e.UserID == userID {
			events = append(events, e)
		}
	}
	return events
}

func (m *MemoryRepository) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := m.state.clone()
	if err := fn(&memoryTx{state: work, now: m.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryRepository) FindSubmission(_ context.Context, submissionID uint) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	submission, ok := m.state.submissions[submissionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &submission, nil
}

func (m *MemoryRepository) ListReviews(_ context.Context, submissionID uint) ([]model.PeerReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var reviews []model.PeerReview
	for _, r := range m.state.reviews {
		if r.SubmissionID == submissionID {
			reviews = append(reviews, r)
		}
	}
	return reviews, nil
}

func (m *MemoryRepository) ReviewQueue(_ context.Context, filter QueueFilter) ([]model.Submission, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []model.Submission
	for _, s := range m.state.submissions {
		if s.UserID == filter.ReviewerID || !s.Status.Reviewable() {
			continue
		}
		challenge, ok := m.state.challenges[s.ChallengeID]
		if !ok || !challenge.RequiresPeerReview {
			continue
		}
		if filter.Category != "" && challenge.Category != filter.Category {
			continue
		}
		if m.state.hasReview(filter.ReviewerID, s.ID) || len(m.state.completedRatings(s.ID)) >= filter.Quorum {
			continue
		}
		matched = append(matched, s)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SubmittedAt.Equal(matched[j].SubmittedAt) {
			return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []model.Submission{}, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Limit < end-offset {
		end = offset + filter.Limit
	}
	return matched[offset:end], total, nil
}

func (m *MemoryRepository) FindStatistics(_ context.Context, userID uint) (*model.UserStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.state.stats[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &stats, nil
}

func (m *MemoryRepository) Leaderboard(_ context.Context, since *time.Time, limit int) ([]model.LeaderboardRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.state.leaderboardRows(since)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *MemoryRepository) RankOf(_ context.Context, since *time.Time, userID uint) (*model.LeaderboardRow, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.state.leaderboardRows(since)
	row := model.LeaderboardRow{UserID: userID}
	for _, r := range rows {
		if r.UserID == userID {
			row = r
			break
		}
	}

	type tuple struct{ points, completed int }
	ahead := make(map[tuple]struct{})
	for _, r := range rows {
		if r.TotalPoints > row.TotalPoints ||
			(r.TotalPoints == row.TotalPoints && r.ChallengesCompleted > row.ChallengesCompleted) {
			ahead[tuple{r.TotalPoints, r.ChallengesCompleted}] = struct{}{}
		}
	}
	return &row, len(ahead) + 1, nil
}

func (s *memoryState) hasReview(reviewerID, submissionID uint) bool {
	for _, r := range s.reviews {
		if r.ReviewerID == reviewerID && r.SubmissionID == submissionID {
			return true
		}
	}
	return false
}

func (s *memoryState) completedRatings(submissionID uint) []int {
	var ratings []int
	for _, r := range s.reviews {
		if r.SubmissionID == submissionID && r.IsCompleted {
			ratings = append(ratings, r.Rating)
		}
	}
	return ratings
}

func (s *memoryState) leaderboardRows(since *time.Time) []model.LeaderboardRow {
	var rows []model.LeaderboardRow
	if since == nil {
		for _, st := range s.stats {
			rows = append(rows, model.LeaderboardRow{
				UserID:              st.UserID,
				TotalPoints:         st.TotalPoints,
				ChallengesCompleted: st.ChallengesCompleted,
			})
		}
	} else {
		byUser := make(map[uint]*model.LeaderboardRow)
		for _, e := range s.events {
			if e.CreatedAt.Before(*since) {
				continue
			}
			row, ok := byUser[e.UserID]
			if !ok {
				row = &model.LeaderboardRow{UserID: e.UserID}
				byUser[e.UserID] = row
			}
			row.TotalPoints += e.PointsEarned
			if e.EventType == model.EventChallengeCompleted {
				row.ChallengesCompleted++
			}
		}
		for _, row := range byUser {
			rows = append(rows, *row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		if rows[i].ChallengesCompleted != rows[j].ChallengesCompleted {
			return rows[i].ChallengesCompleted > rows[j].ChallengesCompleted
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows
}

type memoryTx struct {
	state *memoryState
	now   func() time.Time
}

func (t *memoryTx) LockSubmission(_ context.Context, submissionID uint) (*model.Submission, error) {
	submission, ok := t.state.submissions[submissionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &submission, nil
}

func (t *memoryTx) FindChallenge(_ context.Context, challengeID uint) (*model.Challenge, error) {
	challenge, ok := t.state.challenges[challengeID]
	if !ok {
		return nil, ErrNotFound
	}
	return &challenge, nil
}

func (t *memoryTx) HasReview(_ context.Context, reviewerID, submissionID uint) (bool, error) {
	return t.state.hasReview(reviewerID, submissionID), nil
}

func (t *memoryTx) CompletedRatings(_ context.Context, submissionID uint) ([]int, error) {
	return t.state.completedRatings(submissionID), nil
}

func (t *memoryTx) CreateReview(_ context.Context, review *model.PeerReview) error {
	if t.state.hasReview(review.ReviewerID, review.SubmissionID) {
		return ErrDuplicate
	}
	t.state.nextReviewID++
	review.ID = t.state.nextReviewID
	if review.CreatedAt.IsZero() {
		review.CreatedAt = t.now()
	}
	t.state.reviews = append(t.state.reviews, *review)
	return nil
}

func (t *memoryTx) MarkInReview(_ context.Context, submissionID uint) error {
	submission, ok := t.state.submissions[submissionID]
	if !ok || submission.Status != model.SubmissionSubmitted {
		return nil
	}
	submission.Status = model.SubmissionInReview
	submission.UpdatedAt = t.now()
	t.state.submissions[submissionID] = submission
	return nil
}

func (t *memoryTx) FinalizeSubmission(_ context.Context, submissionID uint, score int, at time.Time) (bool, error) {
	submission, ok := t.state.submissions[submissionID]
	if !ok || submission.Status == model.SubmissionCompleted {
		return false, nil
	}
	finalizedAt := at
	submission.Status = model.SubmissionCompleted
	submission.Score = &score
	submission.FinalizedAt = &finalizedAt
	submission.UpdatedAt = at
	t.state.submissions[submissionID] = submission
	return true, nil
}

func (t *memoryTx) ensureStatistics(userID uint) model.UserStatistics {
	stats, ok := t.state.stats[userID]
	if !ok {
		now := t.now()
		stats = model.UserStatistics{UserID: userID, CreatedAt: now, UpdatedAt: now}
		t.state.stats[userID] = stats
	}
	return stats
}

func (t *memoryTx) LockStatistics(_ context.Context, userID uint) (*model.UserStatistics, error) {
	stats := t.ensureStatistics(userID)
	return &stats, nil
}

func (t *memoryTx) IncrementStatistics(_ context.Context, userID uint, delta model.StatisticsDelta) error {
	stats := t.ensureStatistics(userID)
	stats.TotalPoints += delta.Points
	stats.ExperiencePoints += delta.Points
	for _, counter := range delta.Counters {
		switch counter {
		case model.CounterChallengesCompleted:
			stats.ChallengesCompleted++
		case model.CounterPeerReviewsGiven:
			stats.PeerReviewsGiven++
		case model.CounterPeerReviewsReceived:
			stats.PeerReviewsReceived++
		default:
			return fmt.Errorf("unknown statistics counter %q", counter)
		}
	}
	stats.UpdatedAt = t.now()
	t.state.stats[userID] = stats
	return nil
}

func (t *memoryTx) SaveStreak(_ context.Context, userID uint, streak model.Streak) error {
	stats := t.ensureStatistics(userID)
	stats.CurrentStreakDays = streak.Current
	stats.LongestStreakDays = streak.Longest
	stats.LastActivityDate = streak.LastActivityDate
	stats.UpdatedAt = t.now()
	t.state.stats[userID] = stats
	return nil
}

func (t *memoryTx) AppendEvent(_ context.Context, event *model.ProgressEvent) error {
	t.state.nextEventID++
	event.ID = t.state.nextEventID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = t.now()
	}
	t.state.events = append(t.state.events, *event)
	return nil
}
