package service

import (
	"context"
	"sync"
	"time"

	"skillwise_backend/internal/model"
	"skillwise_backend/internal/repository"
	"skillwise_backend/internal/util"
	"skillwise_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxLeaderboardLimit = 100

// LeaderboardCache 排行榜结果缓存，按代数隔离，失效即进入新一代
type LeaderboardCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, generation int64, timeframe model.Timeframe, limit int) ([]model.LeaderboardEntry, bool, error)
	Set(ctx context.Context, generation int64, timeframe model.Timeframe, limit int, entries []model.LeaderboardEntry) error
}

// LeaderboardOverview 排行榜和当前用户的名次
type LeaderboardOverview struct {
	Timeframe model.Timeframe          `json:"timeframe"`
	Entries   []model.LeaderboardEntry `json:"entries"`
	Me        *model.LeaderboardEntry  `json:"me,omitempty"`
}

type LeaderboardService struct {
	Store repository.Store
	Cache LeaderboardCache
	Now   func() time.Time

	mu           sync.RWMutex
	defaultLimit int
}

func NewLeaderboardService(store repository.Store, cache LeaderboardCache, defaultLimit int) *LeaderboardService {
	s := &LeaderboardService{Store: store, Cache: cache, Now: time.Now}
	s.SetDefaultLimit(defaultLimit)
	return s
}

func (s *LeaderboardService) SetDefaultLimit(limit int) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultLimit = limit
}

// Since 计算时间窗口起点，all 返回 nil
func Since(timeframe model.Timeframe, now time.Time) *time.Time {
	var since time.Time
	switch timeframe {
	case model.TimeframeWeekly:
		since = now.AddDate(0, 0, -7)
	case model.TimeframeMonthly:
		since = now.AddDate(0, 0, -30)
	default:
		return nil
	}
	return &since
}

// DenseRank 输入已按 (points desc, completed desc) 排序
func DenseRank(rows []model.LeaderboardRow) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, len(rows))
	rank := 0
	for i, row := range rows {
		if i == 0 || row.TotalPoints != rows[i-1].TotalPoints || row.ChallengesCompleted != rows[i-1].ChallengesCompleted {
			rank++
		}
		entries[i] = model.LeaderboardEntry{
			Rank:                rank,
			UserID:              row.UserID,
			TotalPoints:         row.TotalPoints,
			ChallengesCompleted: row.ChallengesCompleted,
		}
	}
	return entries
}

func (s *LeaderboardService) resolve(timeframe model.Timeframe, limit int) (model.Timeframe, int, error) {
	if timeframe == "" {
		timeframe = model.TimeframeAll
	}
	if !timeframe.Valid() {
		return "", 0, util.InvalidInput("unknown timeframe %q", timeframe)
	}
	if limit <= 0 {
		s.mu.RLock()
		limit = s.defaultLimit
		s.mu.RUnlock()
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	return timeframe, limit, nil
}

// Rank weekly/monthly 汇总窗口内的积分流水，all 使用累计统计
func (s *LeaderboardService) Rank(ctx context.Context, timeframe model.Timeframe, limit int) ([]model.LeaderboardEntry, error) {
	timeframe, limit, err := s.resolve(timeframe, limit)
	if err != nil {
		return nil, err
	}

	// 代数在读库之前取得，读库期间发生的失效会让这次回填落在旧代数上
	cached := s.Cache != nil
	var generation int64
	if cached {
		generation, err = s.Cache.Generation(ctx)
		if err != nil {
			logger.Log.Warn("leaderboard cache generation read failed", zap.Error(err))
			cached = false
		}
	}

	if cached {
		entries, ok, err := s.Cache.Get(ctx, generation, timeframe, limit)
		if err != nil {
			logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
		} else if ok {
			return entries, nil
		}
	}

	rows, err := s.Store.Leaderboard(ctx, Since(timeframe, s.Now()), limit)
	if err != nil {
		return nil, util.Persistence(err)
	}
	entries := DenseRank(rows)

	if cached {
		if err := s.Cache.Set(ctx, generation, timeframe, limit, entries); err != nil {
			logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}

// UserRank 当前用户的 dense rank，没有任何积分时排在所有有积分用户之后
func (s *LeaderboardService) UserRank(ctx context.Context, userID uint, timeframe model.Timeframe) (*model.LeaderboardEntry, error) {
	timeframe, _, err := s.resolve(timeframe, 0)
	if err != nil {
		return nil, err
	}

	row, rank, err := s.Store.RankOf(ctx, Since(timeframe, s.Now()), userID)
	if err != nil {
		return nil, util.Persistence(err)
	}
	return &model.LeaderboardEntry{
		Rank:                rank,
		UserID:              row.UserID,
		TotalPoints:         row.TotalPoints,
		ChallengesCompleted: row.ChallengesCompleted,
	}, nil
}

// Overview 并发读取排行榜与当前用户名次
func (s *LeaderboardService) Overview(ctx context.Context, userID uint, timeframe model.Timeframe, limit int) (*LeaderboardOverview, error) {
	timeframe, limit, err := s.resolve(timeframe, limit)
	if err != nil {
		return nil, err
	}

	overview := &LeaderboardOverview{Timeframe: timeframe}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.Rank(gctx, timeframe, limit)
		overview.Entries = entries
		return err
	})
	g.Go(func() error {
		me, err := s.UserRank(gctx, userID, timeframe)
		overview.Me = me
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}
