package service

import (
	"context"
	"math"
	"strings"
	"sync"

	"skillwise_backend/internal/model"
	"skillwise_backend/internal/repository"
	"skillwise_backend/internal/util"
)

// QueueOptions 分页与分类筛选
type QueueOptions struct {
	Page     int
	Limit    int
	Category string
}

// QueuePage 评审队列的一页
type QueuePage struct {
	Submissions []model.Submission
	Total       int64
	Page        int
	Limit       int
}

// 偏移量上限，超过即视为非法页码
const maxQueueOffset = math.MaxInt32

// QueueService 计算评审者仍可评审的提交
type QueueService struct {
	Store repository.Store

	mu           sync.RWMutex
	defaultLimit int
	maxLimit     int
}

func NewQueueService(store repository.Store, defaultLimit, maxLimit int) *QueueService {
	s := &QueueService{Store: store}
	s.SetLimits(defaultLimit, maxLimit)
	return s
}

// SetLimits 配置热更新时调用
func (s *QueueService) SetLimits(defaultLimit, maxLimit int) {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultLimit = defaultLimit
	s.maxLimit = maxLimit
}

func (s *QueueService) normalize(opts QueueOptions) (QueueOptions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if opts.Page < 1 {
		opts.Page = util.DefaultPage
	}
	if opts.Limit <= 0 {
		opts.Limit = s.defaultLimit
	}
	if opts.Limit > s.maxLimit {
		opts.Limit = s.maxLimit
	}
	opts.Category = strings.TrimSpace(opts.Category)

	// (page-1)*limit 不能溢出
	if opts.Page-1 > maxQueueOffset/opts.Limit {
		return opts, util.InvalidInput("page %d is out of range", opts.Page)
	}
	return opts, nil
}

// Queue 按提交时间倒序返回待评审提交
func (s *QueueService) Queue(ctx context.Context, reviewerID uint, opts QueueOptions) (*QueuePage, error) {
	opts, err := s.normalize(opts)
	if err != nil {
		return nil, err
	}

	submissions, total, err := s.Store.ReviewQueue(ctx, repository.QueueFilter{
		ReviewerID: reviewerID,
		Category:   opts.Category,
		Quorum:     Quorum,
		Offset:     (opts.Page - 1) * opts.Limit,
		Limit:      opts.Limit,
	})
	if err != nil {
		return nil, util.Persistence(err)
	}
	if submissions == nil {
		submissions = []model.Submission{}
	}

	return &QueuePage{
		Submissions: submissions,
		Total:       total,
		Page:        opts.Page,
		Limit:       opts.Limit,
	}, nil
}
