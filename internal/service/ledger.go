package service

import (
	"context"
	"errors"
	"time"

	"skillwise_backend/internal/model"
	"skillwise_backend/internal/repository"
	"skillwise_backend/internal/util"
)

// StreakUpdate RecordActivity 的结果，Applied 为 false 表示乱序事件被忽略
type StreakUpdate struct {
	Streak  model.Streak
	Applied bool
}

// Ledger 积分流水与用户统计聚合
type Ledger struct {
	Store    repository.Store
	Location *time.Location
}

func NewLedger(store repository.Store, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{Store: store, Location: loc}
}

// calendarDay 取 t 自身时区下的年月日，统一表示为 UTC 零点
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextStreak 连续天数状态机
func NextStreak(current model.Streak, eventDay time.Time) (model.Streak, bool) {
	day := calendarDay(eventDay)
	next := current

	if current.LastActivityDate == nil {
		next.Current = 1
	} else {
		last := calendarDay(*current.LastActivityDate)
		switch gap := int(day.Sub(last).Hours() / 24); {
		case gap < 0:
			return current, false
		case gap == 0:
			if next.Current < 1 {
				next.Current = 1
			}
		case gap == 1:
			next.Current++
		default:
			next.Current = 1
		}
	}

	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	next.LastActivityDate = &day
	return next, true
}

// RecordActivity 在事务内更新用户连续活跃天数，同一天多次调用是幂等的
func (l *Ledger) RecordActivity(ctx context.Context, tx repository.Tx, userID uint, eventDate time.Time) (StreakUpdate, error) {
	stats, err := tx.LockStatistics(ctx, userID)
	if err != nil {
		return StreakUpdate{}, err
	}

	current := stats.Streak()
	next, applied := NextStreak(current, eventDate.In(l.Location))
	if !applied {
		return StreakUpdate{Streak: current}, nil
	}

	if err := tx.SaveStreak(ctx, userID, next); err != nil {
		return StreakUpdate{}, err
	}
	return StreakUpdate{Streak: next, Applied: true}, nil
}

// AwardPoints 原子增加积分与指定计数，统计行不存在时自动创建
func (l *Ledger) AwardPoints(ctx context.Context, tx repository.Tx, userID uint, amount int, counters ...model.Counter) error {
	if amount < 0 {
		return util.InvalidInput("points amount must not be negative: %d", amount)
	}
	if amount == 0 && len(counters) == 0 {
		return nil
	}
	return tx.IncrementStatistics(ctx, userID, model.StatisticsDelta{
		Points:   amount,
		Counters: counters,
	})
}

func (l *Ledger) AppendEvent(ctx context.Context, tx repository.Tx, event *model.ProgressEvent) error {
	return tx.AppendEvent(ctx, event)
}

// Statistics 返回用户统计，尚无记录时返回零值
func (l *Ledger) Statistics(ctx context.Context, userID uint) (*model.UserStatistics, error) {
	stats, err := l.Store.FindStatistics(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.UserStatistics{UserID: userID}, nil
	}
	if err != nil {
		return nil, util.Persistence(err)
	}
	return stats, nil
}
