package service

import (
	"context"

	"skillwise_backend/internal/repository"

	"github.com/montanaflynn/stats"
)

const (
	// Quorum 完成评审所需的独立评审数
	Quorum = 3
	// PassThreshold 作者获得挑战积分的最低分
	PassThreshold = 70
	// ReviewReward 每次被接受的评审给评审者的积分
	ReviewReward = 5
)

// Verdict 共识判定结果
type Verdict struct {
	Finalized bool `json:"finalized"`
	Score     int  `json:"score,omitempty"`
	Passed    bool `json:"passed"`
	Reviews   int  `json:"reviews"`
}

// ScoreFromRatings 把 1-5 的平均评分映射到 0-100
func ScoreFromRatings(ratings []int) (int, error) {
	mean, err := stats.Mean(stats.LoadRawData(ratings))
	if err != nil {
		return 0, err
	}
	rounded, err := stats.Round(mean*20, 0)
	if err != nil {
		return 0, err
	}

	score := int(rounded)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

type QuorumEvaluator struct {
	Quorum int
}

func NewQuorumEvaluator() *QuorumEvaluator {
	return &QuorumEvaluator{Quorum: Quorum}
}

// Evaluate 在事务内判断提交是否达到共识；写入由调用方负责
func (q *QuorumEvaluator) Evaluate(ctx context.Context, tx repository.Tx, submissionID uint) (Verdict, error) {
	ratings, err := tx.CompletedRatings(ctx, submissionID)
	if err != nil {
		return Verdict{}, err
	}

	verdict := Verdict{Reviews: len(ratings)}
	if len(ratings) < q.Quorum {
		return verdict, nil
	}

	score, err := ScoreFromRatings(ratings)
	if err != nil {
		return Verdict{}, err
	}

	verdict.Finalized = true
	verdict.Score = score
	verdict.Passed = score >= PassThreshold
	return verdict, nil
}
