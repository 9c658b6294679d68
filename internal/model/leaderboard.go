package model

// Timeframe 排行榜时间范围
type Timeframe string

const (
	TimeframeAll     Timeframe = "all"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeAll, TimeframeWeekly, TimeframeMonthly:
		return true
	}
	return false
}

// LeaderboardRow 存储层返回的未排名聚合
type LeaderboardRow struct {
	UserID              uint `json:"userId"`
	TotalPoints         int  `json:"totalPoints"`
	ChallengesCompleted int  `json:"challengesCompleted"`
}

// LeaderboardEntry 带 dense rank 的排行榜条目
// swagger:model LeaderboardEntry
type LeaderboardEntry struct {
	Rank                int  `json:"rank"`
	UserID              uint `json:"userId"`
	TotalPoints         int  `json:"totalPoints"`
	ChallengesCompleted int  `json:"challengesCompleted"`
}
