// 本地联调用的演示数据脚本
//
// 写入若干需要同伴评审的挑战和待评审提交，并为每个演示用户打印一个 JWT。
// 已存在同名挑战时跳过，重复执行不会产生重复数据。
//
// 用法: go run scripts/seed_demo.go --config-dir configs

package main

import (
	"fmt"
	"log"
	"time"

	"skillwise_backend/internal/config"
	"skillwise_backend/internal/model"
	"skillwise_backend/internal/util"
	"skillwise_backend/pkg/database"
	"skillwise_backend/pkg/logger"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var demoChallenges = []model.Challenge{
	{Title: "实现一个 LRU 缓存", Category: "algorithms", PointsReward: 50, RequiresPeerReview: true},
	{Title: "设计短链服务", Category: "system-design", PointsReward: 80, RequiresPeerReview: true},
	{Title: "重构遗留的订单模块", Category: "refactoring", PointsReward: 40, RequiresPeerReview: true},
	{Title: "两数之和", Category: "algorithms", PointsReward: 10, RequiresPeerReview: false},
}

func main() {
	configDir := flag.String("config-dir", "configs", "配置文件目录")
	users := flag.Uint("users", 5, "演示用户数量")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	if err := seed(db, uint(*users)); err != nil {
		logger.Log.Fatal("写入演示数据失败", zap.Error(err))
	}

	for id := uint(1); id <= uint(*users); id++ {
		token, err := util.GenerateJWT(id, "student", cfg.JWT.Secret, 24*time.Hour)
		if err != nil {
			log.Fatalf("生成令牌失败: %v", err)
		}
		fmt.Printf("user %d: %s\n", id, token)
	}
	log.Println("完成！")
}

func seed(db *gorm.DB, users uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for i := range demoChallenges {
			challenge := demoChallenges[i]
			var existing model.Challenge
			err := tx.Where("title = ?", challenge.Title).First(&existing).Error
			if err == nil {
				logger.Log.Info("Challenge already seeded", zap.String("title", challenge.Title))
				continue
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}
			if err := tx.Create(&challenge).Error; err != nil {
				return err
			}

			// 每个用户提交一份，提交时间错开便于观察队列排序
			for u := uint(1); u <= users; u++ {
				submission := model.Submission{
					UserID:      u,
					ChallengeID: challenge.ID,
					Content:     fmt.Sprintf("demo solution by user %d", u),
					Status:      model.SubmissionSubmitted,
					SubmittedAt: now.Add(-time.Duration(u) * time.Hour),
				}
				if err := tx.Create(&submission).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
