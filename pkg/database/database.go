package database

import (
	"fmt"
	"log"

	"skillwise_backend/internal/config"
	"skillwise_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models 评审子系统拥有或依赖的表
var Models = []interface{}{
	&model.Challenge{},
	&model.Submission{},
	&model.PeerReview{},
	&model.UserStatistics{},
	&model.ProgressEvent{},
}

func InitDB(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	// DATE 列按 UTC 读写，连续天数的日历边界由账本时区决定
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate 自动迁移表结构
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	log.Println("Database migration completed")
	return nil
}
