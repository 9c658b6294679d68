package configwatcher

import (
	"context"
	"path/filepath"
	"time"

	"skillwise_backend/internal/config"
	"skillwise_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = time.Second

// Watch 监听配置目录，写入后防抖重新加载并回调；ctx 取消时退出
func Watch(ctx context.Context, configDir string, reload func(*config.Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(configDir)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(absPath); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					timer.Reset(debounce)
				}
			case <-timer.C:
				newCfg, err := config.LoadConfig(absPath)
				if err != nil {
					logger.Log.Error("Failed to reload config", zap.Error(err))
					continue
				}
				logger.Log.Info("Config reloaded", zap.String("dir", absPath))
				reload(newCfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Log.Error("Config watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
