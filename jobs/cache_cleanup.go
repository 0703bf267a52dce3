package jobs

import (
	"context"
	"time"

	"github.com/fenilmodi00/vnmarket/services"
	"github.com/sirupsen/logrus"
)

type CacheCleanupJob struct {
	CacheService *services.CacheService
}

func NewCacheCleanupJob(cacheService *services.CacheService) *CacheCleanupJob {
	return &CacheCleanupJob{CacheService: cacheService}
}

// Start runs the job every interval until ctx is cancelled
func (j *CacheCleanupJob) Start(ctx context.Context, interval time.Duration) {
	logrus.Infof("Starting Cache Cleanup Job (runs every %v)...", interval)
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logrus.Info("Cache Cleanup Job stopped")
				return
			case <-ticker.C:
				j.Run()
			}
		}
	}()
}

// Run removes expired snapshots once and returns how many were removed
func (j *CacheCleanupJob) Run() int {
	removed := j.CacheService.CleanupExpired()
	logrus.WithFields(logrus.Fields{
		"removed":   removed,
		"remaining": j.CacheService.Size(),
	}).Debug("Cache Cleanup Job completed")
	return removed
}
