// Package job 存放网关的定时任务。
package job

import (
	"context"
	"fmt"
	"time"

	"lawguide-go/pkg/log"

	"github.com/robfig/cron/v3"
)

// Sweeper 清理过期会话并返回清理数量。
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// sweepTimeout 限制单次清理的耗时，避免与下一次调度重叠。
const sweepTimeout = time.Minute

// StartJanitor 按 schedule 周期性清理过期会话，返回的 cron 需要在停机时 Stop。
// schedule 支持 "@every 5m" 这类描述符和标准五段表达式。
func StartJanitor(schedule string, sweeper Sweeper) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { runSweep(sweeper) }); err != nil {
		return nil, fmt.Errorf("无效的会话清理周期 %q: %w", schedule, err)
	}
	c.Start()
	log.Infof("[Janitor] 会话清理任务已启动, schedule: %s", schedule)
	return c, nil
}

func runSweep(sweeper Sweeper) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := sweeper.Sweep(ctx)
	if err != nil {
		log.Errorf("[Janitor] 清理过期会话失败: %v", err)
		return
	}
	if n > 0 {
		log.Infof("[Janitor] 清理了 %d 个过期会话", n)
	}
}
