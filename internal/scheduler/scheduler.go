package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pipedash/internal/pkg/config"
)

// Job 定时任务
type Job func(ctx context.Context) error

// Scheduler 调度器
type Scheduler struct {
	cron          *cron.Cron
	logger        *zap.Logger
	timeout       time.Duration
	cronSchedules map[string]cron.EntryID // 存储任务ID，便于管理

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewScheduler 创建调度器
func NewScheduler(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		// cron 表达式格式: 秒 分 时 日 月 周
		cron:          cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:        logger,
		timeout:       10 * time.Minute,
		cronSchedules: make(map[string]cron.EntryID),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Register 注册任务，表达式为空时跳过
func (s *Scheduler) Register(name, expr string, job Job) error {
	log := s.logger.Sugar()
	if expr == "" {
		log.Infof("未配置 %s 的 cron，跳过", name)
		return nil
	}

	entryID, err := s.cron.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			log.Errorf("定时任务 %s 执行失败: %v", name, err)
			return
		}
		log.Infof("定时任务 %s 完成，耗时 %s", name, time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("注册定时任务 %s(%s) 失败: %w", name, expr, err)
	}

	s.mu.Lock()
	s.cronSchedules[name] = entryID
	s.mu.Unlock()
	log.Infof("定时任务已注册: %s %s entry_id=%d", name, expr, entryID)
	return nil
}

// Jobs 业务侧提供的定时任务
type Jobs struct {
	SyncPipelines   Job
	ReconcileHooks  Job
	CleanupSessions Job
}

// RegisterJobs 按配置注册全部任务
func (s *Scheduler) RegisterJobs(cfg *config.SyncConfig, jobs Jobs) error {
	if err := s.Register("pipeline_sync", cfg.Cron, jobs.SyncPipelines); err != nil {
		return err
	}
	if err := s.Register("webhook_reconcile", cfg.ReconcileCron, jobs.ReconcileHooks); err != nil {
		return err
	}
	return s.Register("session_cleanup", cfg.SessionCleanupCron, jobs.CleanupSessions)
}

// Entries 已注册的任务名
func (s *Scheduler) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.cronSchedules))
	for name := range s.cronSchedules {
		names = append(names, name)
	}
	return names
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("定时任务调度器启动成功")
}

// Stop 停止调度器，取消运行中任务的 context 并等待其退出
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}
