// Package scheduler 在 gocron/v2 之上运行后台维护任务（如过期草稿构建包的清理），
// 并为每个任务保留最近一次运行的记录，供 /api/v1/scheduler/jobs 接口查询.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/kitvault/pkg/log"
	"github.com/yeisme/kitvault/pkg/metrics"
)

// ErrJobNotFound 任务不存在.
var ErrJobNotFound = errors.New("job not found")

// JobStatus 任务状态.
type JobStatus string

const (
	StatusIdle    JobStatus = "idle"
	StatusRunning JobStatus = "running"
	StatusFailed  JobStatus = "failed"
)

// Task 一次任务执行，返回错误时本次运行记为失败.
type Task func(ctx context.Context) error

// JobInfo 任务的调度与运行记录.
type JobInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	CronExpr    string        `json:"cron_expr"`
	Status      JobStatus     `json:"status"`
	NextRun     time.Time     `json:"next_run"`
	LastRun     time.Time     `json:"last_run"`
	LastSuccess time.Time     `json:"last_success,omitempty"`
	LastElapsed time.Duration `json:"last_elapsed"`
	Runs        int           `json:"runs"`
	Failures    int           `json:"failures"`
	Error       string        `json:"error,omitempty"`
}

type entry struct {
	job  gocron.Job
	info JobInfo
}

// Scheduler 按名称登记任务，同名任务只能存在一个.
type Scheduler struct {
	cron   gocron.Scheduler
	logger zerolog.Logger

	mu   sync.RWMutex
	jobs map[string]*entry
	ids  map[uuid.UUID]string
}

// NewScheduler 创建调度器，调用 Start 后任务才开始运行.
func NewScheduler() (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Scheduler{
		cron:   cron,
		logger: log.Component("scheduler"),
		jobs:   make(map[string]*entry),
		ids:    make(map[uuid.UUID]string),
	}, nil
}

// AddCron 以 cron 表达式（五段）登记任务，ctx 会传给每次执行.
// 同一任务不会并发执行：上一次未结束时本次被跳过.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %s already registered", name)
	}

	job, err := s.cron.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func(ctx context.Context) { s.run(ctx, name, task) }, ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	s.jobs[name] = &entry{
		job: job,
		info: JobInfo{
			ID:       job.ID().String(),
			Name:     name,
			CronExpr: cronExpr,
			Status:   StatusIdle,
		},
	}
	s.ids[job.ID()] = name

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("job registered")

	return nil
}

func (s *Scheduler) run(ctx context.Context, name string, task Task) {
	started := time.Now()
	s.mark(name, func(info *JobInfo) {
		info.Status = StatusRunning
		info.LastRun = started
	})

	err := invoke(ctx, task)
	elapsed := time.Since(started)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}

	metrics.JobRuns.WithLabelValues(name, result).Inc()

	s.mark(name, func(info *JobInfo) {
		info.Runs++
		info.LastElapsed = elapsed

		if err != nil {
			info.Failures++
			info.Status = StatusFailed
			info.Error = err.Error()

			return
		}

		info.Status = StatusIdle
		info.Error = ""
		info.LastSuccess = started.Add(elapsed)
	})

	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Dur("elapsed", elapsed).Msg("job failed")
		return
	}

	s.logger.Debug().Str("job", name).Dur("elapsed", elapsed).Msg("job finished")
}

func invoke(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return task(ctx)
}

// mark 在锁内修改任务记录，任务已被移除时忽略.
func (s *Scheduler) mark(name string, fn func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.jobs[name]; ok {
		fn(&e.info)
	}
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.GetJobInfos())).Msg("scheduler started")
	s.cron.Start()
}

// Shutdown 停止调度并等待正在运行的任务结束.
func (s *Scheduler) Shutdown() error {
	s.logger.Info().Msg("scheduler stopping")
	return s.cron.Shutdown()
}

// StopJobs 停止所有任务的调度，调度器本身保持可用，再次 Start 可恢复.
func (s *Scheduler) StopJobs() error {
	return s.cron.StopJobs()
}

// RemoveJob 移除任务.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.ids[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}

	if err := s.cron.RemoveJob(id); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.ids, id)

	s.logger.Info().Str("job", name).Msg("job removed")

	return nil
}

// RunNow 立即执行一次任务，不影响原有的调度时间.
func (s *Scheduler) RunNow(id uuid.UUID) error {
	s.mu.RLock()
	name, ok := s.ids[id]
	var job gocron.Job
	if ok {
		job = s.jobs[name].job
	}
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}

	s.logger.Info().Str("job", name).Msg("job triggered manually")

	return job.RunNow()
}

// JobsWaitingInQueue 等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.cron.JobsWaitingInQueue()
}

// Job 按名称取任务记录.
func (s *Scheduler) Job(name string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.jobs[name]
	if !ok {
		return JobInfo{}, false
	}

	return snapshot(e), true
}

// GetJobInfos 按名称排序返回全部任务记录.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, e := range s.jobs {
		infos = append(infos, snapshot(e))
	}

	slices.SortFunc(infos, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })

	return infos
}

func snapshot(e *entry) JobInfo {
	info := e.info
	if next, err := e.job.NextRun(); err == nil {
		info.NextRun = next
	}

	return info
}
