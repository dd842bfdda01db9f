package cron

import (
	"context"
	"time"
)

// Job 带有元数据的定时任务，Run 在独立的带超时 Context 中执行
type Job interface {
	Name() string
	Description() string
	Spec() string
	Timeout() time.Duration
	Run(ctx context.Context) error
}

// BaseJob 提供基础字段封装
type BaseJob struct {
	JobName    string
	JobSpec    string
	JobDesc    string
	JobTimeout time.Duration
}

func (b *BaseJob) Name() string           { return b.JobName }
func (b *BaseJob) Spec() string           { return b.JobSpec }
func (b *BaseJob) Description() string    { return b.JobDesc }
func (b *BaseJob) Timeout() time.Duration { return b.JobTimeout }
