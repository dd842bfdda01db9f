package cron

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/robfig/cron/v3"
)

var _ transport.Server = (*Server)(nil)

// 未设置超时的任务默认超时
const defaultJobTimeout = 30 * time.Second

type Server struct {
	cron *cron.Cron
	log  *log.Helper
}

func NewServer(logger log.Logger) *Server {
	return &Server{
		// WithSeconds 让表达式支持秒级，同时支持 @every 描述符
		cron: cron.New(cron.WithSeconds()),
		log:  log.NewHelper(logger),
	}
}

// AddJob 注册任务，表达式非法时返回错误
func (s *Server) AddJob(job Job) error {
	if _, err := s.cron.AddJob(job.Spec(), s.makeSafe(job)); err != nil {
		return fmt.Errorf("cron: register job %s: %w", job.Name(), err)
	}
	s.log.Infof("[Cron] registered job [%s] spec [%s]: %s", job.Name(), job.Spec(), job.Description())
	return nil
}

// makeSafe 封装 Recovery、超时和日志记录
func (s *Server) makeSafe(j Job) cron.Job {
	return cron.FuncJob(func() {
		s.runJob(j)
	})
}

func (s *Server) runJob(j Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("[Cron] job %s panicked: %v\n%s", j.Name(), r, debug.Stack())
		}
	}()

	timeout := j.Timeout()
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		s.log.Errorf("[Cron] job %s failed after %v: %v", j.Name(), time.Since(start), err)
		return
	}
	s.log.Debugf("[Cron] job %s finished in %v", j.Name(), time.Since(start))
}

func (s *Server) Start(ctx context.Context) error {
	s.cron.Start()
	return nil
}

// Stop 等待正在执行的任务结束，或 ctx 结束
func (s *Server) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
