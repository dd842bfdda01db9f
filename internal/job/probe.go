package job

import (
	"context"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/sober-studio/token-service/internal/conf"
	"github.com/sober-studio/token-service/internal/data"
	"github.com/sober-studio/token-service/internal/pkg/cron"
)

// ProviderSet is job providers.
var ProviderSet = wire.NewSet(
	NewStoreProbeJob,
	wire.Bind(new(StoreProber), new(*data.Data)),
)

// StoreProber 探测共享连接，连接类错误时由实现方负责重连
type StoreProber interface {
	Probe(ctx context.Context) error
}

var _ cron.Job = (*StoreProbeJob)(nil)

// StoreProbeJob 定期 PING 存储，连接断开时主动触发重连而不是等到下一个请求
type StoreProbeJob struct {
	cron.BaseJob
	store   StoreProber
	healthy atomic.Bool
	log     *log.Helper
}

func NewStoreProbeJob(store StoreProber, c *conf.App, logger log.Logger) *StoreProbeJob {
	j := &StoreProbeJob{
		BaseJob: cron.BaseJob{
			JobName:    "StoreProbeJob",
			JobSpec:    c.Probe.Spec,
			JobDesc:    "ping the token store and reconnect on failure",
			JobTimeout: c.Probe.Timeout.AsDuration(),
		},
		store: store,
		log:   log.NewHelper(logger),
	}
	j.healthy.Store(true)
	return j
}

func (j *StoreProbeJob) Run(ctx context.Context) error {
	if err := j.store.Probe(ctx); err != nil {
		if j.healthy.Swap(false) {
			j.log.WithContext(ctx).Errorf("token store became unavailable: %v", err)
		}
		return err
	}
	if !j.healthy.Swap(true) {
		j.log.WithContext(ctx).Info("token store is available again")
	}
	return nil
}

// Healthy 最近一次探测是否成功
func (j *StoreProbeJob) Healthy() bool {
	return j.healthy.Load()
}
