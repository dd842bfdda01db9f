package server

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/sober-studio/token-service/internal/job"
	"github.com/sober-studio/token-service/internal/pkg/cron"
)

func NewCronServer(
	logger log.Logger,
	probe *job.StoreProbeJob,
) (*cron.Server, error) {
	srv := cron.NewServer(logger)

	if err := srv.AddJob(probe); err != nil {
		return nil, err
	}

	return srv, nil
}
