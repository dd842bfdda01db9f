package data

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"

	"github.com/sober-studio/token-service/internal/conf"
	"github.com/sober-studio/token-service/internal/pkg/idgen"
	"github.com/sober-studio/token-service/internal/pkg/idgen/alnum"
	"github.com/sober-studio/token-service/internal/pkg/metrics"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedis,
	NewTokenRepo,
	NewTokenGenerator,
)

// Data 持有唯一的 Redis 连接以及用于重建它的客户端
// 所有命令在 sem 保护下串行执行，同一时刻只有一条命令在这条连接上
type Data struct {
	client *redis.Client
	sem    *semaphore.Weighted

	mu   sync.Mutex // 仅保护 conn 字段的读写，命令串行由 sem 保证
	conn *redis.Conn

	maxRetries uint64
	backoff    func() backoff.BackOff
	metrics    *metrics.Store
	log        *log.Helper
}

// NewData .
// 注意：所有需要关闭的资源必须在 cleanup 中显式处理
func NewData(c *conf.Data, rdb *redis.Client, m *metrics.Store, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	var maxRetries uint64
	if c.Redis.MaxRetries > 0 {
		maxRetries = uint64(c.Redis.MaxRetries)
	}
	d := &Data{
		client:     rdb,
		sem:        semaphore.NewWeighted(1),
		conn:       rdb.Conn(),
		maxRetries: maxRetries,
		backoff:    defaultBackOff,
		metrics:    m,
		log:        helper,
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		d.mu.Lock()
		conn := d.conn
		d.conn = nil
		d.mu.Unlock()
		if conn != nil {
			if err := conn.Close(); err != nil && !stderrors.Is(err, redis.ErrClosed) {
				helper.Error(err)
			}
		}
		if err := rdb.Close(); err != nil {
			helper.Error(err)
		}
	}
	return d, cleanup, nil
}

// NewRedis 初始化 Redis 客户端
// 整个服务只使用一条连接，连接池大小固定为 1
func NewRedis(c *conf.Data, l log.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           int(c.Redis.Database),
		DialTimeout:  c.Redis.DialTimeout.AsDuration(),
		ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
		WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
		PoolSize:     1,
		// 连接类错误的重试由 Data.Exec 负责
		MaxRetries: -1,
	})

	// 连通性检查与重试
	ctx := context.Background()
	helper := log.NewHelper(l)

	// 简单重试 3 次
	for i := 0; i < 3; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err == nil {
			cancel()
			return rdb
		}
		cancel()
		helper.Infof("failed connecting to redis, retrying... (%d/3)", i+1)
		time.Sleep(1 * time.Second)
	}

	// 最后一次尝试，如果失败则 Fatal
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		helper.Fatalf("failed connecting to redis: %v", err)
	}

	return rdb
}

// NewTokenGenerator 按配置长度生成字母数字 Token
func NewTokenGenerator(c *conf.App) idgen.Generator {
	return alnum.New(alnum.WithLength(int(c.Token.Length)))
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 5 * time.Second
	return b
}

// Acquire 独占共享连接，release 必须且只能调用一次
func (d *Data) Acquire(ctx context.Context) (*redis.Conn, func(), error) {
	start := time.Now()
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	d.metrics.ObserveLockWait(start)

	var once sync.Once
	release := func() { once.Do(func() { d.sem.Release(1) }) }
	return d.current(), release, nil
}

// Reconnect 丢弃当前连接并用客户端配置重新建立
func (d *Data) Reconnect(ctx context.Context) (*redis.Conn, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)
	return d.reconnectLocked(ctx)
}

// reconnectLocked 调用方必须持有 sem
func (d *Data) reconnectLocked(ctx context.Context) (*redis.Conn, error) {
	d.mu.Lock()
	old := d.conn
	d.mu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil && !stderrors.Is(err, redis.ErrClosed) {
			d.log.WithContext(ctx).Warnf("close stale redis connection: %v", err)
		}
	}

	conn := d.client.Conn()
	err := conn.Ping(ctx).Err()
	d.metrics.ObserveReconnect(err)
	if err != nil {
		// 新连接同样交给下次重连处理
		d.swap(conn)
		d.log.WithContext(ctx).Errorf("reconnect to redis: %v", err)
		return nil, err
	}
	d.swap(conn)
	d.log.WithContext(ctx).Info("redis connection reestablished")
	return conn, nil
}

func (d *Data) current() *redis.Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn
}

func (d *Data) swap(conn *redis.Conn) {
	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()
}

// Exec 在独占的共享连接上执行 fn
// 连接类错误会触发重连并按指数退避重试，最多 maxRetries 次，其余错误直接返回
func (d *Data) Exec(ctx context.Context, op string, fn func(ctx context.Context, conn *redis.Conn) error) error {
	conn, release, err := d.Acquire(ctx)
	if err != nil {
		d.metrics.ObserveCommand(op, metrics.ResultError)
		return err
	}
	defer release()

	attempt := 0
	operation := func() error {
		attempt++
		if conn == nil {
			c, err := d.reconnectLocked(ctx)
			if err != nil {
				return err
			}
			conn = c
		}
		err := fn(ctx, conn)
		if err == nil || !isConnError(ctx, err) {
			return backoff.Permanent(err)
		}
		d.log.WithContext(ctx).Warnf("redis %s failed on attempt %d: %v", op, attempt, err)
		conn = nil
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(d.backoff(), d.maxRetries), ctx)
	err = backoff.Retry(operation, policy)

	d.metrics.ObserveCommand(op, resultOf(err))
	return err
}

// Probe 通过共享连接发送 PING
func (d *Data) Probe(ctx context.Context) error {
	return d.Exec(ctx, "ping", func(ctx context.Context, conn *redis.Conn) error {
		return conn.Ping(ctx).Err()
	})
}

// isConnError 判断错误是否意味着连接已不可用
func isConnError(ctx context.Context, err error) bool {
	if err == nil || stderrors.Is(err, redis.Nil) {
		return false
	}
	// 调用方取消或超时不重连
	if ctx.Err() != nil {
		return false
	}
	if stderrors.Is(err, redis.ErrClosed) ||
		stderrors.Is(err, io.EOF) ||
		stderrors.Is(err, io.ErrUnexpectedEOF) ||
		stderrors.Is(err, net.ErrClosed) ||
		stderrors.Is(err, syscall.ECONNRESET) ||
		stderrors.Is(err, syscall.ECONNREFUSED) ||
		stderrors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case stderrors.Is(err, redis.Nil):
		return metrics.ResultMiss
	default:
		return metrics.ResultError
	}
}
