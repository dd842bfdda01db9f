package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap 配置根节点，对应 configs/config.yaml
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	App    *App    `json:"app"`
}

// Server 服务端监听配置
type Server struct {
	Http *Server_HTTP `json:"http"`
}

type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
	// 附加到每个响应上的 Header
	Headers map[string]string `json:"headers"`
}

// Data 存储配置
type Data struct {
	Redis *Data_Redis `json:"redis"`
}

type Data_Redis struct {
	Addr         string    `json:"addr"`
	Password     string    `json:"password"`
	Database     int32     `json:"database"`
	DialTimeout  *Duration `json:"dial_timeout"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
	// 连接类错误的自动重连次数，0 表示使用默认值，-1 表示关闭自动重连
	MaxRetries int32 `json:"max_retries"`
	// Token 在 Redis 中的 Key 前缀，默认为空即 Key 等于 Token 本身
	KeyPrefix string `json:"key_prefix"`
}

// App 业务配置
type App struct {
	Env   string     `json:"env"`
	Token *App_Token `json:"token"`
	Probe *App_Probe `json:"probe"`
}

type App_Token struct {
	Length int32 `json:"length"`
}

type App_Probe struct {
	Spec    string    `json:"spec"`
	Timeout *Duration `json:"timeout"`
}

// Duration 支持 "2s"、"500ms" 形式的字符串，也兼容纳秒整数
type Duration struct {
	time.Duration
}

func NewDuration(d time.Duration) *Duration {
	return &Duration{Duration: d}
}

// AsDuration nil 安全
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}
