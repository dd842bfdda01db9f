package alnum

/*
Token 结构：固定长度，字符取自 [A-Za-z0-9]，共 62 个符号。
默认 24 位，空间为 62^24，不做唯一性校验。
*/

import (
	"crypto/rand"

	"github.com/sober-studio/token-service/internal/pkg/idgen"
)

const (
	Alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	DefaultLength = 24

	// 拒绝采样上界：小于 248 (62*4) 的字节取模后分布均匀
	maxByte = 256 - (256 % len(Alphabet))
)

var _ idgen.Generator = (*Generator)(nil)

// Generator 无共享可变状态，可并发使用
type Generator struct {
	length int
}

type Option func(*Generator)

func WithLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.length = n
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{length: DefaultLength}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Length() int { return g.length }

func (g *Generator) Generate() string {
	out := make([]byte, 0, g.length)
	// 多取一些以减少被拒绝后的重复读取
	buf := make([]byte, g.length+g.length/4+1)
	for len(out) < g.length {
		if _, err := rand.Read(buf); err != nil {
			panic("alnum: reading random source: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == g.length {
				break
			}
		}
	}
	return string(out)
}
