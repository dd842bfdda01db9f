package env

import (
	"fmt"
	"sync"
)

type Type string

const (
	Dev  Type = "dev"
	Test Type = "test"
	Prod Type = "prod"
)

var (
	current = Dev // 默认设为开发环境
	once    sync.Once
)

// Parse 校验环境名称
func Parse(e string) (Type, error) {
	switch t := Type(e); t {
	case Dev, Test, Prod:
		return t, nil
	default:
		return "", fmt.Errorf("unknown env %q, want one of dev, test, prod", e)
	}
}

// Init 在 main.go 中被调用一次，未知环境按开发环境处理
func Init(e string) {
	once.Do(func() {
		if t, err := Parse(e); err == nil {
			current = t
		}
	})
}

func IsDev() bool  { return current == Dev }
func IsTest() bool { return current == Test }
func IsProd() bool { return current == Prod }
func Get() Type    { return current }
