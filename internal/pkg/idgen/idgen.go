package idgen

// Generator 定义了不透明 Token 的生成接口，实现必须可并发调用
type Generator interface {
	Generate() string
}

// GeneratorFunc 允许普通函数作为 Generator 使用
type GeneratorFunc func() string

func (f GeneratorFunc) Generate() string { return f() }
