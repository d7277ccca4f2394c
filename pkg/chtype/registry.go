package chtype

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Resolver 把类型 AST 解析为处理器。
// Factory 通过此接口递归解析自己的类型参数。
type Resolver interface {
	// Resolve 自底向上地把 Node 树组装为 Handler 树。
	Resolve(node *Node) (Handler, error)
}

// Factory 根据 AST 节点构造处理器。
// 工厂自行校验参数数量（不符返回包装 ErrResolve 的错误），
// 并通过 res 解析属于类型的参数节点；数值/字符串字面量参数由工厂直接读取。
type Factory func(res Resolver, node *Node) (Handler, error)

// 默认的 ResolveString 缓存容量。
// 一张表的列类型通常只有几十种，512 足以覆盖多表热路径。
const defaultCacheSize = 512

// Registry 维护类型名到工厂的映射，并缓存已组装的处理器。
//
// 设计决策: 注册表是显式构造的对象而非包级全局状态。
// 多个独立配置的客户端持有各自的注册表，自定义类型注册互不污染。
// 构造完成后注册表通常不再变更，Handler 均为不可变对象，可无锁并发读取；
// Register 仍以写锁保护，允许启动阶段的补充注册。
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory

	// cache 缓存 ResolveString 的结果，键为原始类型字符串。
	cache *lru.Cache[string, Handler]
}

// RegistryOption 是 Registry 的配置选项。
type RegistryOption func(*registryOptions)

type registryOptions struct {
	cacheSize int
}

// WithCacheSize 设置 ResolveString 缓存容量。
// 非正值被忽略（保持默认值 512）。
func WithCacheSize(n int) RegistryOption {
	return func(o *registryOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// NewRegistry 创建预注册了全部内置类型的注册表。
//
// 内置类型：Int8/16/32/64、UInt8/16/32/64、Float32/64、String、
// FixedString(N)、Date、DateTime、DateTime64(P[, TZ])、UUID、Bool、
// Array(T)、Map(K, V)、Tuple(T...)、Nullable(T)、LowCardinality(T)。
func NewRegistry(opts ...RegistryOption) *Registry {
	options := &registryOptions{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(options)
	}

	// 容量为正时 lru.New 不会失败
	cache, _ := lru.New[string, Handler](options.cacheSize)

	r := &Registry{
		factories: make(map[string]Factory, 32),
		cache:     cache,
	}
	registerBuiltins(r)
	return r
}

// Register 注册或覆盖一个类型工厂。
// name 为空或 factory 为 nil 时静默忽略。
func (r *Registry) Register(name string, factory Factory) {
	if r == nil || name == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory

	// 覆盖注册后旧的缓存结果不再可信
	r.cache.Purge()
}

// Lookup 返回已注册的工厂。
// 未注册的类型名返回包装 ErrUnknownType 的错误。
func (r *Registry) Lookup(name string) (Factory, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return factory, nil
}

// Resolve 自底向上地把类型 AST 组装为处理器树。
// 叶子节点直接由工厂构造；复合节点的工厂先递归解析参数再组合。
func (r *Registry) Resolve(node *Node) (Handler, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	if node == nil {
		return nil, fmt.Errorf("%w: nil node", ErrResolve)
	}

	factory, err := r.Lookup(node.Name)
	if err != nil {
		return nil, err
	}
	return factory(r, node)
}

// ResolveString 解析类型字符串并返回处理器，结果按原始字符串缓存。
// 这是列类型解析的热路径入口：同一列类型在多行间只组装一次。
func (r *Registry) ResolveString(s string) (Handler, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}

	if h, ok := r.cache.Get(s); ok {
		return h, nil
	}

	node, err := Parse(s)
	if err != nil {
		return nil, err
	}
	h, err := r.Resolve(node)
	if err != nil {
		return nil, err
	}

	r.cache.Add(s, h)
	return h, nil
}

// registerBuiltins 注册全部内置类型工厂。
func registerBuiltins(r *Registry) {
	// 整数族：宽度与符号在 Cast 时强制校验，越界抛错而非静默截断
	for _, ih := range []*intHandler{
		{name: "Int8", bits: 8, signed: true},
		{name: "Int16", bits: 16, signed: true},
		{name: "Int32", bits: 32, signed: true},
		{name: "Int64", bits: 64, signed: true},
		{name: "UInt8", bits: 8, signed: false},
		{name: "UInt16", bits: 16, signed: false},
		{name: "UInt32", bits: 32, signed: false},
		{name: "UInt64", bits: 64, signed: false},
	} {
		r.factories[ih.name] = leafFactory(ih)
	}

	r.factories["Float32"] = leafFactory(&floatHandler{name: "Float32", bits: 32})
	r.factories["Float64"] = leafFactory(&floatHandler{name: "Float64", bits: 64})

	r.factories["String"] = leafFactory(stringHandler{})
	r.factories["FixedString"] = fixedStringFactory
	r.factories["UUID"] = leafFactory(uuidHandler{})
	r.factories["Bool"] = leafFactory(boolHandler{})

	r.factories["Date"] = leafFactory(dateHandler{})
	r.factories["DateTime"] = dateTimeFactory
	r.factories["DateTime64"] = dateTime64Factory

	r.factories["Array"] = arrayFactory
	r.factories["Map"] = mapFactory
	r.factories["Tuple"] = tupleFactory
	r.factories["Nullable"] = nullableFactory
	r.factories["LowCardinality"] = lowCardinalityFactory
}

// leafFactory 包装一个无参数类型的处理器为工厂。
// 带参数的使用（如 String(3)）返回 ErrResolve。
func leafFactory(h Handler) Factory {
	return func(_ Resolver, node *Node) (Handler, error) {
		if len(node.Args) != 0 {
			return nil, arityError(h.Type(), "no", len(node.Args))
		}
		return h, nil
	}
}
