// Package typeindex 通过反射描述宿主类型，供脚本侧查询可调用的方法
package typeindex

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// ============================================================================
// 描述符
// ============================================================================

// Descriptor 宿主类型的描述
type Descriptor interface {
	String() string
	descriptor()
}

// Class 结构体或其他具名类型
type Class struct {
	Name    string
	Methods map[string]*Callable
	Fields  map[string]Descriptor
}

// Callable 函数或方法，不含接收者
type Callable struct {
	Args    []Descriptor
	Returns []Descriptor
}

// Array 切片或数组
type Array struct {
	Elem Descriptor
}

// Primitive 基础类型（bool、int、float64、string 等）
type Primitive struct {
	Name string
}

// Ref 指向索引中的类，成员按需通过 Index.Lookup 取出
type Ref struct {
	Name string
}

func (*Class) descriptor()     {}
func (*Callable) descriptor()  {}
func (*Array) descriptor()     {}
func (*Primitive) descriptor() {}
func (*Ref) descriptor()       {}

func (c *Class) String() string {
	var sb strings.Builder
	sb.WriteString("Class: " + c.Name + "\n")
	sb.WriteString("- Methods:\n")
	for _, name := range sortedKeys(c.Methods) {
		fmt.Fprintf(&sb, "    - %s: %s\n", name, c.Methods[name])
	}
	sb.WriteString("- Fields:\n")
	for _, name := range sortedKeys(c.Fields) {
		fmt.Fprintf(&sb, "    - %s: %s\n", name, c.Fields[name])
	}
	return sb.String()
}

func (c *Callable) String() string {
	return "(" + join(c.Args) + ") -> " + c.result()
}

func (c *Callable) result() string {
	switch len(c.Returns) {
	case 0:
		return "void"
	case 1:
		return c.Returns[0].String()
	}
	return "(" + join(c.Returns) + ")"
}

func (a *Array) String() string     { return "Array<" + a.Elem.String() + ">" }
func (p *Primitive) String() string { return p.Name }
func (r *Ref) String() string       { return "Class<" + r.Name + ">" }

func join(ds []Descriptor) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// 索引
// ============================================================================
//
// 描述一个类会递归描述它的方法签名和字段。类在展开成员之前先以
// 占位（nil）写入 memo，自引用或互相引用的类型因此能够终止，
// 成员中出现的类一律以 Ref 表示。
//
// ============================================================================

// Index 宿主类型索引，可并发使用
type Index struct {
	mu         sync.Mutex
	registered map[string]reflect.Type
	memo       map[string]*Class

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats 缓存命中统计
type Stats struct {
	Hits    int64
	Misses  int64
	Classes int
}

// New 创建空索引
func New() *Index {
	return &Index{
		registered: make(map[string]reflect.Type),
		memo:       make(map[string]*Class),
	}
}

// Register 以脚本可见的名字注册宿主类型，指针类型按其元素类型登记
func (ix *Index) Register(name string, t reflect.Type) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.registered[name] = t
}

// Names 返回已注册的名字，按字母序
func (ix *Index) Names() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return sortedKeys(ix.registered)
}

// Describe 描述已注册的类型
func (ix *Index) Describe(name string) (Descriptor, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	t, ok := ix.registered[name]
	if !ok {
		return nil, fmt.Errorf("typeindex: unknown type %q", name)
	}
	if !isClass(t) {
		return ix.describe(t), nil
	}
	ix.classRef(t)
	return ix.memo[typeName(t)], nil
}

// Lookup 取出已经描述过的类
func (ix *Index) Lookup(name string) (*Class, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	c, ok := ix.memo[name]
	return c, ok && c != nil
}

// Stats 返回统计
func (ix *Index) Stats() Stats {
	ix.mu.Lock()
	classes := len(ix.memo)
	ix.mu.Unlock()
	return Stats{Hits: ix.hits.Load(), Misses: ix.misses.Load(), Classes: classes}
}

// ----------------------------------------------------------------------------
// 内部方法，调用方持有 mu
// ----------------------------------------------------------------------------

func (ix *Index) describe(t reflect.Type) Descriptor {
	switch t.Kind() {
	case reflect.Ptr:
		return ix.describe(t.Elem())
	case reflect.Slice, reflect.Array:
		return &Array{Elem: ix.describe(t.Elem())}
	case reflect.Func:
		return ix.callable(t, 0)
	}
	if isClass(t) {
		return ix.classRef(t)
	}
	return &Primitive{Name: t.Kind().String()}
}

// isClass 结构体、接口、映射、通道以及具名的非基础类型都作为类处理
func isClass(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Interface, reflect.Map, reflect.Chan:
		return true
	case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Func:
		return false
	}
	return t.PkgPath() != "" && t.NumMethod() > 0
}

func typeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func (ix *Index) classRef(t reflect.Type) *Ref {
	name := typeName(t)
	if _, ok := ix.memo[name]; ok {
		ix.hits.Inc()
		return &Ref{Name: name}
	}
	ix.misses.Inc()
	ix.memo[name] = nil // 占位，成员中再遇到自身时直接返回 Ref

	c := &Class{
		Name:    name,
		Methods: make(map[string]*Callable),
		Fields:  make(map[string]Descriptor),
	}

	// 指针接收者的方法集包含值接收者的方法
	methods := t
	skip := 0
	if t.Kind() != reflect.Interface {
		methods = reflect.PointerTo(t)
		skip = 1
	}
	for i := 0; i < methods.NumMethod(); i++ {
		m := methods.Method(i)
		if m.PkgPath != "" {
			continue
		}
		c.Methods[m.Name] = ix.callable(m.Type, skip)
	}

	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			c.Fields[f.Name] = ix.describe(f.Type)
		}
	}

	ix.memo[name] = c
	return &Ref{Name: name}
}

// callable skip 为需要跳过的前导参数个数（方法表达式的接收者）
func (ix *Index) callable(t reflect.Type, skip int) *Callable {
	c := &Callable{}
	for i := skip; i < t.NumIn(); i++ {
		c.Args = append(c.Args, ix.describe(t.In(i)))
	}
	for i := 0; i < t.NumOut(); i++ {
		c.Returns = append(c.Returns, ix.describe(t.Out(i)))
	}
	return c
}
