// Package scope 实现编译期的词法作用域与局部变量槽位分配
package scope

import (
	"sort"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/errors"
	"github.com/tangzhangming/lye/internal/token"
)

// ============================================================================
// 作用域 Arena
// ============================================================================
//
// 所有作用域记录存放在一个切片里，用 ID 寻址，每条记录只保存父作用域的 ID，
// 不持有指针，作用域的生命周期完全由 Enter/Leave 的栈纪律决定。
//
// 槽位策略：永不复用。兄弟块各自分配新的槽位，SlotCount 是整个帧的高水位。
// Number 绑定占两个槽，其余类别占一个。
//
// ============================================================================

// ID 作用域在 Arena 中的下标
type ID int

// None 表示没有父作用域
const None ID = -1

// Binding 名字到槽位的绑定
type Binding struct {
	Name  string
	Kind  ast.Kind
	Slot  int
	Scope ID
	Pos   token.Position
}

// Width 返回绑定占用的槽位数
func (b Binding) Width() int {
	return b.Kind.Width()
}

type record struct {
	parent ID
	depth  int
	names  map[string]int // 名字 -> bindings 下标
	closed bool
}

// Arena 一个帧内的全部作用域
type Arena struct {
	scopes   []record
	current  ID
	next     int // 下一个空闲槽位
	bindings []Binding
	pending  map[int]bool // 已分配槽位、初值尚未写入的绑定
}

// New 创建只含根作用域的 Arena，槽位从 base 开始
//
// 静态入口方法的 base 为 0；实例方法需要为 this 预留槽 0。
func New(base int) *Arena {
	a := &Arena{next: base, pending: make(map[int]bool)}
	a.scopes = append(a.scopes, record{parent: None, names: make(map[string]int)})
	a.current = 0
	return a
}

// Current 返回当前作用域
func (a *Arena) Current() ID {
	return a.current
}

// Parent 返回作用域的父作用域
func (a *Arena) Parent(id ID) ID {
	return a.scopes[id].parent
}

// Depth 返回当前作用域的嵌套深度，根为 0
func (a *Arena) Depth() int {
	return a.scopes[a.current].depth
}

// Enter 进入一个新的子作用域
func (a *Arena) Enter() ID {
	a.scopes = append(a.scopes, record{
		parent: a.current,
		depth:  a.scopes[a.current].depth + 1,
		names:  make(map[string]int),
	})
	a.current = ID(len(a.scopes) - 1)
	return a.current
}

// Leave 离开当前作用域，它的绑定此后不可再解析
//
// 在根作用域上调用是编译器自身的错误。
func (a *Arena) Leave() {
	rec := &a.scopes[a.current]
	if rec.parent == None {
		panic("scope: Leave called on root scope")
	}
	rec.closed = true
	a.current = rec.parent
}

// Declare 在当前作用域声明名字并分配槽位
func (a *Arena) Declare(name string, kind ast.Kind, pos token.Position) (Binding, error) {
	rec := &a.scopes[a.current]
	if _, ok := rec.names[name]; ok {
		return Binding{}, &errors.RedeclareError{Name: name, Pos: pos}
	}

	b := Binding{
		Name:  name,
		Kind:  kind,
		Slot:  a.next,
		Scope: a.current,
		Pos:   pos,
	}
	a.next += kind.Width()
	rec.names[name] = len(a.bindings)
	a.bindings = append(a.bindings, b)
	return b, nil
}

// DeclarePending 声明名字但暂不可解析，直到 Complete
//
// 用于变量定义：重复声明立即报告，初值里对自身的引用解析失败，
// 不会遮蔽到外层的同名变量。
func (a *Arena) DeclarePending(name string, kind ast.Kind, pos token.Position) (Binding, error) {
	b, err := a.Declare(name, kind, pos)
	if err != nil {
		return b, err
	}
	a.pending[len(a.bindings)-1] = true
	return b, nil
}

// Complete 使当前作用域中待定的名字可以解析
func (a *Arena) Complete(name string) {
	if i, ok := a.scopes[a.current].names[name]; ok {
		delete(a.pending, i)
	}
}

// Resolve 从当前作用域沿父链向外查找名字
//
// 待定的绑定也终止查找，结果为未找到。
func (a *Arena) Resolve(name string) (Binding, bool) {
	for id := a.current; id != None; id = a.scopes[id].parent {
		if i, ok := a.scopes[id].names[name]; ok {
			if a.pending[i] {
				return Binding{}, false
			}
			return a.bindings[i], true
		}
	}
	return Binding{}, false
}

// Visible 返回当前可解析的全部名字，内层优先
func (a *Arena) Visible() []string {
	var names []string
	seen := make(map[string]bool)
	for id := a.current; id != None; id = a.scopes[id].parent {
		local := make([]string, 0, len(a.scopes[id].names))
		for name, i := range a.scopes[id].names {
			if a.pending[i] {
				seen[name] = true
				continue
			}
			if !seen[name] {
				seen[name] = true
				local = append(local, name)
			}
		}
		sort.Strings(local)
		names = append(names, local...)
	}
	return names
}

// SlotCount 返回帧需要的槽位总数（高水位）
func (a *Arena) SlotCount() int {
	return a.next
}

// Bindings 返回曾经声明过的全部绑定，按槽位升序
func (a *Arena) Bindings() []Binding {
	out := make([]Binding, len(a.bindings))
	copy(out, a.bindings)
	return out
}
