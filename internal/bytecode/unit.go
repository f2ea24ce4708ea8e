package bytecode

import (
	"fmt"

	"github.com/tangzhangming/lye/internal/ast"
)

// ============================================================================
// 编译单元
// ============================================================================
//
// Unit 是编译器交给外部加载器的唯一产物：指令序列、常量池、
// 最大栈深度、槽位数以及槽位调试表。组装完成后不再修改。
//
// ============================================================================

// JVM 对单个方法的硬性限制
const (
	MaxFrameSlots = 0xFFFF
	MaxStackWords = 0xFFFF
	MaxCodeBytes  = 0xFFFF
)

// Slot 调试表条目：槽位下标到源码名字的映射，只用于诊断
type Slot struct {
	Index int      `cbor:"1,keyasint"`
	Name  string   `cbor:"2,keyasint"`
	Kind  ast.Kind `cbor:"3,keyasint"`
	Line  int      `cbor:"4,keyasint,omitempty"`
}

// Result 单元入口的返回类型
type Result struct {
	Void bool     `cbor:"1,keyasint"`
	Kind ast.Kind `cbor:"2,keyasint"`
}

// VoidResult 无返回值
var VoidResult = Result{Void: true}

// Returns 返回类别为 k 的结果
func Returns(k ast.Kind) Result {
	return Result{Kind: k}
}

// Descriptor 返回 JVM 返回类型描述符
func (r Result) Descriptor() string {
	if r.Void {
		return "V"
	}
	return KindDescriptor(r.Kind)
}

// ReturnOp 返回对应的返回指令
func (r Result) ReturnOp() Opcode {
	if r.Void {
		return OpReturn
	}
	return ReturnOpFor(r.Kind)
}

func (r Result) String() string {
	if r.Void {
		return "void"
	}
	return r.Kind.String()
}

// KindDescriptor 返回值类别对应的 JVM 字段描述符
func KindDescriptor(k ast.Kind) string {
	switch k {
	case ast.Boolean:
		return "Z"
	case ast.Number:
		return "D"
	case ast.String:
		return "Ljava/lang/String;"
	default:
		return "Ljava/lang/Object;"
	}
}

// ReturnOpFor 按值类别选择返回指令
func ReturnOpFor(k ast.Kind) Opcode {
	switch k {
	case ast.Boolean:
		return OpIreturn
	case ast.Number:
		return OpDreturn
	default:
		return OpAreturn
	}
}

// Unit 组装完成的编译单元
type Unit struct {
	Name      string        `cbor:"1,keyasint"`
	Code      []Instruction `cbor:"2,keyasint"`
	Pool      *Pool         `cbor:"3,keyasint"`
	MaxStack  int           `cbor:"4,keyasint"`
	SlotCount int           `cbor:"5,keyasint"`
	Slots     []Slot        `cbor:"6,keyasint"`
	Result    Result        `cbor:"7,keyasint"`
}

// Assemble 校验指令序列、计算最大栈深度并打包为 Unit
func Assemble(name string, code []Instruction, pool *Pool, slots []Slot, slotCount int, result Result) (*Unit, error) {
	if pool == nil {
		pool = NewPool()
	}
	if slotCount > MaxFrameSlots {
		return nil, fmt.Errorf("assemble %s: %d slots exceed the frame limit %d", name, slotCount, MaxFrameSlots)
	}
	if pool.Count() > 0xFFFF {
		return nil, fmt.Errorf("assemble %s: constant pool too large (%d)", name, pool.Count())
	}

	maxStack, err := Verify(code, pool, slotCount)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", name, err)
	}
	if maxStack > MaxStackWords {
		return nil, fmt.Errorf("assemble %s: max stack %d exceeds %d", name, maxStack, MaxStackWords)
	}

	u := &Unit{
		Name:      name,
		Code:      append([]Instruction(nil), code...),
		Pool:      pool,
		MaxStack:  maxStack,
		SlotCount: slotCount,
		Slots:     append([]Slot(nil), slots...),
		Result:    result,
	}
	return u, nil
}

// SlotName 按槽位查调试名，找不到返回空串
func (u *Unit) SlotName(index int) string {
	for _, s := range u.Slots {
		if s.Index == index {
			return s.Name
		}
	}
	return ""
}

// Descriptor 返回入口方法描述符，入口没有参数
func (u *Unit) Descriptor() string {
	return "()" + u.Result.Descriptor()
}
