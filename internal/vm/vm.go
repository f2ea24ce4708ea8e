// Package vm 是编译单元的参考解释器
//
// 它按 JVM 的语义逐条执行单元的指令，用来在没有 JVM 的环境里
// 检查编译结果：栈深度不得超过单元声明的 max stack，局部变量
// 不得越过槽位数，类型不符的字会被当作运行时错误拒绝。
package vm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/bytecode"
)

// ============================================================================
// VM 核心结构
// ============================================================================

// DefaultMaxSteps 默认指令执行上限
const DefaultMaxSteps = 1 << 20

// VM 虚拟机
type VM struct {
	// 操作数栈，容量等于单元的 max stack
	stack []Value
	sp    int

	locals []Value

	unit *bytecode.Unit
	pc   int

	natives  map[string]Native
	maxSteps int
	log      *zap.Logger
	tracer   Tracer

	stats Stats
}

// Stats 执行统计
type Stats struct {
	InstructionsExecuted int // 执行的指令数
	NativeCalls          int // 宿主方法调用次数
	MaxDepth             int // 实际达到的最大栈深度（字）
}

// Result 单元的返回值
//
// Value 是 Go 值：Number 为 float64，Boolean 为 bool，String 为 string，
// 其他引用为 nil。Void 单元返回零值 Result{Void: true}。
type Result struct {
	Void  bool
	Kind  ast.Kind
	Value interface{}
}

func (r Result) String() string {
	if r.Void {
		return "void"
	}
	switch v := r.Value.(type) {
	case float64:
		return ast.FormatNumber(v)
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "nil"
	}
	return fmt.Sprintf("%v", r.Value)
}

// RuntimeError 执行错误
type RuntimeError struct {
	Unit    string
	PC      int
	Op      bytecode.Opcode
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: instruction %d (%s): %s", e.Unit, e.PC, e.Op, e.Message)
}

// Tracer 观察执行过程，profiler 包实现它
type Tracer interface {
	Instruction(unit string, pc int, op bytecode.Opcode)
	NativeCall(method string)
}

// Option 配置项
type Option func(*VM)

// WithLogger 设置日志
func WithLogger(log *zap.Logger) Option {
	return func(vm *VM) { vm.log = log }
}

// WithMaxSteps 设置指令执行上限，防止跳转成环的单元不终止
func WithMaxSteps(n int) Option {
	return func(vm *VM) { vm.maxSteps = n }
}

// WithTracer 在每条指令执行前回调 t
func WithTracer(t Tracer) Option {
	return func(vm *VM) { vm.tracer = t }
}

// ============================================================================
// VM 生命周期
// ============================================================================

// New 创建新的虚拟机，已注册 Math.pow 与 String.concat
func New(opts ...Option) *VM {
	vm := &VM{
		natives:  make(map[string]Native),
		maxSteps: DefaultMaxSteps,
		log:      zap.NewNop(),
	}
	registerBuiltins(vm)
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Run 用默认配置执行单元
func Run(u *bytecode.Unit) (Result, error) {
	return New().Run(u)
}

// Reset 重置虚拟机状态 (用于复用)
func (vm *VM) Reset() {
	vm.stack = vm.stack[:0]
	vm.sp = 0
	vm.locals = vm.locals[:0]
	vm.unit = nil
	vm.pc = 0
	vm.stats = Stats{}
}

// Stats 返回最近一次执行的统计
func (vm *VM) Stats() Stats {
	return vm.stats
}

// Run 执行单元直到返回
func (vm *VM) Run(u *bytecode.Unit) (Result, error) {
	vm.Reset()
	vm.unit = u
	vm.stack = make([]Value, u.MaxStack)
	vm.locals = make([]Value, u.SlotCount)

	for {
		if vm.pc < 0 || vm.pc >= len(u.Code) {
			return Result{}, vm.errorf("execution fell off the end of the code")
		}
		if vm.stats.InstructionsExecuted >= vm.maxSteps {
			return Result{}, vm.errorf("step limit %d exceeded", vm.maxSteps)
		}
		vm.stats.InstructionsExecuted++

		in := u.Code[vm.pc]
		if vm.tracer != nil {
			vm.tracer.Instruction(u.Name, vm.pc, in.Op)
		}
		if in.Op.IsReturn() {
			res, err := vm.ret(in.Op)
			if err != nil {
				return Result{}, err
			}
			vm.log.Debug("unit returned",
				zap.String("unit", u.Name),
				zap.Stringer("result", res),
				zap.Int("steps", vm.stats.InstructionsExecuted),
				zap.Int("max_depth", vm.stats.MaxDepth))
			return res, nil
		}

		handler := dispatchTable[in.Op]
		if handler == nil {
			return Result{}, vm.errorf("unsupported opcode")
		}
		next, err := handler(vm, in)
		if err != nil {
			return Result{}, err
		}
		if next >= 0 {
			vm.pc = next
		} else {
			vm.pc++
		}
	}
}

// ============================================================================
// 栈操作
// ============================================================================

func (vm *VM) errorf(format string, args ...interface{}) error {
	e := &RuntimeError{PC: vm.pc, Message: fmt.Sprintf(format, args...)}
	if vm.unit != nil {
		e.Unit = vm.unit.Name
		if vm.pc >= 0 && vm.pc < len(vm.unit.Code) {
			e.Op = vm.unit.Code[vm.pc].Op
		}
	}
	return e
}

// push 压栈，超过 max stack 是单元本身的错误
func (vm *VM) push(vs ...Value) error {
	if vm.sp+len(vs) > len(vm.stack) {
		return vm.errorf("operand stack overflow (max stack %d)", len(vm.stack))
	}
	copy(vm.stack[vm.sp:], vs)
	vm.sp += len(vs)
	if vm.sp > vm.stats.MaxDepth {
		vm.stats.MaxDepth = vm.sp
	}
	return nil
}

// pop 弹出 n 个字，按压栈顺序返回
func (vm *VM) pop(n int) ([]Value, error) {
	if vm.sp < n {
		return nil, vm.errorf("operand stack underflow")
	}
	vm.sp -= n
	out := make([]Value, n)
	copy(out, vm.stack[vm.sp:vm.sp+n])
	return out, nil
}

func (vm *VM) pushDouble(v float64) error {
	d := NewDouble(v)
	return vm.push(d[0], d[1])
}

func (vm *VM) popInt() (int32, error) {
	vs, err := vm.pop(1)
	if err != nil {
		return 0, err
	}
	if vs[0].Type != ValInt {
		return 0, vm.errorf("expected int on the stack, found %s", vs[0])
	}
	return vs[0].I, nil
}

func (vm *VM) popDouble() (float64, error) {
	vs, err := vm.pop(2)
	if err != nil {
		return 0, err
	}
	if vs[0].Type != ValDouble || vs[1].Type != ValTop {
		return 0, vm.errorf("expected double on the stack")
	}
	return vs[0].F, nil
}

func (vm *VM) popRef() (interface{}, error) {
	vs, err := vm.pop(1)
	if err != nil {
		return nil, err
	}
	if vs[0].Type != ValRef {
		return nil, vm.errorf("expected reference on the stack, found %s", vs[0])
	}
	return vs[0].Ref, nil
}

// ============================================================================
// 返回
// ============================================================================

func (vm *VM) ret(op bytecode.Opcode) (Result, error) {
	want := vm.unit.Result.ReturnOp()
	if op != want {
		return Result{}, vm.errorf("%s in a unit that returns with %s", op, want)
	}

	res := Result{Void: vm.unit.Result.Void, Kind: vm.unit.Result.Kind}
	switch op {
	case bytecode.OpReturn:
		return res, nil
	case bytecode.OpIreturn:
		v, err := vm.popInt()
		if err != nil {
			return Result{}, err
		}
		res.Value = v != 0
	case bytecode.OpDreturn:
		v, err := vm.popDouble()
		if err != nil {
			return Result{}, err
		}
		res.Value = v
	case bytecode.OpAreturn:
		v, err := vm.popRef()
		if err != nil {
			return Result{}, err
		}
		res.Value = v
	}
	return res, nil
}
