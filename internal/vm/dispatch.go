package vm

import (
	"github.com/tangzhangming/lye/internal/bytecode"
)

// ============================================================================
// 分派表
// ============================================================================

// OpHandler 操作码处理函数，返回下一条指令的下标，-1 表示顺序执行
type OpHandler func(vm *VM, in bytecode.Instruction) (int, error)

// dispatchTable 分派表 (256 个操作码槽位)，返回指令由 Run 直接处理
var dispatchTable [256]OpHandler

func init() {
	// 常量加载
	dispatchTable[bytecode.OpAconstNull] = opAconstNull
	dispatchTable[bytecode.OpIconst0] = opIconst(0)
	dispatchTable[bytecode.OpIconst1] = opIconst(1)
	dispatchTable[bytecode.OpDconst0] = opDconst(0)
	dispatchTable[bytecode.OpDconst1] = opDconst(1)
	dispatchTable[bytecode.OpLdc] = opLdc
	dispatchTable[bytecode.OpLdc2W] = opLdc2W

	// 局部变量
	dispatchTable[bytecode.OpIload] = opLoad
	dispatchTable[bytecode.OpDload] = opLoad
	dispatchTable[bytecode.OpAload] = opLoad
	dispatchTable[bytecode.OpIstore] = opStore
	dispatchTable[bytecode.OpDstore] = opStore
	dispatchTable[bytecode.OpAstore] = opStore

	// 栈操作
	dispatchTable[bytecode.OpPop] = opPop
	dispatchTable[bytecode.OpPop2] = opPop2
	dispatchTable[bytecode.OpDup] = opDup
	dispatchTable[bytecode.OpDup2] = opDup2

	// 算术运算
	dispatchTable[bytecode.OpDadd] = opDouble(func(a, b float64) float64 { return a + b })
	dispatchTable[bytecode.OpDsub] = opDouble(func(a, b float64) float64 { return a - b })
	dispatchTable[bytecode.OpDmul] = opDouble(func(a, b float64) float64 { return a * b })
	dispatchTable[bytecode.OpDdiv] = opDouble(func(a, b float64) float64 { return a / b })
	dispatchTable[bytecode.OpDneg] = opDneg

	// 位运算
	dispatchTable[bytecode.OpIand] = opInt(func(a, b int32) int32 { return a & b })
	dispatchTable[bytecode.OpIor] = opInt(func(a, b int32) int32 { return a | b })
	dispatchTable[bytecode.OpIxor] = opInt(func(a, b int32) int32 { return a ^ b })

	// 跳转
	dispatchTable[bytecode.OpIfeq] = opIf(func(v int32) bool { return v == 0 })
	dispatchTable[bytecode.OpIfne] = opIf(func(v int32) bool { return v != 0 })
	dispatchTable[bytecode.OpGoto] = opGoto

	// 方法调用
	dispatchTable[bytecode.OpInvokestatic] = opInvoke
	dispatchTable[bytecode.OpInvokevirtual] = opInvoke
}

// ============================================================================
// 常量
// ============================================================================

func opAconstNull(vm *VM, _ bytecode.Instruction) (int, error) {
	return -1, vm.push(nullValue)
}

func opIconst(v int32) OpHandler {
	return func(vm *VM, _ bytecode.Instruction) (int, error) {
		return -1, vm.push(NewInt(v))
	}
}

func opDconst(v float64) OpHandler {
	return func(vm *VM, _ bytecode.Instruction) (int, error) {
		return -1, vm.pushDouble(v)
	}
}

func opLdc(vm *VM, in bytecode.Instruction) (int, error) {
	s, err := vm.unit.Pool.StringAt(uint16(in.Arg))
	if err != nil {
		return -1, vm.errorf("%v", err)
	}
	return -1, vm.push(NewRef(s))
}

func opLdc2W(vm *VM, in bytecode.Instruction) (int, error) {
	d, err := vm.unit.Pool.DoubleAt(uint16(in.Arg))
	if err != nil {
		return -1, vm.errorf("%v", err)
	}
	return -1, vm.pushDouble(d)
}

// ============================================================================
// 局部变量
// ============================================================================

// localType 指令要求的局部变量内容
func localType(op bytecode.Opcode) ValueType {
	switch op {
	case bytecode.OpIload, bytecode.OpIstore:
		return ValInt
	case bytecode.OpDload, bytecode.OpDstore:
		return ValDouble
	}
	return ValRef
}

func (vm *VM) checkSlot(slot, width int) error {
	if slot < 0 || slot+width > len(vm.locals) {
		return vm.errorf("slot %d outside a frame of %d slots", slot, len(vm.locals))
	}
	return nil
}

func opLoad(vm *VM, in bytecode.Instruction) (int, error) {
	want := localType(in.Op)
	width := 1
	if want == ValDouble {
		width = 2
	}
	if err := vm.checkSlot(in.Arg, width); err != nil {
		return -1, err
	}

	v := vm.locals[in.Arg]
	if v.Type != want || (width == 2 && vm.locals[in.Arg+1].Type != ValTop) {
		return -1, vm.errorf("slot %d holds %s", in.Arg, v)
	}
	return -1, vm.push(vm.locals[in.Arg : in.Arg+width]...)
}

func opStore(vm *VM, in bytecode.Instruction) (int, error) {
	switch localType(in.Op) {
	case ValInt:
		v, err := vm.popInt()
		if err != nil {
			return -1, err
		}
		if err := vm.checkSlot(in.Arg, 1); err != nil {
			return -1, err
		}
		vm.locals[in.Arg] = NewInt(v)
	case ValDouble:
		v, err := vm.popDouble()
		if err != nil {
			return -1, err
		}
		if err := vm.checkSlot(in.Arg, 2); err != nil {
			return -1, err
		}
		d := NewDouble(v)
		vm.locals[in.Arg], vm.locals[in.Arg+1] = d[0], d[1]
	default:
		v, err := vm.popRef()
		if err != nil {
			return -1, err
		}
		if err := vm.checkSlot(in.Arg, 1); err != nil {
			return -1, err
		}
		vm.locals[in.Arg] = NewRef(v)
	}
	return -1, nil
}

// ============================================================================
// 栈操作
// ============================================================================

func opPop(vm *VM, _ bytecode.Instruction) (int, error) {
	vs, err := vm.pop(1)
	if err != nil {
		return -1, err
	}
	if vs[0].Type == ValTop || vs[0].Type == ValDouble {
		return -1, vm.errorf("pop splits a double")
	}
	return -1, nil
}

func opPop2(vm *VM, _ bytecode.Instruction) (int, error) {
	_, err := vm.pop(2)
	return -1, err
}

func opDup(vm *VM, _ bytecode.Instruction) (int, error) {
	vs, err := vm.pop(1)
	if err != nil {
		return -1, err
	}
	if vs[0].Type == ValTop {
		return -1, vm.errorf("dup splits a double")
	}
	return -1, vm.push(vs[0], vs[0])
}

func opDup2(vm *VM, _ bytecode.Instruction) (int, error) {
	vs, err := vm.pop(2)
	if err != nil {
		return -1, err
	}
	return -1, vm.push(vs[0], vs[1], vs[0], vs[1])
}

// ============================================================================
// 运算
// ============================================================================

func opDouble(fn func(a, b float64) float64) OpHandler {
	return func(vm *VM, _ bytecode.Instruction) (int, error) {
		b, err := vm.popDouble()
		if err != nil {
			return -1, err
		}
		a, err := vm.popDouble()
		if err != nil {
			return -1, err
		}
		return -1, vm.pushDouble(fn(a, b))
	}
}

func opDneg(vm *VM, _ bytecode.Instruction) (int, error) {
	v, err := vm.popDouble()
	if err != nil {
		return -1, err
	}
	return -1, vm.pushDouble(-v)
}

func opInt(fn func(a, b int32) int32) OpHandler {
	return func(vm *VM, _ bytecode.Instruction) (int, error) {
		b, err := vm.popInt()
		if err != nil {
			return -1, err
		}
		a, err := vm.popInt()
		if err != nil {
			return -1, err
		}
		return -1, vm.push(NewInt(fn(a, b)))
	}
}

// ============================================================================
// 跳转
// ============================================================================

func (vm *VM) target(in bytecode.Instruction) (int, error) {
	if in.Arg < 0 || in.Arg >= len(vm.unit.Code) {
		return -1, vm.errorf("branch target %d out of range", in.Arg)
	}
	return in.Arg, nil
}

func opIf(taken func(int32) bool) OpHandler {
	return func(vm *VM, in bytecode.Instruction) (int, error) {
		v, err := vm.popInt()
		if err != nil {
			return -1, err
		}
		if !taken(v) {
			return -1, nil
		}
		return vm.target(in)
	}
}

func opGoto(vm *VM, in bytecode.Instruction) (int, error) {
	return vm.target(in)
}

// ============================================================================
// 方法调用
// ============================================================================

func opInvoke(vm *VM, in bytecode.Instruction) (int, error) {
	m, err := vm.unit.Pool.MethodAt(uint16(in.Arg))
	if err != nil {
		return -1, vm.errorf("%v", err)
	}
	native, ok := vm.natives[m.String()]
	if !ok {
		return -1, vm.errorf("no host implementation for %s", m)
	}

	args, ret, err := bytecode.DescriptorWords(m.Descriptor)
	if err != nil {
		return -1, vm.errorf("%v", err)
	}
	if in.Op == bytecode.OpInvokevirtual {
		args++
	}

	argv, err := vm.pop(args)
	if err != nil {
		return -1, err
	}
	vm.stats.NativeCalls++
	if vm.tracer != nil {
		vm.tracer.NativeCall(m.String())
	}
	out, err := native(argv)
	if err != nil {
		return -1, vm.errorf("%s: %v", m, err)
	}
	if len(out) != ret {
		return -1, vm.errorf("%s returned %d words, want %d", m, len(out), ret)
	}
	return -1, vm.push(out...)
}
