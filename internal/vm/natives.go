package vm

import (
	"errors"
	"math"

	"github.com/tangzhangming/lye/internal/bytecode"
)

// ============================================================================
// 宿主方法
// ============================================================================
//
// 单元通过 invokestatic / invokevirtual 调用的 JDK 方法在这里用 Go 实现，
// 按 "类.方法:描述符" 注册。参数和返回值都按字展开，接收者在最前。
//
// ============================================================================

// Native 宿主方法实现
type Native func(args []Value) ([]Value, error)

// errNullReceiver 对 null 调用实例方法
var errNullReceiver = errors.New("java.lang.NullPointerException")

// RegisterNative 注册宿主方法，同名覆盖
func (vm *VM) RegisterNative(ref bytecode.MethodRef, fn Native) {
	vm.natives[ref.String()] = fn
}

// HasNative 检查宿主方法是否已注册
func (vm *VM) HasNative(ref bytecode.MethodRef) bool {
	_, ok := vm.natives[ref.String()]
	return ok
}

func registerBuiltins(vm *VM) {
	vm.RegisterNative(bytecode.MethodRef{
		Class:      "java/lang/Math",
		Name:       "pow",
		Descriptor: "(DD)D",
	}, nativeMathPow)
	vm.RegisterNative(bytecode.MethodRef{
		Class:      "java/lang/String",
		Name:       "concat",
		Descriptor: "(Ljava/lang/String;)Ljava/lang/String;",
	}, nativeStringConcat)
}

func nativeMathPow(args []Value) ([]Value, error) {
	d := NewDouble(math.Pow(args[0].F, args[2].F))
	return d[:], nil
}

func nativeStringConcat(args []Value) ([]Value, error) {
	recv, ok := args[0].Ref.(string)
	if !ok {
		return nil, errNullReceiver
	}
	arg, ok := args[1].Ref.(string)
	if !ok {
		return nil, errNullReceiver
	}
	return []Value{NewRef(recv + arg)}, nil
}
