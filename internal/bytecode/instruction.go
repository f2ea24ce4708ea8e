package bytecode

import (
	"fmt"
	"strings"
)

// Instruction 一条指令
//
// Arg 的含义由操作码决定：槽位、常量池下标或跳转目标的指令下标。
// Line 是源码行号，0 表示未知。
type Instruction struct {
	Op   Opcode `cbor:"1,keyasint"`
	Arg  int    `cbor:"2,keyasint,omitempty"`
	Line int    `cbor:"3,keyasint,omitempty"`
}

// Op 构造无操作数指令
func Op(op Opcode) Instruction {
	return Instruction{Op: op}
}

// With 构造带操作数的指令
func With(op Opcode, arg int) Instruction {
	return Instruction{Op: op, Arg: arg}
}

func (in Instruction) String() string {
	switch in.Op.Operand() {
	case OperandNone:
		return in.Op.String()
	case OperandBranch:
		return fmt.Sprintf("%s ->%d", in.Op, in.Arg)
	case OperandConst, OperandConst2, OperandMethod:
		return fmt.Sprintf("%s #%d", in.Op, in.Arg)
	default:
		return fmt.Sprintf("%s %d", in.Op, in.Arg)
	}
}

// FormatCode 每行一条指令，供测试和日志比对
func FormatCode(code []Instruction) string {
	var sb strings.Builder
	for i, in := range code {
		fmt.Fprintf(&sb, "%3d: %s\n", i, in)
	}
	return sb.String()
}

// StackEffect 返回指令弹出与压入的字数
func StackEffect(in Instruction, pool *Pool) (pop, push int, err error) {
	info, ok := opTable[in.Op]
	if !ok {
		return 0, 0, fmt.Errorf("unknown opcode 0x%02x", uint8(in.Op))
	}
	if info.Operand != OperandMethod {
		return info.Pop, info.Push, nil
	}

	m, err := pool.MethodAt(uint16(in.Arg))
	if err != nil {
		return 0, 0, err
	}
	args, ret, err := DescriptorWords(m.Descriptor)
	if err != nil {
		return 0, 0, err
	}
	if in.Op == OpInvokevirtual {
		args++ // 接收者
	}
	return args, ret, nil
}
