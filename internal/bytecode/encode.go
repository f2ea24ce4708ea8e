package bytecode

import (
	"fmt"
	"math"
)

// ============================================================================
// 指令编码
// ============================================================================
//
// 把指令序列编码成 JVM Code 属性中的字节：
//   - 槽位 0-3 的 load/store 使用短形式（dload_2 等）
//   - 槽位超过 255 时加 wide 前缀
//   - 常量池下标超过 255 的 ldc 改用 ldc_w
//   - 跳转目标从指令下标换算为相对本指令起始的 s2 偏移
//
// 每条指令的长度只取决于它自身，所以先算偏移再一次性写出。
//
// ============================================================================

// Encode 编码指令，返回字节与每条指令的起始偏移
func Encode(code []Instruction) ([]byte, []int, error) {
	offsets := make([]int, len(code)+1)
	for i, in := range code {
		offsets[i+1] = offsets[i] + encodedSize(in)
	}
	if offsets[len(code)] > MaxCodeBytes {
		return nil, nil, fmt.Errorf("encode: code length %d exceeds %d", offsets[len(code)], MaxCodeBytes)
	}

	w := NewByteWriter()
	for i, in := range code {
		switch in.Op.Operand() {
		case OperandNone:
			w.WriteU8(uint8(in.Op))
		case OperandLocal:
			encodeLocal(w, in)
		case OperandConst:
			if in.Arg <= 0xFF {
				w.WriteU8(uint8(OpLdc))
				w.WriteU8(uint8(in.Arg))
			} else {
				w.WriteU8(opLdcW)
				w.WriteU16(uint16(in.Arg))
			}
		case OperandConst2, OperandMethod:
			w.WriteU8(uint8(in.Op))
			w.WriteU16(uint16(in.Arg))
		case OperandBranch:
			if in.Arg < 0 || in.Arg >= len(code) {
				return nil, nil, fmt.Errorf("encode: instruction %d: branch target %d out of range", i, in.Arg)
			}
			delta := offsets[in.Arg] - offsets[i]
			if delta < math.MinInt16 || delta > math.MaxInt16 {
				return nil, nil, fmt.Errorf("encode: instruction %d: branch offset %d out of range", i, delta)
			}
			w.WriteU8(uint8(in.Op))
			w.WriteI16(int16(delta))
		}
	}

	return w.Bytes(), offsets[:len(code)], nil
}

func encodedSize(in Instruction) int {
	switch in.Op.Operand() {
	case OperandNone:
		return 1
	case OperandLocal:
		switch {
		case in.Arg <= 3:
			return 1
		case in.Arg <= 0xFF:
			return 2
		default:
			return 4
		}
	case OperandConst:
		if in.Arg <= 0xFF {
			return 2
		}
		return 3
	default:
		return 3
	}
}

// shortBase 返回 xload_0 / xstore_0 形式的基准操作码
func shortBase(op Opcode) uint8 {
	switch op {
	case OpIload:
		return opIload0
	case OpDload:
		return opDload0
	case OpAload:
		return opAload0
	case OpIstore:
		return opIstore0
	case OpDstore:
		return opDstore0
	default:
		return opAstore0
	}
}

func encodeLocal(w *ByteWriter, in Instruction) {
	switch {
	case in.Arg <= 3:
		w.WriteU8(shortBase(in.Op) + uint8(in.Arg))
	case in.Arg <= 0xFF:
		w.WriteU8(uint8(in.Op))
		w.WriteU8(uint8(in.Arg))
	default:
		w.WriteU8(opWide)
		w.WriteU8(uint8(in.Op))
		w.WriteU16(uint16(in.Arg))
	}
}
