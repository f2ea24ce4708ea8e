package bytecode

import (
	"fmt"

	"go.uber.org/multierr"
)

// ============================================================================
// 校验与栈深度分析
// ============================================================================

// VerificationError 字节码校验错误，Index 是指令下标
type VerificationError struct {
	Index   int
	Message string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verify: instruction %d: %s", e.Index, e.Message)
}

// ErrorCode 诊断错误码
func (e *VerificationError) ErrorCode() string { return "E0701" }

func verr(i int, format string, args ...interface{}) error {
	return &VerificationError{Index: i, Message: fmt.Sprintf(format, args...)}
}

// Verify 检查操作数合法性与栈平衡，返回最大栈深度（字）
//
// 所有问题都会被收集，用 multierr 聚合后一次返回。
func Verify(code []Instruction, pool *Pool, slotCount int) (int, error) {
	var errs error
	for i, in := range code {
		errs = multierr.Append(errs, checkOperand(i, in, len(code), pool, slotCount))
	}
	if errs != nil {
		return 0, errs
	}
	return MaxStack(code, pool)
}

func checkOperand(i int, in Instruction, n int, pool *Pool, slotCount int) error {
	if !in.Op.Valid() {
		return verr(i, "unknown opcode 0x%02x", uint8(in.Op))
	}

	switch in.Op.Operand() {
	case OperandLocal:
		width := 1
		if in.Op == OpDload || in.Op == OpDstore {
			width = 2
		}
		if in.Arg < 0 || in.Arg+width > slotCount {
			return verr(i, "%s slot %d out of frame (%d slots)", in.Op, in.Arg, slotCount)
		}
		if in.Arg > 0xFFFF {
			return verr(i, "%s slot %d exceeds 65535", in.Op, in.Arg)
		}
	case OperandBranch:
		if in.Arg < 0 || in.Arg >= n {
			return verr(i, "%s target %d out of range", in.Op, in.Arg)
		}
	case OperandConst:
		c, ok := pool.Get(uint16(in.Arg))
		if !ok || in.Arg <= 0 || in.Arg > 0xFFFF || c.Tag != ConstString {
			return verr(i, "ldc needs a String constant, got #%d", in.Arg)
		}
	case OperandConst2:
		c, ok := pool.Get(uint16(in.Arg))
		if !ok || in.Arg <= 0 || in.Arg > 0xFFFF || c.Tag != ConstDouble {
			return verr(i, "ldc2_w needs a Double constant, got #%d", in.Arg)
		}
	case OperandMethod:
		if _, err := pool.MethodAt(uint16(in.Arg)); err != nil || in.Arg <= 0 {
			return verr(i, "%s needs a Methodref: %v", in.Op, err)
		}
	}
	return nil
}

// MaxStack 用工作列表沿所有可达路径计算操作数栈的最大深度
//
// 同一条指令从不同路径到达时深度必须一致；执行不能越过代码末尾。
func MaxStack(code []Instruction, pool *Pool) (int, error) {
	if len(code) == 0 {
		return 0, verr(0, "empty code")
	}

	depths := make([]int, len(code))
	for i := range depths {
		depths[i] = -1
	}

	type workItem struct {
		pos   int
		depth int
	}
	worklist := []workItem{{0, 0}}
	maxDepth := 0
	var errs error

	for len(worklist) > 0 {
		item := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		pos, depth := item.pos, item.depth

		for {
			if pos >= len(code) {
				errs = multierr.Append(errs, verr(pos, "execution falls off the end of code"))
				break
			}
			if depths[pos] >= 0 {
				if depths[pos] != depth {
					errs = multierr.Append(errs, verr(pos,
						"inconsistent stack depth: %d and %d", depths[pos], depth))
				}
				break
			}
			depths[pos] = depth

			in := code[pos]
			pop, push, err := StackEffect(in, pool)
			if err != nil {
				errs = multierr.Append(errs, verr(pos, "%v", err))
				break
			}
			if depth < pop {
				errs = multierr.Append(errs, verr(pos,
					"stack underflow: %s needs %d words, have %d", in.Op, pop, depth))
				break
			}
			depth = depth - pop + push
			if depth > maxDepth {
				maxDepth = depth
			}

			if in.Op.IsBranch() {
				worklist = append(worklist, workItem{in.Arg, depth})
			}
			if in.Op.EndsFlow() {
				break
			}
			pos++
		}
	}

	if errs != nil {
		return 0, errs
	}
	return maxDepth, nil
}
