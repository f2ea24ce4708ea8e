package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble 返回单元的可读反汇编
//
//	=== tempvar ===  ()D  max_stack=8 slots=2
//	0000    1 ldc2_w #1            // 10.0d
//	0001    | ...
func (u *Unit) Disassemble() string {
	var sb strings.Builder
	sb.Grow(len(u.Code) * 40)

	fmt.Fprintf(&sb, "=== %s ===  %s  max_stack=%d slots=%d\n",
		u.Name, u.Descriptor(), u.MaxStack, u.SlotCount)

	for i, in := range u.Code {
		fmt.Fprintf(&sb, "%04d ", i)
		if i > 0 && in.Line == u.Code[i-1].Line {
			sb.WriteString("   | ")
		} else {
			fmt.Fprintf(&sb, "%4d ", in.Line)
		}

		text := in.String()
		sb.WriteString(text)
		if c := u.comment(in); c != "" {
			if pad := 20 - len(text); pad > 0 {
				sb.WriteString(strings.Repeat(" ", pad))
			}
			sb.WriteString(" // ")
			sb.WriteString(c)
		}
		sb.WriteByte('\n')
	}

	if len(u.Slots) > 0 {
		sb.WriteString("locals:\n")
		for _, s := range u.Slots {
			fmt.Fprintf(&sb, "  %3d %-12s %s\n", s.Index, s.Name, s.Kind)
		}
	}
	return sb.String()
}

func (u *Unit) comment(in Instruction) string {
	switch in.Op.Operand() {
	case OperandConst, OperandConst2, OperandMethod:
		return u.Pool.DescribeAt(uint16(in.Arg))
	case OperandLocal:
		return u.SlotName(in.Arg)
	}
	return ""
}
