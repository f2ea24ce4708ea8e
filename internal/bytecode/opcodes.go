package bytecode

import "fmt"

// Opcode 指令操作码，取值与 JVM 规范一致
type Opcode uint8

// 编译器使用的 JVM 指令子集
const (
	OpAconstNull    Opcode = 0x01
	OpIconst0       Opcode = 0x03
	OpIconst1       Opcode = 0x04
	OpDconst0       Opcode = 0x0E
	OpDconst1       Opcode = 0x0F
	OpLdc           Opcode = 0x12 // 按常量池下标自动选择 ldc / ldc_w
	OpLdc2W         Opcode = 0x14
	OpIload         Opcode = 0x15
	OpDload         Opcode = 0x18
	OpAload         Opcode = 0x19
	OpIstore        Opcode = 0x36
	OpDstore        Opcode = 0x39
	OpAstore        Opcode = 0x3A
	OpPop           Opcode = 0x57
	OpPop2          Opcode = 0x58
	OpDup           Opcode = 0x59
	OpDup2          Opcode = 0x5C
	OpDadd          Opcode = 0x63
	OpDsub          Opcode = 0x67
	OpDmul          Opcode = 0x6B
	OpDdiv          Opcode = 0x6F
	OpDneg          Opcode = 0x77
	OpIand          Opcode = 0x7E
	OpIor           Opcode = 0x80
	OpIxor          Opcode = 0x82
	OpIfeq          Opcode = 0x99
	OpIfne          Opcode = 0x9A
	OpGoto          Opcode = 0xA7
	OpIreturn       Opcode = 0xAC
	OpDreturn       Opcode = 0xAF
	OpAreturn       Opcode = 0xB0
	OpReturn        Opcode = 0xB1
	OpInvokevirtual Opcode = 0xB6
	OpInvokestatic  Opcode = 0xB8
)

// 只在编码阶段出现的 JVM 操作码
const (
	opLdcW    = 0x13
	opWide    = 0xC4
	opIload0  = 0x1A
	opDload0  = 0x26
	opAload0  = 0x2A
	opIstore0 = 0x3B
	opDstore0 = 0x47
	opAstore0 = 0x4B
)

// OperandKind 指令操作数的含义
type OperandKind int

const (
	OperandNone   OperandKind = iota
	OperandLocal              // 局部变量槽位
	OperandConst              // 常量池下标（单字）
	OperandConst2             // 常量池下标（双字 double）
	OperandBranch             // 跳转目标（指令下标）
	OperandMethod             // 方法引用的常量池下标
)

// opInfo 指令元数据，Pop/Push 以 JVM 字（word）计，double 占两个字
type opInfo struct {
	Name    string
	Operand OperandKind
	Pop     int
	Push    int
}

var opTable = map[Opcode]opInfo{
	OpAconstNull:    {"aconst_null", OperandNone, 0, 1},
	OpIconst0:       {"iconst_0", OperandNone, 0, 1},
	OpIconst1:       {"iconst_1", OperandNone, 0, 1},
	OpDconst0:       {"dconst_0", OperandNone, 0, 2},
	OpDconst1:       {"dconst_1", OperandNone, 0, 2},
	OpLdc:           {"ldc", OperandConst, 0, 1},
	OpLdc2W:         {"ldc2_w", OperandConst2, 0, 2},
	OpIload:         {"iload", OperandLocal, 0, 1},
	OpDload:         {"dload", OperandLocal, 0, 2},
	OpAload:         {"aload", OperandLocal, 0, 1},
	OpIstore:        {"istore", OperandLocal, 1, 0},
	OpDstore:        {"dstore", OperandLocal, 2, 0},
	OpAstore:        {"astore", OperandLocal, 1, 0},
	OpPop:           {"pop", OperandNone, 1, 0},
	OpPop2:          {"pop2", OperandNone, 2, 0},
	OpDup:           {"dup", OperandNone, 1, 2},
	OpDup2:          {"dup2", OperandNone, 2, 4},
	OpDadd:          {"dadd", OperandNone, 4, 2},
	OpDsub:          {"dsub", OperandNone, 4, 2},
	OpDmul:          {"dmul", OperandNone, 4, 2},
	OpDdiv:          {"ddiv", OperandNone, 4, 2},
	OpDneg:          {"dneg", OperandNone, 2, 2},
	OpIand:          {"iand", OperandNone, 2, 1},
	OpIor:           {"ior", OperandNone, 2, 1},
	OpIxor:          {"ixor", OperandNone, 2, 1},
	OpIfeq:          {"ifeq", OperandBranch, 1, 0},
	OpIfne:          {"ifne", OperandBranch, 1, 0},
	OpGoto:          {"goto", OperandBranch, 0, 0},
	OpIreturn:       {"ireturn", OperandNone, 1, 0},
	OpDreturn:       {"dreturn", OperandNone, 2, 0},
	OpAreturn:       {"areturn", OperandNone, 1, 0},
	OpReturn:        {"return", OperandNone, 0, 0},
	OpInvokevirtual: {"invokevirtual", OperandMethod, 0, 0}, // 栈效果由描述符决定
	OpInvokestatic:  {"invokestatic", OperandMethod, 0, 0},
}

// String 返回 JVM 助记符
func (op Opcode) String() string {
	if info, ok := opTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("op(0x%02x)", uint8(op))
}

// Valid 判断操作码是否属于编译器使用的子集
func (op Opcode) Valid() bool {
	_, ok := opTable[op]
	return ok
}

// Operand 返回操作数的种类
func (op Opcode) Operand() OperandKind {
	return opTable[op].Operand
}

// IsReturn 判断是否为返回指令
func (op Opcode) IsReturn() bool {
	switch op {
	case OpIreturn, OpDreturn, OpAreturn, OpReturn:
		return true
	}
	return false
}

// IsBranch 判断是否为跳转指令
func (op Opcode) IsBranch() bool {
	return op.Operand() == OperandBranch
}

// EndsFlow 判断执行是否不会顺序落到下一条指令
func (op Opcode) EndsFlow() bool {
	return op == OpGoto || op.IsReturn()
}
