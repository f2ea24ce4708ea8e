package jvmgen

// 编译单元之外、由生成器直接写出的操作码
const (
	opAload0        = 0x2A
	opLdc           = 0x12
	opLdcW          = 0x13
	opAreturn       = 0xB0
	opReturn        = 0xB1
	opInvokespecial = 0xB7
)
