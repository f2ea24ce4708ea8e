package jvmgen

import (
	"fmt"

	"github.com/tangzhangming/lye/internal/bytecode"
)

// ============================================================================
// 单元到 class 文件
// ============================================================================
//
// 生成的类只有三个方法：
//   - public static main()<返回类型>   单元本身
//   - public <init>()V                 调用 Object.<init>
//   - public toString()String          返回 "<Lye Script: 名字>"
//
// 单元的常量池被复制后追加类文件自己的条目，指令里的常量下标不需要重写。
//
// ============================================================================

// EntryMethod 单元入口方法名
const EntryMethod = "main"

// Generator class 文件生成器
type Generator struct {
	unit      *bytecode.Unit
	className string
	cf        *ClassFile
}

// NewGenerator 创建生成器，className 使用内部形式（a/b/Script）
func NewGenerator(u *bytecode.Unit, className string) *Generator {
	return &Generator{unit: u, className: className}
}

// Generate 生成 class 文件
func Generate(u *bytecode.Unit, className string) ([]byte, error) {
	return NewGenerator(u, className).Generate()
}

// Generate 生成 class 文件
func (g *Generator) Generate() ([]byte, error) {
	if g.className == "" {
		return nil, fmt.Errorf("jvmgen: empty class name")
	}
	g.cf = NewClassFile(g.unit.Pool.Clone(), g.className)

	entry, err := g.generateMainMethod()
	if err != nil {
		return nil, err
	}
	g.cf.Methods = append(g.cf.Methods, entry, g.generateInitMethod(), g.generateToString())

	return g.cf.ToBytes()
}

// generateMainMethod 单元的指令原样成为静态入口方法
func (g *Generator) generateMainMethod() (MethodInfo, error) {
	code, offsets, err := bytecode.Encode(g.unit.Code)
	if err != nil {
		return MethodInfo{}, fmt.Errorf("jvmgen: %s: %w", g.unit.Name, err)
	}

	var attrs []AttributeInfo
	if lines := g.lineNumberTable(offsets); lines != nil {
		attrs = append(attrs, *lines)
	}
	if len(g.unit.Slots) > 0 {
		attrs = append(attrs, g.localVariableTable(len(code)))
	}

	return MethodInfo{
		AccessFlags:     AccPublic | AccStatic,
		NameIndex:       g.cf.Pool.Utf8(EntryMethod),
		DescriptorIndex: g.cf.Pool.Utf8(g.unit.Descriptor()),
		Attributes: []AttributeInfo{
			g.codeAttribute(g.unit.MaxStack, g.unit.SlotCount, code, attrs),
		},
	}, nil
}

// generateInitMethod 默认构造函数
func (g *Generator) generateInitMethod() MethodInfo {
	super := g.cf.Pool.Methodref("java/lang/Object", "<init>", "()V")

	w := bytecode.NewByteWriter()
	w.WriteU8(opAload0)
	w.WriteU8(opInvokespecial)
	w.WriteU16(super)
	w.WriteU8(opReturn)

	return MethodInfo{
		AccessFlags:     AccPublic,
		NameIndex:       g.cf.Pool.Utf8("<init>"),
		DescriptorIndex: g.cf.Pool.Utf8("()V"),
		Attributes:      []AttributeInfo{g.codeAttribute(1, 1, w.Bytes(), nil)},
	}
}

// generateToString 返回脚本的展示名
func (g *Generator) generateToString() MethodInfo {
	idx := g.cf.Pool.InternString(ScriptName(g.unit.Name))

	w := bytecode.NewByteWriter()
	if idx <= 0xFF {
		w.WriteU8(opLdc)
		w.WriteU8(uint8(idx))
	} else {
		w.WriteU8(opLdcW)
		w.WriteU16(idx)
	}
	w.WriteU8(opAreturn)

	return MethodInfo{
		AccessFlags:     AccPublic,
		NameIndex:       g.cf.Pool.Utf8("toString"),
		DescriptorIndex: g.cf.Pool.Utf8("()Ljava/lang/String;"),
		Attributes:      []AttributeInfo{g.codeAttribute(1, 1, w.Bytes(), nil)},
	}
}

// ScriptName toString 返回的展示名
func ScriptName(name string) string {
	return "<Lye Script: " + name + ">"
}

func (g *Generator) codeAttribute(maxStack, maxLocals int, code []byte, attrs []AttributeInfo) AttributeInfo {
	w := bytecode.NewByteWriter()
	w.WriteU16(uint16(maxStack))
	w.WriteU16(uint16(maxLocals))
	w.WriteU32(uint32(len(code)))
	w.WriteBytes(code)
	w.WriteU16(0) // exception_table_length
	writeAttributes(w, attrs)
	return g.cf.Attribute("Code", w.Bytes())
}

// lineNumberTable 行号变化处记一条，没有行号信息时返回 nil
func (g *Generator) lineNumberTable(offsets []int) *AttributeInfo {
	type entry struct{ pc, line int }
	var entries []entry
	last := 0
	for i, in := range g.unit.Code {
		if in.Line == 0 || in.Line == last {
			continue
		}
		entries = append(entries, entry{offsets[i], in.Line})
		last = in.Line
	}
	if len(entries) == 0 {
		return nil
	}

	w := bytecode.NewByteWriter()
	w.WriteU16(uint16(len(entries)))
	for _, e := range entries {
		w.WriteU16(uint16(e.pc))
		w.WriteU16(uint16(e.line))
	}
	attr := g.cf.Attribute("LineNumberTable", w.Bytes())
	return &attr
}

// localVariableTable 每个绑定覆盖整个方法体
func (g *Generator) localVariableTable(codeLen int) AttributeInfo {
	w := bytecode.NewByteWriter()
	w.WriteU16(uint16(len(g.unit.Slots)))
	for _, s := range g.unit.Slots {
		w.WriteU16(0)
		w.WriteU16(uint16(codeLen))
		w.WriteU16(g.cf.Pool.Utf8(s.Name))
		w.WriteU16(g.cf.Pool.Utf8(bytecode.KindDescriptor(s.Kind)))
		w.WriteU16(uint16(s.Index))
	}
	return g.cf.Attribute("LocalVariableTable", w.Bytes())
}
