// Package jvmgen 把编译单元包装成 JVM class 文件
package jvmgen

import (
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/tangzhangming/lye/internal/bytecode"
)

// Class 文件常量
const (
	ClassFileMagic    = 0xCAFEBABE
	ClassMajorVersion = 49 // Java 5，不需要 StackMapTable
	ClassMinorVersion = 0
)

// 访问标志
const (
	AccPublic = 0x0001
	AccStatic = 0x0008
	AccSuper  = 0x0020
)

// ClassFile JVM class 文件结构
//
// 常量池直接使用 bytecode.Pool，单元里的常量下标写入后保持不变。
type ClassFile struct {
	Pool        *bytecode.Pool
	AccessFlags uint16
	ThisClass   uint16
	SuperClass  uint16
	Methods     []MethodInfo
	Attributes  []AttributeInfo
}

// MethodInfo 方法信息
type MethodInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// AttributeInfo 属性信息
type AttributeInfo struct {
	NameIndex uint16
	Info      []byte
}

// NewClassFile 创建 public 类，父类为 java/lang/Object
func NewClassFile(pool *bytecode.Pool, className string) *ClassFile {
	return &ClassFile{
		Pool:        pool,
		AccessFlags: AccPublic | AccSuper,
		ThisClass:   pool.Class(className),
		SuperClass:  pool.Class("java/lang/Object"),
	}
}

// Attribute 按名字创建属性，名字放进常量池
func (cf *ClassFile) Attribute(name string, info []byte) AttributeInfo {
	return AttributeInfo{NameIndex: cf.Pool.Utf8(name), Info: info}
}

// ToBytes 序列化 class 文件
func (cf *ClassFile) ToBytes() ([]byte, error) {
	if cf.Pool.Count() > math.MaxUint16 {
		return nil, fmt.Errorf("jvmgen: constant pool too large (%d entries)", cf.Pool.Count())
	}

	w := bytecode.NewByteWriter()
	w.WriteU32(ClassFileMagic)
	w.WriteU16(ClassMinorVersion)
	w.WriteU16(ClassMajorVersion)

	w.WriteU16(uint16(cf.Pool.Count()))
	for i, c := range cf.Pool.Entries {
		if err := writeConstant(w, c); err != nil {
			return nil, fmt.Errorf("jvmgen: constant #%d: %w", i+1, err)
		}
	}

	w.WriteU16(cf.AccessFlags)
	w.WriteU16(cf.ThisClass)
	w.WriteU16(cf.SuperClass)
	w.WriteU16(0) // interfaces
	w.WriteU16(0) // fields

	w.WriteU16(uint16(len(cf.Methods)))
	for _, m := range cf.Methods {
		w.WriteU16(m.AccessFlags)
		w.WriteU16(m.NameIndex)
		w.WriteU16(m.DescriptorIndex)
		writeAttributes(w, m.Attributes)
	}

	writeAttributes(w, cf.Attributes)
	return w.Bytes(), nil
}

func writeAttributes(w *bytecode.ByteWriter, attrs []AttributeInfo) {
	w.WriteU16(uint16(len(attrs)))
	for _, a := range attrs {
		w.WriteU16(a.NameIndex)
		w.WriteU32(uint32(len(a.Info)))
		w.WriteBytes(a.Info)
	}
}

func writeConstant(w *bytecode.ByteWriter, c bytecode.Constant) error {
	switch c.Tag {
	case 0:
		// double 的第二个下标不占字节
	case bytecode.ConstUtf8:
		b := modifiedUTF8(c.Str)
		if len(b) > math.MaxUint16 {
			return fmt.Errorf("utf8 constant too long (%d bytes)", len(b))
		}
		w.WriteU8(uint8(c.Tag))
		w.WriteU16(uint16(len(b)))
		w.WriteBytes(b)
	case bytecode.ConstDouble:
		w.WriteU8(uint8(c.Tag))
		w.WriteU64(math.Float64bits(c.Num))
	case bytecode.ConstClass, bytecode.ConstString:
		w.WriteU8(uint8(c.Tag))
		w.WriteU16(c.A)
	case bytecode.ConstMethodref, bytecode.ConstNameAndType:
		w.WriteU8(uint8(c.Tag))
		w.WriteU16(c.A)
		w.WriteU16(c.B)
	default:
		return fmt.Errorf("unsupported tag %s", c.Tag)
	}
	return nil
}

// modifiedUTF8 JVM 的 UTF-8 变体：U+0000 写成两个字节，补充平面字符拆成代理对
func modifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r != 0 && r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			out = appendThree(out, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			out = appendThree(out, hi)
			out = appendThree(out, lo)
		}
	}
	return out
}

func appendThree(out []byte, r rune) []byte {
	return append(out, 0xE0|byte(r>>12), 0x80|byte((r>>6)&0x3F), 0x80|byte(r&0x3F))
}
