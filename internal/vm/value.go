package vm

import (
	"fmt"
	"strconv"
)

// ValueType 一个栈字装的内容
type ValueType uint8

const (
	ValEmpty  ValueType = iota // 未写入的局部变量
	ValInt                     // int / boolean
	ValDouble                  // double 的低位字，携带数值
	ValTop                     // double 的高位字，不携带数值
	ValRef                     // 引用：string 或 null
)

// Value 操作数栈和局部变量表中的一个字
//
// double 占两个字：ValDouble 后面紧跟 ValTop，与 JVM 的计数方式一致。
type Value struct {
	Type ValueType
	I    int32
	F    float64
	Ref  interface{}
}

var (
	topValue  = Value{Type: ValTop}
	nullValue = Value{Type: ValRef}
)

// NewInt 创建 int 字
func NewInt(v int32) Value { return Value{Type: ValInt, I: v} }

// NewBool 创建 boolean 字
func NewBool(v bool) Value {
	if v {
		return NewInt(1)
	}
	return NewInt(0)
}

// NewDouble 创建 double 的两个字
func NewDouble(v float64) [2]Value {
	return [2]Value{{Type: ValDouble, F: v}, topValue}
}

// NewRef 创建引用字，nil 表示 null
func NewRef(v interface{}) Value { return Value{Type: ValRef, Ref: v} }

func (v Value) String() string {
	switch v.Type {
	case ValInt:
		return strconv.Itoa(int(v.I))
	case ValDouble:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case ValTop:
		return "<top>"
	case ValRef:
		if v.Ref == nil {
			return "null"
		}
		if s, ok := v.Ref.(string); ok {
			return strconv.Quote(s)
		}
		return fmt.Sprintf("%v", v.Ref)
	}
	return "<empty>"
}
