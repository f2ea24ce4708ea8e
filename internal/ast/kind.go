package ast

// Kind 运行时值类别，决定指令族的选择
type Kind int

const (
	Boolean Kind = iota
	Number
	String
	Callable
	Nil
)

var kindNames = [...]string{
	Boolean:  "Boolean",
	Number:   "Number",
	String:   "String",
	Callable: "Callable",
	Nil:      "Nil",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Width 返回该类别绑定占用的槽位数，Number 为双宽
func (k Kind) Width() int {
	if k == Number {
		return 2
	}
	return 1
}

// IsReference 判断该类别是否以引用形式存放
func (k Kind) IsReference() bool {
	switch k {
	case String, Callable, Nil:
		return true
	}
	return false
}

// KindOf 返回字面量载荷的类别
//
// 未知载荷归为 Nil，编译器会另行拒绝它。
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case bool:
		return Boolean
	case float64:
		return Number
	case string:
		return String
	}
	return Nil
}

func (e *Literal) Kind() Kind { return KindOf(e.Value) }

func (e *Binary) Kind() Kind {
	switch e.Op {
	case And, Or:
		return Boolean
	case Add:
		return e.Left.Kind()
	}
	return Number
}

func (e *Variable) Kind() Kind { return e.Annot }
func (e *Assign) Kind() Kind   { return e.Value.Kind() }
func (e *This) Kind() Kind     { return e.Annot }
func (e *Unary) Kind() Kind    { return e.Operand.Kind() }
