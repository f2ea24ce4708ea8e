package bytecode

import (
	"fmt"
	"math"
)

// ============================================================================
// 常量池
// ============================================================================
//
// 布局与 JVM class 文件的常量池一致：下标从 1 开始，Double 占两个下标。
// 这样编码后的 ldc / ldc2_w / invoke* 操作数可以原样放进 class 文件，
// 类文件生成器只需在同一个池后面追加自己的条目。
//
// ============================================================================

// ConstTag 常量池条目标签
type ConstTag uint8

const (
	ConstUtf8        ConstTag = 1
	ConstDouble      ConstTag = 6
	ConstClass       ConstTag = 7
	ConstString      ConstTag = 8
	ConstMethodref   ConstTag = 10
	ConstNameAndType ConstTag = 12
)

func (t ConstTag) String() string {
	switch t {
	case ConstUtf8:
		return "Utf8"
	case ConstDouble:
		return "Double"
	case ConstClass:
		return "Class"
	case ConstString:
		return "String"
	case ConstMethodref:
		return "Methodref"
	case ConstNameAndType:
		return "NameAndType"
	case 0:
		return "(unusable)"
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Constant 常量池条目
//
// Utf8 使用 Str，Double 使用 Num，其余类型用 A/B 引用其他条目下标：
// Class.A=名字；String.A=内容；NameAndType.A=名字,B=描述符；Methodref.A=类,B=NameAndType。
// Double 后面跟一个 Tag 为 0 的占位条目。
type Constant struct {
	Tag ConstTag `cbor:"1,keyasint"`
	Str string   `cbor:"2,keyasint,omitempty"`
	Num float64  `cbor:"3,keyasint"`
	A   uint16   `cbor:"4,keyasint,omitempty"`
	B   uint16   `cbor:"5,keyasint,omitempty"`
}

// Pool 去重的常量池
type Pool struct {
	Entries []Constant `cbor:"1,keyasint"`

	index map[string]uint16
}

// NewPool 创建空常量池
func NewPool() *Pool {
	return &Pool{index: make(map[string]uint16)}
}

// Count 返回 class 文件中的 constant_pool_count（条目数 + 1）
func (p *Pool) Count() int {
	return len(p.Entries) + 1
}

// Get 按 1 起始的下标取条目
func (p *Pool) Get(i uint16) (Constant, bool) {
	if i == 0 || int(i) > len(p.Entries) {
		return Constant{}, false
	}
	c := p.Entries[i-1]
	return c, c.Tag != 0
}

// Clone 深拷贝常量池，副本可以继续追加而不影响原池
func (p *Pool) Clone() *Pool {
	q := &Pool{Entries: make([]Constant, len(p.Entries))}
	copy(q.Entries, p.Entries)
	q.reindex()
	return q
}

// reindex 重建去重索引（反序列化后调用）
func (p *Pool) reindex() {
	p.index = make(map[string]uint16, len(p.Entries))
	for i, c := range p.Entries {
		if c.Tag == 0 {
			continue
		}
		p.index[c.key()] = uint16(i + 1)
	}
}

func (c Constant) key() string {
	switch c.Tag {
	case ConstUtf8:
		return "utf8:" + c.Str
	case ConstDouble:
		return fmt.Sprintf("double:%016x", math.Float64bits(c.Num))
	default:
		return fmt.Sprintf("%d:%d:%d", c.Tag, c.A, c.B)
	}
}

func (p *Pool) add(c Constant) uint16 {
	if p.index == nil {
		p.reindex()
	}
	key := c.key()
	if idx, ok := p.index[key]; ok {
		return idx
	}
	p.Entries = append(p.Entries, c)
	idx := uint16(len(p.Entries))
	if c.Tag == ConstDouble {
		p.Entries = append(p.Entries, Constant{})
	}
	p.index[key] = idx
	return idx
}

// Utf8 添加 Utf8 条目
func (p *Pool) Utf8(s string) uint16 {
	return p.add(Constant{Tag: ConstUtf8, Str: s})
}

// Double 添加 Double 条目，按位比较，0.0 与 -0.0 是不同的常量
func (p *Pool) Double(v float64) uint16 {
	return p.add(Constant{Tag: ConstDouble, Num: v})
}

// Class 添加类引用，name 使用内部形式（java/lang/String）
func (p *Pool) Class(name string) uint16 {
	return p.add(Constant{Tag: ConstClass, A: p.Utf8(name)})
}

// InternString 添加字符串常量（驻留）
func (p *Pool) InternString(s string) uint16 {
	return p.add(Constant{Tag: ConstString, A: p.Utf8(s)})
}

// NameAndType 添加名字与描述符
func (p *Pool) NameAndType(name, descriptor string) uint16 {
	return p.add(Constant{Tag: ConstNameAndType, A: p.Utf8(name), B: p.Utf8(descriptor)})
}

// Methodref 添加方法引用
func (p *Pool) Methodref(class, name, descriptor string) uint16 {
	return p.add(Constant{
		Tag: ConstMethodref,
		A:   p.Class(class),
		B:   p.NameAndType(name, descriptor),
	})
}

// Utf8At 读取 Utf8 条目的内容
func (p *Pool) Utf8At(i uint16) (string, error) {
	c, ok := p.Get(i)
	if !ok || c.Tag != ConstUtf8 {
		return "", fmt.Errorf("constant #%d is not Utf8", i)
	}
	return c.Str, nil
}

// StringAt 读取 String 条目指向的内容
func (p *Pool) StringAt(i uint16) (string, error) {
	c, ok := p.Get(i)
	if !ok || c.Tag != ConstString {
		return "", fmt.Errorf("constant #%d is not String", i)
	}
	return p.Utf8At(c.A)
}

// DoubleAt 读取 Double 条目
func (p *Pool) DoubleAt(i uint16) (float64, error) {
	c, ok := p.Get(i)
	if !ok || c.Tag != ConstDouble {
		return 0, fmt.Errorf("constant #%d is not Double", i)
	}
	return c.Num, nil
}

// MethodRef 方法引用的展开形式
type MethodRef struct {
	Class      string
	Name       string
	Descriptor string
}

func (m MethodRef) String() string {
	return m.Class + "." + m.Name + ":" + m.Descriptor
}

// MethodAt 展开 Methodref 条目
func (p *Pool) MethodAt(i uint16) (MethodRef, error) {
	c, ok := p.Get(i)
	if !ok || c.Tag != ConstMethodref {
		return MethodRef{}, fmt.Errorf("constant #%d is not Methodref", i)
	}
	cls, ok := p.Get(c.A)
	if !ok || cls.Tag != ConstClass {
		return MethodRef{}, fmt.Errorf("constant #%d is not Class", c.A)
	}
	nat, ok := p.Get(c.B)
	if !ok || nat.Tag != ConstNameAndType {
		return MethodRef{}, fmt.Errorf("constant #%d is not NameAndType", c.B)
	}

	var m MethodRef
	var err error
	if m.Class, err = p.Utf8At(cls.A); err != nil {
		return MethodRef{}, err
	}
	if m.Name, err = p.Utf8At(nat.A); err != nil {
		return MethodRef{}, err
	}
	if m.Descriptor, err = p.Utf8At(nat.B); err != nil {
		return MethodRef{}, err
	}
	return m, nil
}

// DescribeAt 返回条目的可读形式（反汇编用）
func (p *Pool) DescribeAt(i uint16) string {
	c, ok := p.Get(i)
	if !ok {
		return "<invalid>"
	}
	switch c.Tag {
	case ConstUtf8:
		return fmt.Sprintf("%q", c.Str)
	case ConstDouble:
		return fmt.Sprintf("%vd", c.Num)
	case ConstString:
		s, _ := p.Utf8At(c.A)
		return fmt.Sprintf("String %q", s)
	case ConstClass:
		s, _ := p.Utf8At(c.A)
		return "Class " + s
	case ConstMethodref:
		m, err := p.MethodAt(i)
		if err != nil {
			return "<invalid>"
		}
		return "Method " + m.String()
	case ConstNameAndType:
		n, _ := p.Utf8At(c.A)
		d, _ := p.Utf8At(c.B)
		return "NameAndType " + n + ":" + d
	}
	return c.Tag.String()
}

// ============================================================================
// 方法描述符
// ============================================================================

// DescriptorWords 计算方法描述符的参数字数与返回值字数
//
// "(DD)D" 返回 4, 2；"(Ljava/lang/String;)Ljava/lang/String;" 返回 1, 1。
func DescriptorWords(desc string) (args, ret int, err error) {
	if len(desc) == 0 || desc[0] != '(' {
		return 0, 0, fmt.Errorf("bad method descriptor %q", desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		w, n, err := fieldWords(desc[i:])
		if err != nil {
			return 0, 0, fmt.Errorf("bad method descriptor %q: %w", desc, err)
		}
		args += w
		i += n
	}
	if i >= len(desc) {
		return 0, 0, fmt.Errorf("bad method descriptor %q", desc)
	}
	i++
	if desc[i:] == "V" {
		return args, 0, nil
	}
	w, n, err := fieldWords(desc[i:])
	if err != nil || i+n != len(desc) {
		return 0, 0, fmt.Errorf("bad method descriptor %q", desc)
	}
	return args, w, nil
}

// fieldWords 解析一个字段描述符，返回它占的字数与字符长度
func fieldWords(s string) (words, n int, err error) {
	if s == "" {
		return 0, 0, fmt.Errorf("empty field descriptor")
	}
	switch s[0] {
	case 'D', 'J':
		return 2, 1, nil
	case 'Z', 'B', 'C', 'S', 'I', 'F':
		return 1, 1, nil
	case 'L':
		for i := 1; i < len(s); i++ {
			if s[i] == ';' {
				return 1, i + 1, nil
			}
		}
		return 0, 0, fmt.Errorf("unterminated class descriptor")
	case '[':
		_, n, err := fieldWords(s[1:])
		if err != nil {
			return 0, 0, err
		}
		return 1, n + 1, nil
	}
	return 0, 0, fmt.Errorf("unknown descriptor %q", s[:1])
}
