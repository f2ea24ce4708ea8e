package scope

import (
	stderrors "errors"
	"testing"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/errors"
	"github.com/tangzhangming/lye/internal/token"
)

func TestDeclareSlotWidths(t *testing.T) {
	a := New(0)

	decls := []struct {
		name string
		kind ast.Kind
		slot int
	}{
		{"n", ast.Number, 0},
		{"b", ast.Boolean, 2},
		{"m", ast.Number, 3},
		{"s", ast.String, 5},
		{"z", ast.Nil, 6},
	}

	for _, d := range decls {
		b, err := a.Declare(d.name, d.kind, token.Position{})
		if err != nil {
			t.Fatalf("Declare(%s): %v", d.name, err)
		}
		if b.Slot != d.slot {
			t.Errorf("%s slot = %d, want %d", d.name, b.Slot, d.slot)
		}
	}

	if got := a.SlotCount(); got != 7 {
		t.Errorf("SlotCount() = %d, want 7", got)
	}
}

func TestDeclareBase(t *testing.T) {
	a := New(1)
	b, _ := a.Declare("x", ast.Number, token.Position{})
	if b.Slot != 1 {
		t.Errorf("slot = %d, want 1", b.Slot)
	}
	if a.SlotCount() != 3 {
		t.Errorf("SlotCount() = %d, want 3", a.SlotCount())
	}
}

func TestRedeclare(t *testing.T) {
	a := New(0)
	if _, err := a.Declare("x", ast.Number, token.Position{}); err != nil {
		t.Fatal(err)
	}

	pos := token.Position{Line: 2, Column: 5}
	_, err := a.Declare("x", ast.String, pos)

	var re *errors.RedeclareError
	if !stderrors.As(err, &re) {
		t.Fatalf("err = %v, want RedeclareError", err)
	}
	if re.Name != "x" || re.Pos != pos {
		t.Errorf("got %+v", re)
	}
	if a.SlotCount() != 2 {
		t.Errorf("failed declaration allocated a slot: %d", a.SlotCount())
	}
}

func TestShadowInChildScope(t *testing.T) {
	a := New(0)
	outer, _ := a.Declare("x", ast.Number, token.Position{})

	a.Enter()
	inner, err := a.Declare("x", ast.Boolean, token.Position{})
	if err != nil {
		t.Fatalf("shadowing in child scope: %v", err)
	}
	got, ok := a.Resolve("x")
	if !ok || got.Slot != inner.Slot || got.Kind != ast.Boolean {
		t.Errorf("Resolve in child = %+v", got)
	}
	a.Leave()

	got, ok = a.Resolve("x")
	if !ok || got.Slot != outer.Slot {
		t.Errorf("Resolve after Leave = %+v, want outer", got)
	}
}

func TestScopeContainment(t *testing.T) {
	a := New(0)
	a.Enter()
	a.Declare("inner", ast.Number, token.Position{})
	if _, ok := a.Resolve("inner"); !ok {
		t.Fatal("inner should resolve inside its block")
	}
	a.Leave()

	if _, ok := a.Resolve("inner"); ok {
		t.Error("inner resolved after its block was left")
	}
}

func TestResolveWalksParents(t *testing.T) {
	a := New(0)
	a.Declare("g", ast.String, token.Position{})
	a.Enter()
	a.Enter()
	if a.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", a.Depth())
	}
	b, ok := a.Resolve("g")
	if !ok || b.Slot != 0 {
		t.Errorf("Resolve(g) = %+v, %v", b, ok)
	}
	if _, ok := a.Resolve("missing"); ok {
		t.Error("Resolve(missing) succeeded")
	}
}

func TestNeverReuseSlots(t *testing.T) {
	a := New(0)

	a.Enter()
	first, _ := a.Declare("t", ast.Number, token.Position{})
	a.Leave()

	a.Enter()
	second, _ := a.Declare("t", ast.Number, token.Position{})
	a.Leave()

	if first.Slot == second.Slot {
		t.Errorf("sibling blocks share slot %d", first.Slot)
	}
	if a.SlotCount() != 4 {
		t.Errorf("SlotCount() = %d, want 4", a.SlotCount())
	}

	bindings := a.Bindings()
	for i := 1; i < len(bindings); i++ {
		prev := bindings[i-1]
		if bindings[i].Slot < prev.Slot+prev.Width() {
			t.Errorf("binding %s overlaps %s", bindings[i].Name, prev.Name)
		}
	}
}

func TestLeaveRootPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Leave on root did not panic")
		}
	}()
	New(0).Leave()
}

func TestVisible(t *testing.T) {
	a := New(0)
	a.Declare("outer", ast.Number, token.Position{})
	a.Enter()
	a.Declare("inner", ast.Number, token.Position{})

	names := a.Visible()
	if len(names) != 2 {
		t.Errorf("Visible() = %v", names)
	}
}

func TestDeclarePending(t *testing.T) {
	a := New(0)
	if _, err := a.Declare("x", ast.Number, token.Position{}); err != nil {
		t.Fatal(err)
	}
	a.Enter()

	b, err := a.DeclarePending("x", ast.Boolean, token.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if b.Slot != 2 {
		t.Errorf("slot = %d, want 2", b.Slot)
	}

	// 待定的内层绑定不回退到外层的 x
	if _, ok := a.Resolve("x"); ok {
		t.Error("pending binding resolved")
	}
	if got := a.Visible(); len(got) != 0 {
		t.Errorf("Visible() = %v, want nothing while x is pending", got)
	}
	if _, err := a.DeclarePending("x", ast.Boolean, token.Position{}); err == nil {
		t.Error("redeclaring a pending name succeeded")
	}

	a.Complete("x")
	got, ok := a.Resolve("x")
	if !ok || got.Slot != 2 || got.Kind != ast.Boolean {
		t.Errorf("after Complete: %+v, %v", got, ok)
	}
}
