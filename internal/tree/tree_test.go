package tree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ShayCichocki/fable/pkg/models"
)

func newTestTree() *Tree {
	return New("write a story", 6000, models.Metadata{Theme: "courage"},
		Limits{MaxDepth: 3, MinChildren: 2})
}

func TestNew_Root(t *testing.T) {
	tr := newTestTree()
	root := tr.Root()

	if root.ID == "" {
		t.Error("root should have an ID")
	}
	if root.Task != "write a story" {
		t.Errorf("root task = %q", root.Task)
	}
	if root.WordBudget != 6000 {
		t.Errorf("root budget = %d, want 6000", root.WordBudget)
	}
	if root.Depth != 0 {
		t.Errorf("root depth = %d, want 0", root.Depth)
	}
	if !root.IsLeaf() {
		t.Error("fresh root should be a leaf")
	}
	if tr.Meta().Theme != "courage" {
		t.Errorf("meta theme = %q", tr.Meta().Theme)
	}
}

func TestAttachChildren(t *testing.T) {
	tr := newTestTree()
	children, err := tr.AttachChildren(tr.Root(), []ChildSpec{
		{Task: "act one", WordBudget: 2000},
		{Task: "act two", WordBudget: 4000},
	})
	if err != nil {
		t.Fatalf("AttachChildren failed: %v", err)
	}

	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	for i, c := range children {
		if c.Depth != 1 {
			t.Errorf("child %d depth = %d, want 1", i, c.Depth)
		}
		if c.Parent() != tr.Root() {
			t.Errorf("child %d parent should be root", i)
		}
		if c.ID == "" {
			t.Errorf("child %d missing ID", i)
		}
	}
	if tr.Root().IsLeaf() {
		t.Error("root should no longer be a leaf")
	}
}

func TestAttachChildren_AlreadyDecomposed(t *testing.T) {
	tr := newTestTree()
	specs := []ChildSpec{{Task: "a", WordBudget: 1}, {Task: "b", WordBudget: 1}}
	if _, err := tr.AttachChildren(tr.Root(), specs); err != nil {
		t.Fatalf("first attach failed: %v", err)
	}
	if _, err := tr.AttachChildren(tr.Root(), specs); err == nil {
		t.Error("expected error attaching children twice")
	}
}

func TestAttachChildren_TooFew(t *testing.T) {
	tr := newTestTree()
	_, err := tr.AttachChildren(tr.Root(), []ChildSpec{{Task: "only", WordBudget: 6000}})
	if err == nil {
		t.Fatal("expected error for a single child")
	}
	if !strings.Contains(err.Error(), "at least") {
		t.Errorf("error = %q, should mention the minimum", err.Error())
	}
}

func TestAttachChildren_DepthLimit(t *testing.T) {
	tr := New("task", 100, models.Metadata{}, Limits{MaxDepth: 1, MinChildren: 2})
	specs := []ChildSpec{{Task: "a", WordBudget: 50}, {Task: "b", WordBudget: 50}}

	children, err := tr.AttachChildren(tr.Root(), specs)
	if err != nil {
		t.Fatalf("attach at depth 0 should succeed: %v", err)
	}
	if _, err := tr.AttachChildren(children[0], specs); err == nil {
		t.Error("expected error attaching beyond max depth")
	}
}

func TestAttachChildren_Frozen(t *testing.T) {
	tr := newTestTree()
	tr.Freeze()
	if !tr.Frozen() {
		t.Fatal("tree should report frozen")
	}
	_, err := tr.AttachChildren(tr.Root(), []ChildSpec{{Task: "a"}, {Task: "b"}})
	if err == nil {
		t.Error("expected error attaching to frozen tree")
	}
}

// buildThreeLevel returns a tree shaped:
//
//	root -> [A -> [A1, A2], B]
//
// leaf order must be A1, A2, B.
func buildThreeLevel(t *testing.T) (*Tree, []*Node) {
	t.Helper()
	tr := newTestTree()
	top, err := tr.AttachChildren(tr.Root(), []ChildSpec{
		{Task: "A", WordBudget: 4000},
		{Task: "B", WordBudget: 2000},
	})
	if err != nil {
		t.Fatalf("attach top: %v", err)
	}
	sub, err := tr.AttachChildren(top[0], []ChildSpec{
		{Task: "A1", WordBudget: 2000},
		{Task: "A2", WordBudget: 2000},
	})
	if err != nil {
		t.Fatalf("attach sub: %v", err)
	}
	return tr, []*Node{sub[0], sub[1], top[1]}
}

func TestLeaves_Order(t *testing.T) {
	tr, want := buildThreeLevel(t)

	var got []*Node
	for leaf := range tr.Leaves() {
		got = append(got, leaf)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d leaves, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("leaf %d = %q, want %q", i, got[i].Task, want[i].Task)
		}
	}
}

func TestLeaves_Restartable(t *testing.T) {
	tr, _ := buildThreeLevel(t)
	seq := tr.Leaves()

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != second || first != 3 {
		t.Errorf("iteration counts = %d, %d; want 3, 3", first, second)
	}
}

func TestLeaves_EarlyBreak(t *testing.T) {
	tr, _ := buildThreeLevel(t)
	count := 0
	for range tr.Leaves() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestWalk_PreOrder(t *testing.T) {
	tr, _ := buildThreeLevel(t)

	var tasks []string
	for n := range tr.Walk() {
		tasks = append(tasks, n.Task)
	}
	want := []string{"write a story", "A", "A1", "A2", "B"}
	if len(tasks) != len(want) {
		t.Fatalf("walk visited %d nodes, want %d", len(tasks), len(want))
	}
	for i := range want {
		if tasks[i] != want[i] {
			t.Errorf("walk[%d] = %q, want %q", i, tasks[i], want[i])
		}
	}
}

func TestCounts(t *testing.T) {
	tr, _ := buildThreeLevel(t)
	if n := tr.NodeCount(); n != 5 {
		t.Errorf("NodeCount = %d, want 5", n)
	}
	if n := tr.LeafCount(); n != 3 {
		t.Errorf("LeafCount = %d, want 3", n)
	}
}

func TestAncestors(t *testing.T) {
	tr, leaves := buildThreeLevel(t)
	a1 := leaves[0]

	chain := a1.Ancestors()
	if len(chain) != 2 {
		t.Fatalf("ancestors = %d, want 2", len(chain))
	}
	if chain[0] != tr.Root() {
		t.Error("first ancestor should be root")
	}
	if chain[1].Task != "A" {
		t.Errorf("second ancestor = %q, want A", chain[1].Task)
	}

	if len(tr.Root().Ancestors()) != 0 {
		t.Error("root should have no ancestors")
	}
}

func TestDumpYAML(t *testing.T) {
	tr, _ := buildThreeLevel(t)

	var buf bytes.Buffer
	if err := tr.DumpYAML(&buf); err != nil {
		t.Fatalf("DumpYAML failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"word_budget: 6000", "task: A1", "theme: courage", "leaf: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
