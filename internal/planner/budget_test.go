package planner

import "testing"

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestSplitBudget_ExactTotal(t *testing.T) {
	cases := []struct {
		name   string
		total  int
		shares []float64
	}{
		{"clean halves", 1000, []float64{0.5, 0.5}},
		{"thirds never divide evenly", 1000, []float64{1, 1, 1}},
		{"unnormalized shares", 6000, []float64{0.3, 0.3, 0.6}},
		{"tiny share", 5000, []float64{0.98, 0.01, 0.01}},
		{"single child", 4200, []float64{1.0}},
		{"sevenths", 9999, []float64{1, 1, 1, 1, 1, 1, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			budgets := splitBudget(tc.total, tc.shares)
			if len(budgets) != len(tc.shares) {
				t.Fatalf("got %d budgets, want %d", len(budgets), len(tc.shares))
			}
			if got := sum(budgets); got != tc.total {
				t.Errorf("budgets %v sum to %d, want %d", budgets, got, tc.total)
			}
		})
	}
}

func TestSplitBudget_Proportional(t *testing.T) {
	budgets := splitBudget(6000, []float64{0.5, 0.25, 0.25})
	want := []int{3000, 1500, 1500}
	for i := range want {
		if budgets[i] != want[i] {
			t.Errorf("budgets = %v, want %v", budgets, want)
			break
		}
	}
}

func TestSplitBudget_ZeroShares_EvenSplit(t *testing.T) {
	budgets := splitBudget(900, []float64{0, 0, 0})
	if sum(budgets) != 900 {
		t.Fatalf("budgets %v sum to %d, want 900", budgets, sum(budgets))
	}
	for i, b := range budgets {
		if b != 300 {
			t.Errorf("budget[%d] = %d, want 300", i, b)
		}
	}
}

func TestSplitBudget_Empty(t *testing.T) {
	if got := splitBudget(1000, nil); got != nil {
		t.Errorf("expected nil for empty shares, got %v", got)
	}
}

func TestTruncateChildren(t *testing.T) {
	children := []decomposedChild{
		{Task: "a", Share: 0.4},
		{Task: "b", Share: 0.3},
		{Task: "c", Share: 0.2},
		{Task: "d", Share: 0.1},
	}

	kept := truncateChildren(children, 3)
	if len(kept) != 3 {
		t.Fatalf("kept %d children, want 3", len(kept))
	}
	if kept[2].Task != "c" {
		t.Errorf("truncation should drop the tail, kept[2] = %q", kept[2].Task)
	}

	same := truncateChildren(children, 5)
	if len(same) != 4 {
		t.Errorf("truncation below the limit should be a no-op, got %d", len(same))
	}
}
