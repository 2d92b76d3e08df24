package planner

import "math"

// splitBudget divides total words across the given shares so the pieces sum
// exactly to total. Shares are normalized first, so they need not sum to 1.0;
// if every share is zero the budget is split evenly. Integer rounding uses
// the largest-remainder method: each piece gets its floor, and the leftover
// words go to the pieces with the largest fractional parts, ties broken by
// position.
func splitBudget(total int, shares []float64) []int {
	n := len(shares)
	if n == 0 {
		return nil
	}

	var sum float64
	for _, s := range shares {
		sum += s
	}
	if sum <= 0 {
		even := make([]float64, n)
		for i := range even {
			even[i] = 1
		}
		shares = even
		sum = float64(n)
	}

	budgets := make([]int, n)
	type remainder struct {
		index int
		frac  float64
	}
	rems := make([]remainder, n)

	assigned := 0
	for i, s := range shares {
		exact := float64(total) * s / sum
		floor := math.Floor(exact)
		budgets[i] = int(floor)
		assigned += budgets[i]
		rems[i] = remainder{index: i, frac: exact - floor}
	}

	// Hand the remaining words to the largest fractional parts.
	for left := total - assigned; left > 0; left-- {
		best := 0
		for i := 1; i < n; i++ {
			if rems[i].frac > rems[best].frac {
				best = i
			}
		}
		budgets[rems[best].index]++
		rems[best].frac = -1
	}

	return budgets
}

// truncateChildren clamps a decomposition to at most max entries, dropping
// the tail. The dropped shares are not lost: the caller re-splits the full
// parent budget across the surviving shares, so the total is preserved and
// each survivor grows in proportion to its original share.
func truncateChildren(children []decomposedChild, max int) []decomposedChild {
	if len(children) <= max {
		return children
	}
	return children[:max]
}
