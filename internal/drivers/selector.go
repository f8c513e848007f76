package drivers

import "sort"

// NextDriver selects the fairest eligible driver from the pool: fewest
// assigned rides first, oldest last assignment breaking ties. Returns nil
// when no driver is eligible, which is a normal outcome rather than an
// error. The caller performs the assignment side effects (counter
// increment, last-assigned touch).
func NextDriver(pool []Driver) *Driver {
	eligible := make([]Driver, 0, len(pool))
	for _, d := range pool {
		if d.Eligible() {
			eligible = append(eligible, d)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].AssignedRidesCount != eligible[j].AssignedRidesCount {
			return eligible[i].AssignedRidesCount < eligible[j].AssignedRidesCount
		}
		return eligible[i].LastAssignedAt.Before(eligible[j].LastAssignedAt)
	})

	next := eligible[0]
	return &next
}
