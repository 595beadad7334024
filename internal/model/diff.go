package model

// ChangeKind classifies how a URL's outcome differs between two runs.
type ChangeKind string

const (
	// ChangeAdded marks a URL probed only in the newer run.
	ChangeAdded ChangeKind = "added"

	// ChangeRemoved marks a URL probed only in the older run.
	ChangeRemoved ChangeKind = "removed"

	// ChangeStatus marks a URL whose status differs between the runs.
	ChangeStatus ChangeKind = "changed"
)

// StatusChange is one difference between two runs of the same target.
type StatusChange struct {
	URL  string     `json:"url"`
	Kind ChangeKind `json:"kind"`

	// Old is the status in the older run; zero for ChangeAdded.
	Old Status `json:"old,omitempty"`

	// New is the status in the newer run; zero for ChangeRemoved.
	New Status `json:"new,omitempty"`
}

// DiffRuns compares two runs URL by URL. When a word list repeats a path,
// the first occurrence counts. Changes are listed in the newer run's order,
// followed by removed URLs in the older run's order.
func DiffRuns(older, newer *ScanReport) []StatusChange {
	oldStatus := firstStatusByURL(older.Results)
	newStatus := firstStatusByURL(newer.Results)

	var changes []StatusChange
	seen := make(map[string]struct{}, len(newStatus))
	for _, r := range newer.Results {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}

		prev, ok := oldStatus[r.URL]
		switch {
		case !ok:
			changes = append(changes, StatusChange{URL: r.URL, Kind: ChangeAdded, New: r.Status})
		case prev != r.Status:
			changes = append(changes, StatusChange{URL: r.URL, Kind: ChangeStatus, Old: prev, New: r.Status})
		}
	}

	for _, r := range older.Results {
		if _, ok := newStatus[r.URL]; ok {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		changes = append(changes, StatusChange{URL: r.URL, Kind: ChangeRemoved, Old: r.Status})
	}

	return changes
}

func firstStatusByURL(results []Result) map[string]Status {
	m := make(map[string]Status, len(results))
	for _, r := range results {
		if _, ok := m[r.URL]; !ok {
			m[r.URL] = r.Status
		}
	}
	return m
}
