package snapshotjanitor_test

import (
	"sync"
	"testing"
	"time"

	snapshotjanitor "github.com/Sentello/vsphere-snapshot-janitor"
)

func TestReportAppendOnly(t *testing.T) {
	report := snapshotjanitor.NewReport()

	report.Record(snapshotjanitor.Outcome{VM: "web01", Snapshot: "s1", Decision: snapshotjanitor.DecisionDeleted})
	report.Record(snapshotjanitor.Outcome{VM: "web01", Snapshot: "s2", Decision: snapshotjanitor.DecisionRetained})

	outcomes := report.Outcomes()
	assertEqual(t, "report.Len()", 2, report.Len())
	assertEqual(t, "outcomes[0].Snapshot", "s1", outcomes[0].Snapshot)
	assertEqual(t, "outcomes[1].Snapshot", "s2", outcomes[1].Snapshot)

	// Mutating the returned slice must not affect the report.
	outcomes[0].Snapshot = "mangled"
	assertEqual(t, "outcomes copy", "s1", report.Outcomes()[0].Snapshot)
}

func TestReportConcurrentRecord(t *testing.T) {
	report := snapshotjanitor.NewReport()

	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Record(snapshotjanitor.Outcome{VM: "web01", Decision: snapshotjanitor.DecisionRetained})
		}()
	}
	wg.Wait()

	assertEqual(t, "report.Len()", 50, report.Len())
}

func TestCountDecisions(t *testing.T) {
	counts := snapshotjanitor.CountDecisions([]snapshotjanitor.Outcome{
		{Decision: snapshotjanitor.DecisionDeleted},
		{Decision: snapshotjanitor.DecisionDeleted},
		{Decision: snapshotjanitor.DecisionRetained},
		{Decision: snapshotjanitor.DecisionDeleteFailed},
	})

	assertEqual(t, "deleted", 2, counts[snapshotjanitor.DecisionDeleted])
	assertEqual(t, "retained", 1, counts[snapshotjanitor.DecisionRetained])
	assertEqual(t, "failed", 1, counts[snapshotjanitor.DecisionDeleteFailed])
	assertEqual(t, "would-delete", 0, counts[snapshotjanitor.DecisionWouldDelete])
}

func TestSnapshotNodeWalk(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	root := &snapshotjanitor.SnapshotNode{
		Name:    "root",
		Created: created,
		Children: []*snapshotjanitor.SnapshotNode{
			{
				Name:    "a",
				Created: created.Add(time.Hour),
				Children: []*snapshotjanitor.SnapshotNode{
					{Name: "a1", Created: created.Add(2 * time.Hour)},
				},
			},
			{Name: "b", Created: created.Add(3 * time.Hour)},
		},
	}

	visited := []string{}
	depths := []int{}
	root.Walk(func(node *snapshotjanitor.SnapshotNode, depth int) {
		visited = append(visited, node.Name)
		depths = append(depths, depth)
	})

	expected := []string{"root", "a", "a1", "b"}
	assertEqual(t, "len(visited)", len(expected), len(visited))
	for i := range expected {
		assertEqual(t, "visited", expected[i], visited[i])
	}

	expectedDepths := []int{0, 1, 2, 1}
	for i := range expectedDepths {
		assertEqual(t, "depths", expectedDepths[i], depths[i])
	}

	assertEqual(t, "CountSnapshots", 4, snapshotjanitor.CountSnapshots([]*snapshotjanitor.SnapshotNode{root}))
}
