package mock

import (
	"context"
	"testing"
	"time"

	snapshotjanitor "github.com/Sentello/vsphere-snapshot-janitor"
)

func assertEqual(tb testing.TB, name string, expected, actual interface{}) {
	if expected != actual {
		tb.Errorf("%s: expected %v, but was %v", name, expected, actual)
	}
}

func assertOk(tb testing.TB, name string, err error) {
	if err != nil {
		tb.Fatalf("%s: returned error: %v", name, err)
	}
}

func assertError(tb testing.TB, name string, err error) {
	if err == nil {
		tb.Fatalf("%s: didn't return error", name)
	}
}

func TestVMLister(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	lister := NewVMLister(map[string][]*VMData{
		"/empty": {},
		"/one": {
			{
				Name: "test-vm",
				Snapshots: []*SnapshotData{
					{
						Name:    "root-snap",
						Created: created,
						Children: []*SnapshotData{
							{Name: "child-snap", Created: created.Add(time.Hour)},
						},
					},
				},
			},
		},
	})

	vms, err := lister.ListVMs(context.TODO(), "/empty")
	assertOk(t, "ListVMs(/empty)", err)
	assertEqual(t, "ListVMs(/empty) len(vms)", 0, len(vms))

	_, err = lister.ListVMs(context.TODO(), "/does-not-exist")
	assertError(t, "ListVMs(/does-not-exist)", err)

	vms, err = lister.ListVMs(context.TODO(), "/one")
	assertOk(t, "ListVMs(/one)", err)
	assertEqual(t, "ListVMs(/one) len(vms)", 1, len(vms))
	assertEqual(t, "vms[0].Name()", "test-vm", vms[0].Name())

	trees, err := vms[0].SnapshotTrees(context.TODO())
	assertOk(t, "SnapshotTrees()", err)
	assertEqual(t, "len(trees)", 1, len(trees))
	assertEqual(t, "trees[0].Name", "root-snap", trees[0].Name)
	assertEqual(t, "len(trees[0].Children)", 1, len(trees[0].Children))
	assertEqual(t, "CountSnapshots", 2, snapshotjanitor.CountSnapshots(trees))
}

func TestVMListerRecordsDeletions(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	lister := NewVMLister(map[string][]*VMData{
		"/": {
			{
				Name: "test-vm",
				Snapshots: []*SnapshotData{
					{Name: "snap-a", Created: created},
					{Name: "snap-b", Created: created},
				},
			},
		},
	})

	vms, err := lister.ListVMs(context.TODO(), "/")
	assertOk(t, "ListVMs(/)", err)

	trees, err := vms[0].SnapshotTrees(context.TODO())
	assertOk(t, "SnapshotTrees()", err)

	task, err := trees[1].Ref.Delete(context.TODO())
	assertOk(t, "Delete(snap-b)", err)

	status, err := task.Status(context.TODO())
	assertOk(t, "Status()", err)
	assertEqual(t, "status.State", snapshotjanitor.TaskStateSuccess, status.State)

	assertEqual(t, `Deleted("/", "snap-b")`, true, lister.Deleted("/", "snap-b"))
	assertEqual(t, `Deleted("/", "snap-a")`, false, lister.Deleted("/", "snap-a"))
	assertEqual(t, `DeleteCalls("/", "snap-b")`, 1, lister.DeleteCalls("/", "snap-b"))

	order := lister.DeletionOrder("/")
	assertEqual(t, "len(order)", 1, len(order))
	assertEqual(t, "order[0]", "snap-b", order[0])
}

func TestScriptedTaskStates(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	lister := NewVMLister(map[string][]*VMData{
		"/": {
			{
				Name: "test-vm",
				Snapshots: []*SnapshotData{
					{
						Name:    "snap-a",
						Created: created,
						TaskStates: []snapshotjanitor.TaskStatus{
							{State: snapshotjanitor.TaskStatePending},
							{State: snapshotjanitor.TaskStateError, Detail: "disk locked"},
						},
					},
				},
			},
		},
	})

	vms, _ := lister.ListVMs(context.TODO(), "/")
	trees, _ := vms[0].SnapshotTrees(context.TODO())

	task, err := trees[0].Ref.Delete(context.TODO())
	assertOk(t, "Delete(snap-a)", err)

	status, _ := task.Status(context.TODO())
	assertEqual(t, "first poll", snapshotjanitor.TaskStatePending, status.State)

	status, _ = task.Status(context.TODO())
	assertEqual(t, "second poll", snapshotjanitor.TaskStateError, status.State)
	assertEqual(t, "detail", "disk locked", status.Detail)

	// Terminal state repeats on further polls.
	status, _ = task.Status(context.TODO())
	assertEqual(t, "third poll", snapshotjanitor.TaskStateError, status.State)
}
