package snapshotjanitor

import (
	"context"
	"time"
)

// SnapshotNode is one snapshot in a VM's snapshot forest, built once per run
// from the endpoint's reported tree and not refreshed between traversal
// steps. Children are kept in the order the endpoint reports them.
type SnapshotNode struct {
	Ref      SnapshotRef
	Name     string
	Created  time.Time
	Children []*SnapshotNode
}

// Walk visits the node and then its descendants, parents before children.
// Used by the read-only listing path; the deletion walk in janitor.go is
// post-order and separate on purpose.
func (n *SnapshotNode) Walk(fn func(node *SnapshotNode, depth int)) {
	n.walk(fn, 0)
}

func (n *SnapshotNode) walk(fn func(node *SnapshotNode, depth int), depth int) {
	fn(n, depth)
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// CountSnapshots returns the total number of nodes in a snapshot forest.
func CountSnapshots(trees []*SnapshotNode) int {
	total := 0
	for _, tree := range trees {
		tree.Walk(func(*SnapshotNode, int) {
			total++
		})
	}
	return total
}

// SnapshotRef is the opaque handle used to issue the deletion call for one
// snapshot. Delete must remove only this snapshot and keep its children
// attached; implementations that cannot guarantee that must not be used.
type SnapshotRef interface {
	Delete(ctx context.Context) (Task, error)
}

// Task is an in-flight asynchronous operation on the remote endpoint.
type Task interface {
	Status(ctx context.Context) (TaskStatus, error)
}

type TaskState string

const (
	TaskStatePending TaskState = "pending"
	TaskStateSuccess TaskState = "success"
	TaskStateError   TaskState = "error"
)

// TaskStatus is one observed poll of a task. Detail is only populated for
// TaskStateError. Any state other than success or error counts as still
// running.
type TaskStatus struct {
	State  TaskState
	Detail string
}
