package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	snapshotjanitor "github.com/Sentello/vsphere-snapshot-janitor"
)

// SnapshotData describes one scripted snapshot in a mock VM's forest.
// TaskStates is the sequence of statuses the deletion task reports, one per
// poll, with the last entry repeating; when empty the task succeeds on the
// first poll. DeleteErr, when set, rejects the deletion call synchronously.
type SnapshotData struct {
	Name       string
	Created    time.Time
	Children   []*SnapshotData
	TaskStates []snapshotjanitor.TaskStatus
	DeleteErr  error
}

// VMData describes one scripted VM. TreesErr, when set, fails the snapshot
// inventory read for this VM only.
type VMData struct {
	Name      string
	Snapshots []*SnapshotData
	TreesErr  error
}

type VMLister struct {
	VMData map[string][]*VMData

	mutex       sync.Mutex
	deleted     map[string][]string
	deleteCalls map[string]map[string]int
}

func NewVMLister(data map[string][]*VMData) *VMLister {
	deleted := make(map[string][]string, len(data))
	deleteCalls := make(map[string]map[string]int, len(data))
	for path := range data {
		deleted[path] = make([]string, 0)
		deleteCalls[path] = make(map[string]int)
	}

	return &VMLister{
		VMData:      data,
		deleted:     deleted,
		deleteCalls: deleteCalls,
	}
}

func (vl *VMLister) ListVMs(ctx context.Context, path string) ([]snapshotjanitor.VirtualMachine, error) {
	vmData, ok := vl.VMData[path]
	if !ok {
		return nil, errors.New("no such path")
	}

	vms := make([]snapshotjanitor.VirtualMachine, 0, len(vmData))

	for _, vm := range vmData {
		vms = append(vms, &VirtualMachine{lister: vl, path: path, data: vm})
	}

	return vms, nil
}

// DeletionOrder returns the snapshot names whose deletion requests were
// issued against path, in request order.
func (vl *VMLister) DeletionOrder(path string) []string {
	vl.mutex.Lock()
	defer vl.mutex.Unlock()

	names := make([]string, len(vl.deleted[path]))
	copy(names, vl.deleted[path])
	return names
}

func (vl *VMLister) Deleted(path, searchName string) bool {
	vl.mutex.Lock()
	defer vl.mutex.Unlock()

	for _, name := range vl.deleted[path] {
		if name == searchName {
			return true
		}
	}

	return false
}

// DeleteCalls returns how many deletion requests were issued for one
// snapshot name.
func (vl *VMLister) DeleteCalls(path, name string) int {
	vl.mutex.Lock()
	defer vl.mutex.Unlock()

	return vl.deleteCalls[path][name]
}

func (vl *VMLister) recordDelete(path, name string) {
	vl.mutex.Lock()
	defer vl.mutex.Unlock()

	vl.deleted[path] = append(vl.deleted[path], name)
	vl.deleteCalls[path][name]++
}

type VirtualMachine struct {
	lister *VMLister
	path   string
	data   *VMData
}

func (vm *VirtualMachine) Name() string {
	return vm.data.Name
}

func (vm *VirtualMachine) SnapshotTrees(ctx context.Context) ([]*snapshotjanitor.SnapshotNode, error) {
	if vm.data.TreesErr != nil {
		return nil, vm.data.TreesErr
	}

	return vm.buildNodes(vm.data.Snapshots), nil
}

func (vm *VirtualMachine) buildNodes(data []*SnapshotData) []*snapshotjanitor.SnapshotNode {
	nodes := make([]*snapshotjanitor.SnapshotNode, 0, len(data))

	for _, snap := range data {
		nodes = append(nodes, &snapshotjanitor.SnapshotNode{
			Ref:      &snapshotRef{lister: vm.lister, path: vm.path, data: snap},
			Name:     snap.Name,
			Created:  snap.Created,
			Children: vm.buildNodes(snap.Children),
		})
	}

	return nodes
}

type snapshotRef struct {
	lister *VMLister
	path   string
	data   *SnapshotData
}

func (r *snapshotRef) Delete(ctx context.Context) (snapshotjanitor.Task, error) {
	r.lister.recordDelete(r.path, r.data.Name)

	if r.data.DeleteErr != nil {
		return nil, r.data.DeleteErr
	}

	return &task{states: r.data.TaskStates}, nil
}

type task struct {
	states []snapshotjanitor.TaskStatus
	polls  int
}

func (t *task) Status(ctx context.Context) (snapshotjanitor.TaskStatus, error) {
	if len(t.states) == 0 {
		return snapshotjanitor.TaskStatus{State: snapshotjanitor.TaskStateSuccess}, nil
	}

	idx := t.polls
	if idx >= len(t.states) {
		idx = len(t.states) - 1
	}
	t.polls++

	return t.states[idx], nil
}
