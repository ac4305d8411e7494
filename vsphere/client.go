package vsphere

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/methods"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"

	snapshotjanitor "github.com/Sentello/vsphere-snapshot-janitor"
)

type Client struct {
	client *govmomi.Client
}

func NewClient(ctx context.Context, host, username, password string, insecure bool) (*Client, error) {
	u, err := soap.ParseURL(host)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't parse vCenter URL")
	}

	u.User = url.UserPassword(username, password)

	vClient, err := govmomi.NewClient(ctx, u, insecure)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create govmomi client")
	}

	return &Client{
		client: vClient,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Logout(ctx)
}

// ListVMs returns every VM under path, or under the inventory root when path
// is empty, with its reported snapshot forest already attached. The snapshot
// property is fetched once here; the trees are not re-read during a run.
func (c *Client) ListVMs(ctx context.Context, path string) ([]snapshotjanitor.VirtualMachine, error) {
	root, err := c.rootRef(ctx, path)
	if err != nil {
		return nil, err
	}

	m := view.NewManager(c.client.Client)

	v, err := m.CreateContainerView(ctx, root, []string{"VirtualMachine"}, true)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create VM container view")
	}
	defer func() {
		_ = v.Destroy(ctx)
	}()

	var mvms []mo.VirtualMachine
	err = v.Retrieve(ctx, []string{"VirtualMachine"}, []string{"name", "snapshot"}, &mvms)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't retrieve VM properties")
	}

	vms := make([]snapshotjanitor.VirtualMachine, 0, len(mvms))

	for i := range mvms {
		vms = append(vms, &VirtualMachine{
			client: c,
			mvm:    &mvms[i],
		})
	}

	return vms, nil
}

func (c *Client) rootRef(ctx context.Context, path string) (types.ManagedObjectReference, error) {
	if path == "" || path == "/" {
		return c.client.ServiceContent.RootFolder, nil
	}

	searchIndex := object.NewSearchIndex(c.client.Client)

	ref, err := searchIndex.FindByInventoryPath(ctx, path)
	if err != nil {
		return types.ManagedObjectReference{}, errors.Wrap(err, "error looking for inventory path")
	}

	if ref == nil {
		return types.ManagedObjectReference{}, errors.Errorf("couldn't find inventory path %q", path)
	}

	return ref.Reference(), nil
}

func (c *Client) snapshotTrees(trees []types.VirtualMachineSnapshotTree) []*snapshotjanitor.SnapshotNode {
	nodes := make([]*snapshotjanitor.SnapshotNode, 0, len(trees))

	for _, tree := range trees {
		nodes = append(nodes, &snapshotjanitor.SnapshotNode{
			Ref:      &snapshotRef{client: c, ref: tree.Snapshot},
			Name:     tree.Name,
			Created:  tree.CreateTime.UTC(),
			Children: c.snapshotTrees(tree.ChildSnapshotList),
		})
	}

	return nodes
}

type VirtualMachine struct {
	client *Client
	mvm    *mo.VirtualMachine
}

func (vm *VirtualMachine) Name() string {
	if vm.mvm.Name == "" {
		return "<unnamed>"
	}

	return vm.mvm.Name
}

func (vm *VirtualMachine) SnapshotTrees(ctx context.Context) ([]*snapshotjanitor.SnapshotNode, error) {
	if vm.mvm.Snapshot == nil {
		return nil, nil
	}

	return vm.client.snapshotTrees(vm.mvm.Snapshot.RootSnapshotList), nil
}

type snapshotRef struct {
	client *Client
	ref    types.ManagedObjectReference
}

// Delete issues a non-cascading RemoveSnapshot_Task: children of the removed
// snapshot stay in place. RemoveChildren must stay false; the engine's
// per-node retention decisions depend on it.
func (r *snapshotRef) Delete(ctx context.Context) (snapshotjanitor.Task, error) {
	req := types.RemoveSnapshot_Task{
		This:           r.ref,
		RemoveChildren: false,
		Consolidate:    types.NewBool(true),
	}

	res, err := methods.RemoveSnapshot_Task(ctx, r.client.client.Client, &req)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create remove snapshot task")
	}

	return &task{
		client: r.client,
		ref:    res.Returnval,
	}, nil
}

type task struct {
	client *Client
	ref    types.ManagedObjectReference
}

func (t *task) Status(ctx context.Context) (snapshotjanitor.TaskStatus, error) {
	var mt mo.Task

	pc := property.DefaultCollector(t.client.client.Client)

	err := pc.RetrieveOne(ctx, t.ref, []string{"info"}, &mt)
	if err != nil {
		return snapshotjanitor.TaskStatus{}, errors.Wrap(err, "couldn't retrieve task info")
	}

	switch mt.Info.State {
	case types.TaskInfoStateSuccess:
		return snapshotjanitor.TaskStatus{State: snapshotjanitor.TaskStateSuccess}, nil
	case types.TaskInfoStateError:
		detail := "task failed"
		if mt.Info.Error != nil && mt.Info.Error.LocalizedMessage != "" {
			detail = mt.Info.Error.LocalizedMessage
		}
		return snapshotjanitor.TaskStatus{State: snapshotjanitor.TaskStateError, Detail: detail}, nil
	default:
		return snapshotjanitor.TaskStatus{State: snapshotjanitor.TaskStatePending}, nil
	}
}
