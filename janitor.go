package snapshotjanitor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"

	"github.com/Sentello/vsphere-snapshot-janitor/log"
)

type Janitor struct {
	vmLister VMLister
	monitor  *TaskMonitor
	opts     *JanitorOpts
}

func NewJanitor(vmLister VMLister, opts *JanitorOpts) *Janitor {
	if opts == nil {
		opts = &JanitorOpts{
			AgeThreshold:  30 * 24 * time.Hour,
			Concurrency:   1,
			RatePerSecond: 5,
		}
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.RatePerSecond < 1 {
		opts.RatePerSecond = 5
	}

	monitor := opts.Monitor
	if monitor == nil {
		monitor = NewTaskMonitor()
	}

	return &Janitor{
		vmLister: vmLister,
		monitor:  monitor,
		opts:     opts,
	}
}

type JanitorOpts struct {
	AgeThreshold  time.Duration
	SkipDelete    bool
	Concurrency   int
	RatePerSecond int

	// Monitor overrides the default task monitor. Tests inject one with a
	// recording Sleep.
	Monitor *TaskMonitor
}

// Cleanup runs one maintenance pass over every VM under path: each VM's
// snapshot forest is walked post-order, children resolved to a terminal
// outcome before their parent is evaluated, and every eligible snapshot is
// deleted non-cascading with its task monitored to completion.
//
// VMs are handled on goroutines bounded by the concurrency semaphore, so
// in-flight deletions per endpoint never exceed opts.Concurrency; ordering
// inside each VM's forest is unaffected. A failure on one snapshot or VM
// never stops the others.
func (j *Janitor) Cleanup(ctx context.Context, path string, now time.Time) ([]Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, j.opts.Concurrency)
	wg := sync.WaitGroup{}
	throttle := time.Tick(time.Second / time.Duration(j.opts.RatePerSecond))

	vms, err := j.vmLister.ListVMs(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't list VMs")
	}

	cutoff := Cutoff(now, j.opts.AgeThreshold)
	report := NewReport()

	for _, vm := range vms {
		<-throttle

		wg.Add(1)
		go func(vm VirtualMachine) {
			defer wg.Done()

			err := j.handleVM(ctx, vm, sem, cutoff, report)
			if err != nil {
				log.WithContext(ctx).WithField("vm", vm.Name()).WithError(err).Error("error handling VM")
				metrics.GetOrRegisterMeter("vsphere.snapshot.janitor.cleanup.vms.skipped", metrics.DefaultRegistry).Mark(1)
			}
		}(vm)
	}

	wg.Wait()

	metrics.GetOrRegisterGauge("vsphere.snapshot.janitor.cleanup.vms.total", metrics.DefaultRegistry).Update(int64(len(vms)))
	return report.Outcomes(), nil
}

func (j *Janitor) handleVM(ctx context.Context, vm VirtualMachine, sem chan (struct{}), cutoff time.Time, report *Report) (err error) {
	sem <- struct{}{}
	defer func() {
		panicErr := recover()
		if panicErr != nil {
			var ok bool
			if err, ok = panicErr.(error); !ok {
				err = errors.Errorf("%v", panicErr)
			}
		}
		<-sem
	}()

	logger := log.WithContext(ctx).WithField("vm", vm.Name())

	trees, err := vm.SnapshotTrees(ctx)
	if err != nil {
		return errors.Wrap(err, "couldn't read snapshot trees")
	}

	if len(trees) == 0 {
		logger.Info("no snapshots found")
		return nil
	}

	for _, tree := range trees {
		j.processTree(ctx, logger, vm.Name(), tree, cutoff, report)
	}

	return nil
}

// processTree resolves every child subtree before evaluating the node
// itself, so a deleted parent never takes a still-needed child with it and a
// retained child is never revisited.
func (j *Janitor) processTree(ctx context.Context, logger logrus.FieldLogger, vmName string, node *SnapshotNode, cutoff time.Time, report *Report) {
	for _, child := range node.Children {
		j.processTree(ctx, logger, vmName, child, cutoff, report)
	}

	logger = logger.WithField("snapshot", node.Name)

	if !Eligible(node.Created, cutoff) {
		logger.WithField("created", node.Created).Info("snapshot newer than cutoff, retaining")
		metrics.GetOrRegisterMeter("vsphere.snapshot.janitor.cleanup.snapshots.retained", metrics.DefaultRegistry).Mark(1)
		report.Record(Outcome{
			VM:       vmName,
			Snapshot: node.Name,
			Created:  node.Created,
			Decision: DecisionRetained,
		})
		return
	}

	if j.opts.SkipDelete {
		logger.Info("skipping delete step")
		report.Record(Outcome{
			VM:       vmName,
			Snapshot: node.Name,
			Created:  node.Created,
			Decision: DecisionWouldDelete,
		})
		return
	}

	report.Record(j.deleteSnapshot(ctx, logger, vmName, node))
}

func (j *Janitor) deleteSnapshot(ctx context.Context, logger logrus.FieldLogger, vmName string, node *SnapshotNode) Outcome {
	outcome := Outcome{
		VM:       vmName,
		Snapshot: node.Name,
		Created:  node.Created,
	}

	logger.WithField("created", node.Created).Info("deleting snapshot, children retained")

	task, err := node.Ref.Delete(ctx)
	if err != nil {
		logger.WithError(err).Error("error requesting snapshot deletion")
		metrics.GetOrRegisterMeter("vsphere.snapshot.janitor.cleanup.snapshots.failed", metrics.DefaultRegistry).Mark(1)
		outcome.Decision = DecisionDeleteFailed
		outcome.Detail = err.Error()
		return outcome
	}

	result, err := j.monitor.AwaitCompletion(ctx, task)
	if err != nil {
		logger.WithError(err).Error("error awaiting snapshot deletion")
		metrics.GetOrRegisterMeter("vsphere.snapshot.janitor.cleanup.snapshots.failed", metrics.DefaultRegistry).Mark(1)
		outcome.Decision = DecisionDeleteFailed
		outcome.Detail = err.Error()
		return outcome
	}

	if result.Failed {
		logger.WithField("detail", result.Detail).Error("snapshot deletion task failed")
		metrics.GetOrRegisterMeter("vsphere.snapshot.janitor.cleanup.snapshots.failed", metrics.DefaultRegistry).Mark(1)
		outcome.Decision = DecisionDeleteFailed
		outcome.Detail = result.Detail
		return outcome
	}

	logger.Info("deleted snapshot")
	metrics.GetOrRegisterMeter("vsphere.snapshot.janitor.cleanup.snapshots.deleted", metrics.DefaultRegistry).Mark(1)
	outcome.Decision = DecisionDeleted
	return outcome
}
