package snapshotjanitor

import (
	"context"
)

type VMLister interface {
	ListVMs(ctx context.Context, path string) ([]VirtualMachine, error)
}

type VirtualMachine interface {
	Name() string
	SnapshotTrees(ctx context.Context) ([]*SnapshotNode, error)
}
