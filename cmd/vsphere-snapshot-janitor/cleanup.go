package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/rcrowley/go-metrics/librato"
	"github.com/urfave/cli"

	snapshotjanitor "github.com/Sentello/vsphere-snapshot-janitor"
	"github.com/Sentello/vsphere-snapshot-janitor/vsphere"
)

func runCleanup(c *cli.Context) {
	ctx := context.Background()

	cfg, err := snapshotjanitor.LoadConfig(ctx, c.String("env-file"), c.String("config"))
	if err != nil {
		log.Fatal(err)
	}

	if cfg.AgeThresholdDays == 0 || c.IsSet("age-days") || c.IsSet("a") {
		cfg.AgeThresholdDays = c.Int("age-days")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	paths := c.StringSlice("vsphere-vm-paths")
	if len(paths) == 0 {
		paths = []string{""}
	}

	if c.String("librato-email") != "" && c.String("librato-token") != "" && c.String("librato-source") != "" {
		log.Printf("starting librato metrics reporter")

		go librato.Librato(metrics.DefaultRegistry, time.Minute,
			c.String("librato-email"), c.String("librato-token"), c.String("librato-source"),
			[]float64{0.95}, time.Millisecond)

		if !c.Bool("silence-metrics") {
			go metrics.Log(metrics.DefaultRegistry, time.Minute,
				log.New(os.Stderr, "metrics: ", log.Lmicroseconds))
		}
	}

	type connection struct {
		host   string
		client *vsphere.Client
	}

	connections := []connection{}
	for _, ep := range cfg.Endpoints {
		client, err := vsphere.NewClient(ctx, ep.Host, ep.Username, ep.Password, ep.Insecure)
		if err != nil {
			log.Printf("error connecting to vCenter %s: %v", ep.Host, err)
			continue
		}
		defer client.Close(ctx)

		log.Printf("connected to vCenter %s", ep.Host)
		connections = append(connections, connection{host: ep.Host, client: client})
	}

	if len(connections) == 0 {
		log.Fatal("no vCenter connections established")
	}

	for _, conn := range connections {
		for _, path := range paths {
			err := listSnapshots(ctx, os.Stdout, conn.host, conn.client, path)
			if err != nil {
				log.Printf("error listing snapshots on %s: %v", conn.host, err)
			}
		}
	}

	if c.Bool("list-only") {
		return
	}

	if !c.Bool("assume-yes") && !confirmDeletion(os.Stdin, os.Stdout) {
		log.Printf("deletion aborted by user")
		return
	}

	opts := &snapshotjanitor.JanitorOpts{
		AgeThreshold:  time.Duration(cfg.AgeThresholdDays) * 24 * time.Hour,
		SkipDelete:    c.Bool("skip-delete"),
		Concurrency:   c.Int("concurrency"),
		RatePerSecond: c.Int("rate-per-second"),
	}

	outcomes := []snapshotjanitor.Outcome{}
	for _, conn := range connections {
		janitor := snapshotjanitor.NewJanitor(conn.client, opts)

		for _, path := range paths {
			pathOutcomes, err := janitor.Cleanup(ctx, path, time.Now())
			if err != nil {
				log.Printf("error cleaning up %q on %s: %v", path, conn.host, err)
				continue
			}

			for i := range pathOutcomes {
				pathOutcomes[i].VCenter = conn.host
			}
			outcomes = append(outcomes, pathOutcomes...)
		}
	}

	writeReport(os.Stdout, outcomes)

	counts := snapshotjanitor.CountDecisions(outcomes)
	log.Printf("snapshot cleanup completed: %d deleted, %d retained, %d failed",
		counts[snapshotjanitor.DecisionDeleted], counts[snapshotjanitor.DecisionRetained],
		counts[snapshotjanitor.DecisionDeleteFailed])
}

// listSnapshots prints the full snapshot inventory for one endpoint path.
// VMs whose snapshot trees can't be read are logged and skipped; the listing
// continues with the rest.
func listSnapshots(ctx context.Context, w io.Writer, host string, lister snapshotjanitor.VMLister, path string) error {
	vms, err := lister.ListVMs(ctx, path)
	if err != nil {
		return errors.Wrap(err, "couldn't list VMs")
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "VCENTER\tVM\tSNAPSHOT\tCREATED")

	total := 0
	for _, vm := range vms {
		trees, err := vm.SnapshotTrees(ctx)
		if err != nil {
			log.Printf("error reading snapshots for VM %s: %v", vm.Name(), err)
			continue
		}

		for _, tree := range trees {
			tree.Walk(func(node *snapshotjanitor.SnapshotNode, depth int) {
				fmt.Fprintf(tw, "%s\t%s\t%s%s\t%s\n",
					host, vm.Name(), strings.Repeat("  ", depth), node.Name,
					node.Created.Format("2006-01-02 15:04:05"))
				total++
			})
		}
	}

	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "couldn't write snapshot listing")
	}

	log.Printf("%d snapshots on %s", total, host)
	return nil
}

// confirmDeletion is the one-time gate before any deletion is issued.
func confirmDeletion(r io.Reader, w io.Writer) bool {
	fmt.Fprint(w, "Proceed with deleting old snapshots? (y/n): ")

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func writeReport(w io.Writer, outcomes []snapshotjanitor.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "VCENTER\tVM\tSNAPSHOT\tCREATED\tDECISION\tDETAIL")

	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.VCenter, o.VM, o.Snapshot,
			o.Created.Format("2006-01-02 15:04:05"), o.Decision, o.Detail)
	}

	_ = tw.Flush()
}
