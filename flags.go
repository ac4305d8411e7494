package snapshotjanitor

import (
	"github.com/urfave/cli"
)

var (
	Flags = []cli.Flag{
		cli.IntFlag{
			Name:   "a, age-days",
			Value:  DefaultAgeThresholdDays,
			Usage:  "Delete snapshots older than this many days",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_AGE_DAYS,AGE_DAYS",
		},
		cli.StringFlag{
			Name:   "e, env-file",
			Usage:  "Path to a .env file with VCENTERn_HOST/_USER/_PASSWORD entries",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_ENV_FILE,ENV_FILE",
		},
		cli.StringFlag{
			Name:   "f, config",
			Usage:  "Path to a YAML config file listing vCenter endpoints",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_CONFIG,CONFIG",
		},
		cli.StringSliceFlag{
			Name:   "p, vsphere-vm-paths",
			Usage:  "Inventory paths to scan for VMs (default: whole inventory)",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_VSPHERE_VM_PATHS,VSPHERE_VM_PATHS",
		},
		cli.BoolFlag{
			Name:   "l, list-only",
			Usage:  "Only list VMs and snapshots -- do not delete anything",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_LIST_ONLY,LIST_ONLY",
		},
		cli.BoolFlag{
			Name:   "y, assume-yes",
			Usage:  "Skip the interactive deletion confirmation prompt",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_ASSUME_YES,ASSUME_YES",
		},
		cli.BoolFlag{
			Name:   "S, skip-delete",
			Usage:  "Do not delete snapshots -- only report what would be deleted",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_SKIP_DELETE,SKIP_DELETE",
		},
		cli.IntFlag{
			Name:   "c, concurrency",
			Value:  1,
			Usage:  "Max concurrent in-flight deletions per endpoint",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_CONCURRENCY,CONCURRENCY",
		},
		cli.IntFlag{
			Name:   "R, rate-per-second",
			Value:  5,
			Usage:  "Rate limit max vms handled per second",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_RATE_PER_SECOND,RATE_PER_SECOND",
		},
		cli.StringFlag{
			Name:   "librato-email",
			Usage:  "Librato metrics account email",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_LIBRATO_EMAIL,LIBRATO_EMAIL",
		},
		cli.StringFlag{
			Name:   "librato-token",
			Usage:  "Librato metrics account token",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_LIBRATO_TOKEN,LIBRATO_TOKEN",
		},
		cli.StringFlag{
			Name:   "librato-source",
			Usage:  "Librato metrics source name",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_LIBRATO_SOURCE,LIBRATO_SOURCE",
		},
		cli.BoolFlag{
			Name:   "silence-metrics",
			Usage:  "Disable logging metrics to stderr",
			EnvVar: "VSPHERE_SNAPSHOT_JANITOR_SILENCE_METRICS,SILENCE_METRICS",
		},
	}
)
