package main

import (
	"os"

	"github.com/go-bvhtrace/bvhtrace/traversal"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "bvhtrace"
	app.Usage = "run the hybrid packet/single-ray BVH traversal core against demo scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "trace",
			Usage:     "build a demo scene and run a closest-hit or any-hit query over it",
			ArgsUsage: " ",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "scene",
					Value: "cube",
					Usage: "demo scene: cube, column, motion, empty, pathological",
				},
				cli.StringFlag{
					Name:  "rays",
					Value: "parallel",
					Usage: "ray packet preset: parallel, diverge, motion",
				},
				cli.IntFlag{
					Name:  "t-switch",
					Value: traversal.DefaultTSwitch,
					Usage: "lane count at or below which the mode arbiter drops into single-ray mode",
				},
				cli.BoolFlag{
					Name:  "stats",
					Usage: "print a table of stack-depth/switch/leaf-intersection counters",
				},
				cli.BoolFlag{
					Name:  "occluded",
					Usage: "run the any-hit driver instead of closest-hit",
				},
			},
			Action: Trace,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
