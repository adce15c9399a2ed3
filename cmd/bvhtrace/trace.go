package main

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-bvhtrace/bvhtrace/log"
	"github.com/go-bvhtrace/bvhtrace/traversal"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

var logger = log.New("bvhtrace")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// Trace runs the closest-hit or any-hit driver over a named demo scene and
// ray preset, printing per-lane results and, if requested, a stats table.
func Trace(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := buildScene(ctx.String("scene"))
	if err != nil {
		return err
	}

	packet, err := buildRayPacket(ctx.String("rays"))
	if err != nil {
		return err
	}

	d := traversal.NewDriver(sc.intersector, traversal.StackCapacityFor(sc.tree.MaxDepth))
	d.WithTSwitch(ctx.Int("t-switch"))

	stats := &traversal.Stats{}
	if ctx.Bool("occluded") {
		d.Occluded(&sc.tree, packet, stats)
		printOccludedResults(packet)
	} else {
		d.Intersect(&sc.tree, packet, stats)
		printIntersectResults(packet)
	}

	if ctx.Bool("stats") {
		printStats(stats)
	}

	return nil
}

func printIntersectResults(p *traversal.RayPacket) {
	for lane := 0; lane < 4; lane++ {
		if !p.Valid.Test(lane) {
			continue
		}
		if p.PrimID[lane] == -1 {
			logger.Noticef("lane %d: miss", lane)
			continue
		}
		logger.Noticef("lane %d: hit prim=%d geom=%d tfar=%.4f u=%.4f v=%.4f",
			lane, p.PrimID[lane], p.GeomID[lane], p.TFar[lane], p.U[lane], p.V[lane])
	}
}

func printOccludedResults(p *traversal.RayPacket) {
	for lane := 0; lane < 4; lane++ {
		if !p.Valid.Test(lane) {
			continue
		}
		logger.Noticef("lane %d: occluded=%v", lane, p.Occluded[lane])
	}
}

func printStats(stats *traversal.Stats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Counter", "Value"})
	table.Append([]string{"Stack depth high water", strconv.Itoa(stats.StackDepthHighWater)})
	table.Append([]string{"Single-ray switches", strconv.Itoa(stats.SingleRaySwitches)})
	table.Append([]string{"Leaf intersections", strconv.Itoa(stats.LeafIntersections)})
	table.Render()
	fmt.Print(buf.String())
}
