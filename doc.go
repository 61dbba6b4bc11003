// Package l3pressure generates a steady, rate-controlled stream of random
// memory accesses over a slab sized past the L2 cache, so that most of them
// hit L3.
//
// # Overview
//
// Three pieces cooperate on a single goroutine:
//
//   - Rng        - xoshiro256++ generator with unbiased bounded indices
//   - Regulator  - proportional controller over the lap size
//   - Driver     - pokes the slab in laps, sleeps between laps, reports
//
// # Quick Start
//
//	slab, err := l3pressure.AllocateSlab(l3pressure.SlabSize(l2Size, 2), l3pressure.BackingHeap)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg := l3pressure.NewRegulator(100_000_000, 1_000_000)
//	driver, err := l3pressure.NewDriver(slab.Buf, l3pressure.NewRng(0), reg, l3pressure.DriverConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	driver.Warmup()
//	err = driver.Run(ctx) // returns ctx.Err() once cancelled
//
// # The Control Loop
//
// Every lap performs LapOps mutations then sleeps a fixed quantum. Once about
// 1% of the per-second target has accumulated, the regulator compares the
// observed rate with the target and corrects the lap size:
//
//	lap_ops = floor(max(lap_ops - Kp·(observed - target), 1))    Kp = 0.0001
//
// Recalibrating every 1% of the target gives ~100 corrections per second no
// matter the absolute rate. The floor keeps the workload moving when the
// correction overshoots.
//
// # Mutations
//
// Each poke is a read-modify-write of one byte, chained to the previous one:
//
//	slab[i] = slab[i] + 1 + last    (mod 256)
//	last    = slab[i]
//
// The chain makes every access depend on the one before it so they cannot be
// reordered or vectorized away.
//
// # Metrics
//
// A Sink receives ops_per_s and lap_ops as histograms about once per second.
// It is called synchronously; its latency is absorbed by the next correction.
// See package dogstatsd for implementations.
package l3pressure
