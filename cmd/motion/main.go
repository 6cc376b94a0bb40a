package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/motion/internal/core/config"
	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/observability/log"
	"github.com/zeusync/motion/internal/injector"
	"github.com/zeusync/motion/internal/planner"
)

func main() {
	if err := run(os.Args[1:]); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "motion:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("motion", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file; defaults are used when empty")
	route := fs.String("route", "1,1", "stops to visit, as x,y pairs separated by ';'")
	heading := fs.Float64("heading", 0, "field heading in degrees to hold while driving")
	holdHeading := fs.Bool("hold-heading", false, "hold -heading instead of the starting heading")
	timeout := fs.Duration("timeout", time.Minute, "give up if the route takes longer than this")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	stops, err := parseRoute(*route)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, cleanup, err := injector.InitializeSimPlanner(&cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := p.Logger()

	var opts []planner.FollowOption
	if *holdHeading {
		opts = append(opts, planner.WithHeading(*heading))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for f := range p.Engine().Faults() {
			logger.Warn("Follower fault",
				log.String("follower", f.Name),
				log.String("phase", f.Phase),
				log.Int("consecutive", f.Consecutive),
				log.Error(f.Err))
		}
		return nil
	})
	g.Go(func() error {
		defer p.Close()

		if err := p.Start(ctx); err != nil {
			return err
		}
		if _, err := p.FollowRoute(ctx, stops, opts...); err != nil {
			return err
		}
		waitCtx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		if err := p.WaitUntilIdle(waitCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("Interrupted", log.Int("pending", p.Engine().Len()))
				return nil
			}
			return fmt.Errorf("route not finished: %w", err)
		}

		pose := p.Position()
		stats := p.Stats()
		logger.Info("Route complete",
			log.Float64("x", pose.X),
			log.Float64("y", pose.Y),
			log.Float64("heading", pose.Heading),
			log.Uint64("ticks", stats.Execution.Ticks),
			log.Uint64("faults", stats.Execution.Faults))
		fmt.Printf("%.3f %.3f %.1f\n", pose.X, pose.Y, pose.Heading)
		return nil
	})
	return g.Wait()
}

// parseRoute reads "x,y;x,y;..." into points.
func parseRoute(s string) ([]geometry.Point, error) {
	var out []geometry.Point
	for _, stop := range strings.Split(s, ";") {
		stop = strings.TrimSpace(stop)
		if stop == "" {
			continue
		}
		xs, ys, ok := strings.Cut(stop, ",")
		if !ok {
			return nil, fmt.Errorf("stop %q: want x,y", stop)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("stop %q: %w", stop, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("stop %q: %w", stop, err)
		}
		out = append(out, geometry.Pt(x, y))
	}
	if len(out) == 0 {
		return nil, errors.New("route has no stops")
	}
	return out, nil
}
