package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/viant/acp"
	"github.com/viant/acp/internal/idgen"
	"github.com/viant/acp/model/task"
	"gopkg.in/yaml.v3"
)

type simulation struct {
	Tasks       int
	Resources   int
	Capacity    int
	MaxPriority int
	MaxDuration time.Duration
	FailRate    float64
	Timeout     time.Duration
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	sim := simulation{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation with synthetic tasks and print metrics",
		Long: `Run registers resources, submits synthetic tasks with random priorities,
durations and failures, waits for all of them and prints the metrics snapshot.

Examples:
  acp run --tasks 100 --resources 3 --capacity 2
  ACP_PROCESSOR_WORKERS=8 acp run --fail-rate 0.2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := resolveConfig(ctx, v)
			if err != nil {
				return err
			}
			return sim.run(ctx, cmd, cfg)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&sim.Tasks, "tasks", 20, "number of tasks to submit")
	flags.IntVar(&sim.Resources, "resources", 2, "number of resources to register")
	flags.IntVar(&sim.Capacity, "capacity", 2, "capacity of every resource")
	flags.IntVar(&sim.MaxPriority, "max-priority", 5, "priorities are drawn from [0, max-priority)")
	flags.DurationVar(&sim.MaxDuration, "max-duration", 20*time.Millisecond, "upper bound of a task duration")
	flags.Float64Var(&sim.FailRate, "fail-rate", 0.1, "probability of a task failing")
	flags.DurationVar(&sim.Timeout, "timeout", time.Minute, "overall simulation timeout")
	return cmd
}

func (s *simulation) run(ctx context.Context, cmd *cobra.Command, cfg *acp.Config) error {
	if s.Tasks < 0 || s.Resources <= 0 || s.Capacity <= 0 || s.MaxPriority <= 0 {
		return fmt.Errorf("invalid simulation: tasks=%d resources=%d capacity=%d max-priority=%d",
			s.Tasks, s.Resources, s.Capacity, s.MaxPriority)
	}
	srv, err := acp.New(acp.WithConfig(cfg), acp.WithProbe(func(context.Context, string) error {
		return nil
	}))
	if err != nil {
		return err
	}
	for i := 1; i <= s.Resources; i++ {
		if err = srv.RegisterResource(fmt.Sprintf("R%d", i), s.Capacity, "general"); err != nil {
			return err
		}
	}
	if err = srv.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()

	ids := make([]string, 0, s.Tasks)
	for i := 0; i < s.Tasks; i++ {
		id := idgen.NewWithPrefix("task")
		if err = srv.SubmitTask(ctx, id, s.workItem(), task.Args{"n": i}, rand.IntN(s.MaxPriority)); err != nil {
			return err
		}
		ids = append(ids, id)
	}

	deadline := time.Now().Add(s.Timeout)
	for _, id := range ids {
		if _, err = srv.Wait(ctx, id, time.Until(deadline)); err != nil {
			return err
		}
	}

	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(srv.Metrics())
}

func (s *simulation) workItem() task.WorkItem {
	failRate := s.FailRate
	maxDuration := s.MaxDuration
	return task.Func(func(ctx context.Context, args task.Args) (any, error) {
		if maxDuration > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(rand.N(maxDuration)):
			}
		}
		if rand.Float64() < failRate {
			return nil, errors.New("simulated failure")
		}
		return args["n"], nil
	})
}
