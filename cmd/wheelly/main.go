// Command wheelly runs the desktop control loop described in spec §6: it
// drives a robot (real or simulated) through a fixed-interval controller,
// trains a TD(λ) actor-critic agent on the resulting trajectory, and
// streams KPI records to the configured sinks. It generalizes the
// teacher's tabular/main.go init()/runApp() split from a fixed grid-world
// training run to a configurable robot session.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"wheelly/agent"
	"wheelly/config"
	"wheelly/controller"
	"wheelly/kpi"
	"wheelly/protocol"
	"wheelly/tensor"
)

var (
	robotPath      *string
	controllerPath *string
	envPath        *string
	agentPath      *string
	kpiDir         *string
	labelSelector  *string
	silent         *bool
	durationSec    *int
)

func init() {
	robotPath = flag.String("r", "robot.yml", "robot config path")
	controllerPath = flag.String("c", "controller.yml", "controller config path")
	envPath = flag.String("e", "env.yml", "environment config path")
	agentPath = flag.String("a", "agent.yml", "agent config path")
	kpiDir = flag.String("k", "kpis/", "KPI output directory")
	labelSelector = flag.String("l", "all", `KPI label filter: "all" or a comma-separated list`)
	silent = flag.Bool("s", false, "silent: suppress non-error log output")
	durationSec = flag.Int("t", 43200, "session duration in seconds")
	flag.Parse()
}

func runApp() error {
	robotSpec, err := config.LoadSelected[controller.RobotSpec](*robotPath)
	if err != nil {
		return err
	}
	controllerSpec, err := config.LoadSelected[controller.Spec](*controllerPath)
	if err != nil {
		return err
	}
	envSpec, err := config.LoadSelected[controller.EnvSpec](*envPath)
	if err != nil {
		return err
	}
	agentSpec, err := config.LoadSelected[agent.Spec](*agentPath)
	if err != nil {
		return err
	}

	sink, err := kpi.NewCSVSink(*kpiDir, *labelSelector)
	if err != nil {
		return err
	}
	defer sink.Close()

	ag, loadErr := agent.Load(agentSpec)
	if loadErr != nil {
		if !*silent {
			log.Printf("wheelly: no prior model at %s, starting fresh: %v", agentSpec.ModelPath, loadErr)
		}
		ag, err = agent.New(agentSpec, sink)
		if err != nil {
			return err
		}
	} else {
		ag.AttachSink(sink)
	}

	source, radarMap, err := controller.BuildSource(*robotSpec, *envSpec)
	if err != nil {
		return err
	}
	ctrl := controller.New(*controllerSpec, source, radarMap)
	ctrl.OnFormatError(func(err error) {
		if !*silent {
			log.Printf("wheelly: dropped malformed line: %v", err)
		}
	})
	env := controller.NewEnvironment(ctrl, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*durationSec)*time.Second)
	defer cancel()

	sessionErr := runSession(ctx, env, ag)

	if err := ctrl.Shutdown(); err != nil && !*silent {
		log.Printf("wheelly: shutdown: %v", err)
	}
	if sessionErr != nil {
		return sessionErr
	}

	if err := ag.Save(); err != nil {
		log.Printf("wheelly: final save failed: %v", err)
	}
	return nil
}

// runSession drives the act/observe loop per spec §4.1's data flow
// ("Environment samples observation vector -> Agent picks action ->
// Controller emits motion command") until ctx is cancelled or the agent
// reports a fatal error, per spec §4.1's failure semantics ("Agent
// exception during act/observe -> bubble up; the controller stops
// cleanly").
func runSession(ctx context.Context, env *controller.Environment, ag *agent.Agent) error {
	obs := env.Reset()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		choices := ag.Act(obs)
		cmd := commandFromChoices(choices)

		nextObs, reward := env.Step(cmd)

		actionMasks := make(map[string]*tensor.Array, len(choices))
		for head, class := range choices {
			actionMasks[head] = ag.ActionMask(head, class)
		}

		if err := ag.Observe(obs, actionMasks, reward, nextObs); err != nil {
			return err
		}
		obs = nextObs
	}
}

func commandFromChoices(choices map[string]int) controller.Command {
	dir, ok := choices["dir"]
	if !ok {
		return controller.Command{Kind: controller.CommandHalt}
	}
	return controller.Command{
		Kind:       controller.CommandMove,
		DeadlineMs: 5000,
		DirCode:    protocol.DirCode(dir),
	}
}

func main() {
	if err := runApp(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
