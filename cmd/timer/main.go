package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/2beens/intervaltimer/internal/logging"
	"github.com/2beens/intervaltimer/internal/presets"
	"github.com/2beens/intervaltimer/internal/timer"

	log "github.com/sirupsen/logrus"
)

// runs a workout locally in the terminal, printing cues as they fire
func main() {
	work := flag.Int("work", 20, "work phase length in seconds")
	rest := flag.Int("rest", 10, "rest phase length in seconds")
	rounds := flag.Int("rounds", 8, "rounds per set")
	sets := flag.Int("sets", 1, "number of sets")
	preset := flag.String("preset", "", "built-in preset name (overrides work/rest/rounds/sets)")
	tick := flag.Duration("tick", time.Second, "real duration of one timer second")
	listPresets := flag.Bool("list", false, "list built-in presets and exit")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    *logLevel,
	})

	if *listPresets {
		for _, p := range presets.BuiltIns() {
			fmt.Printf("%-8s %s (%s)\n", p.Name, p.Description, p.Config)
		}
		return
	}

	cfg := timer.Config{
		WorkSeconds: *work,
		RestSeconds: *rest,
		Rounds:      *rounds,
		Sets:        *sets,
	}
	if *preset != "" {
		p, ok := presets.BuiltIn(strings.ToLower(*preset))
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown preset [%s], use -list to see them\n", *preset)
			os.Exit(2)
		}
		cfg = p.Config
	}

	engine, err := timer.NewWithConfig(cfg, timer.Options{
		TickInterval: *tick,
		OnSubscriberError: func(err *timer.SubscriberError) {
			log.Error(err)
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("workout: %s, total %s\n", cfg, formatSeconds(timer.TotalSeconds(cfg)))
	runWorkout(engine, os.Stdout, *tick, chOsInterrupt)
}

// runWorkout starts the engine and prints cues until the workout completes or
// a signal arrives. The phase is polled as well, so completion is never missed.
func runWorkout(engine *timer.Engine, out io.Writer, pollInterval time.Duration, chInterrupt <-chan os.Signal) timer.State {
	// printing inside the subscriber sees every cue, a buffered channel could drop the last one
	chDone := make(chan struct{})
	var doneOnce sync.Once
	unsubscribe := engine.Subscribe(func(cue timer.Cue) {
		printCue(out, cue, engine.Progress())
		if cue.Type == timer.CueWorkoutComplete {
			doneOnce.Do(func() { close(chDone) })
		}
	})
	defer unsubscribe()

	engine.Start()

	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	stateTicker := time.NewTicker(pollInterval)
	defer stateTicker.Stop()

	for {
		select {
		case <-chDone:
			return engine.State()
		case <-stateTicker.C:
			if s := engine.State(); s.Phase == timer.PhaseComplete {
				return s
			}
		case sig := <-chInterrupt:
			engine.Pause()
			s := engine.State()
			fmt.Fprintf(out, "\n[%s] stopped in %s, round %d set %d, %ds left\n",
				sig, s.Phase, s.CurrentRound, s.CurrentSet, s.RemainingSeconds)
			return s
		}
	}
}

func printCue(out io.Writer, cue timer.Cue, progress timer.Report) {
	switch cue.Type {
	case timer.CuePhaseStarted:
		fmt.Fprintf(out, "[%5.1f%%] %-4s round %d set %d\n", progress.Percent, strings.ToUpper(cue.Phase.String()), cue.Round, cue.Set)
	case timer.CueCountdownWarning:
		fmt.Fprintf(out, "\a[%5.1f%%] ... %d\n", progress.Percent, cue.SecondsRemaining)
	case timer.CueWorkoutComplete:
		fmt.Fprintf(out, "[%5.1f%%] DONE after %s\n", progress.Percent, formatSeconds(progress.ElapsedSeconds))
	}
}

func formatSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}
