package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/lumiseq/internal/config"
	"github.com/coreman2200/lumiseq/internal/diagnostics"
	"github.com/coreman2200/lumiseq/internal/led"
	"github.com/coreman2200/lumiseq/internal/post"
	"github.com/coreman2200/lumiseq/internal/program"
	"github.com/coreman2200/lumiseq/internal/runner"
	"github.com/coreman2200/lumiseq/internal/sequence"
	"github.com/coreman2200/lumiseq/internal/ws"
	"github.com/coreman2200/lumiseq/model"
)

func main() {
	// ---- Flags (config.yaml overrides where set) ----
	var (
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		programPath = flag.String("program", "", "program to play (.yaml or .json); empty plays the demo")
		driver      = flag.String("driver", "", "driver: sim | console | spi")
		channels    = flag.Int("channels", 0, "number of LED channels")
		addr        = flag.String("addr", "", "preview server address, e.g. :8080")
		loop        = flag.Bool("loop", false, "repeat until interrupted")
		simOnly     = flag.Bool("sim-only", false, "force simulation (no hardware output)")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config ----
	cfg := config.Defaults()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults and flags")
	} else {
		cfg = *c
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *channels > 0 {
		cfg.Channels = *channels
	}
	if *addr != "" {
		cfg.Preview.Addr = *addr
	}
	if *simOnly {
		cfg.Driver = "sim"
	}
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	// ---- Driver ----
	sink, closer := openDriver(cfg)
	if closer != nil {
		defer closer.Close()
	}

	// ---- Diagnostics & preview ----
	diag := []diagnostics.Sink{diagnostics.LogSink{Logger: log.Logger}}
	var hub *ws.Hub
	if cfg.Preview.Addr != "" {
		hub = ws.NewHub(cfg.Channels, log.Logger)
		hub.Driver = cfg.Driver
		sink = hub.Tee(sink)
		diag = append(diag, hub)
	}

	r, err := runner.New(sink,
		runner.WithLogger(log.Logger),
		runner.WithDiagnostics(diagnostics.NewOnce(diagnostics.Tee(diag...))),
		runner.WithFlickerThreshold(time.Duration(cfg.FlickerMs)*time.Millisecond),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("runner")
	}

	// ---- Animation ----
	anim, maxFps, err := loadAnimation(*programPath, cfg.Channels, *loop)
	if err != nil {
		log.Fatal().Err(err).Str("program", *programPath).Msg("load program")
	}
	if maxFps == 0 && cfg.MaxFPS > 0 {
		if anim, err = sequence.SmoothFps(anim, cfg.MaxFPS); err != nil {
			log.Fatal().Err(err).Msg("max fps")
		}
	}

	dimmer := post.NewDimmer(cfg.Brightness)
	anim = post.Apply(anim, post.Chain(
		dimmer.Stage(),
		post.WhiteCap(cfg.Power.WhiteCap),
		post.Budget(post.Power{
			Channels: cfg.Channels,
			ChanMA:   cfg.Power.ChanMA,
			BudgetMA: cfg.Power.BudgetMA,
			Knee:     cfg.Power.Knee,
		}),
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if hub != nil {
		hub.Controls = ws.Controls{SetBrightness: dimmer.Set, Stop: r.Stop}
		srv = &http.Server{
			Addr:         cfg.Preview.Addr,
			Handler:      hub.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Preview.Addr).Str("driver", cfg.Driver).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("preview server crashed")
			}
		}()
	}

	// ---- Play ----
	log.Info().Str("driver", cfg.Driver).Int("channels", cfg.Channels).Bool("loop", *loop).Msg("playing")
	err = r.Run(ctx, anim)
	st := r.Stats()
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Str("run_id", st.RunID).
		Int("frames", st.Frames).
		Dur("expected", st.Expected).
		Dur("actual", st.Actual).
		Bool("cancelled", st.Cancelled).
		Msg("run finished")

	if srv != nil {
		_ = srv.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

// openDriver falls back to the simulator when hardware cannot be opened.
func openDriver(cfg config.Config) (runner.Sink, io.Closer) {
	switch cfg.Driver {
	case "sim":
		return led.NewSim(cfg.Channels), nil
	case "console":
		d := led.NewConsole(cfg.Channels)
		return d, d
	case "spi":
		d, err := led.OpenStrip(led.StripOptions{
			Port:     cfg.SPI.Port,
			Channels: cfg.Channels,
			Freq:     physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz,
		})
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("port", cfg.SPI.Port).
				Int("speed_hz", cfg.SPI.SpeedHz).
				Msg("SPI init failed; falling back to SIM")
			return led.NewSim(cfg.Channels), nil
		}
		return d, d
	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; using SIM")
		return led.NewSim(cfg.Channels), nil
	}
}

// loadAnimation compiles the program at path, or the demo when path is
// empty. It also returns the frame rate cap the program applied itself.
func loadAnimation(path string, channels int, loop bool) (sequence.Animation, int, error) {
	if path == "" {
		a, err := demo(channels, loop)
		return a, 0, err
	}
	p, err := program.Load(path)
	if err != nil {
		return sequence.Animation{}, 0, err
	}
	if loop {
		p.Loop = true
	}
	a, err := program.Compile(p, channels)
	return a, p.MaxFps, err
}

func demo(channels int, loop bool) (sequence.Animation, error) {
	sweep, err := program.NewPattern(program.IndexSweep, channels, 100)
	if err != nil {
		return sequence.Animation{}, err
	}
	b := sequence.StartWithBlack(200).
		Morph(model.Black, model.Red, 600, 0).
		MorphToColor(model.Blue, 600).
		Pulse(model.Green, 1000, 0).
		MorphMany([]model.RGB{model.Red, model.Green, model.Blue, model.Black}, 1500, 0).
		Append(sweep)
	if loop {
		b.Repeat(sequence.Forever)
	}
	return b.Build()
}
