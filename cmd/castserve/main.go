// castserve renders the ray caster headlessly and streams every flushed
// batch to websocket viewers. Open http://localhost:8080/ for the bundled
// canvas viewer; arrow keys move the shared camera.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/Garsondee/raycaster/internal/stream"
	"github.com/Garsondee/raycaster/internal/viewcfg"
)

const (
	moveStep = 0.15
	turnStep = 5.0
)

func main() {
	cfg := viewcfg.Register(flag.CommandLine)
	addr := flag.String("addr", ":8080", "HTTP listen address")
	fps := flag.Int("fps", 15, "frames per second")
	spin := flag.Float64("spin", 1, "degrees to turn per frame while spinning")
	width := flag.Int("width", raycast.DefaultSurfaceW, "logical surface width")
	height := flag.Int("height", raycast.DefaultSurfaceH, "logical surface height")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		logger.Error("bad flags", "error", err)
		os.Exit(2)
	}
	if *fps <= 0 || *width <= 0 || *height <= 0 {
		logger.Error("bad flags", "error", "-fps, -width and -height must be > 0")
		os.Exit(2)
	}
	gm, err := cfg.Grid()
	if err != nil {
		logger.Error("load map", "error", err)
		os.Exit(1)
	}

	hub := stream.NewHub(stream.WithLogger(logger))
	sink := stream.NewStreamSink(hub, *width, *height)
	opts := append(cfg.CompositorOptions(), raycast.WithSurface(*width, *height))
	c := newCaster(gm, cfg.Camera(), sink, hub, logger, opts...)
	c.spinSpeed = *spin

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(viewerPage))
	})
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go c.run(ctx, time.Second/time.Duration(*fps))

	logger.Info("castserve listening", "addr", *addr, "surface", [2]int{*width, *height})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server stopped", "error", err)
		os.Exit(1)
	}
}

// caster owns the shared camera and renders one frame per tick.
type caster struct {
	gm        *raycast.GridMap
	cam       raycast.Camera
	comp      *raycast.Compositor
	sink      *stream.StreamSink
	commands  <-chan stream.Command
	logger    *slog.Logger
	spinning  bool
	spinSpeed float64
	lastErr   string
}

func newCaster(gm *raycast.GridMap, cam raycast.Camera, sink *stream.StreamSink, hub *stream.Hub, logger *slog.Logger, opts ...raycast.CompositorOption) *caster {
	return &caster{
		gm:        gm,
		cam:       cam,
		comp:      raycast.NewCompositor(sink, opts...),
		sink:      sink,
		commands:  hub.Commands(),
		logger:    logger,
		spinSpeed: 1,
	}
}

// apply handles one client command.
func (c *caster) apply(cmd stream.Command) {
	if cmd.Type != "key" {
		c.logger.Debug("ignored command", "type", cmd.Type)
		return
	}
	switch cmd.Action {
	case "forward":
		c.move(c.cam.Forward(moveStep))
	case "back":
		c.move(c.cam.Forward(-moveStep))
	case "left":
		c.cam.Turn(-turnStep)
	case "right":
		c.cam.Turn(turnStep)
	case "spin":
		c.spinning = !c.spinning
	default:
		c.logger.Debug("unknown action", "action", cmd.Action)
	}
}

func (c *caster) move(dx, dy float64) {
	movedX := dx != 0 && c.cam.TryMove(c.gm, dx, 0)
	movedY := dy != 0 && c.cam.TryMove(c.gm, 0, dy)
	if !movedX && !movedY {
		c.logger.Debug("move blocked", "x", c.cam.X, "y", c.cam.Y)
	}
}

// step drains pending commands and streams one frame.
func (c *caster) step() error {
drain:
	for {
		select {
		case cmd := <-c.commands:
			c.apply(cmd)
		default:
			break drain
		}
	}
	if c.spinning {
		c.cam.Turn(c.spinSpeed)
	}
	st, err := c.comp.RenderFrame(c.cam, c.gm)
	if err != nil {
		c.sink.Abandon()
		return err
	}
	return c.sink.EndFrame(st)
}

func (c *caster) run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		err := c.step()
		switch {
		case errors.Is(err, stream.ErrHubClosed):
			return
		case err != nil:
			if msg := err.Error(); msg != c.lastErr {
				c.logger.Warn("frame dropped", "frame", c.comp.Frame(), "error", err)
				c.lastErr = msg
			}
		default:
			c.lastErr = ""
		}
	}
}
