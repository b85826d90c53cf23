// termcast renders the ray caster in a terminal. With -ssh it serves one
// independent viewer per SSH connection instead.
//
//	go run ./cmd/termcast
//	go run ./cmd/termcast -ssh :2222
//	ssh -t -p 2222 localhost
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/Garsondee/raycaster/internal/termview"
	"github.com/Garsondee/raycaster/internal/viewcfg"
	"github.com/gdamore/tcell/v2"
	gossh "github.com/gliderlabs/ssh"
	xssh "golang.org/x/crypto/ssh"
)

func main() {
	cfg := viewcfg.Register(flag.CommandLine)
	sshAddr := flag.String("ssh", "", "serve over SSH on this address instead of the local terminal")
	keyFile := flag.String("key", "termcast_host_key", "PEM host key for -ssh (generated if absent)")
	fps := flag.Int("fps", 20, "frames per second")
	spin := flag.Float64("spin", 0, "degrees to turn per frame")
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
	if *fps <= 0 {
		logger.Error("bad flags", "error", "-fps must be > 0")
		os.Exit(2)
	}
	gm, err := cfg.Grid()
	if err != nil {
		logger.Error("load map", "error", err)
		os.Exit(1)
	}
	tick := time.Second / time.Duration(*fps)

	// Terminals have far fewer columns than pixels; cap the ray count.
	opts := cfg.CompositorOptions()
	if cfg.Columns == 0 {
		opts = append(opts, raycast.WithColumns(256))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *sshAddr != "" {
		err = serveSSH(ctx, *sshAddr, *keyFile, logger, func(screen tcell.Screen, log *slog.Logger) *termview.Viewer {
			v := termview.NewViewer(screen, gm, cfg.Camera(), log, opts...)
			v.SetSpin(*spin)
			return v
		}, tick)
	} else {
		err = runLocal(ctx, gm, cfg.Camera(), *spin, tick, logger, opts)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("termcast stopped", "error", err)
		os.Exit(1)
	}
}

func runLocal(ctx context.Context, gm *raycast.GridMap, cam raycast.Camera, spin float64, tick time.Duration, logger *slog.Logger, opts []raycast.CompositorOption) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	v := termview.NewViewer(screen, gm, cam, logger, opts...)
	v.SetSpin(spin)
	return v.Run(ctx, tick)
}

func serveSSH(ctx context.Context, addr, keyFile string, logger *slog.Logger, newViewer func(tcell.Screen, *slog.Logger) *termview.Viewer, tick time.Duration) error {
	signer, err := loadOrCreateHostKey(keyFile, logger)
	if err != nil {
		return err
	}
	srv := &gossh.Server{
		Addr: addr,
		Handler: func(s gossh.Session) {
			log := logger.With("remote", s.RemoteAddr().String(), "user", s.User())
			screen, err := termview.NewSessionScreen(s)
			if err != nil {
				fmt.Fprintf(s, "termcast: %v (connect with ssh -t)\n", err)
				log.Warn("session rejected", "error", err)
				return
			}
			defer screen.Fini()
			screen.HideCursor()
			log.Info("session started")
			err = newViewer(screen, log).Run(s.Context(), tick)
			log.Info("session ended", "error", err)
		},
		PtyCallback: func(gossh.Context, gossh.Pty) bool { return true },
		HostSigners: []gossh.Signer{signer},
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	logger.Info("ssh listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, gossh.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// loadOrCreateHostKey reads a PEM private key, or generates and saves an
// ed25519 key when the file is missing or unreadable.
func loadOrCreateHostKey(path string, logger *slog.Logger) (gossh.Signer, error) {
	if data, err := os.ReadFile(path); err == nil {
		if signer, err := xssh.ParsePrivateKey(data); err == nil {
			logger.Info("loaded host key", "path", path)
			return signer, nil
		}
	}

	logger.Info("generating host key", "path", path)
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	signer, err := xssh.NewSignerFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("host key signer: %w", err)
	}
	if block, err := xssh.MarshalPrivateKey(key, "termcast"); err == nil {
		if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
			logger.Warn("host key not saved", "path", path, "error", err)
		}
	}
	return signer, nil
}
