package main

import (
	"flag"
	"log"

	"github.com/Garsondee/raycaster/internal/game"
	"github.com/Garsondee/raycaster/internal/viewcfg"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := viewcfg.Register(flag.CommandLine)
	spin := flag.Bool("spin", false, "start with the camera rotating")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	gm, err := cfg.Grid()
	if err != nil {
		log.Fatal(err)
	}

	g := game.New(
		game.WithGrid(gm),
		game.WithCamera(cfg.Camera()),
		game.WithDrawMode(cfg.DrawMode()),
		game.WithSpin(*spin),
		game.WithCompositorOptions(cfg.CompositorOptions()...),
	)
	ebiten.SetWindowTitle("Raycaster")
	ebiten.SetWindowSize(g.WindowSize())
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
