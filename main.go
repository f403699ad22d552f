// FILE: main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/slivers/audio"
	"github.com/lixenwraith/slivers/config"
	"github.com/lixenwraith/slivers/engine"
	"github.com/lixenwraith/slivers/event"
	"github.com/lixenwraith/slivers/logging"
	"github.com/lixenwraith/slivers/palette"
	"github.com/lixenwraith/slivers/parameter"
	"github.com/lixenwraith/slivers/sliver"
	"github.com/lixenwraith/slivers/status"
	"github.com/lixenwraith/slivers/vmath"
)

const (
	targetSpawnMs = 700
	maxTargets    = 12
	statusRows    = 1
)

var (
	configFlag = flag.String("config", "", "YAML config file (defaults when empty)")
	seedFlag   = flag.Uint64("seed", 0, "Random seed, 0 uses the clock")
	logFlag    = flag.String("log", "", "Log file; enables debug logging")
)

// Master colors handed to targets, cycled as master entries are reused
var targetColors = []palette.RGB{
	{R: 50, G: 255, B: 50},
	{R: 255, G: 80, B: 80},
	{R: 100, G: 150, B: 255},
	{R: 255, G: 255, B: 0},
	{R: 255, G: 165, B: 0},
	{R: 0, G: 200, B: 200},
}

// target is a character that explodes into slivers when typed
type target struct {
	r      rune
	x, y   int
	master int
	ref    palette.MasterRef

	exploding bool // Burst queued, master still live until it spawns
}

func (t *target) ShadeMaster() palette.MasterRef { return t.ref }

// screenCanvas plots sliver cells onto a tcell screen, clipped to the play area
type screenCanvas struct {
	screen        tcell.Screen
	width, height int
}

func (c *screenCanvas) Plot(x, y int, glyph rune, col palette.RGB) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	color := tcell.NewRGBColor(int32(col.R), int32(col.G), int32(col.B))
	c.screen.SetContent(x, y, glyph, nil, tcell.StyleDefault.Foreground(color))
}

type Game struct {
	screen tcell.Screen
	canvas *screenCanvas

	cfg   *config.Config
	reg   *status.Registry
	table *palette.Table
	frame *engine.Frame
	rng   *vmath.FastRand
	log   *zap.SugaredLogger

	targets    []*target
	nextMaster int
	lastSpawn  time.Time

	player *audio.Player
}

func NewGame(cfg *config.Config, seed uint64, log *zap.SugaredLogger) (*Game, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	g := newGame(screen, cfg, seed, log)

	// Non-fatal, the sandbox runs silently without a speaker
	_ = g.player.Start()
	return g, nil
}

// newGame wires the sliver subsystem onto an initialized screen
func newGame(screen tcell.Screen, cfg *config.Config, seed uint64, log *zap.SugaredLogger) *Game {
	reg := status.NewRegistry()
	table := palette.NewTable(cfg.Palette.Size, cfg.Palette.Masters, reg, log.Named("palette"))
	table.SetRampFloor(cfg.Palette.RampFloor)
	pool := sliver.NewPool(cfg.PoolConfig(seed), table, reg, log.Named("sliver"))

	g := &Game{
		screen:    screen,
		canvas:    &screenCanvas{screen: screen},
		cfg:       cfg,
		reg:       reg,
		table:     table,
		frame:     engine.NewFrame(pool, event.NewEventQueue(), reg, log.Named("engine")),
		rng:       vmath.NewFastRand(seed ^ 0x9e3779b97f4a7c15),
		log:       log,
		targets:   make([]*target, 0, maxTargets),
		lastSpawn: time.Now(),
		player:    audio.NewPlayer(cfg.Audio.Enabled, cfg.Audio.Volume, log.Named("audio")),
	}
	g.frame.OnBurst(g.onBurst)
	g.handleResize()
	return g
}

func (g *Game) handleResize() {
	w, h := g.screen.Size()
	g.canvas.width = w
	g.canvas.height = h - statusRows

	kept := g.targets[:0]
	for _, t := range g.targets {
		if t.x < g.canvas.width && t.y < g.canvas.height {
			kept = append(kept, t)
			continue
		}
		g.table.RecycleMaster(t.master)
	}
	g.targets = kept
}

// spawnTarget places a new character with its own master color
func (g *Game) spawnTarget() {
	if len(g.targets) >= maxTargets || g.canvas.width < 3 || g.canvas.height < 3 || g.table.Masters() == 0 {
		return
	}

	chars := []rune("abcdefghijklmnopqrstuvwxyz0123456789")
	master := g.nextMaster % g.table.Masters()
	g.nextMaster++

	for _, t := range g.targets {
		if t.master == master {
			return
		}
	}

	t := &target{
		r:      chars[g.rng.Intn(len(chars))],
		x:      1 + g.rng.Intn(g.canvas.width-2),
		y:      1 + g.rng.Intn(g.canvas.height-2),
		master: master,
	}
	t.ref = g.table.SetMaster(master, targetColors[master%len(targetColors)])
	g.targets = append(g.targets, t)
}

// explode queues a burst at (x, y); from may be nil
func (g *Game) explode(x, y int, from sliver.Source) {
	b := g.cfg.Burst
	g.frame.Queue().PushExplosion(event.ExplosionRequest{
		Origin:      vmath.Vec2{X: vmath.FromInt(x) + vmath.Half, Y: vmath.FromInt(y) + vmath.Half},
		Direction:   vmath.Vec2{X: 0, Y: -vmath.Scale},
		Scale:       vmath.FromFloat(0.5 + float64(g.rng.Intn(4))*0.5),
		SpeedFactor: vmath.FromFloat(b.Speed),
		Spread:      b.Spread,
		Count:       b.Count,
		AgeMin:      b.AgeMin,
		AgeMax:      b.AgeMax,
		From:        from,
	}, g.frame.FrameNumber())
}

// hit queues a burst from the first live target showing r
// The target keeps its master entry until the burst spawns, see onBurst
func (g *Game) hit(r rune) bool {
	for _, t := range g.targets {
		if t.r != r || t.exploding {
			continue
		}
		t.exploding = true
		g.explode(t.x, t.y, t)
		return true
	}
	return false
}

// onBurst runs on the frame goroutine after a burst spawned; slivers already hold shades
// of the target's color, so its master entry is recycled now and they fade on their own leases
func (g *Game) onBurst(req *event.ExplosionRequest, spawned int) {
	if t, ok := req.From.(*target); ok {
		g.retire(t)
	}
	g.player.PlayBurst(spawned)
}

func (g *Game) retire(t *target) {
	for i, cur := range g.targets {
		if cur == t {
			g.targets = append(g.targets[:i], g.targets[i+1:]...)
			g.table.RecycleMaster(t.master)
			return
		}
	}
}

func (g *Game) draw() {
	g.screen.Clear()

	g.frame.Pool().Draw(g.canvas)

	for _, t := range g.targets {
		if t.exploding {
			continue
		}
		c, _ := g.table.Master(t.ref)
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))).Bold(true)
		g.screen.SetContent(t.x, t.y, t.r, nil, style)
	}

	g.drawStatus()
	g.screen.Show()
}

func (g *Game) drawStatus() {
	pool := g.frame.Pool()
	snap := g.reg.Snapshot()
	line := fmt.Sprintf(" frame %d  active %d/%d  palette %d/%d leased  starved %d  unshaded %d  [type a char, space: blast, tab: mute, ^R: reset, esc: quit]",
		g.frame.FrameNumber(), pool.ActiveCount(), pool.Capacity(),
		g.table.LeasedEntries(), g.table.Size()-g.table.Masters(),
		snap["sliver.starved"], snap["sliver.unshaded"])

	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorLightGray)
	y := g.canvas.height
	x := 0
	for _, r := range line {
		if x >= g.canvas.width {
			break
		}
		g.screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < g.canvas.width; x++ {
		g.screen.SetContent(x, y, ' ', nil, style)
	}
}

// handleInput returns false when the sandbox should exit
func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyTab:
			g.player.ToggleMute()
		case tcell.KeyCtrlR:
			g.frame.Queue().Push(event.GameEvent{Type: event.EventSliverReset, Frame: g.frame.FrameNumber()})
		case tcell.KeyRune:
			if ev.Rune() == ' ' {
				if g.canvas.width > 0 && g.canvas.height > 0 {
					g.explode(g.rng.Intn(g.canvas.width), g.rng.Intn(g.canvas.height), nil)
				}
				return true
			}
			g.hit(ev.Rune())
		}

	case *tcell.EventResize:
		g.screen.Sync()
		g.handleResize()
	}

	return true
}

// tick runs one frame of target spawning and sliver simulation
func (g *Game) tick() {
	if time.Since(g.lastSpawn).Milliseconds() > targetSpawnMs {
		g.spawnTarget()
		g.lastSpawn = time.Now()
	}
	g.frame.Tick()
}

func (g *Game) run(ctx context.Context) {
	ticker := time.NewTicker(parameter.FrameUpdateInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}

		case <-ticker.C:
			g.tick()
			g.draw()
		}
	}
}

func (g *Game) cleanup() {
	// Every lease goes back through Dispose
	g.frame.Reset()
	g.player.Stop()
	g.screen.Fini()
	_ = g.log.Sync()
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *logFlag != "" {
		cfg.Log.Level = "debug"
		cfg.Log.File = *logFlag
	}
	if *seedFlag != 0 {
		cfg.Seed = *seedFlag
	}
	return cfg, nil
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	game, err := NewGame(cfg, seed, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer game.cleanup()

	log.Infow("sandbox started", "seed", seed, "capacity", cfg.Pool.Capacity)
	game.run(context.Background())
}
