// Command sandbox drives a car around a terminal top-down view while AI
// traffic circles a loop. Keys are listed on the bottom line; Esc or q quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/cxd309/vehicle-engine/internal/audio"
	"github.com/cxd309/vehicle-engine/internal/config"
	"github.com/cxd309/vehicle-engine/internal/controller"
	"github.com/cxd309/vehicle-engine/internal/engine"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/logging"
	"github.com/cxd309/vehicle-engine/internal/vehicle"
	"github.com/gdamore/tcell/v2"
)

const (
	appName   = "vehicle-sandbox"
	frameTime = 16 * time.Millisecond
	viewScale = 1.0
	helpLine  = "w/s/↑↓ throttle brake  a/d/←→ steer  space handbrake  v recover  m mute  q quit"
)

// Sandbox is the interactive session.
type Sandbox struct {
	screen   tcell.Screen
	sim      *engine.Sim
	player   *vehicle.Vehicle
	keyboard *input.Keyboard
	in       engine.SimulationInput
	audio    *audio.Player
	muted    bool
	log      *slog.Logger
	last     engine.SimulationLogRow
	width    int
	height   int
}

// NewSandbox builds the scene and seats the keyboard in the player car.
func NewSandbox(screen tcell.Screen, cfg *config.Config, logger *slog.Logger) (*Sandbox, error) {
	in := newScene(cfg.Sandbox.Traffic)
	sim, err := engine.NewSim(in, engine.WithLogger(logger), engine.WithSeed(cfg.Sim.Seed))
	if err != nil {
		return nil, err
	}
	player := sim.Vehicle(playerID)
	kb := input.NewKeyboard()
	kb.SetActive(true)
	player.SetHuman(kb)
	if _, err := player.Seats.Enter(vehicle.RoleDriver); err != nil {
		return nil, fmt.Errorf("seating player: %w", err)
	}

	s := &Sandbox{
		screen:   screen,
		sim:      sim,
		player:   player,
		keyboard: kb,
		in:       in,
		log:      logger,
	}
	s.width, s.height = screen.Size()

	if cfg.Sandbox.Audio {
		p := audio.NewPlayer()
		if err := p.Init(); err != nil {
			logger.Warn("audio disabled", "error", err)
		} else {
			s.audio = p
		}
	}
	return s, nil
}

func (s *Sandbox) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if isQuit(ev) {
			return false
		}
		if ev.Key() == tcell.KeyRune && ev.Rune() == 'm' && s.audio != nil {
			s.muted = !s.muted
			s.audio.SetMuted(s.muted)
			return true
		}
		if a, ok := actionFor(ev); ok {
			s.keyboard.Press(a)
		}
	case *tcell.EventResize:
		s.width, s.height = s.screen.Size()
		s.screen.Sync()
	}
	return true
}

// update runs as many fixed steps as wall time allows since the last frame.
func (s *Sandbox) update(elapsed time.Duration) {
	steps := max(1, int(elapsed.Seconds()/timeStep+0.5))
	for range min(steps, 5) {
		s.last = s.sim.Step()
	}
	if s.audio == nil {
		return
	}
	if p, ok := s.player.Active().(controller.Powertrain); ok {
		s.audio.Update(p.Drivetrain().RPM(), s.player.Hub.Current().Throttle)
	} else {
		s.audio.Update(0, 0)
	}
}

func (s *Sandbox) draw() {
	s.screen.Clear()
	v := view{Center: s.player.Body.Position, Scale: viewScale, Width: s.width, Height: s.height - 2}

	rock := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for _, o := range s.in.Obstacles {
		if x, y, ok := v.project(o.Center); ok {
			s.screen.SetContent(x, y, '●', nil, rock)
		}
	}
	for _, wp := range loop() {
		if x, y, ok := v.project(wp); ok {
			s.screen.SetContent(x, y, '+', nil, tcell.StyleDefault.Foreground(tcell.ColorDarkCyan))
		}
	}

	traffic := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	you := tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	for _, vl := range s.last.VehicleLogs {
		style := traffic
		if vl.VehicleID == playerID {
			style = you
		}
		if x, y, ok := v.project(vl.Position); ok {
			s.screen.SetContent(x, y, headingGlyph(vl.Heading), nil, style)
		}
	}

	s.drawText(0, s.height-2, tcell.StyleDefault.Reverse(true), s.hud())
	s.drawText(0, s.height-1, tcell.StyleDefault.Foreground(tcell.ColorGray), helpLine)
	s.screen.Show()
}

func (s *Sandbox) hud() string {
	var me engine.VehicleLog
	states := map[string]int{}
	for _, vl := range s.last.VehicleLogs {
		if vl.VehicleID == playerID {
			me = vl
			continue
		}
		states[vl.AIState]++
	}
	keys := make([]string, 0, len(states))
	for k := range states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ai := ""
	for _, k := range keys {
		ai += fmt.Sprintf(" %s:%d", k, states[k])
	}
	return fmt.Sprintf(" t=%6.1fs  %s/%s  gear %s  %5.0f rpm  %5.1f km/h  %s  traffic%s ",
		s.last.Timestamp, me.Domain, me.Variant, me.Gear, me.RPM, me.Speed*3.6, me.Authority, ai)
}

func (s *Sandbox) drawText(x, y int, style tcell.Style, text string) {
	for _, r := range text {
		if x >= s.width {
			return
		}
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (s *Sandbox) run() {
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			if !s.handleInput(ev) {
				return
			}
		case now := <-ticker.C:
			s.update(now.Sub(last))
			last = now
			s.draw()
		}
	}
}

func (s *Sandbox) cleanup() {
	if s.audio != nil {
		s.audio.Close()
	}
	s.screen.Fini()
}

func main() {
	configPath := flag.String("config", "", "config file or directory holding "+config.FileName)
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to the screen, so logs only go to a file.
	var logOut io.Writer
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
			return fmt.Errorf("creating logs dir: %w", err)
		}
		f, err := os.Create(logging.LogFilePath(cfg.LogsDir, appName, time.Now()))
		if err != nil {
			return fmt.Errorf("creating log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logs := logging.NewSlogManager()
	logs.Setup(logging.Options{Level: cfg.LogLevel, File: logOut})
	defer logs.Flush(context.Background())

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}

	sb, err := NewSandbox(screen, cfg, logs.Logger())
	if err != nil {
		screen.Fini()
		return err
	}
	defer sb.cleanup()

	sb.run()
	return nil
}
