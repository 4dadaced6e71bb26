// Package terminal draws rounds on a character screen and turns quit keys
// into cancellation of the running round.
package terminal

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"

	"github.com/baldhumanity/flappy-neat/course"
)

var (
	styleDefault  = tcell.StyleDefault
	styleObstacle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleAgent    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleFloor    = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

const (
	runeObstacle = '█'
	runeRising   = '^'
	runeGliding  = '>'
	runeFalling  = 'v'
)

// Presenter implements course.Presenter on a tcell screen.
type Presenter struct {
	mu     sync.Mutex
	screen tcell.Screen
	closed bool
}

// New wraps an initialized screen.
func New(screen tcell.Screen) *Presenter {
	screen.HideCursor()
	return &Presenter{screen: screen}
}

// Open creates and initializes a screen on the controlling terminal.
func Open() (*Presenter, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	return New(screen), nil
}

// Watch polls input on its own goroutine and calls cancel when a quit key
// (Esc, q or Ctrl-C) is pressed. It returns when the key is seen or the
// presenter is closed.
func (p *Presenter) Watch(cancel context.CancelFunc) {
	go func() {
		for {
			switch ev := p.screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				if quitKey(ev) {
					cancel()
					return
				}
			case *tcell.EventResize:
				p.mu.Lock()
				if !p.closed {
					p.screen.Sync()
				}
				p.mu.Unlock()
			}
		}
	}()
}

func quitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		if ev.Modifiers()&tcell.ModCtrl != 0 && ev.Rune() == 'c' {
			return true
		}
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// Present implements course.Presenter.
func (p *Presenter) Present(s course.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.screen.Clear()
	w, h := p.screen.Size()
	if w > 0 && h > 2 {
		v := newViewport(s, w, h)
		v.drawObstacles(p.screen, s.Obstacles)
		v.drawFloor(p.screen, s.FloorOffset)
		v.drawAgents(p.screen, s.Agents)
		drawHUD(p.screen, s, w, h-1)
	}
	p.screen.Show()
}

// Close restores the terminal. Further snapshots are ignored.
func (p *Presenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.screen.Fini()
	}
	return nil
}

// viewport maps world coordinates to screen cells. Rows above floorRow
// show the space between y=0 and the floor.
type viewport struct {
	width, floorRow int
	scaleX, scaleY  float64
}

func newViewport(s course.Snapshot, w, h int) viewport {
	floorRow := h - 2
	worldWidth := s.WorldWidth
	if worldWidth <= 0 {
		worldWidth = float64(w)
	}
	floorY := s.FloorY
	if floorY <= 0 {
		floorY = float64(floorRow)
	}
	return viewport{
		width:    w,
		floorRow: floorRow,
		scaleX:   float64(w) / worldWidth,
		scaleY:   float64(floorRow) / floorY,
	}
}

func (v viewport) col(x float64) int { return int(x * v.scaleX) }

func (v viewport) row(y float64) int { return int(y * v.scaleY) }

// worldY is the world height at the middle of a row.
func (v viewport) worldY(row int) float64 { return (float64(row) + 0.5) / v.scaleY }

func (v viewport) drawObstacles(screen tcell.Screen, obstacles []course.ObstacleView) {
	for _, o := range obstacles {
		from := max(v.col(o.X), 0)
		to := min(v.col(o.X+o.Width), v.width-1)
		for x := from; x <= to; x++ {
			for y := 0; y < v.floorRow; y++ {
				wy := v.worldY(y)
				if wy < o.GapTop || wy > o.GapBottom {
					screen.SetContent(x, y, runeObstacle, nil, styleObstacle)
				}
			}
		}
	}
}

func (v viewport) drawFloor(screen tcell.Screen, offset float64) {
	shift := v.col(offset)
	for x := 0; x < v.width; x++ {
		r := '='
		if (x+shift)%4 == 0 {
			r = '#'
		}
		screen.SetContent(x, v.floorRow, r, nil, styleFloor)
	}
}

func (v viewport) drawAgents(screen tcell.Screen, agents []course.AgentView) {
	for _, a := range agents {
		x := v.col(a.X)
		y := v.row(a.Y)
		if x < 0 || x >= v.width || y < 0 || y >= v.floorRow {
			continue
		}
		r := runeGliding
		switch {
		case a.Falling:
			r = runeFalling
		case a.Velocity < 0:
			r = runeRising
		}
		screen.SetContent(x, y, r, nil, styleAgent)
	}
}

// HUDText is the status line shown under the floor.
func HUDText(s course.Snapshot) string {
	return fmt.Sprintf(" Round %s  Score %s  High %s  Alive %s  Tick %s ",
		humanize.Comma(int64(s.Round)), humanize.Comma(int64(s.Score)),
		humanize.Comma(int64(s.HighScore)), humanize.Comma(int64(s.Alive)),
		humanize.Comma(int64(s.Tick)))
}

func drawHUD(screen tcell.Screen, s course.Snapshot, w, row int) {
	for x := 0; x < w; x++ {
		screen.SetContent(x, row, ' ', nil, styleDefault)
	}
	x := 0
	for _, r := range HUDText(s) {
		if x >= w {
			break
		}
		screen.SetContent(x, row, r, nil, styleHUD)
		x++
	}
}
