// Package scanview shows a flash id scan on a full-screen terminal view: one
// phase per attempted controller family, a chip-enable map and the decoded
// banks. It implements flash.Observer so a fallback chain can drive it.
package scanview

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"ssdflashid/flash"
	"ssdflashid/nanddb"
)

// ErrInterrupted is returned by Wait when the user quits the view.
var ErrInterrupted = errors.New("interrupted")

// mapSlots is the number of chip-enable positions drawn in the bank map.
const mapSlots = 32

type phaseState int

const (
	pending phaseState = iota
	running
	found
	empty
	failed
)

func (p phaseState) mark() rune {
	switch p {
	case running:
		return '>'
	case found:
		return '✓'
	case empty:
		return '·'
	case failed:
		return '✗'
	}
	return ' '
}

// View is a tcell screen rendering the progress of one scan.
type View struct {
	mu       sync.Mutex
	s        tcell.Screen
	stopChan chan struct{}
	once     sync.Once

	title   string
	summary []string
	phases  []string
	state   map[string]phaseState
	banks   []flash.Bank
	status  []string
	raw     bool
}

// New opens the terminal screen.
func New() (*View, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return newView(s)
}

func newView(s tcell.Screen) (*View, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.DisableMouse()
	v := &View{
		s:        s,
		stopChan: make(chan struct{}),
		state:    make(map[string]phaseState),
	}
	go v.eventLoop()
	return v, nil
}

// Close restores the terminal.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.s == nil {
		return
	}
	v.s.Fini()
	v.s = nil
}

// RequestStop can be called more than once.
func (v *View) RequestStop() {
	v.once.Do(func() {
		close(v.stopChan)
		v.mu.Lock()
		if v.s != nil {
			v.s.PostEvent(tcell.NewEventInterrupt(nil))
		}
		v.mu.Unlock()
	})
}

// IsStopped reports whether the user asked to quit.
func (v *View) IsStopped() bool {
	select {
	case <-v.stopChan:
		return true
	default:
		return false
	}
}

// Wait keeps the final screen up until the user quits or d elapses.
func (v *View) Wait(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-v.stopChan:
		return ErrInterrupted
	case <-timer.C:
		return nil
	}
}

// SetTitle sets the banner text.
func (v *View) SetTitle(t string) {
	v.mu.Lock()
	v.title = t
	v.mu.Unlock()
}

// SetSummary sets the device lines shown under the title.
func (v *View) SetSummary(lines []string) {
	v.mu.Lock()
	v.summary = append([]string(nil), lines...)
	v.mu.Unlock()
}

// SetPhases declares the attempts the scan will make, in order.
func (v *View) SetPhases(names []string) {
	v.mu.Lock()
	v.phases = append([]string(nil), names...)
	v.mu.Unlock()
}

// SetRaw drops the decoded description from bank lines.
func (v *View) SetRaw(raw bool) {
	v.mu.Lock()
	v.raw = raw
	v.mu.Unlock()
}

// AttemptStarted implements flash.Observer.
func (v *View) AttemptStarted(name string) {
	v.mu.Lock()
	v.addPhase(name)
	v.state[name] = running
	v.status = []string{"trying " + name}
	v.mu.Unlock()
	v.Draw()
}

// AttemptFinished implements flash.Observer.
func (v *View) AttemptFinished(name string, res *flash.Result, err error) {
	v.mu.Lock()
	switch {
	case err != nil:
		v.state[name] = failed
		v.status = []string{fmt.Sprintf("%s: %v", name, err)}
	case res == nil || len(res.Banks) == 0:
		v.state[name] = empty
		v.status = []string{name + ": no flash ids"}
	default:
		v.state[name] = found
		v.banks = append([]flash.Bank(nil), res.Banks...)
		v.status = []string{fmt.Sprintf("%s: %d bank(s) via %s", name, len(res.Banks), res.Controller)}
	}
	v.mu.Unlock()
	v.Draw()
}

// Finish shows the outcome of the whole scan.
func (v *View) Finish(res *flash.Result, err error) {
	v.mu.Lock()
	switch {
	case err != nil:
		v.status = []string{"scan failed: " + err.Error()}
	case res != nil:
		v.banks = append([]flash.Bank(nil), res.Banks...)
		v.status = []string{fmt.Sprintf("controller %s, %d bank(s)", res.Controller, len(res.Banks))}
	}
	v.status = append(v.status, "press q to quit")
	v.mu.Unlock()
	v.Draw()
}

// Conclude shows the outcome and keeps it up for d. When the user already
// quit during the scan it returns ErrInterrupted without redrawing.
func (v *View) Conclude(res *flash.Result, err error, d time.Duration) error {
	if v.IsStopped() {
		return ErrInterrupted
	}
	v.Finish(res, err)
	return v.Wait(d)
}

func (v *View) addPhase(name string) {
	for _, p := range v.phases {
		if p == name {
			return
		}
	}
	v.phases = append(v.phases, name)
}

func putStr(s tcell.Screen, x, y int, str string) {
	w, _ := s.Size()
	for i, r := range []rune(str) {
		if x+i >= w {
			break
		}
		s.SetContent(x+i, y, r, nil, tcell.StyleDefault)
	}
}

// mapLine renders populated chip enables as '█' and the rest as '·'.
func mapLine(banks []flash.Bank) string {
	cells := []rune(strings.Repeat("·", mapSlots))
	for _, b := range banks {
		if b.Num < mapSlots {
			cells[b.Num] = '█'
		}
	}
	return "CE " + string(cells)
}

func (v *View) bankLines() []string {
	lines := make([]string, 0, len(v.banks))
	for _, b := range v.banks {
		line := fmt.Sprintf("Bank%02d: %s", b.Num, nanddb.FormatHex(b.ID[:]))
		if !v.raw {
			line += " - " + nanddb.Describe(b.ID[:])
		}
		lines = append(lines, line)
	}
	return lines
}

// Draw redraws the whole screen.
func (v *View) Draw() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.s == nil {
		return
	}
	s := v.s
	s.Clear()
	w, h := s.Size()
	y := 0

	if v.title != "" {
		putStr(s, 0, y, strings.Repeat("═", w))
		putStr(s, max((w-len([]rune(v.title)))/2, 0), y, v.title)
		y++
	}
	for _, line := range v.summary {
		if y >= h {
			break
		}
		putStr(s, 0, y, line)
		y++
	}

	if len(v.phases) > 0 && y < h-1 {
		putStr(s, 0, y, strings.Repeat("─", w))
		putStr(s, 2, y, " Phase ")
		y++
		var b strings.Builder
		for i, p := range v.phases {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "[%c]%s", v.state[p].mark(), p)
		}
		putStr(s, 0, y, b.String())
		y++
	}

	if y < h-1 {
		putStr(s, 0, y, strings.Repeat("─", w))
		putStr(s, 2, y, " Banks ")
		y++
		putStr(s, 0, y, mapLine(v.banks))
		y++
		// Leave room for the status block.
		for _, line := range v.bankLines() {
			if y >= h-1-len(v.status) {
				break
			}
			putStr(s, 0, y, line)
			y++
		}
	}

	if len(v.status) > 0 && y < h {
		putStr(s, 0, y, strings.Repeat("─", w))
		putStr(s, 2, y, " Status ")
		y++
		for _, line := range v.status {
			if y >= h {
				break
			}
			putStr(s, 0, y, line)
			y++
		}
	}
	s.Show()
}

func (v *View) eventLoop() {
	v.mu.Lock()
	s := v.s
	v.mu.Unlock()
	if s == nil {
		return
	}
	for {
		select {
		case <-v.stopChan:
			return
		default:
		}
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyCtrlC, ev.Key() == tcell.KeyEscape:
				v.RequestStop()
			case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
				v.RequestStop()
			}
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventInterrupt:
			return
		case nil:
			return
		}
	}
}
