package gui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	windowName     = "husk"
	maxLogCharsLen = 8192
	logRefreshRate = 64
)

var logRefreshDelay = time.Duration((1.0 / logRefreshRate) * float64(time.Second))

// GUI is a live log viewer with a single "Run" button that kicks off
// whatever job is wired in via SetRunCallback. It no longer offers a raw
// CAN frame entry box: driving traffic by hand is out of this core's scope,
// the job controller is the only thing that talks to the link.
type GUI struct {
	app    fyne.App
	window fyne.Window

	// state
	isRunning  bool
	autoScroll bool
	busy       bool

	// UI elements
	logScrollContainer *container.Scroll
	logLabel           *widget.Label
	runButton          *widget.Button

	// callbacks
	runCallback func()

	mu          sync.Mutex
	incomingLog string
}

func NewGUI() *GUI {
	return &GUI{
		app:        app.New(),
		autoScroll: true,
		logLabel:   widget.NewLabel(""),
	}
}

// SetRunCallback sets the action triggered by the "Run" button. The GUI
// disables the button for the duration of the callback so a second flash
// can't be kicked off from the window while one is already running.
func (g *GUI) SetRunCallback(callback func()) {
	g.runCallback = callback
}

func (g *GUI) RunApp(ctx context.Context) {
	g.window = g.app.NewWindow(windowName)
	g.logLabel.Wrapping = fyne.TextWrapWord
	g.logScrollContainer = container.NewVScroll(g.logLabel)
	g.logScrollContainer.SetMinSize(fyne.NewSize(400, 300))

	// Turn off auto scroll when user scrolls up.
	g.logScrollContainer.OnScrolled = func(offset fyne.Position) {
		if offset.Y+g.logScrollContainer.Size().Height >= g.logScrollContainer.Content.Size().Height-20 {
			g.autoScroll = true // User is near the bottom
		} else {
			g.autoScroll = false // User scrolled up
		}
	}

	g.runButton = widget.NewButton("Run Flash", func() {
		if g.runCallback == nil || g.busy {
			return
		}
		g.busy = true
		g.runButton.Disable()
		go func() {
			defer func() {
				g.busy = false
				g.runButton.Enable()
			}()
			g.runCallback()
		}()
	})

	content := container.NewBorder(
		nil,
		g.runButton,
		nil,
		nil,
		g.logScrollContainer,
	)

	g.window.SetContent(content)
	g.window.Resize(fyne.NewSize(600, 400))

	g.isRunning = true

	go g.logLoop(ctx)

	g.window.ShowAndRun()
}

func (g *GUI) logLoop(ctx context.Context) {
	for {
		if !g.isRunning {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(logRefreshDelay)

			g.mu.Lock()
			pending := g.incomingLog
			g.incomingLog = ""
			g.mu.Unlock()
			if pending == "" {
				continue
			}

			// Combine existing log text with the new text
			newLabelText := fmt.Sprintf("%s%s", g.logLabel.Text, pending)

			// Convert to runes to handle multi-byte characters properly
			runes := []rune(newLabelText)

			// Check if the combined text exceeds the cap
			if len(runes) > maxLogCharsLen {
				// Trim the oldest characters to maintain the cap
				runes = runes[len(runes)-maxLogCharsLen:]
				newLabelText = string(runes)
			}

			// Update the label text with the capped log
			g.logLabel.SetText(newLabelText)

			// Auto-scroll if enabled
			if g.autoScroll {
				g.logScrollContainer.ScrollToBottom()
			}
		}
	}
}

// WriteToLog queues newLine for display on the next drain cycle. It
// reports whether the line was accepted; logging.Logger only clears its own
// buffer when this returns true, so a not-yet-running GUI never silently
// drops startup log lines.
func (g *GUI) WriteToLog(newLine string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.incomingLog += newLine + "\n"
	return true
}
