package systray

import (
	"log/slog"
	"os/exec"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
)

// Controls are the agent operations reachable from the tray menu
type Controls interface {
	SetPaused(paused bool)
	Paused() bool
}

// SystrayManager manages the system tray icon and menu
type SystrayManager struct {
	controls     Controls
	dashboardURL string
	iconData     []byte
	quit         chan struct{}

	mu        sync.Mutex
	pauseItem *systray.MenuItem
}

// NewSystrayManager creates a new systray manager. dashboardURL may be empty
// when the web dashboard is disabled.
func NewSystrayManager(controls Controls, dashboardURL string, iconData []byte) *SystrayManager {
	return &SystrayManager{
		controls:     controls,
		dashboardURL: dashboardURL,
		iconData:     iconData,
		quit:         make(chan struct{}),
	}
}

// Run starts the system tray (blocking call)
func (m *SystrayManager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop stops the system tray
func (m *SystrayManager) Stop() {
	systray.Quit()
}

// WaitForQuit returns a channel that will be closed when user clicks Quit
func (m *SystrayManager) WaitForQuit() <-chan struct{} {
	return m.quit
}

// onReady is called when the systray is ready
func (m *SystrayManager) onReady() {
	if len(m.iconData) > 0 {
		systray.SetIcon(m.iconData)
	}

	systray.SetTitle("Emoki")
	systray.SetTooltip(tooltip(m.controls.Paused()))

	mPause := systray.AddMenuItem(pauseLabel(m.controls.Paused()), "Pause or resume shortcut expansion")
	m.mu.Lock()
	m.pauseItem = mPause
	m.mu.Unlock()
	var mDashboard *systray.MenuItem
	if m.dashboardURL != "" {
		mDashboard = systray.AddMenuItem("Open dashboard", "Open the Emoki web dashboard")
	}
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit Emoki")

	var dashboardCh <-chan struct{}
	if mDashboard != nil {
		dashboardCh = mDashboard.ClickedCh
	}

	// Handle menu clicks
	go func() {
		for {
			select {
			case <-mPause.ClickedCh:
				// The label follows through BroadcastStatus
				m.controls.SetPaused(!m.controls.Paused())
			case <-dashboardCh:
				m.openDashboard()
			case <-mQuit.ClickedCh:
				slog.Info("User requested quit from system tray")
				close(m.quit)
				systray.Quit()
				return
			}
		}
	}()
}

// BroadcastStatus keeps the menu in step with the capture state, whichever
// way it was toggled
func (m *SystrayManager) BroadcastStatus(capture string) {
	m.mu.Lock()
	item := m.pauseItem
	m.mu.Unlock()
	if item == nil {
		return
	}

	paused := capture == "paused"
	item.SetTitle(pauseLabel(paused))
	systray.SetTooltip(tooltip(paused))
}

// onExit is called when the systray is exiting
func (m *SystrayManager) onExit() {
	slog.Info("System tray exited")
}

func pauseLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}

func tooltip(paused bool) string {
	if paused {
		return "Emoki - paused"
	}
	return "Emoki - emoji shortcuts"
}

// openDashboard opens the web dashboard in the default browser
func (m *SystrayManager) openDashboard() {
	slog.Info("Opening dashboard", "url", m.dashboardURL)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", m.dashboardURL)
	case "darwin":
		cmd = exec.Command("open", m.dashboardURL)
	case "linux":
		cmd = exec.Command("xdg-open", m.dashboardURL)
	default:
		slog.Error("Unsupported platform for opening browser", "platform", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to open dashboard", "error", err)
	}
}
