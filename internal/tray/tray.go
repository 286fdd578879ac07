// Package tray provides the system tray interface for the Expressora sign
// recognition system.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onProfile  func(name string)
	onSettings func()
	onQuit     func()
	enabled    bool
	profiles   []string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuLast     *systray.MenuItem
	menuProfiles []*systray.MenuItem
}

// New creates a new Tray offering the given profile names, with enabled
// state set to true by default.
func New(profiles []string) *Tray {
	return &Tray{
		enabled:  true,
		profiles: profiles,
	}
}

// OnToggle sets the callback for toggling recognition on and off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnProfile sets the callback for profile selection.
func (t *Tray) OnProfile(fn func(name string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onProfile = fn
}

// OnSettings sets the callback for the settings menu item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Expressora")
	systray.SetTooltip("Expressora Sign Recognition")

	t.menuToggle = systray.AddMenuItem("● Enabled", "Toggle sign recognition")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem("Last: none", "Last recognized sequence")
	t.menuLast.Disable()
	systray.AddSeparator()

	menuProfile := systray.AddMenuItem("Profile", "Performance profile")
	t.menuProfiles = make([]*systray.MenuItem, len(t.profiles))
	for i, name := range t.profiles {
		t.menuProfiles[i] = menuProfile.AddSubMenuItemCheckbox(name, "Switch to "+name+" profile", false)
	}
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Expressora")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()

	for i := range t.menuProfiles {
		go func(idx int) {
			for range t.menuProfiles[idx].ClickedCh {
				t.handleProfile(idx)
			}
		}(i)
	}
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if enabled {
		t.menuToggle.SetTitle("● Enabled")
	} else {
		t.menuToggle.SetTitle("○ Disabled")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleProfile handles a profile submenu click.
func (t *Tray) handleProfile(idx int) {
	t.mu.RLock()
	name := t.profiles[idx]
	callback := t.onProfile
	t.mu.RUnlock()

	t.SetProfile(name)

	if callback != nil {
		callback(name)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastSequence updates the last recognized sequence display in the menu.
func (t *Tray) SetLastSequence(text string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLast != nil {
		if text == "" {
			t.menuLast.SetTitle("Last: none")
		} else {
			t.menuLast.SetTitle("Last: " + text)
		}
	}
}

// SetProfile checks the active profile entry and unchecks the rest.
func (t *Tray) SetProfile(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, p := range t.profiles {
		if t.menuProfiles[i] == nil {
			continue
		}
		if p == name {
			t.menuProfiles[i].Check()
		} else {
			t.menuProfiles[i].Uncheck()
		}
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
