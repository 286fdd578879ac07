package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/expressora/expressora/internal/app"
	"github.com/expressora/expressora/internal/config"
	"github.com/expressora/expressora/internal/sequence"
	"github.com/expressora/expressora/internal/server"
	"github.com/expressora/expressora/internal/store"
	"github.com/expressora/expressora/internal/tray"
)

const listenAddr = "127.0.0.1:8080"

func main() {
	fmt.Println("Expressora - Sign Language Recognition")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".expressora")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "expressora.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	profileName, err := st.Settings().GetDefault(store.SettingProfile, config.ProfileBalanced)
	if err != nil {
		log.Fatalf("Failed to read settings: %v", err)
	}
	profile, err := config.ByName(profileName)
	if err != nil {
		log.Printf("Stored profile %q unknown, using balanced", profileName)
		profile = config.Balanced()
	}

	hub := server.NewEventHub()
	trayUI := tray.New(config.Names())

	a := app.New(app.Config{
		Store:     st,
		CameraID:  0,
		Profile:   profile,
		Publisher: &fanout{hub: hub, tray: trayUI},
	})
	defer a.Close()

	if err := a.SeedVocabulary(); err != nil {
		log.Fatalf("Failed to seed vocabulary: %v", err)
	}

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Camera:    a.Camera(),
		Events:    hub,
		Stats:     a.Stats(),
		Info: func() server.Info {
			p := a.Profile()
			return server.Info{
				Profile: p.Name,
				Mode:    a.Mode(),
				Backend: a.Classifier().Backend(),
				Variant: a.Classifier().Variant(),
				Enabled: a.IsEnabled(),
			}
		},
		Controller: a,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", listenAddr)
		if err := srv.ListenAndServe(listenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	a.SetEnabled(true)
	if err := a.Start(); err != nil {
		log.Printf("Failed to start pipeline: %v", err)
	}

	trayUI.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
	})
	trayUI.OnProfile(func(name string) {
		if err := a.SwitchProfile(name); err != nil {
			log.Printf("Failed to switch profile: %v", err)
		}
	})
	trayUI.OnSettings(func() {
		openBrowser("http://" + listenAddr)
	})
	trayUI.OnQuit(func() {
		a.Close()
	})
	trayUI.SetProfile(profile.Name)

	// Blocks until quit; systray needs the main thread.
	trayUI.Run()
}

// fanout forwards recognition events to the WebSocket hub and mirrors
// committed output into the tray menu.
type fanout struct {
	hub  *server.EventHub
	tray *tray.Tray
}

func (f *fanout) Publish(eventType string, data any) {
	f.hub.Publish(eventType, data)

	switch eventType {
	case server.EventSequence:
		if c, ok := data.(sequence.Committed); ok {
			f.tray.SetLastSequence(strings.TrimSpace(strings.Join(c.Tokens, " ") + " " + c.Tone))
		}
	case server.EventWord:
		if w, ok := data.(sequence.WordCommitted); ok {
			f.tray.SetLastSequence(w.Word)
		}
	}
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.expressora/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".expressora", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
