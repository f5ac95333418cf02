package am

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/wander/errors"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	// Check if file exists before backing up
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	// Delete oldest backup if exists
	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		// Log deletion failures (but don't fail config save)
		fmt.Printf("⚠️  Failed to delete old backup %s: %v\n", back3, err)
	}

	// Rotate .back2 to .back3
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	// Rotate .back1 to .back2
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	// Copy current to .back1
	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// GetUIConfigPath returns the path to the UI-managed config file in ~/.wander/am_from_ui.toml
func GetUIConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wander", "am_from_ui.toml")
}

// loadOrInitializeUIConfig loads the UI config file, or creates an empty one if it doesn't exist
func loadOrInitializeUIConfig() (map[string]interface{}, string, error) {
	configPath := GetUIConfigPath()
	if configPath == "" {
		return nil, "", errors.New("could not determine home directory")
	}

	// Ensure ~/.wander directory exists
	wanderDir := filepath.Dir(configPath)
	if err := os.MkdirAll(wanderDir, 0750); err != nil {
		return nil, "", errors.Wrap(err, "failed to create .wander directory")
	}

	// Try to read existing config
	var config map[string]interface{}
	if data, err := os.ReadFile(configPath); err == nil {
		// File exists, parse it
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, "", errors.Wrap(err, "failed to parse UI config")
		}
	} else {
		// File doesn't exist, create empty config
		config = make(map[string]interface{})
	}

	return config, configPath, nil
}

// saveUIConfig writes the config to the UI config file with backup
func saveUIConfig(config map[string]interface{}, configPath string) error {
	// Create backup
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	// Marshal to TOML
	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Mark this as our own write to prevent reload loops
	globalWatcherMu.Lock()
	if globalWatcher != nil {
		globalWatcher.MarkOwnWrite()
	}
	globalWatcherMu.Unlock()

	// Write to file
	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write UI config")
	}

	return nil
}

// setSectionValue writes a single key into a named section of the UI config
func setSectionValue(section, key string, value interface{}) error {
	config, configPath, err := loadOrInitializeUIConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load UI config")
	}

	var sec map[string]interface{}
	if s, ok := config[section].(map[string]interface{}); ok {
		sec = s
	} else {
		sec = make(map[string]interface{})
	}

	sec[key] = value
	config[section] = sec

	return saveUIConfig(config, configPath)
}

// tunablePhysicsKeys lists the physics settings the UI may persist
var tunablePhysicsKeys = map[string]bool{
	"damping":           true,
	"resting_threshold": true,
	"collision_padding": true,
	"spring_length":     true,
	"spring_k":          true,
	"angular_strength":  true,
	"angular_clamp":     true,
	"wind_amplitude":    true,
	"settled_damping":   true,
}

// tunableViewportKeys lists the viewport settings the UI may persist
var tunableViewportKeys = map[string]bool{
	"min_zoom":          true,
	"max_zoom":          true,
	"edge_length":       true,
	"fit_padding":       true,
	"glide_duration_ms": true,
	"glide_delay_ms":    true,
}

// UpdatePhysicsSetting persists a single physics tuning value from the UI.
// Unknown keys are rejected so a malformed tune message cannot pollute the file.
func UpdatePhysicsSetting(key string, value float64) error {
	if !tunablePhysicsKeys[key] {
		return errors.Newf("unknown physics setting %q", key)
	}
	return setSectionValue("physics", key, value)
}

// UpdateViewportSetting persists a single viewport tuning value from the UI
func UpdateViewportSetting(key string, value float64) error {
	if !tunableViewportKeys[key] {
		return errors.Newf("unknown viewport setting %q", key)
	}
	return setSectionValue("viewport", key, value)
}

// UpdateServerLogTheme persists the log color theme chosen in the UI
func UpdateServerLogTheme(theme string) error {
	if theme != "gruvbox" && theme != "everforest" {
		return errors.Newf("unknown log theme %q (gruvbox or everforest)", theme)
	}
	return setSectionValue("server", "log_theme", theme)
}

// UpdateServerBroadcastFPS persists the per-client frame rate cap from the UI
func UpdateServerBroadcastFPS(fps int) error {
	if fps < 0 {
		return errors.Newf("broadcast_fps must be >= 0, got %d", fps)
	}
	return setSectionValue("server", "broadcast_fps", fps)
}
