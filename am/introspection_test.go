package am

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkSettingsFromSource(t *testing.T) {
	t.Run("flat settings", func(t *testing.T) {
		sourceMap := make(map[string]SourceInfo)
		settings := map[string]interface{}{
			"fps":     60,
			"damping": 0.5,
		}

		markSettingsFromSource(settings, "", SourceUser, "/home/user/.wander/am.toml", sourceMap)

		require.Len(t, sourceMap, 2)
		assert.Equal(t, SourceUser, sourceMap["fps"].Source)
		assert.Equal(t, "/home/user/.wander/am.toml", sourceMap["fps"].Path)
		assert.Equal(t, SourceUser, sourceMap["damping"].Source)
	})

	t.Run("nested settings flatten with dots", func(t *testing.T) {
		sourceMap := make(map[string]SourceInfo)
		settings := map[string]interface{}{
			"server": map[string]interface{}{
				"port":      9000,
				"log_theme": "gruvbox",
			},
			"physics": map[string]interface{}{
				"spring_length": 90.0,
			},
		}

		markSettingsFromSource(settings, "", SourceProject, "/work/wander/am.toml", sourceMap)

		require.Len(t, sourceMap, 3)
		assert.Equal(t, SourceProject, sourceMap["server.port"].Source)
		assert.Equal(t, SourceProject, sourceMap["server.log_theme"].Source)
		assert.Equal(t, SourceProject, sourceMap["physics.spring_length"].Source)
		assert.Equal(t, "/work/wander/am.toml", sourceMap["physics.spring_length"].Path)
	})

	t.Run("deep nesting", func(t *testing.T) {
		sourceMap := make(map[string]SourceInfo)
		settings := map[string]interface{}{
			"a": map[string]interface{}{
				"b": map[string]interface{}{
					"c": 1,
				},
			},
		}

		markSettingsFromSource(settings, "", SourceSystem, "/etc/wander/am.toml", sourceMap)

		require.Len(t, sourceMap, 1)
		assert.Equal(t, SourceSystem, sourceMap["a.b.c"].Source)
	})

	t.Run("later source overwrites earlier", func(t *testing.T) {
		sourceMap := make(map[string]SourceInfo)
		settings := map[string]interface{}{
			"server": map[string]interface{}{"port": 9000},
		}

		markSettingsFromSource(settings, "", SourceUser, "/home/user/.wander/am.toml", sourceMap)
		markSettingsFromSource(settings, "", SourceUserUI, "/home/user/.wander/am_from_ui.toml", sourceMap)

		assert.Equal(t, SourceUserUI, sourceMap["server.port"].Source)
		assert.Equal(t, "/home/user/.wander/am_from_ui.toml", sourceMap["server.port"].Path)
	})
}

func TestFlattenSettingsWithSources(t *testing.T) {
	t.Run("assigns recorded sources", func(t *testing.T) {
		settings := map[string]interface{}{
			"server": map[string]interface{}{
				"port": 9000,
			},
			"physics": map[string]interface{}{
				"damping": 0.3,
			},
		}
		sourceMap := map[string]SourceInfo{
			"server.port":     {Source: SourceUser, Path: "/home/user/.wander/am.toml"},
			"physics.damping": {Source: SourceUserUI, Path: "/home/user/.wander/am_from_ui.toml"},
		}

		introspection := &ConfigIntrospection{Settings: make([]SettingInfo, 0)}
		flattenSettingsWithSources(settings, "", introspection, sourceMap)

		require.Len(t, introspection.Settings, 2)
		byKey := make(map[string]SettingInfo)
		for _, s := range introspection.Settings {
			byKey[s.Key] = s
		}
		assert.Equal(t, SourceUser, byKey["server.port"].Source)
		assert.Equal(t, SourceUserUI, byKey["physics.damping"].Source)
		assert.Equal(t, 0.3, byKey["physics.damping"].Value)
	})

	t.Run("unmapped settings fall back to default source", func(t *testing.T) {
		settings := map[string]interface{}{
			"engine": map[string]interface{}{
				"fps": 60,
			},
		}

		introspection := &ConfigIntrospection{Settings: make([]SettingInfo, 0)}
		flattenSettingsWithSources(settings, "", introspection, make(map[string]SourceInfo))

		require.Len(t, introspection.Settings, 1)
		setting := introspection.Settings[0]
		assert.Equal(t, SourceDefault, setting.Source)
		assert.Equal(t, "built-in default", setting.SourcePath)
	})

	t.Run("environment variable overrides recorded source", func(t *testing.T) {
		oldEnv := os.Getenv("WANDER_ENGINE_FPS")
		defer os.Setenv("WANDER_ENGINE_FPS", oldEnv)
		os.Setenv("WANDER_ENGINE_FPS", "120")

		settings := map[string]interface{}{
			"engine": map[string]interface{}{
				"fps": 120, // Config file value
			},
		}
		sourceMap := map[string]SourceInfo{
			"engine.fps": {Source: SourceUser, Path: "/home/user/.wander/am.toml"},
		}

		introspection := &ConfigIntrospection{Settings: make([]SettingInfo, 0)}
		flattenSettingsWithSources(settings, "", introspection, sourceMap)

		require.Len(t, introspection.Settings, 1)
		setting := introspection.Settings[0]
		assert.Equal(t, SourceEnvironment, setting.Source)
		assert.Equal(t, "WANDER_ENGINE_FPS", setting.SourcePath)
	})

	t.Run("output is sorted by key", func(t *testing.T) {
		settings := map[string]interface{}{
			"viewport": map[string]interface{}{"min_zoom": 0.2},
			"engine":   map[string]interface{}{"fps": 60},
			"physics":  map[string]interface{}{"damping": 0.5},
		}

		introspection := &ConfigIntrospection{Settings: make([]SettingInfo, 0)}
		flattenSettingsWithSources(settings, "", introspection, make(map[string]SourceInfo))

		require.Len(t, introspection.Settings, 3)
		assert.Equal(t, "engine.fps", introspection.Settings[0].Key)
		assert.Equal(t, "physics.damping", introspection.Settings[1].Key)
		assert.Equal(t, "viewport.min_zoom", introspection.Settings[2].Key)
	})
}

func TestBuildSourceMap(t *testing.T) {
	t.Run("environment variable precedence", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "am.toml")

		configContent := `
[physics]
damping = 0.3
spring_k = 0.05
`
		require.NoError(t, os.WriteFile(configPath, []byte(configContent), DefaultFilePermissions))

		oldEnv := os.Getenv("WANDER_PHYSICS_DAMPING")
		defer os.Setenv("WANDER_PHYSICS_DAMPING", oldEnv)
		os.Setenv("WANDER_PHYSICS_DAMPING", "0.7")

		sourceMap := make(map[string]SourceInfo)
		settings := map[string]interface{}{
			"physics": map[string]interface{}{
				"damping":  0.3,
				"spring_k": 0.05,
			},
		}

		markSettingsFromSource(settings, "", SourceUser, configPath, sourceMap)

		// Apply the same env override check GetConfigIntrospection performs
		for key := range sourceMap {
			envKey := "WANDER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
			if os.Getenv(envKey) != "" {
				sourceMap[key] = SourceInfo{
					Source: SourceEnvironment,
					Path:   envKey,
				}
			}
		}

		assert.Equal(t, SourceEnvironment, sourceMap["physics.damping"].Source)
		assert.Equal(t, "WANDER_PHYSICS_DAMPING", sourceMap["physics.damping"].Path)

		// Non-env setting keeps its file source
		assert.Equal(t, SourceUser, sourceMap["physics.spring_k"].Source)
		assert.Equal(t, configPath, sourceMap["physics.spring_k"].Path)
	})
}

func TestConfigSourceConstants(t *testing.T) {
	assert.Equal(t, ConfigSource("default"), SourceDefault)
	assert.Equal(t, ConfigSource("system"), SourceSystem)
	assert.Equal(t, ConfigSource("user"), SourceUser)
	assert.Equal(t, ConfigSource("user_ui"), SourceUserUI)
	assert.Equal(t, ConfigSource("project"), SourceProject)
	assert.Equal(t, ConfigSource("environment"), SourceEnvironment)
}

func TestGetConfigIntrospection(t *testing.T) {
	t.Run("integration with env var override", func(t *testing.T) {
		Reset()
		defer Reset()

		tmpDir := t.TempDir()
		oldHome := os.Getenv("HOME")
		os.Setenv("HOME", tmpDir)
		defer os.Setenv("HOME", oldHome)

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		require.NoError(t, os.Chdir(tmpDir))

		oldEnv := os.Getenv("WANDER_ENGINE_STATUS_INTERVAL_SECONDS")
		defer os.Setenv("WANDER_ENGINE_STATUS_INTERVAL_SECONDS", oldEnv)
		os.Setenv("WANDER_ENGINE_STATUS_INTERVAL_SECONDS", "99")

		introspection, err := GetConfigIntrospection()
		require.NoError(t, err)
		require.NotNil(t, introspection)

		settingsByKey := make(map[string]SettingInfo)
		for _, setting := range introspection.Settings {
			settingsByKey[setting.Key] = setting
		}

		intervalSetting, ok := settingsByKey["engine.status_interval_seconds"]
		require.True(t, ok, "engine.status_interval_seconds should be in introspection")
		assert.Equal(t, SourceEnvironment, intervalSetting.Source)
		assert.Equal(t, "WANDER_ENGINE_STATUS_INTERVAL_SECONDS", intervalSetting.SourcePath)

		assert.NotEmpty(t, introspection.Settings)

		// Settings come back in deterministic sorted order
		lastKey := ""
		for _, setting := range introspection.Settings {
			if lastKey != "" {
				assert.True(t, setting.Key >= lastKey,
					"settings should be sorted: %s should be >= %s", setting.Key, lastKey)
			}
			lastKey = setting.Key
		}

		validSources := map[ConfigSource]bool{
			SourceDefault:     true,
			SourceSystem:      true,
			SourceUser:        true,
			SourceUserUI:      true,
			SourceProject:     true,
			SourceEnvironment: true,
		}
		for _, setting := range introspection.Settings {
			assert.True(t, validSources[setting.Source],
				"setting %s has invalid source: %s", setting.Key, setting.Source)
		}
	})
}
