package common

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

//go:embed config.default.yaml
var defaultConfig []byte

const (
	configPathEnv   = "CONFIG_PATH"
	configWatchWait = 250 * time.Millisecond
)

// ConfigManager loads a T from the embedded defaults overlaid with the file
// named by CONFIG_PATH. Watch reloads the file on change and notifies
// OnChange subscribers with the previous and new config.
type ConfigManager[T any] struct {
	mu        sync.RWMutex
	kf        *koanf.Koanf
	path      string
	listeners []func(prev, next T)

	watchMu    sync.Mutex
	watchTimer *time.Timer
}

func NewConfigManager[T any]() (*ConfigManager[T], error) {
	return NewConfigManagerFromPath[T](os.Getenv(configPathEnv))
}

// NewConfigManagerFromPath is NewConfigManager with an explicit override file.
// An empty path loads only the defaults.
func NewConfigManagerFromPath[T any](path string) (*ConfigManager[T], error) {
	cm := &ConfigManager[T]{path: path}

	kf, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.kf = kf

	// Fail early on values that do not decode.
	if _, err := decodeConfig[T](kf); err != nil {
		return nil, err
	}
	return cm, nil
}

func (cm *ConfigManager[T]) load() (*koanf.Koanf, error) {
	kf := koanf.New(".")
	if err := kf.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if cm.path == "" {
		return kf, nil
	}
	if _, err := os.Stat(cm.path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", cm.path, err)
	}

	parser := koanf.Parser(yaml.Parser())
	if strings.EqualFold(filepath.Ext(cm.path), ".json") {
		parser = json.Parser()
	}
	if err := kf.Load(file.Provider(cm.path), parser); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", cm.path, err)
	}
	return kf, nil
}

// GetConfig decodes the current configuration.
func (cm *ConfigManager[T]) GetConfig() T {
	cm.mu.RLock()
	kf := cm.kf
	cm.mu.RUnlock()

	c, err := decodeConfig[T](kf)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode config")
	}
	return c
}

// OnChange registers fn to run after every successful reload.
func (cm *ConfigManager[T]) OnChange(fn func(prev, next T)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.listeners = append(cm.listeners, fn)
}

// Reload re-reads the config file and notifies subscribers. A file that
// fails to parse leaves the current config in place.
func (cm *ConfigManager[T]) Reload() error {
	kf, err := cm.load()
	if err != nil {
		return err
	}
	next, err := decodeConfig[T](kf)
	if err != nil {
		return err
	}

	cm.mu.Lock()
	prev, _ := decodeConfig[T](cm.kf)
	cm.kf = kf
	listeners := append([]func(prev, next T){}, cm.listeners...)
	cm.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, next)
	}
	return nil
}

// Watch reloads the config when the override file changes. Bursts of file
// events are coalesced into one reload.
func (cm *ConfigManager[T]) Watch() error {
	if cm.path == "" {
		return nil
	}

	return file.Provider(cm.path).Watch(func(event any, err error) {
		if err != nil {
			log.Warn().Err(err).Str("path", cm.path).Msg("config watch error")
			return
		}

		cm.watchMu.Lock()
		defer cm.watchMu.Unlock()
		if cm.watchTimer != nil {
			cm.watchTimer.Stop()
		}
		cm.watchTimer = time.AfterFunc(configWatchWait, func() {
			if err := cm.Reload(); err != nil {
				log.Warn().Err(err).Str("path", cm.path).Msg("config reload failed, keeping previous config")
				return
			}
			log.Info().Str("path", cm.path).Msg("config reloaded")
		})
	})
}

func decodeConfig[T any](kf *koanf.Koanf) (T, error) {
	var c T
	err := kf.UnmarshalWithConf("", &c, koanf.UnmarshalConf{
		Tag: "key",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &c,
			TagName:          "key",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, nil
}
