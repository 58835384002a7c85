package config

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SpreadBand is a display bucket for the equity-spread percentage. The UI
// colors and groups rows by band; the ranking itself uses the raw percent.
type SpreadBand struct {
	Label      string  `mapstructure:"label"`
	MinPercent float64 `mapstructure:"minPercent"`
	Color      string  `mapstructure:"color"`
}

// DisplayConfig holds presentation thresholds shared by every listing view.
type DisplayConfig struct {
	SpreadBands []SpreadBand `mapstructure:"spreadBands"`
}

func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		SpreadBands: []SpreadBand{
			{Label: "hot", MinPercent: 50, Color: "green"},
			{Label: "workable", MinPercent: 20, Color: "yellow"},
			{Label: "thin", MinPercent: 0, Color: "orange"},
			{Label: "underwater", MinPercent: -1e9, Color: "red"},
		},
	}
}

type DisplayConfigHolder struct {
	current atomic.Value // holds DisplayConfig
}

// NewDisplayConfigHolder loads display.yml and keeps it hot-reloadable.
func NewDisplayConfigHolder(cfg Config) (*DisplayConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("display")
	v.SetConfigType("yml")
	if path := strings.TrimSpace(cfg.DisplayConfigPath); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("/etc/auctionlens")
	v.AddConfigPath(".")

	v.SetEnvPrefix("AUCTIONLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	useDefaults := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		useDefaults = true
	}

	display := DefaultDisplayConfig()
	if !useDefaults {
		if err := v.UnmarshalKey("display", &display); err != nil {
			return nil, err
		}
		if err := validateDisplayConfig(display); err != nil {
			return nil, err
		}
	}
	normalizeBands(&display)

	holder := &DisplayConfigHolder{}
	holder.current.Store(display)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DisplayConfig
		if err := v.UnmarshalKey("display", &updated); err != nil {
			log.Printf("[display-config] reload failed: %v", err)
			return
		}
		if err := validateDisplayConfig(updated); err != nil {
			log.Printf("[display-config] invalid config ignored: %v", err)
			return
		}
		normalizeBands(&updated)
		holder.current.Store(updated)
		log.Printf("[display-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *DisplayConfigHolder) Get() DisplayConfig {
	return h.current.Load().(DisplayConfig)
}

// Band returns the band label for a spread percent, or "" when the spread is
// undefined. "N/A" is a distinct display state, never a band.
func (c DisplayConfig) Band(percent *float64) string {
	if percent == nil {
		return ""
	}
	for _, band := range c.SpreadBands {
		if *percent >= band.MinPercent {
			return band.Label
		}
	}
	return ""
}

func validateDisplayConfig(cfg DisplayConfig) error {
	if len(cfg.SpreadBands) == 0 {
		return errors.New("display config requires at least one spread band")
	}
	seen := map[string]bool{}
	for _, band := range cfg.SpreadBands {
		label := strings.TrimSpace(band.Label)
		if label == "" {
			return errors.New("spread band label must not be empty")
		}
		if seen[label] {
			return errors.New("duplicate spread band label: " + label)
		}
		seen[label] = true
	}
	return nil
}

func normalizeBands(cfg *DisplayConfig) {
	sort.SliceStable(cfg.SpreadBands, func(i, j int) bool {
		return cfg.SpreadBands[i].MinPercent > cfg.SpreadBands[j].MinPercent
	})
}
