package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Defaults are platform-wide fallbacks applied when a tenant has not
// configured a value of its own.
type Defaults struct {
	Currency                string `mapstructure:"currency"`
	SalesCommissionEarnedOn string `mapstructure:"salesCommissionEarnedOn"`
	DesignerBonusEarnedOn   string `mapstructure:"designerBonusEarnedOn"`
	OrderNumberPrefix       string `mapstructure:"orderNumberPrefix"`
	OverdueGraceDays        int    `mapstructure:"overdueGraceDays"`
}

func DefaultSettings() Defaults {
	return Defaults{
		Currency:                "USD",
		SalesCommissionEarnedOn: "DELIVERED",
		DesignerBonusEarnedOn:   "DELIVERED",
		OrderNumberPrefix:       "ORD",
		OverdueGraceDays:        0,
	}
}

// DefaultsHolder exposes the current defaults and hot-reloads them when the
// config file changes on disk.
type DefaultsHolder struct {
	current atomic.Value // holds Defaults
}

func NewDefaultsHolder() (*DefaultsHolder, error) {
	v := viper.New()

	v.SetConfigName("platform")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/digitizing")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DIGITIZING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &DefaultsHolder{}

	load := func() Defaults {
		cfg := DefaultSettings()
		if err := v.UnmarshalKey("defaults", &cfg); err != nil {
			log.Printf("defaults config unmarshal failed, keeping built-ins: %v", err)
			return DefaultSettings()
		}
		return cfg
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	holder.current.Store(load())

	v.OnConfigChange(func(fsnotify.Event) {
		holder.current.Store(load())
	})
	v.WatchConfig()

	return holder, nil
}

// Current returns the defaults in effect right now.
func (h *DefaultsHolder) Current() Defaults {
	if v, ok := h.current.Load().(Defaults); ok {
		return v
	}
	return DefaultSettings()
}

// StaticDefaults returns a holder pinned to the built-in defaults. Used in tests.
func StaticDefaults() *DefaultsHolder {
	h := &DefaultsHolder{}
	h.current.Store(DefaultSettings())
	return h
}
