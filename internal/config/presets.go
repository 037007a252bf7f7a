package config

import "sort"

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"gentle": with(func(c *Config) {
		c.Gains.Kp = 0.01
		c.Duration = 8
	}),
	"aggressive": with(func(c *Config) {
		c.Gains.Kp = 0.06
		c.Gains.Kd = 0.0005
	}),
	"integral": with(func(c *Config) {
		c.Gains.Ki = 0.002
		c.Duration = 8
	}),
	"raw": with(func(c *Config) {
		c.OutputLimit = 0
		c.BrakeOnIdle = false
	}),
	"noisy": with(func(c *Config) {
		c.Noise = 5
		c.Seed = 1
	}),
	"full-travel": with(func(c *Config) {
		c.Start = 5
		c.Target = 4000
		c.Duration = 6
	}),
}

func with(edit func(*Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *cfg
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
