package main

import (
	"strings"
	"sync"

	"pubstandards/internal/config"
	"pubstandards/internal/events"
	appLog "pubstandards/internal/log"
)

type commandContext struct {
	configFlag *string

	once     sync.Once
	config   *config.Config
	calendar *events.Calendar
	err      error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil || strings.TrimSpace(*c.configFlag) == "" {
		return defaultConfigPath
	}
	return strings.TrimSpace(*c.configFlag)
}

// ensureConfig loads the config once, applies the log level and builds
// the calendar. Validation errors surface here, before any command runs.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		path := c.configPath()
		cfg, err := config.Load(path)
		if err != nil {
			c.err = err
			return
		}
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

		series, err := events.NewSeries(cfg)
		if err != nil {
			c.err = err
			return
		}
		dataPath := cfg.DataPath(path)
		appLog.Debug("effective config",
			"config", path,
			"data_file", dataPath,
			"timezone", cfg.Timezone,
			"listen", cfg.Listen,
			"export_dir", cfg.Export.Dir,
			"hiatuses", len(cfg.Hiatuses),
		)
		c.config = cfg
		c.calendar = events.NewCalendar(series, events.OpenStore(dataPath))
	})
	return c.config, c.err
}

func (c *commandContext) ensureCalendar() (*events.Calendar, error) {
	if _, err := c.ensureConfig(); err != nil {
		return nil, err
	}
	return c.calendar, nil
}
