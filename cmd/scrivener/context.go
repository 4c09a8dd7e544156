package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scrivener/internal/config"
	"scrivener/internal/jobs"
	"scrivener/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		var level string
		if c.logLevelFlag != nil {
			level = *c.logLevelFlag
		}
		logger, err := logging.NewFromConfig(cfg, level)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openJobs opens the job registry. A registry that cannot be opened is
// logged and replaced by nil; callers treat nil as "not recording".
func (c *commandContext) openJobs(logger *slog.Logger) *jobs.Store {
	cfg := c.configValue()
	if cfg == nil {
		return nil
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "job registry unavailable", "job_registry_unavailable",
			logging.String("path", cfg.JobsDatabasePath()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on paths.state_dir"),
			logging.String(logging.FieldImpact, "this run will not appear in `scrivener jobs`"),
		)
		return nil
	}
	return store
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
