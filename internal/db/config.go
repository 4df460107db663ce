package db

import (
	"regexp"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Driver      string // mysql / postgres / sqlite
	DSN         string
	AutoMigrate bool
}

var (
	userinfoPassword = regexp.MustCompile(`:[^:@/]*@`)
	keywordPassword  = regexp.MustCompile(`password=\S+`)
)

// redacted 隐藏 DSN 中的密码
func (c *Config) redacted() string {
	dsn := userinfoPassword.ReplaceAllString(c.DSN, ":***@")
	return keywordPassword.ReplaceAllString(dsn, "password=***")
}

func (c *Config) Print() {
	log.Info().Str("driver", c.Driver).Str("dsn", c.redacted()).Bool("auto_migrate", c.AutoMigrate).Msg("database config")
}
