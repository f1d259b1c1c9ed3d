package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/your-org/warehouse-backend/internal/config"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{Logging: config.LoggingConfig{Level: "debug", Format: "json"}}
	l := New(cfg)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	cfg.Logging = config.LoggingConfig{Level: "nonsense", Format: "text"}
	l = New(cfg)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}
