package host

import (
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var logger *logrus.Logger

func init() {
	logger = logrus.New()
	logger.Formatter = &prefixed.TextFormatter{FullTimestamp: true}
}

// SetLogger replaces the package logger instance.
func SetLogger(l *logrus.Logger) {
	logger = l
}
