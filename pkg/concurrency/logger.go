package concurrency

import (
	"fmt"
	"log"
	"os"
)

// simpleLogger is a minimal logging seam so this package can report task
// errors without importing pkg/logging and creating an import cycle.
type simpleLogger interface {
	Errorf(format string, args ...interface{})
}

type defaultSimpleLogger struct {
	logger *log.Logger
}

func newDefaultSimpleLogger() simpleLogger {
	return &defaultSimpleLogger{
		logger: log.New(os.Stderr, "[ERROR] ", log.LstdFlags|log.Lshortfile),
	}
}

func (l *defaultSimpleLogger) Errorf(format string, args ...interface{}) {
	l.logger.Output(3, fmt.Sprintf(format, args...))
}
