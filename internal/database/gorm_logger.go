package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// gormLogger routes gorm output through logrus. Statement text is only logged
// at gorm's Info level, since rendered SQL contains bound values.
type gormLogger struct {
	log           logrus.FieldLogger
	level         logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(log *logrus.Logger) logger.Interface {
	level := logger.Warn
	if log != nil && log.IsLevelEnabled(logrus.TraceLevel) {
		level = logger.Info
	}
	var fl logrus.FieldLogger
	if log != nil {
		fl = log.WithField("component", "gorm")
	}
	return &gormLogger{log: fl, level: level, slowThreshold: defaultSlowThreshold}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level
	return &cloned
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.log == nil || l.level < logger.Info {
		return
	}
	l.log.Info(fmt.Sprintf(msg, args...))
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.log == nil || l.level < logger.Warn {
		return
	}
	l.log.Warn(fmt.Sprintf(msg, args...))
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.log == nil || l.level < logger.Error {
		return
	}
	l.log.Error(fmt.Sprintf(msg, args...))
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.log == nil || l.level == logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		fields := logrus.Fields{"elapsed": elapsed, "error": err.Error()}
		if l.level >= logger.Info {
			fields["sql"], fields["rows"] = fc()
		}
		l.log.WithFields(fields).Error("gorm query failed")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		_, rows := fc()
		l.log.WithFields(logrus.Fields{
			"elapsed":        elapsed,
			"rows":           rows,
			"slow_threshold": l.slowThreshold,
		}).Warn("gorm slow query")
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.WithFields(logrus.Fields{"elapsed": elapsed, "rows": rows, "sql": sql}).Debug("gorm query")
	}
}
