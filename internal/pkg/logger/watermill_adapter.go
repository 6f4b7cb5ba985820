package logger

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// WatermillAdapter routes watermill's internal logging through zap.
type WatermillAdapter struct {
	logger *zap.Logger
	fields watermill.LogFields
}

func NewWatermillAdapter(l *ZapLogger) watermill.LoggerAdapter {
	return &WatermillAdapter{logger: l.Zap().WithOptions(zap.AddCallerSkip(-2))}
}

func (a *WatermillAdapter) zapFields(fields watermill.LogFields) []zap.Field {
	merged := a.fields.Add(fields)
	out := make([]zap.Field, 0, len(merged)+1)
	out = append(out, zap.String("module", "watermill"))
	for k, v := range merged {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error(msg, append(a.zapFields(fields), zap.Error(err))...)
}

func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Info(msg, a.zapFields(fields)...)
}

func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, a.zapFields(fields)...)
}

func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, a.zapFields(fields)...)
}

func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{logger: a.logger, fields: a.fields.Add(fields)}
}
