package mq

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// NewLoggerAdapter 把 watermill 的日志写到 zerolog.
func NewLoggerAdapter(l zerolog.Logger) watermill.LoggerAdapter {
	return zerologAdapter{l: l}
}

type zerologAdapter struct {
	l zerolog.Logger
}

func emit(ev *zerolog.Event, msg string, fields watermill.LogFields) {
	ev.Fields(map[string]any(fields)).Msg(msg)
}

func (z zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	emit(z.l.Error().Err(err), msg, fields)
}

func (z zerologAdapter) Info(msg string, fields watermill.LogFields) {
	emit(z.l.Info(), msg, fields)
}

func (z zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	emit(z.l.Debug(), msg, fields)
}

func (z zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	emit(z.l.Trace(), msg, fields)
}

func (z zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zerologAdapter{l: z.l.With().Fields(map[string]any(fields)).Logger()}
}
