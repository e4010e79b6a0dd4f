// Package logger configura o log estruturado em JSON.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup cria um slog.Logger JSON que escreve em w.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetupDefault instala o logger JSON como padrão global. w nil usa os.Stdout.
func SetupDefault(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := Setup(w, level)
	slog.SetDefault(l)
	return l
}

// ParseLevel converte debug/info/warn/error; valores desconhecidos viram info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
