package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel представляет уровень логирования
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel парсит строку в LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO // по умолчанию INFO
	}
}

// IsValidLogLevel проверяет, что строка - один из поддерживаемых уровней
func IsValidLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Logger представляет логгер с уровнями.
// Дочерние логгеры (Named) разделяют уровень и вывод с родителем.
type Logger struct {
	level  *atomic.Int32
	logger *log.Logger
	name   string
}

// New создает новый логгер с указанным уровнем
func New(level LogLevel) *Logger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput создает логгер, пишущий в w (используется в тестах)
func NewWithOutput(level LogLevel, w io.Writer) *Logger {
	l := &Logger{
		level:  &atomic.Int32{},
		logger: log.New(w, "", log.LstdFlags),
	}
	l.level.Store(int32(level))
	return l
}

// Named возвращает дочерний логгер с префиксом компонента, например "[INFO] auth: ..."
func (l *Logger) Named(name string) *Logger {
	child := &Logger{
		level:  l.level,
		logger: l.logger,
		name:   name,
	}
	if l.name != "" {
		child.name = l.name + "." + name
	}
	return child
}

// SetLevel устанавливает уровень логирования
func (l *Logger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

// GetLevel возвращает текущий уровень логирования
func (l *Logger) GetLevel() LogLevel {
	return LogLevel(l.level.Load())
}

// SetOutput перенаправляет вывод логгера
func (l *Logger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// Enabled сообщает, будет ли записано сообщение указанного уровня
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.GetLevel()
}

// logf выводит сообщение с указанным уровнем
func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	prefix := fmt.Sprintf("[%s] ", level.String())
	if l.name != "" {
		prefix += l.name + ": "
	}
	l.logger.Printf(prefix+format, args...)
}

// Debug выводит отладочное сообщение
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(DEBUG, format, args...)
}

// Info выводит информационное сообщение
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(INFO, format, args...)
}

// Warn выводит предупреждение
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(WARN, format, args...)
}

// Error выводит сообщение об ошибке
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(ERROR, format, args...)
}

// Глобальный логгер
var globalLogger = New(INFO)

// Global возвращает глобальный логгер (для создания именованных логгеров в модулях)
func Global() *Logger {
	return globalLogger
}

// SetGlobalLevel устанавливает уровень для глобального логгера
func SetGlobalLevel(level LogLevel) {
	globalLogger.SetLevel(level)
}

// GetGlobalLevel возвращает уровень глобального логгера
func GetGlobalLevel() LogLevel {
	return globalLogger.GetLevel()
}

// SetGlobalOutput перенаправляет вывод глобального логгера и всех его дочерних логгеров
func SetGlobalOutput(w io.Writer) {
	globalLogger.SetOutput(w)
}

// Глобальные функции для удобства
func Debug(format string, args ...interface{}) {
	globalLogger.Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	globalLogger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	globalLogger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	globalLogger.Error(format, args...)
}
