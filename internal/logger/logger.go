package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

// Logger writes colored lines to the terminal and JSON lines to a daily
// log file under logs/.
type Logger struct {
	fileLogger   *log.Logger
	logFile      *os.File
	colorEnabled bool
}

func NewLogger() *Logger {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatal("Failed to create logs directory:", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	logFileName := fmt.Sprintf("logs/boxoffice-%s.log", timestamp)

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatal("Failed to create log file:", err)
	}

	multiWriter := io.MultiWriter(logFile, os.Stdout)
	fileLogger := log.New(multiWriter, "", 0)

	logger := &Logger{
		fileLogger:   fileLogger,
		logFile:      logFile,
		colorEnabled: true,
	}

	logger.Info("LOGGER", fmt.Sprintf("Logging to %s", logFileName))

	return logger
}

func (l *Logger) log(level LogLevel, category, message string) {
	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     l.levelToString(level),
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	fmt.Print(l.formatTerminalOutput(entry))

	if l.logFile != nil {
		jsonBytes, _ := json.Marshal(entry)
		l.logFile.WriteString(string(jsonBytes) + "\n")
	}
}

func (l *Logger) formatTerminalOutput(entry LogEntry) string {
	timestamp := entry.Timestamp[11:19]

	var levelColor, categoryColor *color.Color

	switch entry.Level {
	case "DEBUG":
		levelColor = color.New(color.FgCyan)
		categoryColor = color.New(color.FgCyan, color.Bold)
	case "INFO":
		levelColor = color.New(color.FgGreen)
		categoryColor = color.New(color.FgGreen, color.Bold)
	case "WARN":
		levelColor = color.New(color.FgYellow)
		categoryColor = color.New(color.FgYellow, color.Bold)
	case "ERROR", "FATAL":
		levelColor = color.New(color.FgRed)
		categoryColor = color.New(color.FgRed, color.Bold)
	default:
		levelColor = color.New(color.FgWhite)
		categoryColor = color.New(color.FgWhite, color.Bold)
	}

	timeStr := color.New(color.FgBlue).Sprintf("%s", timestamp)
	levelStr := levelColor.Sprintf("%-5s", entry.Level)
	categoryStr := categoryColor.Sprintf("[%-10s]", entry.Category)

	if entry.File != "" && entry.Line > 0 {
		fileInfo := color.New(color.FgMagenta).Sprintf(" (%s:%d)", entry.File, entry.Line)
		return fmt.Sprintf("%s %s %s %s%s\n", timeStr, levelStr, categoryStr, entry.Message, fileInfo)
	}

	return fmt.Sprintf("%s %s %s %s\n", timeStr, levelStr, categoryStr, entry.Message)
}

func (l *Logger) levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "INFO"
	}
}

func (l *Logger) Debug(category, message string) {
	l.log(DEBUG, category, message)
}

func (l *Logger) Info(category, message string) {
	l.log(INFO, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.log(WARN, category, message)
}

func (l *Logger) Error(category, message string) {
	l.log(ERROR, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	os.Exit(1)
}

// Specialized helpers for the main components.
func (l *Logger) LogIssuance(action, purchaseID, message string) {
	l.Info("ISSUANCE", fmt.Sprintf("[%s] %s - %s", action, purchaseID, message))
}

func (l *Logger) LogValidation(action, code, message string) {
	l.Info("VALIDATION", fmt.Sprintf("[%s] %s - %s", action, code, message))
}

func (l *Logger) LogInventory(action, tierID, message string) {
	l.Info("INVENTORY", fmt.Sprintf("[%s] %s - %s", action, tierID, message))
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

// LogSecurity is for integrity failures: a stored tag that no longer
// matches its code means corruption or tampering, not buyer error, and
// feeds fraud monitoring.
func (l *Logger) LogSecurity(event, message string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, message))
}

func (l *Logger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
	}
}
