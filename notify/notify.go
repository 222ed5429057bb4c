// Package notify defines the fire-and-forget notification sink used to surface
// success and error toasts. Implementations must not block the caller.
package notify

import (
	"log/slog"
)

// Level of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a single toast
type Notification struct {
	Level   Level
	Message string
}

// Notifier receives notifications; calls must return promptly.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Nop discards notifications
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}

// Func adapts a function to Notifier
type Func func(n Notification)

func (f Func) Success(message string) { f(Notification{Level: LevelSuccess, Message: message}) }
func (f Func) Error(message string)   { f(Notification{Level: LevelError, Message: message}) }

// Chan delivers notifications on a buffered channel, dropping them when the
// buffer is full.
type Chan struct {
	C chan Notification
}

func (c *Chan) Success(message string) { c.send(Notification{Level: LevelSuccess, Message: message}) }
func (c *Chan) Error(message string)   { c.send(Notification{Level: LevelError, Message: message}) }

func (c *Chan) send(n Notification) {
	select {
	case c.C <- n:
	default:
	}
}

// NewChan creates a channel notifier with the given buffer size
func NewChan(size int) *Chan {
	if size <= 0 {
		size = 16
	}
	return &Chan{C: make(chan Notification, size)}
}

// Log writes notifications to a structured logger
type Log struct {
	Logger *slog.Logger
}

func (l *Log) Success(message string) { l.logger().Info(message, "notification", LevelSuccess) }
func (l *Log) Error(message string)   { l.logger().Warn(message, "notification", LevelError) }

func (l *Log) logger() *slog.Logger {
	if l == nil || l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
