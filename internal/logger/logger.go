// Package logger provides structured logging helpers on top of logrus.
package logger

import (
	log "github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger. Unknown levels fall back to debug.
func Setup(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.DebugLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// Debug logs a debug message with consistent fields.
// user_id=0 means the event is not tied to a specific user.
func Debug(userID int64, action, details string) {
	log.WithFields(log.Fields{
		"user_id": userID,
		"details": details,
	}).Debug(action)
}

// Info logs an operational event with consistent fields.
func Info(userID int64, action, details string) {
	log.WithFields(log.Fields{
		"user_id": userID,
		"details": details,
	}).Info(action)
}

// Error logs a failure with consistent fields.
func Error(userID int64, action string, err error) {
	log.WithFields(log.Fields{
		"user_id": userID,
	}).WithError(err).Error(action)
}
