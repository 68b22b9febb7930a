// Package logging wraps a process-wide zerolog logger with key/value helpers.
package logging
