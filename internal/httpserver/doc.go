// Package httpserver runs the optional admin listener with validated
// address, bounded timeouts and graceful shutdown.
package httpserver
