// Package config loads the LOG_* settings of the application logger from the
// environment and an optional .env file, and validates the values that have
// no safe fallback such as the log file name and the admin listener address.
package config
