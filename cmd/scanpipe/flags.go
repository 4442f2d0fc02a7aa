package main

import "time"

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string // Only config path for CLI commands
}

// APIFlags holds daemon connection flags shared by remote commands
type APIFlags struct {
	APIUrl     string
	APITimeout time.Duration
}

// ScanFlags holds flags for the scan command
type ScanFlags struct {
	Payload string
	APIFlags
}

// ServeFlags holds flags for the serve command
type ServeFlags struct {
	ConfigPath string
}
