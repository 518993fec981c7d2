// Package config provides configuration management for fiisheet.
package config
