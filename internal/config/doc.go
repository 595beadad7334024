// Package config provides the configuration record for a dirscan run, its
// validation, and the optional .dirscan YAML file with per-target profiles.
package config
