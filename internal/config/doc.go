// Package config provides the configuration of a crawl and the YAML
// configuration file that supplies defaults and named searches.
package config
