package config

import (
	"strings"
	"time"
)

// Settings are the crawl options a config file may set. Unset fields leave
// the current value alone.
type Settings struct {
	CacheDir   string            `yaml:"cacheDir,omitempty"`
	CacheTTL   *time.Duration    `yaml:"cacheTTL,omitempty"`
	Timeout    *time.Duration    `yaml:"timeout,omitempty"`
	Retries    *int              `yaml:"retries,omitempty"`
	RetryDelay *time.Duration    `yaml:"retryDelay,omitempty"`
	MaxPages   *int              `yaml:"maxPages,omitempty"`
	Delay      *time.Duration    `yaml:"delay,omitempty"`
	UserAgent  string            `yaml:"userAgent,omitempty"`
	Format     string            `yaml:"format,omitempty"`
	Robots     *bool             `yaml:"robots,omitempty"`
	Lenient    *bool             `yaml:"lenient,omitempty"`
	History    *bool             `yaml:"history,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty"`
}

// Search is a named search: a start URL plus settings for that search only.
type Search struct {
	// URL is the first search-results page.
	URL string `yaml:"url"`

	Settings `yaml:",inline"`
}

// File represents the structure of the .autocrawl.yaml configuration file.
type File struct {
	// Defaults apply to every crawl.
	Defaults Settings `yaml:"defaults,omitempty"`

	// Searches maps a name to a saved search, so that
	// "autocrawl crawl outback" crawls the URL saved as "outback".
	Searches map[string]Search `yaml:"searches,omitempty"`
}

// Lookup returns the search saved under name. Names match case-insensitively.
func (f *File) Lookup(name string) (Search, bool) {
	if s, ok := f.Searches[name]; ok {
		return s, true
	}
	for k, s := range f.Searches {
		if strings.EqualFold(k, name) {
			return s, true
		}
	}
	return Search{}, false
}

// SearchNames returns the saved search names.
func (f *File) SearchNames() []string {
	names := make([]string, 0, len(f.Searches))
	for name := range f.Searches {
		names = append(names, name)
	}
	return names
}

// ApplyTo applies the file defaults to cfg, then resolves target.
//
// A target naming a saved search sets the start URL and applies the
// search's own settings over the defaults. Any other target is taken as
// the start URL itself.
func (f *File) ApplyTo(cfg *Config, target string) {
	cfg.Apply(f.Defaults)

	if s, ok := f.Lookup(target); ok {
		cfg.StartURL = s.URL
		cfg.Apply(s.Settings)
		return
	}

	cfg.StartURL = target
}
