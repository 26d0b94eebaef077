package gtfs

import "strings"

type Config struct {
	// GtfsURL is a local zip path or an http(s) URL.
	GtfsURL string
	Verbose bool
}

func (config Config) isLocalFile() bool {
	return !strings.HasPrefix(config.GtfsURL, "http://") && !strings.HasPrefix(config.GtfsURL, "https://")
}
