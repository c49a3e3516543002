package player

import (
	"flag"
	"time"

	"github.com/zachfi/zkit/pkg/util"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

type Config struct {
	BinPath           string        `yaml:"bin-path,omitempty"`
	UserAgent         string        `yaml:"user-agent,omitempty"`
	RWTimeout         time.Duration `yaml:"rw-timeout,omitempty"`
	ReconnectDelayMax time.Duration `yaml:"reconnect-delay-max,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.BinPath, util.PrefixConfig(prefix, "bin-path"), "ffmpeg",
		"Path to the external decoder binary.")
	f.StringVar(&cfg.UserAgent, util.PrefixConfig(prefix, "user-agent"), defaultUserAgent,
		"User agent presented when fetching media locators.")
	f.DurationVar(&cfg.RWTimeout, util.PrefixConfig(prefix, "rw-timeout"), 30*time.Second,
		"Network read timeout; a hung source cannot stall the station past this.")
	f.DurationVar(&cfg.ReconnectDelayMax, util.PrefixConfig(prefix, "reconnect-delay-max"), 10*time.Second,
		"Ceiling on the decoder's reconnect delay after a stream drop.")
}
