package transport

import (
	"flag"

	"github.com/zachfi/zkit/pkg/util"
)

type Config struct {
	Path string `yaml:"path,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Path, util.PrefixConfig(prefix, "path"), "runtime/radio.pcm",
		"Path of the shared PCM conduit (named pipe). Created fresh at startup and removed on shutdown.")
}
