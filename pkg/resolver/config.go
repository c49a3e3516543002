package resolver

import (
	"flag"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/grafana/dskit/flagext"
	"github.com/zachfi/zkit/pkg/util"
)

type Config struct {
	Strategies     flagext.StringSliceCSV `yaml:"strategies,omitempty"`
	Backoff        backoff.Config         `yaml:"backoff,omitempty"`
	AttemptTimeout time.Duration          `yaml:"attempt-timeout,omitempty"`
	BinPath        string                 `yaml:"bin-path,omitempty"`
	CookiesFile    string                 `yaml:"cookies-file,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	// Source revisions disagreed on strategy order; it is configuration,
	// not algorithm.
	cfg.Strategies = flagext.StringSliceCSV{"web", "tv", "ios"}
	f.Var(&cfg.Strategies, util.PrefixConfig(prefix, "strategies"),
		"Comma-separated client strategies, tried in order until one resolves.")

	f.DurationVar(&cfg.AttemptTimeout, util.PrefixConfig(prefix, "attempt-timeout"), 30*time.Second,
		"Timeout for a single resolution attempt.")
	f.StringVar(&cfg.BinPath, util.PrefixConfig(prefix, "bin-path"), "yt-dlp",
		"Path to the external extractor binary.")
	f.StringVar(&cfg.CookiesFile, util.PrefixConfig(prefix, "cookies-file"), "",
		"Optional cookies file passed to the extractor on every attempt.")

	f.IntVar(&cfg.Backoff.MaxRetries, util.PrefixConfig(prefix, "retries"), 3,
		"Attempts per strategy before moving to the next one.")
	f.DurationVar(&cfg.Backoff.MinBackoff, util.PrefixConfig(prefix, "backoff-min-period"), 1*time.Second,
		"Delay after the first failed attempt of a strategy.")
	f.DurationVar(&cfg.Backoff.MaxBackoff, util.PrefixConfig(prefix, "backoff-max-period"), 5*time.Second,
		"Ceiling on the delay between attempts.")
}
