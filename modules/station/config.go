package station

import (
	"flag"
	"time"

	"github.com/zachfi/zkit/pkg/util"

	"github.com/radiozero/relayd/pkg/player"
	"github.com/radiozero/relayd/pkg/resolver"
)

type Config struct {
	QueuePath         string        `yaml:"queue-path,omitempty"`
	QueuePollInterval time.Duration `yaml:"queue-poll-interval,omitempty"`
	TrackPause        time.Duration `yaml:"track-pause,omitempty"`
	NowPlayingPath    string        `yaml:"now-playing-path,omitempty"`

	Resolver resolver.Config `yaml:"resolver,omitempty"`
	Player   player.Config   `yaml:"player,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.QueuePath, util.PrefixConfig(prefix, "queue-path"), "queue.txt",
		"Line-oriented track queue file, re-read at the start of every full cycle.")
	f.DurationVar(&cfg.QueuePollInterval, util.PrefixConfig(prefix, "queue-poll-interval"), 5*time.Second,
		"Delay before re-checking a missing or empty queue file.")
	f.DurationVar(&cfg.TrackPause, util.PrefixConfig(prefix, "track-pause"), 1500*time.Millisecond,
		"Pause after a track ends before advancing to the next entry.")
	f.StringVar(&cfg.NowPlayingPath, util.PrefixConfig(prefix, "now-playing-path"), "",
		"Optional file updated with the current track reference. Empty disables it.")

	cfg.Resolver.RegisterFlagsAndApplyDefaults(util.PrefixConfig(prefix, "resolver"), f)
	cfg.Player.RegisterFlagsAndApplyDefaults(util.PrefixConfig(prefix, "player"), f)
}
