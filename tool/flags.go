package tool

import (
	"flag"

	"github.com/moyoez/edi-client/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseBaseURL, "useBaseURL", "", "override conversion service base URL (e.g. http://localhost:8000)")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override local API port")
	flag.StringVar(&cfg.UseDownloadFolder, "useDownloadFolder", "", "override folder downloaded EDI files are saved to")
	flag.StringVar(&cfg.UseWebOutPath, "useWebOutPath", "", "path to a static web UI served at /")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "do not forward notifications to the unix socket")
	flag.Parse()
	return cfg
}

// ApplyFlags merges non-empty flag overrides into the loaded config.
func ApplyFlags(appCfg *types.AppConfig, flags types.Config) {
	if flags.UseBaseURL != "" {
		appCfg.BaseURL = flags.UseBaseURL
	}
	if flags.UsePort > 0 {
		appCfg.ListenPort = flags.UsePort
	}
	if flags.UseDownloadFolder != "" {
		appCfg.DownloadFolder = flags.UseDownloadFolder
	}
	if flags.UseWebOutPath != "" {
		appCfg.WebOutPath = flags.UseWebOutPath
	}
	if flags.SkipNotify {
		appCfg.NotifySocket = ""
	}
}
