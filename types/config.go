package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	BaseURL        string `yaml:"baseURL"`
	ListenPort     int    `yaml:"listenPort"`
	DownloadFolder string `yaml:"downloadFolder"`
	NotifySocket   string `yaml:"notifySocket,omitempty"`
	WebOutPath     string `yaml:"webOutPath,omitempty"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log               string
	UseConfigPath     string
	UseBaseURL        string
	UsePort           int
	UseDownloadFolder string
	UseWebOutPath     string
	SkipNotify        bool // if true, do not forward status notifications to the unix socket.
}
