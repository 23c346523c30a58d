// Package cliconfig parses the flags for each of the three subcommands,
// using the standard flag package and one flag.NewFlagSet per subcommand.
package cliconfig

import (
	"flag"
	"fmt"
	"strings"
)

// ProxyConfig holds the flags for the "proxy" subcommand.
type ProxyConfig struct {
	ProxyPort    int
	TargetDomain string
}

// EndpointAndProxyConfig holds the flags for the "endpoint-and-proxy"
// subcommand; its flag set is identical to ProxyConfig's.
type EndpointAndProxyConfig struct {
	ProxyPort    int
	TargetDomain string
}

// AutomatedBrowserConfig holds the flags for the "automated-browser"
// subcommand.
type AutomatedBrowserConfig struct {
	ProxyPort       int
	TargetDomains   []string
	AlternateStarts []string
	Browser         string
	DelaySeconds    int
	TimeoutMinutes  int
	LogFile         string
}

// stringSlice is a flag.Value that appends on every occurrence, giving a
// repeatable flag like --target-domain a --target-domain b.
type stringSlice struct{ values *[]string }

func (s stringSlice) String() string {
	if s.values == nil {
		return ""
	}
	return strings.Join(*s.values, ",")
}

func (s stringSlice) Set(v string) error {
	*s.values = append(*s.values, v)
	return nil
}

// ParseProxy parses the "proxy" subcommand's flags.
func ParseProxy(args []string) (ProxyConfig, error) {
	var cfg ProxyConfig
	fs := flag.NewFlagSet("proxy", flag.ContinueOnError)
	fs.IntVar(&cfg.ProxyPort, "proxy-port", 0, "local port the proxy listens on")
	fs.StringVar(&cfg.TargetDomain, "target-domain", "", "domain the proxy forwards requests to")
	if err := fs.Parse(args); err != nil {
		return ProxyConfig{}, err
	}
	if cfg.ProxyPort == 0 {
		return ProxyConfig{}, fmt.Errorf("cliconfig: --proxy-port is required")
	}
	if cfg.TargetDomain == "" {
		return ProxyConfig{}, fmt.Errorf("cliconfig: --target-domain is required")
	}
	return cfg, nil
}

// ParseEndpointAndProxy parses the "endpoint-and-proxy" subcommand's flags.
func ParseEndpointAndProxy(args []string) (EndpointAndProxyConfig, error) {
	p, err := ParseProxy(args)
	if err != nil {
		return EndpointAndProxyConfig{}, err
	}
	return EndpointAndProxyConfig(p), nil
}

// ParseAutomatedBrowser parses the "automated-browser" subcommand's flags.
func ParseAutomatedBrowser(args []string) (AutomatedBrowserConfig, error) {
	cfg := AutomatedBrowserConfig{
		Browser:        "chrome",
		DelaySeconds:   2,
		TimeoutMinutes: 10,
	}

	fs := flag.NewFlagSet("automated-browser", flag.ContinueOnError)
	fs.IntVar(&cfg.ProxyPort, "proxy-port", 0, "local port the proxy listens on")
	fs.Var(stringSlice{&cfg.TargetDomains}, "target-domain", "domain to crawl (repeatable)")
	fs.Var(stringSlice{&cfg.AlternateStarts}, "alternate-start", "seed path for the frontier (repeatable, default /)")
	fs.StringVar(&cfg.Browser, "browser", cfg.Browser, "chrome or firefox")
	fs.IntVar(&cfg.DelaySeconds, "delay", cfg.DelaySeconds, "seconds to wait after each visit for reports to arrive")
	fs.IntVar(&cfg.TimeoutMinutes, "timeout", cfg.TimeoutMinutes, "global crawl timeout in minutes")
	fs.StringVar(&cfg.LogFile, "log", "", "log file path; stdout if unset")
	if err := fs.Parse(args); err != nil {
		return AutomatedBrowserConfig{}, err
	}

	if cfg.ProxyPort == 0 {
		return AutomatedBrowserConfig{}, fmt.Errorf("cliconfig: --proxy-port is required")
	}
	if len(cfg.TargetDomains) == 0 {
		return AutomatedBrowserConfig{}, fmt.Errorf("cliconfig: --target-domain is required")
	}
	if cfg.Browser != "chrome" && cfg.Browser != "firefox" {
		return AutomatedBrowserConfig{}, fmt.Errorf("cliconfig: --browser must be chrome or firefox, got %q", cfg.Browser)
	}
	if len(cfg.AlternateStarts) == 0 {
		cfg.AlternateStarts = []string{"/"}
	}
	return cfg, nil
}
