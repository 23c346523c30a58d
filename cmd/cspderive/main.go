// Command cspderive runs the rewriting proxy, the violation-report
// endpoint, and the crawl coordinator, dispatching on a subcommand.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cspderive/cspderive/internal/browserdriver"
	"github.com/cspderive/cspderive/internal/cliconfig"
	"github.com/cspderive/cspderive/internal/crawl"
	"github.com/cspderive/cspderive/internal/csp"
	"github.com/cspderive/cspderive/internal/logging"
	"github.com/cspderive/cspderive/internal/policyengine"
	"github.com/cspderive/cspderive/internal/proxy"
	"github.com/cspderive/cspderive/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: cspderive <proxy|endpoint-and-proxy|automated-browser> [flags]")
		return 1
	}

	logging.Init(os.Stdout)
	csp.SetLogger(logging.Component("csp"))

	switch args[0] {
	case "proxy":
		return runProxyOnly(args[1:])
	case "endpoint-and-proxy":
		return runEndpointAndProxy(args[1:])
	case "automated-browser":
		return runAutomatedBrowser(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", args[0])
		return 1
	}
}

// noopSink discards scraped URLs; the "proxy" and "endpoint-and-proxy"
// subcommands have no crawl frontier to hand them to.
type noopSink struct{}

func (noopSink) SendUrls([]string) {}

func selfPatternFor(proxyPort int) *regexp.Regexp {
	return regexp.MustCompile(`(https?://localhost:` + strconv.Itoa(proxyPort) + `).*`)
}

func runProxyOnly(args []string) int {
	cfg, err := cliconfig.ParseProxy(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logging.Component("proxy")
	engine := policyengine.New(selfPatternFor(cfg.ProxyPort), "", "", logging.Component("policy"))
	p := proxy.New(proxy.Config{ProxyPort: cfg.ProxyPort, TargetDomain: cfg.TargetDomain}, engine, engine, noopSink{}, log)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ProxyPort), Handler: p}
	return serveUntilInterrupt(srv, log)
}

func runEndpointAndProxy(args []string) int {
	cfg, err := cliconfig.ParseEndpointAndProxy(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logging.Component("proxy")

	reportListener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	port := reportListener.Addr().(*net.TCPAddr).Port
	reportURIEndpoint := fmt.Sprintf("http://localhost:%d/uri", port)
	reportingAPIGroup := fmt.Sprintf("http://localhost:%d/api", port)

	engine := policyengine.New(selfPatternFor(cfg.ProxyPort), reportingAPIGroup, reportURIEndpoint, logging.Component("policy"))

	reportMux := report.NewMux(engine, logging.Component("report"))
	reportServer := &http.Server{Handler: reportMux}
	go reportServer.Serve(reportListener)

	group := report.NewReportingGroup(reportingAPIGroup)
	p := proxy.New(
		proxy.Config{ProxyPort: cfg.ProxyPort, TargetDomain: cfg.TargetDomain, ReportingGroup: &group},
		engine, engine, noopSink{}, log,
	)

	proxyServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ProxyPort), Handler: p}
	return serveUntilInterrupt(proxyServer, log)
}

func runAutomatedBrowser(args []string) int {
	cfg, err := cliconfig.ParseAutomatedBrowser(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logFile, err := logging.OpenLogFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if logFile != os.Stdout {
		defer logFile.Close()
	}
	log := logging.Init(logFile)
	csp.SetLogger(logging.Component("csp"))

	ctx := context.Background()

	for _, domain := range cfg.TargetDomains {
		domainLog := log.With().Str("component", "crawl").Str("target", domain).Logger()

		driver, err := browserdriver.NewSession(ctx, cfg.Browser, log.With().Str("component", "browserdriver").Logger())
		if err != nil {
			domainLog.Error().Err(err).Msg("couldn't start browser driver")
			return 1
		}

		coordinator := crawl.New(crawl.Config{
			TargetDomain:       domain,
			ProxyPort:          cfg.ProxyPort,
			WithReportEndpoint: true,
			StartingURIs:       cfg.AlternateStarts,
			TimeoutMinutes:     cfg.TimeoutMinutes,
			LoadDelaySeconds:   cfg.DelaySeconds,
		}, driver, domainLog)

		if _, err := coordinator.Run(ctx); err != nil {
			domainLog.Error().Err(err).Msg("crawl failed")
			return 1
		}
	}

	return 0
}

// serveUntilInterrupt runs srv until SIGINT/SIGTERM, then shuts it down
// with a grace period.
func serveUntilInterrupt(srv *http.Server, log zerolog.Logger) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
			return 1
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown timed out, forcing close")
			_ = srv.Close()
		}
	}
	return 0
}
