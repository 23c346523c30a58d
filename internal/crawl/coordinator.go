package crawl

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cspderive/cspderive/internal/browserdriver"
	"github.com/cspderive/cspderive/internal/policyengine"
	"github.com/cspderive/cspderive/internal/proxy"
	"github.com/cspderive/cspderive/internal/report"
)

// Config configures one crawl run.
type Config struct {
	TargetDomain string
	ProxyPort    int
	// WithReportEndpoint starts the report server and points the policy's
	// report-uri/Report-To back at it, so violations close the loop.
	// When false, no report endpoint runs and the policy carries neither.
	WithReportEndpoint bool
	StartingURIs       []string // default ["/"] if nil; an empty non-nil slice seeds nothing
	TimeoutMinutes     int
	LoadDelaySeconds   int
}

// Coordinator owns the frontier, the policy engine, the proxy and report
// servers, and the browser driver for one crawl.
type Coordinator struct {
	cfg      Config
	driver   browserdriver.Driver
	log      zerolog.Logger
	frontier *Frontier
}

// New builds a Coordinator. driver is not started here; Run owns its
// lifecycle only to the extent of calling Quit on shutdown.
func New(cfg Config, driver browserdriver.Driver, log zerolog.Logger) *Coordinator {
	if cfg.StartingURIs == nil {
		cfg.StartingURIs = []string{"/"}
	}
	return &Coordinator{
		cfg:      cfg,
		driver:   driver,
		log:      log,
		frontier: NewFrontier(log.With().Str("component", "frontier").Logger()),
	}
}

// Run executes the full crawl lifecycle: seed the frontier, start the
// report endpoint and proxy, crawl under a global timeout, then shut
// everything down in order, returning the final serialized policy.
func (c *Coordinator) Run(ctx context.Context) (string, error) {
	c.frontier.SendUrls(c.cfg.StartingURIs)

	var reportListener net.Listener
	var reportServer *http.Server
	reportingAPIGroup, reportURIEndpoint := "", ""

	if c.cfg.WithReportEndpoint {
		var err error
		reportListener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return "", fmt.Errorf("crawl: couldn't bind report endpoint: %w", err)
		}
		port := reportListener.Addr().(*net.TCPAddr).Port
		reportURIEndpoint = fmt.Sprintf("http://localhost:%d/uri", port)
		reportingAPIGroup = fmt.Sprintf("http://localhost:%d/api", port)
	}

	selfPattern := regexp.MustCompile(`(https?://localhost:` + strconv.Itoa(c.cfg.ProxyPort) + `).*`)
	engine := policyengine.New(selfPattern, reportingAPIGroup, reportURIEndpoint, c.log.With().Str("component", "policy").Logger())

	if c.cfg.WithReportEndpoint {
		mux := report.NewMux(engine, c.log.With().Str("component", "report").Logger())
		reportServer = &http.Server{Handler: mux}
		go reportServer.Serve(reportListener)
		time.Sleep(time.Second)
	}

	var reportingGroupValue *report.ReportingGroup
	if reportingAPIGroup != "" {
		g := report.NewReportingGroup(reportingAPIGroup)
		reportingGroupValue = &g
	}

	proxyServer := proxy.New(
		proxy.Config{ProxyPort: c.cfg.ProxyPort, TargetDomain: c.cfg.TargetDomain, ReportingGroup: reportingGroupValue},
		engine, engine, c.frontier,
		c.log.With().Str("component", "proxy").Logger(),
	)
	proxyListener, err := net.Listen("tcp", fmt.Sprintf(":%d", c.cfg.ProxyPort))
	if err != nil {
		return "", fmt.Errorf("crawl: couldn't bind proxy port %d: %w", c.cfg.ProxyPort, err)
	}
	proxyHTTPServer := &http.Server{Handler: proxyServer}
	go proxyHTTPServer.Serve(proxyListener)
	time.Sleep(time.Second)

	c.crawlLoop(ctx)

	return c.shutdown(engine, proxyHTTPServer, reportServer), nil
}

func (c *Coordinator) crawlLoop(ctx context.Context) {
	deadline := time.Now().Add(time.Duration(c.cfg.TimeoutMinutes) * time.Minute)
	for {
		if time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		path, ok := c.frontier.GetUrl()
		if !ok {
			return
		}

		url := fmt.Sprintf("http://localhost:%d%s", c.cfg.ProxyPort, path)
		c.log.Info().Msgf("Visiting %s", url)

		navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := c.driver.Navigate(navCtx, url); err != nil {
			c.log.Error().Err(err).Str("url", url).Msg("browser driver failed to navigate")
			cancel()
			return
		}
		cancel()

		time.Sleep(time.Duration(c.cfg.LoadDelaySeconds) * time.Second)
	}
}

// shutdown performs the ordered teardown: quit the browser, close the
// frontier, log the final policy, then stop both servers with a 1s grace
// period followed by a 1s forced close.
func (c *Coordinator) shutdown(engine *policyengine.Engine, proxyServer, reportServer *http.Server) string {
	c.log.Info().Msgf("Policy for %s:", c.cfg.TargetDomain)

	quitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := c.driver.Quit(quitCtx); err != nil {
		c.log.Error().Err(err).Msg("browser driver failed to quit")
	}
	cancel()

	c.frontier.Close()

	policy := engine.CurrentHeaderValue()
	c.log.Info().Msg(policy)

	stopServer(proxyServer, c.log)
	if reportServer != nil {
		stopServer(reportServer, c.log)
	}

	return policy
}

// stopServer gives srv a 1s grace period to finish in-flight requests, then
// forces it closed if that isn't enough.
func stopServer(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown timed out, forcing close")
		_ = srv.Close()
	}
}
