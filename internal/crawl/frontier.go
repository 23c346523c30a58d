// Package crawl implements the URL-frontier actor and the coordinator that
// drives a headless browser against the proxy under a global timeout.
package crawl

import (
	"time"

	"github.com/rs/zerolog"
)

// sendTimeout bounds how long SendUrls waits for the frontier's owning
// goroutine to accept a batch before giving up and dropping it.
const sendTimeout = time.Second

type getURLReply struct {
	url string
	ok  bool
}

// Frontier is a single-goroutine URL queue with a seen-set: one goroutine
// owns all state, and every other goroutine talks to it only through
// channels.
type Frontier struct {
	sendCh chan []string
	getCh  chan chan getURLReply
	done   chan struct{}
	log    zerolog.Logger
}

// NewFrontier starts the frontier's owning goroutine and returns a handle
// to it.
func NewFrontier(log zerolog.Logger) *Frontier {
	f := &Frontier{
		sendCh: make(chan []string),
		getCh:  make(chan chan getURLReply),
		done:   make(chan struct{}),
		log:    log,
	}
	go f.run()
	return f
}

func (f *Frontier) run() {
	seen := make(map[string]bool)
	var queue []string

	for {
		select {
		case urls := <-f.sendCh:
			for _, u := range urls {
				if seen[u] {
					continue
				}
				seen[u] = true
				queue = append(queue, u)
			}
		case reply := <-f.getCh:
			if len(queue) == 0 {
				reply <- getURLReply{ok: false}
				continue
			}
			u := queue[0]
			queue = queue[1:]
			reply <- getURLReply{url: u, ok: true}
		case <-f.done:
			return
		}
	}
}

// SendUrls enqueues every URL not already seen for the lifetime of this
// frontier. The send is bounded by sendTimeout; on timeout the batch is
// dropped and a warning logged rather than blocking the caller.
func (f *Frontier) SendUrls(urls []string) {
	if len(urls) == 0 {
		return
	}
	select {
	case f.sendCh <- urls:
	case <-time.After(sendTimeout):
		f.log.Warn().Int("count", len(urls)).Msg("frontier send timed out, dropping urls")
	case <-f.done:
	}
}

// GetUrl dequeues the head of the frontier, returning ok=false if it is
// empty or the frontier has been closed.
func (f *Frontier) GetUrl() (string, bool) {
	reply := make(chan getURLReply, 1)
	select {
	case f.getCh <- reply:
	case <-f.done:
		return "", false
	}
	r := <-reply
	return r.url, r.ok
}

// Close stops the frontier's owning goroutine. Any GetUrl or SendUrls call
// racing with Close returns immediately rather than blocking.
func (f *Frontier) Close() {
	close(f.done)
}
