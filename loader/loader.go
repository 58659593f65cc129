// Package loader runs every content-fetching operation off the
// interactive thread. Each submission becomes one goroutine identified
// by a deterministic job key; a key already running swallows the new
// submission, and cancellation is cooperative through the job's context.
package loader

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

// Job key prefixes. Consumers stop whole families of jobs by prefix,
// e.g. all running searches before submitting a new query. No root may
// be a prefix of another, or StopPrefix would bleed across families.
const (
	PrefixSeries      = "series"
	PrefixReload      = "reload"
	PrefixPage        = "page"
	PrefixSearch      = "search"
	PrefixBanner      = "banner"
	PrefixTracker     = "tracker"
	PrefixTrackerAuth = "auth"
)

// PreloadUnbounded makes LoadPage preload every remaining page of the
// chapter.
const PreloadUnbounded = -1

// Registry resolves plugin IDs to instances. A nil return means the
// plugin is no longer available and the job surfaces that instead of
// crashing.
type Registry interface {
	ContentSource(id int) content.ContentSource
	InfoSource(id int) content.InfoSource
	Tracker(id int) content.Tracker
}

type job struct {
	key    string
	ctx    context.Context
	cancel context.CancelFunc
}

// Loader is the background job dispatcher. Its only shared mutable
// state is the running-job table.
type Loader struct {
	registry Registry
	fetcher  *content.Fetcher
	library  *model.Library

	mu   sync.Mutex
	jobs map[string]*job
}

// New builds a loader over the plugin registry and the library the jobs
// mutate.
func New(registry Registry, fetcher *content.Fetcher, library *model.Library) *Loader {
	return &Loader{
		registry: registry,
		fetcher:  fetcher,
		library:  library,
		jobs:     make(map[string]*job),
	}
}

// start registers the key and launches run on its own goroutine. It
// returns false without running anything when an identical key is
// already in flight. Deregistration is unconditional: the deferred
// finish runs on success, failure and cancellation alike.
func (l *Loader) start(key string, run func(ctx context.Context)) bool {
	l.mu.Lock()
	if _, exists := l.jobs[key]; exists {
		l.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{key: key, ctx: ctx, cancel: cancel}
	l.jobs[key] = j
	l.mu.Unlock()

	go func() {
		defer l.finish(j)
		run(ctx)
	}()
	return true
}

func (l *Loader) finish(j *job) {
	l.mu.Lock()
	if l.jobs[j.key] == j {
		delete(l.jobs, j.key)
	}
	l.mu.Unlock()
	j.cancel()
}

// Running reports whether a job with the exact key is in flight.
func (l *Loader) Running(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.jobs[key]
	return ok
}

// RunningCount returns the number of in-flight jobs.
func (l *Loader) RunningCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.jobs)
}

// StopPrefix requests cancellation of every job whose key starts with
// prefix. Cancellation is cooperative: in-flight network calls finish
// but their results are discarded at the next context check.
func (l *Loader) StopPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, j := range l.jobs {
		if strings.HasPrefix(key, prefix) {
			j.cancel()
		}
	}
}

// StopAll requests cancellation of every running job.
func (l *Loader) StopAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, j := range l.jobs {
		j.cancel()
	}
}

// Job key derivations: kind prefix, plugin identity, primary locator.

func seriesKey(sourceID int, source string) string {
	return fmt.Sprintf("%s:%d:%s", PrefixSeries, sourceID, source)
}

func reloadKey(sourceID int, source string) string {
	return fmt.Sprintf("%s:%d:%s", PrefixReload, sourceID, source)
}

func pageKey(sourceID int, chapterSource string, page int) string {
	return fmt.Sprintf("%s:%d:%s:%d", PrefixPage, sourceID, chapterSource, page)
}

func searchKey(sourceID int, query string) string {
	return fmt.Sprintf("%s:%d:%s", PrefixSearch, sourceID, query)
}

func bannerKey(infoID int, title string) string {
	return fmt.Sprintf("%s:%d:%s", PrefixBanner, infoID, title)
}

func trackerKey(op string, trackerID int, locator string) string {
	return fmt.Sprintf("%s:%s:%d:%s", PrefixTracker, op, trackerID, locator)
}

func trackerAuthKey(trackerID int) string {
	return fmt.Sprintf("%s:%d", PrefixTrackerAuth, trackerID)
}
