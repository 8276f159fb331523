package webrote

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/webrote/browser"
	"github.com/hazyhaar/webrote/extract"
	"github.com/hazyhaar/webrote/induce"
	"github.com/hazyhaar/webrote/learn"
	"github.com/hazyhaar/webrote/observability"
	"github.com/hazyhaar/webrote/patterns"
)

// Service bundles the webrote subsystems behind one lifecycle.
type Service struct {
	cfg       *Config
	logger    *slog.Logger
	store     *patterns.Store
	inducer   *induce.Inducer
	converter *extract.Converter
	browser   *browser.Manager
	events    *observability.EventLogger
}

// NewService wires a Service from config. The events database is
// optional; nil disables event logging.
func NewService(cfg *Config, eventsDB *sql.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	s := &Service{
		cfg:       cfg,
		logger:    logger,
		store:     patterns.NewStore(cfg.PatternsPath, patterns.WithLogger(logger)),
		converter: extract.NewConverter(),
		browser: browser.NewManager(browser.Config{
			RemoteURL:     cfg.Browser.Remote,
			Stealth:       cfg.Browser.Stealth,
			CollectBounds: cfg.Extract.FoldFilter,
			Logger:        logger,
		}),
	}
	if cfg.LLM.Endpoint != "" {
		s.inducer = induce.New(induce.Config{
			Client: induce.NewOpenAIClient(induce.ClientConfig{
				Endpoint: cfg.LLM.Endpoint,
				Model:    cfg.LLM.Model,
				APIKey:   cfg.LLM.APIKey,
				Timeout:  cfg.LLM.Timeout,
			}),
			Timeout: cfg.LLM.Timeout,
			Logger:  logger,
		})
	}
	if eventsDB != nil {
		s.events = observability.NewEventLogger(eventsDB)
	}
	return s
}

// Store exposes the pattern store.
func (s *Service) Store() *patterns.Store { return s.store }

// Inducer exposes the workflow inducer; nil when no LLM is configured.
func (s *Service) Inducer() *induce.Inducer { return s.inducer }

// LearningAgent wraps an automation runtime with the service's pattern
// store, inducer, and event logger.
func (s *Service) LearningAgent(rt learn.Runtime, autoLearn bool) *learn.Agent {
	return learn.New(rt, s.store, learn.Config{
		Inducer:   s.inducer,
		AutoLearn: autoLearn,
		Events:    s.events,
		Logger:    s.logger,
	})
}

// Start connects the browser.
func (s *Service) Start(ctx context.Context) error {
	return s.browser.Start(ctx)
}

// Close releases the browser.
func (s *Service) Close() error {
	return s.browser.Close()
}

// ExtractPage captures a URL and returns its content as markdown, with
// popups separated from the main content.
func (s *Service) ExtractPage(ctx context.Context, url string) (*extract.PageContent, error) {
	return s.extractPage(ctx, url, s.cfg.Extract.ExtractLinks)
}

func (s *Service) extractPage(ctx context.Context, url string, extractLinks bool) (*extract.PageContent, error) {
	page, err := s.browser.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()
	// Bind page operations to the caller's context so a cancelled tool
	// call aborts navigation and capture mid-flight.
	page = page.Context(ctx)

	if err := s.browser.Navigate(page, url); err != nil {
		return nil, err
	}
	root, err := s.browser.CaptureTree(page)
	if err != nil {
		return nil, err
	}
	var content *extract.PageContent
	if s.cfg.Extract.FoldFilter {
		content, err = s.converter.PageAboveFold(root, extractLinks, s.cfg.Extract.ViewportHeight)
	} else {
		content, err = s.converter.Page(root, extractLinks)
	}
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, observability.LearningEvent{
		EventType: "page_extracted",
		Domain:    patterns.NormalizeDomain(url),
		Success:   true,
	})
	return content, nil
}

func (s *Service) logEvent(ctx context.Context, e observability.LearningEvent) {
	if s.events != nil {
		s.events.LogEvent(ctx, e)
	}
}

// RegisterMCP registers the pattern store tools plus the page
// extraction tool on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.store.RegisterMCP(srv)
	s.registerExtractTool(srv)
}

// Stats summarizes the service state for the HTTP surface.
func (s *Service) Stats() (map[string]any, error) {
	pf, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("webrote: stats: %w", err)
	}
	patternCount := 0
	for _, byType := range pf.Patterns {
		patternCount += len(byType)
	}
	workflowCount := 0
	for _, byID := range pf.Workflows {
		workflowCount += len(byID)
	}
	return map[string]any{
		"patterns_path": s.store.Path(),
		"version":       pf.Version,
		"domains":       len(pf.Patterns),
		"patterns":      patternCount,
		"workflows":     workflowCount,
		"llm":           s.inducer != nil,
	}, nil
}
