/*
	rest package exposes the link-health checking engine to external
	collaborators (editors, admin panels) over a small JSON API:

		POST /v1/checks/full                        synchronous exhaustive check of raw content
		POST /v1/documents/{id}/checks/diff         synchronous incremental check
		GET  /v1/documents/{id}/links/broken        stored broken links for a UI panel
		POST /v1/documents/{id}/checks/schedule     fire-and-forget background check
		PUT  /v1/documents/{id}                     store content and schedule a check
		GET  /v1/links/broken/search?q=             search the broken-link catalogue
*/

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mycok/uCheck/checkstate/state"
	"github.com/mycok/uCheck/linkcheck"
)

// Service represents the REST API service for the uCheck application.
// it satisfies the service.Service interface.
type Service struct {
	config Config
	router *chi.Mux
}

// New creates and returns a fully configured REST API service
// instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("rest service: config validation failed: %w", err)
	}

	svc := &Service{
		config: config,
		router: chi.NewRouter(),
	}

	svc.router.Post("/v1/checks/full", svc.runFullCheck)
	svc.router.Post("/v1/documents/{documentID}/checks/diff", svc.runDifferentialCheck)
	svc.router.Get("/v1/documents/{documentID}/links/broken", svc.getStoredBrokenLinks)
	svc.router.Post("/v1/documents/{documentID}/checks/schedule", svc.scheduleBackgroundCheck)
	svc.router.Put("/v1/documents/{documentID}", svc.upsertDocument)
	svc.router.Get("/v1/links/broken/search", svc.searchBrokenLinks)

	return svc, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "rest" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.config.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.config.ListenAddr,
		Handler: svc.router,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	svc.config.Logger.WithField("addr", svc.config.ListenAddr).Info(
		"started service",
	)

	if err = srv.Serve(l); err == http.ErrServerClosed {
		// Server closed gracefully.
		err = nil
	}

	return err
}

type contentRequest struct {
	Content string `json:"content"`
}

type fullCheckResponse struct {
	BrokenLinks  []state.BrokenLink `json:"broken_links"`
	CheckedCount int                `json:"checked_count"`
	BrokenCount  int                `json:"broken_count"`
}

type diffCheckResponse struct {
	BrokenLinks    []state.BrokenLink `json:"broken_links"`
	CheckedCount   int                `json:"checked_count"`
	LinksUnchanged bool               `json:"links_unchanged"`
}

type brokenLinksResponse struct {
	BrokenLinks []state.BrokenLink `json:"broken_links"`
}

func (svc *Service) runFullCheck(w http.ResponseWriter, r *http.Request) {
	content, ok := svc.decodeContent(w, r)
	if !ok {
		return
	}

	res, err := svc.config.FullChecker.Check(r.Context(), linkcheck.ExtractLinks(content))
	if err != nil {
		svc.renderError(w, http.StatusInternalServerError, err)

		return
	}

	svc.renderJSON(w, http.StatusOK, fullCheckResponse{
		BrokenLinks:  nonNilBrokenLinks(res.BrokenLinks),
		CheckedCount: res.CheckedCount,
		BrokenCount:  len(res.BrokenLinks),
	})
}

func (svc *Service) runDifferentialCheck(w http.ResponseWriter, r *http.Request) {
	documentID, ok := svc.decodeDocumentID(w, r)
	if !ok {
		return
	}

	content, ok := svc.decodeContent(w, r)
	if !ok {
		return
	}

	res, err := svc.config.DiffChecker.Check(
		r.Context(), documentID, linkcheck.ExtractLinks(content),
	)
	if err != nil {
		svc.renderError(w, http.StatusInternalServerError, err)

		return
	}

	if svc.config.Reports != nil {
		if err := svc.config.Reports.Put(documentID, res.BrokenLinks); err != nil {
			svc.config.Logger.WithField("err", err).Warn(
				"unable to update broken-link report",
			)
		}
	}

	svc.renderJSON(w, http.StatusOK, diffCheckResponse{
		BrokenLinks:    nonNilBrokenLinks(res.BrokenLinks),
		CheckedCount:   res.CheckedCount,
		LinksUnchanged: res.LinksUnchanged,
	})
}

func (svc *Service) getStoredBrokenLinks(w http.ResponseWriter, r *http.Request) {
	documentID, ok := svc.decodeDocumentID(w, r)
	if !ok {
		return
	}

	docState, err := svc.config.States.Find(documentID)
	if err != nil {
		// A document that has never been checked simply has no broken
		// links yet.
		if errors.Is(err, state.ErrNotFound) {
			svc.renderJSON(w, http.StatusOK, brokenLinksResponse{
				BrokenLinks: []state.BrokenLink{},
			})

			return
		}

		svc.renderError(w, http.StatusInternalServerError, err)

		return
	}

	svc.renderJSON(w, http.StatusOK, brokenLinksResponse{
		BrokenLinks: nonNilBrokenLinks(docState.BrokenLinks),
	})
}

func (svc *Service) scheduleBackgroundCheck(w http.ResponseWriter, r *http.Request) {
	documentID, ok := svc.decodeDocumentID(w, r)
	if !ok {
		return
	}

	if err := svc.config.Scheduler.Schedule(documentID); err != nil {
		svc.renderError(w, http.StatusInternalServerError, err)

		return
	}

	svc.renderJSON(w, http.StatusAccepted, map[string]bool{"scheduled": true})
}

func (svc *Service) upsertDocument(w http.ResponseWriter, r *http.Request) {
	documentID, ok := svc.decodeDocumentID(w, r)
	if !ok {
		return
	}

	content, ok := svc.decodeContent(w, r)
	if !ok {
		return
	}

	if err := svc.config.Documents.Upsert(documentID, content); err != nil {
		svc.renderError(w, http.StatusInternalServerError, err)

		return
	}

	// Saving a document always requests a background re-check.
	if err := svc.config.Scheduler.Schedule(documentID); err != nil {
		svc.renderError(w, http.StatusInternalServerError, err)

		return
	}

	svc.renderJSON(w, http.StatusAccepted, map[string]bool{"scheduled": true})
}

func (svc *Service) searchBrokenLinks(w http.ResponseWriter, r *http.Request) {
	if svc.config.Reports == nil {
		svc.renderError(
			w, http.StatusNotFound, fmt.Errorf("broken-link search is not enabled"),
		)

		return
	}

	expression := r.URL.Query().Get("q")
	if expression == "" {
		svc.renderError(
			w, http.StatusBadRequest, fmt.Errorf("missing search expression"),
		)

		return
	}

	entries, err := svc.config.Reports.Search(expression)
	if err != nil {
		svc.renderError(w, http.StatusInternalServerError, err)

		return
	}

	svc.renderJSON(w, http.StatusOK, map[string]interface{}{"results": entries})
}

// decodeDocumentID extracts and validates the document id path
// parameter, rendering a structured failure on invalid input.
func (svc *Service) decodeDocumentID(
	w http.ResponseWriter, r *http.Request,
) (uuid.UUID, bool) {

	documentID, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		svc.renderError(
			w, http.StatusBadRequest, fmt.Errorf("invalid document ID"),
		)

		return uuid.Nil, false
	}

	return documentID, true
}

func (svc *Service) decodeContent(
	w http.ResponseWriter, r *http.Request,
) (string, bool) {

	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		svc.renderError(
			w, http.StatusBadRequest, fmt.Errorf("invalid request payload"),
		)

		return "", false
	}

	if req.Content == "" {
		svc.renderError(
			w, http.StatusBadRequest, fmt.Errorf("content must not be empty"),
		)

		return "", false
	}

	return req.Content, true
}

func (svc *Service) renderJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		svc.config.Logger.WithField("err", err).Error("unable to encode response")
	}
}

func (svc *Service) renderError(w http.ResponseWriter, status int, err error) {
	svc.renderJSON(w, status, map[string]string{"error": err.Error()})
}

// nonNilBrokenLinks keeps empty result sets rendering as [] instead of
// null.
func nonNilBrokenLinks(links []state.BrokenLink) []state.BrokenLink {
	if links == nil {
		return []state.BrokenLink{}
	}

	return links
}
