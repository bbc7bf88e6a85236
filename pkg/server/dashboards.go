package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/entrhq/qbridge/pkg/dashboard"
	"github.com/entrhq/qbridge/pkg/publisher"
)

func embedOptionsFrom(raw map[string]any) publisher.EmbedOptions {
	opts := publisher.EmbedOptions{}
	if v, ok := raw["width"].(string); ok {
		opts.Width = v
	}
	if v, ok := raw["height"].(string); ok {
		opts.Height = v
	}
	if v, ok := raw["frameborder"].(string); ok {
		opts.FrameBorder = v
	}
	if v, ok := raw["allowfullscreen"].(bool); ok && !v {
		opts.NoFullscreen = true
	}
	return opts
}

func (s *Server) handleGenerateDashboard(w http.ResponseWriter, r *http.Request) {
	if !s.rendererReady(w, r) || !s.publisherReady(w, r) {
		return
	}
	var req GenerateDashboardRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondValidationError(w, r, err)
		return
	}

	encoded, err := json.Marshal(req.SummaryData)
	if err != nil {
		s.respondValidationError(w, r, fmt.Errorf("summary data is not serializable: %w", err))
		return
	}
	data := dashboard.ParseSummary(string(encoded))

	html, err := s.renderer.Render(data, req.DashboardName)
	if err != nil {
		s.respondEngineError(w, r, fmt.Errorf("dashboard rendering failed: %w", err))
		return
	}

	now := s.now()
	siteID := publisher.SiteID(req.DashboardName, now)
	if data.Preserved() {
		siteID = publisher.FallbackSiteID(req.DashboardName, now)
	}

	assets := s.renderer.StaticAssets()
	url, err := s.publisher.UploadStaticSite(r.Context(), html, siteID, assets)
	if err != nil {
		s.respondEngineError(w, r, fmt.Errorf("dashboard deployment failed: %w", err))
		return
	}

	embed := s.publisher.EmbedCode(url, embedOptionsFrom(req.EmbedOptions))
	s.respondData(w, DashboardResponse{
		DashboardURL:  url,
		SiteID:        siteID,
		EmbedCode:     embed,
		DashboardType: req.DashboardType,
		Timestamp:     s.timestamp(),
		Title:         req.Title,
		Metadata: map[string]any{
			"embed_options":       req.EmbedOptions,
			"static_assets_count": len(assets),
		},
	}, fmt.Sprintf("Dashboard generated and deployed successfully to %s", url))
}

func (s *Server) handleListDashboards(w http.ResponseWriter, r *http.Request) {
	if !s.publisherReady(w, r) {
		return
	}
	dashboards, err := s.publisher.ListDashboards(r.Context())
	if err != nil {
		s.respondEngineError(w, r, fmt.Errorf("listing dashboards failed: %w", err))
		return
	}
	if dashboards == nil {
		dashboards = []publisher.Dashboard{}
	}
	s.respondData(w, map[string]any{
		"dashboards":  dashboards,
		"total_count": len(dashboards),
		"timestamp":   s.timestamp(),
	}, fmt.Sprintf("Retrieved %d deployed dashboards", len(dashboards)))
}

func (s *Server) handleEmbedCode(w http.ResponseWriter, r *http.Request) {
	if !s.publisherReady(w, r) {
		return
	}
	siteID := chi.URLParam(r, "siteID")
	if !dashboardNamePattern.MatchString(siteID) {
		s.respondValidationError(w, r, fmt.Errorf("invalid site id %q", siteID))
		return
	}

	width := r.URL.Query().Get("width")
	if width == "" {
		width = publisher.DefaultEmbedWidth
	}
	height := r.URL.Query().Get("height")
	if height == "" {
		height = publisher.DefaultEmbedHeight
	}

	url := s.publisher.SiteURL(siteID)
	embed := s.publisher.EmbedCode(url, publisher.EmbedOptions{Width: width, Height: height})
	s.respondData(w, map[string]any{
		"site_id":       siteID,
		"dashboard_url": url,
		"embed_code":    embed,
		"width":         width,
		"height":        height,
		"timestamp":     s.timestamp(),
	}, "Embed code generated successfully")
}
