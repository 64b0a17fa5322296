// Package control implements the JSON-over-HTTP control surface: a thin
// facade over a wiring.Mount exposing status, cache, configuration, rule,
// and layer operations. Grounded on the teacher's own examples/projects
// web API (examples/projects/docker/web-go/api/server.go), which reaches
// for httprouter and rs/cors for exactly this kind of small JSON service.
package control

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/andronics/shadowfs/pkg/shadowfs/cache"
	"github.com/andronics/shadowfs/pkg/shadowfs/config"
	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
	"github.com/andronics/shadowfs/pkg/shadowfs/wiring"
)

var errEmptyPath = errors.New("path must not be empty")

// Server serves the control API over HTTP.
type Server struct {
	mount  *wiring.Mount
	logger *logging.Logger
}

// New constructs a control Server bound to mount.
func New(mount *wiring.Mount, logger *logging.Logger) *Server {
	return &Server{mount: mount, logger: logger}
}

// Handler builds the CORS-wrapped httprouter handler tree.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()

	router.GET("/", s.handleIndex)
	router.GET("/status", s.handleStatus)
	router.GET("/stats", s.handleStats)
	router.GET("/cache/stats", s.handleCacheStats)
	router.POST("/cache/clear", s.handleCacheClear)
	router.POST("/cache/invalidate", s.handleCacheInvalidate)
	router.GET("/config", s.handleConfigGet)
	router.POST("/config/reload", s.handleConfigReload)
	router.GET("/rules", s.handleRulesList)
	router.POST("/rules/add", s.handleRulesAdd)
	router.POST("/rules/remove", s.handleRulesRemove)
	router.GET("/layers", s.handleLayersList)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return corsMiddleware.Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"service": "shadowfs", "success": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"readonly": s.mount.Config.ReadOnly,
		"sources":  len(s.mount.Config.Sources),
		"layers":   s.mount.Manager.ListLayers(),
		"rules":    len(s.mount.Engine.Rules()),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"cache":   s.mount.Cache.Stats(),
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   s.mount.Cache.Stats(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mount.Cache.Clear("")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type invalidateRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, errEmptyPath)
		return
	}
	s.mount.Cache.Invalidate(cache.NamespaceAttr, req.Path)
	s.mount.Cache.Invalidate(cache.NamespaceContent, req.Path)
	s.mount.Cache.Invalidate(cache.NamespaceContent, req.Path+":transformed")
	s.mount.Cache.Invalidate(cache.NamespacePath, req.Path)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"config":  s.mount.Config,
	})
}

func (s *Server) handleConfigReload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var cfg config.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.mount.Reload(&cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleRulesList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"rules":   s.mount.Engine.Rules(),
	})
}

func (s *Server) handleRulesAdd(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var rc config.RuleConfig
	if err := json.NewDecoder(r.Body).Decode(&rc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rule, err := wiring.RuleFromConfig(rc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.mount.Engine.Add(rule); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type removeRuleRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRulesRemove(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req removeRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	removed := s.mount.Engine.Remove(req.Name)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "removed": removed})
}

func (s *Server) handleLayersList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"layers":  s.mount.Manager.ListLayers(),
	})
}
