package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gostats/adapters/excel"
	"gostats/adapters/report"
	"gostats/app"
	"gostats/domain/core"
	"gostats/domain/stats"
	"gostats/internal"
	"gostats/internal/errors"
)

// Handler serves the stats service over HTTP
type Handler struct {
	service *app.StatsService
	logger  *internal.Logger
}

// NewHandler creates a handler
func NewHandler(service *app.StatsService, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{service: service, logger: logger}
}

// NewRouter builds a gin engine with every route registered
func NewRouter(service *app.StatsService, logger *internal.Logger) *gin.Engine {
	h := NewHandler(service, logger)
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())
	h.Register(router)
	return router
}

// Register mounts the routes under /api/v1
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	v1.GET("/health", h.handleHealth)

	v1.POST("/mann-whitney-u", h.testHandler(h.service.MannWhitneyU))
	v1.POST("/wilcoxon-srt", h.testHandler(h.service.WilcoxonSRT))
	v1.POST("/mann-whitney-u/facet", h.testHandler(h.service.MannWhitneyUFacet))
	v1.POST("/wilcoxon-srt/facet", h.testHandler(h.service.WilcoxonSRTFacet))

	v1.POST("/facet/within", h.facetHandler(stats.FacetWithin))
	v1.POST("/facet/across", h.facetHandler(stats.FacetAcross))
	v1.POST("/collate", h.handleCollate)

	v1.GET("/tables", h.handleListTables)
	v1.GET("/tables/:id", h.handleGetTable)
	v1.DELETE("/tables/:id", h.handleDeleteTable)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "defaults": h.service.Defaults()})
}

type testFunc func(ctx context.Context, req app.Request) (*stats.StatsTable, error)

func (h *Handler) testHandler(run testFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, errors.ValidationError("invalid request body", err))
			return
		}

		dist, err := toDistribution(&req.Distribution)
		if err != nil {
			h.fail(c, errors.FromDomain(err))
			return
		}
		against, err := toDistribution(req.AgainstEach)
		if err != nil {
			h.fail(c, errors.Wrap(err, "against_each"))
			return
		}

		table, err := run(c.Request.Context(), app.Request{
			Distribution: dist,
			AgainstEach:  against,
			Params:       req.Params,
			Persist:      req.Persist,
		})
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, table)
	}
}

func (h *Handler) facetHandler(mode stats.FacetMode) gin.HandlerFunc {
	decompose := h.service.FacetWithin
	if mode == stats.FacetAcross {
		decompose = h.service.FacetAcross
	}
	return func(c *gin.Context) {
		var req FacetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, errors.ValidationError("invalid request body", err))
			return
		}
		dist, err := toDistribution(&req.Distribution)
		if err != nil {
			h.fail(c, errors.FromDomain(err))
			return
		}
		facets, err := decompose(dist)
		if err != nil {
			h.fail(c, err)
			return
		}

		resp := FacetResponse{Mode: mode, Facets: make([]FacetPayload, len(facets))}
		for i, f := range facets {
			resp.Facets[i] = FacetPayload{Key: f.Key, Distribution: fromDistribution(f.Dist)}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *Handler) handleCollate(c *gin.Context) {
	var req CollateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// foreign schemas are rejected while decoding the tables
		if core.IsSchemaMismatch(err) || core.IsSchemaError(err) {
			h.fail(c, errors.FromDomain(err))
			return
		}
		h.fail(c, errors.ValidationError("invalid request body", err))
		return
	}
	table, err := h.service.CollateStats(c.Request.Context(), req.Tables, req.Keys, req.Persist)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *Handler) handleListTables(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		h.fail(c, errors.New(errors.CodeValidationError, "limit must be a positive integer"))
		return
	}
	summaries, err := h.service.ListTables(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": summaries})
}

// handleGetTable returns a stored table as json (default), tsv, xlsx or html
func (h *Handler) handleGetTable(c *gin.Context) {
	id, err := core.ParseTableID(c.Param("id"))
	if err != nil {
		h.fail(c, errors.ValidationError("invalid table id", err))
		return
	}
	table, err := h.service.GetTable(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		c.JSON(http.StatusOK, table)
	case "tsv":
		c.Header("Content-Disposition", `attachment; filename="`+id.String()+`.tsv"`)
		c.Header("Content-Type", "text/tab-separated-values; charset=utf-8")
		c.Status(http.StatusOK)
		if err := excel.NewTSVWriter().WriteTable(c.Writer, table); err != nil {
			h.logger.Error("[API] write tsv %s: %v", id, err)
		}
	case "xlsx":
		c.Header("Content-Disposition", `attachment; filename="`+id.String()+`.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Status(http.StatusOK)
		if err := excel.NewXLSXWriter(excel.DefaultExcelConfig()).WriteTable(c.Writer, table); err != nil {
			h.logger.Error("[API] write xlsx %s: %v", id, err)
		}
	case "html":
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.NewFormatter(report.DefaultConfig()).HTML(table))
	default:
		h.fail(c, errors.New(errors.CodeValidationError, "unknown format "+strconv.Quote(format)))
	}
}

func (h *Handler) handleDeleteTable(c *gin.Context) {
	id, err := core.ParseTableID(c.Param("id"))
	if err != nil {
		h.fail(c, errors.ValidationError("invalid table id", err))
		return
	}
	if err := h.service.DeleteTable(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// StatusFor maps an error code to an HTTP status
func StatusFor(code string) int {
	switch code {
	case errors.CodeSchemaError, errors.CodeSchemaMismatch, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeInvalidComparison, errors.CodeUnsupportedExact, errors.CodeInsufficientPairing:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeDatabaseError:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("[API] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
