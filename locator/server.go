// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server exposes a Service, and optionally a Refresher, over HTTP.
type Server struct {
	service   *Service
	refresher *Refresher
}

// NewServer creates a server. refresher may be nil, disabling /api/refresh.
func NewServer(service *Service, refresher *Refresher) *Server {
	return &Server{service: service, refresher: refresher}
}

// Router returns the gin engine serving the API.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	s.register(r)

	return r
}

func (s *Server) register(r gin.IRoutes) {
	r.POST("/api/nearby-locations", s.nearbyLocations)
	r.GET("/api/nearby-locations", s.nearbyLocationsQuery)
	r.GET("/api/location-types", s.locationTypes)
	r.GET("/api/companies", s.companies)
	r.GET("/api/locations/:id", s.location)
	r.GET("/api/status", s.status)
	r.POST("/api/refresh", s.refresh)
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		log.Printf("✅ listening on http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

type nearbyResponse struct {
	Success bool `json:"success"`
	*Response
}

func (s *Server) nearbyLocations(ctx *gin.Context) {
	fields := map[string]any{}

	dec := json.NewDecoder(ctx.Request.Body)
	dec.UseNumber()

	if err := dec.Decode(&fields); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "no data provided"
		}

		ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})

		return
	}

	s.answer(ctx, fields)
}

func (s *Server) nearbyLocationsQuery(ctx *gin.Context) {
	fields := map[string]any{}

	for key, values := range ctx.Request.URL.Query() {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	s.answer(ctx, fields)
}

func (s *Server) answer(ctx *gin.Context, fields map[string]any) {
	req, err := DecodeNearbyRequest(fields)
	if err == nil {
		var resp *Response

		resp, err = s.service.FindNearby(ctx.Request.Context(), req)
		if err == nil {
			ctx.JSON(http.StatusOK, nearbyResponse{Success: true, Response: resp})

			return
		}
	}

	if IsValidationError(err) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": ValidationField(err)})

		return
	}

	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) locationTypes(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"types":   s.service.Store().Current().ServiceTypes(),
	})
}

func (s *Server) companies(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"companies": s.service.Store().Current().Providers(),
	})
}

func (s *Server) location(ctx *gin.Context) {
	loc, ok := s.service.Store().Current().Get(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "location not found"})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "location": loc})
}

func (s *Server) status(ctx *gin.Context) {
	gen := s.service.Store().Current()

	var builtAt *time.Time
	if !gen.BuiltAt().IsZero() {
		t := gen.BuiltAt()
		builtAt = &t
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"generation": gen.Seq(),
		"built_at":   builtAt,
		"locations":  gen.Len(),
	})
}

func (s *Server) refresh(ctx *gin.Context) {
	if s.refresher == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "refresh is not enabled"})

		return
	}

	report, err := s.refresher.Refresh(ctx.Request.Context())

	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, gin.H{"success": true, "report": report})
	case errors.Is(err, ErrRefreshInProgress):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAllProvidersFailed):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "report": report})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
