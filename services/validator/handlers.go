// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validator

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/openstax/response-validator/services/validator/config"
	"github.com/openstax/response-validator/services/validator/store"
)

// Handlers bundles the HTTP handlers with their dependencies.
type Handlers struct {
	service *Service
	cfg     *config.Config

	// trainLimiter throttles /train; a training run re-validates every
	// row and must not starve live scoring.
	trainLimiter *rate.Limiter
}

// NewHandlers builds the handler set.
func NewHandlers(service *Service, cfg *config.Config) *Handlers {
	return &Handlers{
		service:      service,
		cfg:          cfg,
		trainLimiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// getOrCreateRequestID returns the request's X-Request-ID, minting one when
// the client sent none.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// errorJSON writes the service's error envelope. Clients match on the
// message field, so the shape is frozen.
func errorJSON(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// HandleValidate handles GET and POST /validate.
//
// Description:
//
//	Scores one response. Parameters come from the query string, a JSON
//	body, or form fields, in that order of precedence. Absent or garbled
//	options fall back to configured defaults; validation never fails on
//	bad option input.
//
// Query/Body Parameters:
//
//	response: The free-text response (optional; absent scores as no_text)
//	uid: Question identifier, e.g. "100@4" (optional)
//	remove_stopwords, remove_nonwords: booleans
//	tag_numeric, spelling_correction: true | false | auto
//	spell_correction_max: integer correction budget
//	feature_weights_set_id: stored weight-set key (optional)
//
// Response:
//
//	200 OK: ValidationResult
//	404 Not Found: feature_weights_set_id does not exist
//
// Thread Safety: Safe for concurrent use.
func (h *Handlers) HandleValidate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleValidate")

	params := h.parseValidateParams(c)

	result, err := h.service.Validate(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, store.ErrWeightSetNotFound) {
			errorJSON(c, http.StatusNotFound, "feature_weights_set_id not found")
			return
		}
		logger.Error("validation failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "validation failed")
		return
	}

	logger.Info("validated response",
		slog.Bool("valid", result.Valid),
		slog.Bool("uid_found", result.UIDFound),
		slog.Int("corrections", result.NumSpellingCorrection),
		slog.Float64("computation_time", result.ComputationTime),
	)
	c.JSON(http.StatusOK, result)
}

// parseValidateParams merges request values over the configured defaults.
func (h *Handlers) parseValidateParams(c *gin.Context) ValidateParams {
	vals := newRequestValues(c)
	d := h.cfg.Parser

	params := ValidateParams{
		Options: ResolvedOptions{
			RemoveStopwords:    d.RemoveStopwords,
			TagNumeric:         d.TagNumeric,
			SpellingCorrection: d.SpellingCorrection,
			RemoveNonwords:     d.RemoveNonwords,
			SpellCorrectionMax: d.SpellCorrectionMax,
		},
	}

	if s, ok := vals.lookup("response"); ok {
		params.Response = &s
	}
	if s, ok := vals.lookup("uid"); ok {
		params.UID = s
	}
	if s, ok := vals.lookup("feature_weights_set_id"); ok {
		params.WeightSetID = s
	}

	boolParam(vals, "remove_stopwords", &params.Options.RemoveStopwords)
	boolParam(vals, "remove_nonwords", &params.Options.RemoveNonwords)
	tristateParam(vals, "tag_numeric", &params.Options.TagNumeric)
	tristateParam(vals, "spelling_correction", &params.Options.SpellingCorrection)
	intParam(vals, "spell_correction_max", &params.Options.SpellCorrectionMax)

	return params
}

// =============================================================================
// Request Value Helpers
// =============================================================================

// requestValues reads parameters uniformly from the query string, a JSON
// body, or form fields.
type requestValues struct {
	c    *gin.Context
	body map[string]any
}

func newRequestValues(c *gin.Context) *requestValues {
	v := &requestValues{c: c}
	if c.Request.Method == http.MethodPost && c.ContentType() == "application/json" {
		// Best effort; an unreadable body just means query-only params.
		_ = c.ShouldBindJSON(&v.body)
	}
	return v
}

// lookup returns the raw string value for name and whether it was present.
func (v *requestValues) lookup(name string) (string, bool) {
	if val, ok := v.c.GetQuery(name); ok {
		return val, true
	}
	if v.body != nil {
		if raw, ok := v.body[name]; ok {
			return stringify(raw), true
		}
	}
	if v.c.Request.Method == http.MethodPost {
		if val, ok := v.c.GetPostForm(name); ok {
			return val, true
		}
	}
	return "", false
}

func stringify(raw any) string {
	switch t := raw.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	}
	return ""
}

// boolParam overwrites dst when the parameter is present and recognizable.
func boolParam(vals *requestValues, name string, dst *bool) {
	s, ok := vals.lookup(name)
	if !ok {
		return
	}
	def := config.TristateOff
	if *dst {
		def = config.TristateOn
	}
	*dst = config.ParseTristate(s, def).Bool(*dst)
}

// tristateParam overwrites dst when the parameter is present; garbled input
// keeps the default.
func tristateParam(vals *requestValues, name string, dst *config.Tristate) {
	if s, ok := vals.lookup(name); ok {
		*dst = config.ParseTristate(s, *dst)
	}
}

func intParam(vals *requestValues, name string, dst *int) {
	if s, ok := vals.lookup(name); ok {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			*dst = n
		}
	}
}
