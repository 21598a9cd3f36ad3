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

	"github.com/gin-gonic/gin"

	"github.com/openstax/response-validator/services/validator/score"
	"github.com/openstax/response-validator/services/validator/store"
)

// HandleListWeightSets handles GET /datasets/feature_weights.
//
// Response:
//
//	200 OK: {"default_id": key, "feature_weight_set_ids": [keys]}
func (h *Handlers) HandleListWeightSets(c *gin.Context) {
	ctx := c.Request.Context()

	keys, err := h.service.Weights().List(ctx)
	if err != nil {
		slog.Error("listing weight sets failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "listing feature weight sets failed")
		return
	}
	defaultKey, err := h.service.Weights().DefaultKey(ctx)
	if err != nil && !errors.Is(err, store.ErrNoDefaultWeightSet) {
		slog.Error("reading default weight set failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "reading default feature weight set failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"default_id":             defaultKey,
		"feature_weight_set_ids": keys,
	})
}

// HandleImportWeightSet handles POST /datasets/feature_weights.
//
// Description:
//
//	Validates and stores a weight set. The payload must carry exactly the
//	six feature keys; intercept is optional. Importing an identical set
//	returns the existing key.
//
// Response:
//
//	201 Created: {"feature_weight_set_id": key}
//	400 Bad Request: bad key set
func (h *Handlers) HandleImportWeightSet(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleImportWeightSet")

	var raw map[string]float64
	if err := c.ShouldBindJSON(&raw); err != nil {
		errorJSON(c, http.StatusBadRequest, score.IncompleteKeysMessage)
		return
	}

	ws, err := score.NewWeightSet(raw)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, score.IncompleteKeysMessage)
		return
	}

	key, err := h.service.Weights().Put(c.Request.Context(), ws)
	if err != nil {
		logger.Error("storing weight set failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "storing feature weight set failed")
		return
	}

	logger.Info("imported feature weight set", slog.String("key", key))
	c.JSON(http.StatusCreated, gin.H{"feature_weight_set_id": key})
}

// HandleGetWeightSet handles GET /datasets/feature_weights/:id.
//
// Response:
//
//	200 OK: {"feature_weight_set_id": key, "feature_weights": {...}}
//	404 Not Found: unknown key
func (h *Handlers) HandleGetWeightSet(c *gin.Context) {
	id := c.Param("id")

	ws, err := h.service.Weights().Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrWeightSetNotFound) {
			errorJSON(c, http.StatusNotFound, "feature_weights_set_id not found")
			return
		}
		slog.Error("reading weight set failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "reading feature weight set failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feature_weight_set_id": id,
		"feature_weights":       ws.Wire(),
	})
}

// HandleGetDefaultWeightSet handles GET /datasets/feature_weights/default.
//
// Response:
//
//	200 OK: {"default_id": key, "feature_weights": {...}}
//	404 Not Found: no default configured
func (h *Handlers) HandleGetDefaultWeightSet(c *gin.Context) {
	key, ws, err := h.service.Weights().GetDefault(c.Request.Context())
	if err != nil {
		if errors.Is(err, store.ErrNoDefaultWeightSet) {
			errorJSON(c, http.StatusNotFound, "no default feature weight set")
			return
		}
		slog.Error("reading default weight set failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "reading default feature weight set failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"default_id":      key,
		"feature_weights": ws.Wire(),
	})
}

// HandleSetDefaultWeightSet handles PUT /datasets/feature_weights/default.
//
// Request Body:
//
//	{"feature_weights_set_id": key}
//
// Response:
//
//	200 OK: {"default_id": key}
//	400 Bad Request: missing key
//	404 Not Found: key does not name a stored set
func (h *Handlers) HandleSetDefaultWeightSet(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSetDefaultWeightSet")

	var req SetDefaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "feature_weights_set_id is required")
		return
	}

	err := h.service.Weights().SetDefault(c.Request.Context(), req.FeatureWeightsSetID)
	if err != nil {
		if errors.Is(err, store.ErrWeightSetNotFound) {
			errorJSON(c, http.StatusNotFound, "feature_weights_set_id not found")
			return
		}
		logger.Error("setting default weight set failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "setting default feature weight set failed")
		return
	}

	logger.Info("default weight set changed", slog.String("key", req.FeatureWeightsSetID))
	c.JSON(http.StatusOK, gin.H{"default_id": req.FeatureWeightsSetID})
}
