// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstax/response-validator/services/validator/score"
	"github.com/openstax/response-validator/services/validator/telemetry"
	"github.com/openstax/response-validator/services/validator/train"
)

// featureExtractor adapts the service to the trainer with the request's
// parser options baked in.
type featureExtractor struct {
	service *Service
	opts    ResolvedOptions
}

func (e featureExtractor) ExtractFeatures(ctx context.Context, response, uid string) (score.FeatureVector, error) {
	return e.service.Features(ctx, response, uid, e.opts)
}

// trainOutputRow is one row of the per-sample table returned to the client.
type trainOutputRow struct {
	FreeResponse string `json:"free_response"`
	UID          string `json:"uid"`
	ValidLabel   bool   `json:"valid_label"`
	score.FeatureVector
}

// HandleTrain handles POST /train.
//
// Description:
//
//	Fits a feature weight set from labeled responses, stores the fitted
//	candidate, and returns its key, the coefficients, and the per-row
//	feature table. Each row runs the full validation pipeline, so the
//	endpoint is rate limited.
//
// Request Body:
//
//	responses: [{free_response, uid, valid_label}, ...] (required)
//	features: {feature_name: bool, ...} - include flags, default all on
//	remove_stopwords, tag_numeric, spelling_correction, remove_nonwords,
//	spell_correction_max: parser option overrides
//
// Response:
//
//	200 OK: feature_weight_set_id, intercept, nonzero coefficients,
//	        output_df (per-row table)
//	400 Bad Request: malformed rows or feature flags
//	429 Too Many Requests: rate limited
//
// Thread Safety: Safe for concurrent use.
func (h *Handlers) HandleTrain(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleTrain")

	if !h.trainLimiter.Allow() {
		telemetry.RecordTraining("rate_limited")
		errorJSON(c, http.StatusTooManyRequests, "training rate limit exceeded")
		return
	}

	var req TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.RecordTraining("bad_request")
		errorJSON(c, http.StatusBadRequest, "malformed training request: "+err.Error())
		return
	}

	rows := make([]train.Row, len(req.Responses))
	for i, r := range req.Responses {
		rows[i] = train.Row{Response: *r.FreeResponse, UID: r.UID, Label: *r.ValidLabel}
	}

	trainer := train.NewTrainer(featureExtractor{
		service: h.service,
		opts:    h.trainOptions(req),
	})
	result, err := trainer.Train(c.Request.Context(), rows, train.FeatureFlags(req.Features))
	if err != nil {
		if errors.Is(err, train.ErrEmptyBatch) ||
			errors.Is(err, train.ErrBadFeatureFlag) ||
			errors.Is(err, train.ErrNoFeatures) {
			telemetry.RecordTraining("bad_request")
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}
		telemetry.RecordTraining("error")
		logger.Error("training failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "training failed")
		return
	}

	key, err := h.service.Weights().Put(c.Request.Context(), result.WeightSet)
	if err != nil {
		telemetry.RecordTraining("error")
		logger.Error("storing trained weights failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "storing trained weights failed")
		return
	}

	table := make([]trainOutputRow, len(result.Rows))
	for i, fr := range result.Rows {
		table[i] = trainOutputRow{
			FreeResponse:  fr.Response,
			UID:           fr.UID,
			ValidLabel:    fr.Label,
			FeatureVector: fr.Features,
		}
	}

	resp := gin.H{
		"feature_weight_set_id": key,
		"output_df":             table,
	}
	for name, coef := range result.WeightSet.Wire() {
		resp[name] = coef
	}

	telemetry.RecordTraining("ok")
	logger.Info("trained feature weight set",
		slog.String("key", key),
		slog.Int("rows", len(rows)),
	)
	c.JSON(http.StatusOK, resp)
}

// trainOptions resolves the request's parser overrides over the defaults.
func (h *Handlers) trainOptions(req TrainRequest) ResolvedOptions {
	d := h.cfg.Parser
	opts := ResolvedOptions{
		RemoveStopwords:    d.RemoveStopwords,
		TagNumeric:         d.TagNumeric,
		SpellingCorrection: d.SpellingCorrection,
		RemoveNonwords:     d.RemoveNonwords,
		SpellCorrectionMax: d.SpellCorrectionMax,
	}
	if req.RemoveStopwords != nil {
		opts.RemoveStopwords = *req.RemoveStopwords
	}
	if req.TagNumeric != nil {
		opts.TagNumeric = *req.TagNumeric
	}
	if req.SpellingCorrection != nil {
		opts.SpellingCorrection = *req.SpellingCorrection
	}
	if req.RemoveNonwords != nil {
		opts.RemoveNonwords = *req.RemoveNonwords
	}
	if req.SpellCorrectionMax != nil {
		opts.SpellCorrectionMax = *req.SpellCorrectionMax
	}
	return opts
}
