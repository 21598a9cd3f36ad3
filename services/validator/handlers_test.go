// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, cfg := newTestService(t)
	handlers := NewHandlers(svc, cfg)

	router := gin.New()
	RegisterRoutes(router.Group("/"), handlers)
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func TestHandleValidateGet(t *testing.T) {
	router, _ := newTestRouter(t)

	q := url.Values{}
	q.Set("response", "gravity energy")
	q.Set("uid", "100@1")
	w, body := doJSON(t, router, http.MethodGet, "/validate?"+q.Encode(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, true, body["uid_found"])
	assert.Equal(t, "100@1", body["uid_used"])
	assert.Equal(t, "gravity energy", body["response"])
	assert.EqualValues(t, 1, body["domain_word_count"])
}

func TestHandleValidatePostJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/validate", gin.H{
		"response":            "gravity",
		"uid":                 "100@1",
		"spelling_correction": false,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, false, body["spelling_correction"])
	assert.Equal(t, false, body["spelling_correction_used"])
}

func TestHandleValidateAbsentResponseIsNull(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet, "/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	val, present := body["response"]
	assert.True(t, present)
	assert.Nil(t, val)
	assert.Equal(t, "no_text", body["processed_response"])
	assert.Equal(t, false, body["valid"])
}

func TestHandleValidateEmptyTristateMeansOff(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet,
		"/validate?response=gravtiy&uid=100%401&spelling_correction=", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["spelling_correction"])
	assert.Equal(t, false, body["valid"], "no rescue with correction forced off")
}

func TestHandleValidateGarbledTristateKeepsDefault(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet,
		"/validate?response=gravity&tag_numeric=banana", nil)

	require.Equal(t, http.StatusOK, w.Code)
	// Default is auto; with no question resolved it reads true.
	assert.Equal(t, true, body["tag_numeric"])
	assert.Equal(t, "auto", body["tag_numeric_input"])
}

func TestHandleValidateUnknownWeightSet(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet,
		"/validate?response=gravity&feature_weights_set_id=b8597bbe-0000-0000-0000-000000000000", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "feature_weights_set_id not found", body["message"])
}

func TestHandleWeightSetLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	// Import.
	w, body := doJSON(t, router, http.MethodPost, "/datasets/feature_weights", gin.H{
		"stem_word_count":       2.2,
		"option_word_count":     0,
		"innovation_word_count": 0,
		"domain_word_count":     2.5,
		"bad_word_count":        -3,
		"common_word_count":     0.7,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id, ok := body["feature_weight_set_id"].(string)
	require.True(t, ok)

	// Read back; zero coefficients are off the wire, intercept present.
	w, body = doJSON(t, router, http.MethodGet, "/datasets/feature_weights/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	weights := body["feature_weights"].(map[string]any)
	assert.Contains(t, weights, "intercept")
	assert.Contains(t, weights, "stem_word_count")
	assert.NotContains(t, weights, "option_word_count")

	// List includes both the seed and the import.
	w, body = doJSON(t, router, http.MethodGet, "/datasets/feature_weights", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ids := body["feature_weight_set_ids"].([]any)
	assert.Len(t, ids, 2)

	// Change the default and read it back.
	w, _ = doJSON(t, router, http.MethodPut, "/datasets/feature_weights/default", gin.H{
		"feature_weights_set_id": id,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, router, http.MethodGet, "/datasets/feature_weights/default", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, body["default_id"])
}

func TestHandleImportWeightSetBadKeys(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/datasets/feature_weights", gin.H{
		"stem_word_count": 1.0,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Incomplete or incorrect feature weight keys", body["message"])
}

func TestHandleSetDefaultUnknownKey(t *testing.T) {
	router, _ := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPut, "/datasets/feature_weights/default", gin.H{
		"feature_weights_set_id": "b8597bbe-0000-0000-0000-000000000000",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleTrain(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/train", gin.H{
		"responses": []gin.H{
			{"free_response": "gravity energy response", "uid": "100@1", "valid_label": true},
			{"free_response": "gravity energy", "uid": "100@1", "valid_label": true},
			{"free_response": "zzzzzz qqqqqq", "uid": "100@1", "valid_label": false},
			{"free_response": "qqqqqq", "uid": "100@1", "valid_label": false},
		},
		"spelling_correction": false,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["feature_weight_set_id"])
	assert.Contains(t, body, "intercept")

	rows := body["output_df"].([]any)
	require.Len(t, rows, 4)
	first := rows[0].(map[string]any)
	assert.Equal(t, "gravity energy response", first["free_response"])
	assert.Equal(t, true, first["valid_label"])
}

func TestHandleTrainMalformedRows(t *testing.T) {
	router, _ := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/train", gin.H{
		"responses": []gin.H{
			{"free_response": "gravity"}, // missing valid_label
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Version, body["version"])

	datasets := body["datasets"].(map[string]any)
	assert.EqualValues(t, 1, datasets["books"])
	assert.EqualValues(t, 2, datasets["questions"])
}

func TestHandlePing(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", body["message"])
}

func TestHandleDatasetBrowsing(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/datasets/books", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var books []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 1)
	assert.Equal(t, "Biology", books[0]["name"])

	w, body := doJSON(t, router, http.MethodGet, "/datasets/books/"+testBookVUID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["domain_word_count"])

	w, body = doJSON(t, router, http.MethodGet, "/datasets/questions/100@1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100@1", body["uid_used"])

	w, _ = doJSON(t, router, http.MethodGet, "/datasets/questions/999@1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/datasets/books/no-such-book", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
