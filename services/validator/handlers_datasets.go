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
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/openstax/response-validator/services/validator/score"
	"github.com/openstax/response-validator/services/validator/store"
)

// HandlePing handles GET /ping.
func (h *Handlers) HandlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// HandleStatus handles GET /status.
//
// Response:
//
//	200 OK: start time, version, dataset counts, weight-set keys.
func (h *Handlers) HandleStatus(c *gin.Context) {
	ctx := c.Request.Context()

	books, questions := h.service.Datasets().Counts()

	keys, err := h.service.Weights().List(ctx)
	if err != nil {
		slog.Error("listing weight sets failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "status unavailable")
		return
	}
	defaultKey, err := h.service.Weights().DefaultKey(ctx)
	if err != nil && !errors.Is(err, store.ErrNoDefaultWeightSet) {
		slog.Error("reading default weight set failed", slog.Any("error", err))
		errorJSON(c, http.StatusInternalServerError, "status unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"started_at": h.service.StartedAt().UTC().Format("2006-01-02 15:04:05.000000"),
		"version":    Version,
		"datasets": gin.H{
			"books":     books,
			"questions": questions,
		},
		"feature_weights": gin.H{
			"default_id":             defaultKey,
			"feature_weight_set_ids": keys,
		},
	})
}

// HandleListBooks handles GET /datasets/books.
func (h *Handlers) HandleListBooks(c *gin.Context) {
	books := h.service.Datasets().Books()
	out := make([]gin.H, 0, len(books))
	for _, b := range books {
		out = append(out, gin.H{"name": b.Name, "vuid": b.VUID})
	}
	c.JSON(http.StatusOK, out)
}

// HandleGetBook handles GET /datasets/books/:vuid.
//
// Response:
//
//	200 OK: book metadata and vocabulary sizes
//	404 Not Found: unknown vuid
func (h *Handlers) HandleGetBook(c *gin.Context) {
	vuid := c.Param("vuid")
	book, ok := h.service.Datasets().Book(vuid)
	if !ok {
		errorJSON(c, http.StatusNotFound, "book not found")
		return
	}

	innovation := h.service.Datasets().BookInnovation(vuid)
	questions := h.service.Datasets().BookQuestions(vuid)

	c.JSON(http.StatusOK, gin.H{
		"name":                  book.Name,
		"vuid":                  book.VUID,
		"feature_weights_id":    book.FeatureWeightsID,
		"domain_word_count":     book.DomainWords.Len(),
		"innovation_word_count": innovation.Len(),
		"question_count":        len(questions),
	})
}

// HandleBookVocabularies handles GET /datasets/books/:vuid/vocabularies and
// the /domain, /innovation, and /questions refinements.
func (h *Handlers) HandleBookVocabularies(c *gin.Context) {
	vuid := c.Param("vuid")
	book, ok := h.service.Datasets().Book(vuid)
	if !ok {
		errorJSON(c, http.StatusNotFound, "book not found")
		return
	}

	switch c.Param("kind") {
	case "", "/":
		c.JSON(http.StatusOK, gin.H{
			"domain":     sortedWords(book.DomainWords),
			"innovation": sortedWords(h.service.Datasets().BookInnovation(vuid)),
		})
	case "/domain":
		c.JSON(http.StatusOK, sortedWords(book.DomainWords))
	case "/innovation":
		c.JSON(http.StatusOK, sortedWords(h.service.Datasets().BookInnovation(vuid)))
	case "/questions":
		c.JSON(http.StatusOK, questionRows(h.service.Datasets().BookQuestions(vuid)))
	default:
		errorJSON(c, http.StatusNotFound, "unknown vocabulary")
	}
}

// HandleGetQuestion handles GET /datasets/questions/:uid.
//
// Description:
//
//	Resolves the uid the same way /validate does (exact match, then qid
//	fallback to the highest version) and returns the vocabulary bundle.
//
// Response:
//
//	200 OK: resolved question vocabularies
//	404 Not Found: uid cannot be resolved
func (h *Handlers) HandleGetQuestion(c *gin.Context) {
	uid := c.Param("uid")
	res, ok := h.service.Datasets().Resolve(uid)
	if !ok {
		errorJSON(c, http.StatusNotFound, "question not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uid_used":         res.UIDUsed,
		"contains_number":  res.ContainsNumber,
		"stem_words":       sortedWords(res.Stem),
		"option_words":     sortedWords(res.Option),
		"innovation_words": sortedWords(res.Innovation),
		"domain_words":     sortedWords(res.Domain),
	})
}

func sortedWords(s score.Set) []string {
	words := s.Words()
	sort.Strings(words)
	if words == nil {
		words = []string{}
	}
	return words
}

func questionRows(questions []*store.Question) []gin.H {
	sort.Slice(questions, func(i, j int) bool { return questions[i].UID < questions[j].UID })
	out := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		out = append(out, gin.H{
			"uid":             q.UID,
			"qid":             q.QID,
			"cvuid":           q.CVUID,
			"contains_number": q.ContainsNumber,
			"stem_words":      sortedWords(q.StemWords),
			"option_words":    sortedWords(q.OptionWords),
		})
	}
	return out
}
