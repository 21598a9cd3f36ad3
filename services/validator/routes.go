// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validator

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all validator routes with the router.
//
// Description:
//
//	Registers the endpoints with the given Gin router group. The group
//	should already have any required middleware applied. Paths are rooted
//	at the group, matching the service's historical URL layout.
//
// Core Endpoints:
//
//	GET  /validate - Score one response (query parameters)
//	POST /validate - Score one response (JSON or form body)
//	POST /train - Fit a feature weight set from labeled responses
//
// Feature Weight Endpoints:
//
//	GET  /datasets/feature_weights - List stored weight-set keys
//	POST /datasets/feature_weights - Import a weight set
//	GET  /datasets/feature_weights/default - Read the default set
//	PUT  /datasets/feature_weights/default - Change the default pointer
//	GET  /datasets/feature_weights/:id - Read one weight set
//
// Dataset Endpoints:
//
//	GET /datasets/books - List loaded books
//	GET /datasets/books/:vuid - Book metadata
//	GET /datasets/books/:vuid/vocabularies/*kind - Book vocabularies
//	    (bare, /domain, /innovation, /questions)
//	GET /datasets/questions/:uid - Resolved question vocabularies
//
// Health Endpoints:
//
//	GET /ping - Liveness check
//	GET /status - Service status and dataset counts
//
// Example:
//
//	handlers := validator.NewHandlers(service, cfg)
//	validator.RegisterRoutes(router.Group("/"), handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.GET("/ping", handlers.HandlePing)
	rg.GET("/status", handlers.HandleStatus)

	rg.GET("/validate", handlers.HandleValidate)
	rg.POST("/validate", handlers.HandleValidate)

	rg.POST("/train", handlers.HandleTrain)

	datasets := rg.Group("/datasets")
	{
		weights := datasets.Group("/feature_weights")
		{
			weights.GET("", handlers.HandleListWeightSets)
			weights.POST("", handlers.HandleImportWeightSet)
			weights.GET("/default", handlers.HandleGetDefaultWeightSet)
			weights.PUT("/default", handlers.HandleSetDefaultWeightSet)
			weights.GET("/:id", handlers.HandleGetWeightSet)
		}

		books := datasets.Group("/books")
		{
			books.GET("", handlers.HandleListBooks)
			books.GET("/:vuid", handlers.HandleGetBook)
			books.GET("/:vuid/vocabularies/*kind", handlers.HandleBookVocabularies)
		}

		datasets.GET("/questions/:uid", handlers.HandleGetQuestion)
	}
}
