package api

import "github.com/gin-gonic/gin"

var errorSchema = gin.H{
	"type": "object",
	"properties": gin.H{
		"error": gin.H{
			"type": "object",
			"properties": gin.H{
				"code":    gin.H{"type": "string"},
				"message": gin.H{"type": "string"},
			},
		},
	},
}

// swaggerDoc is the OpenAPI 2.0 description of the routes.
var swaggerDoc = gin.H{
	"swagger": "2.0",
	"info": gin.H{
		"title":   "Redirect chain resolver API",
		"version": "1.0.0",
	},
	"basePath": "/",
	"produces": []string{"application/json"},
	"paths": gin.H{
		"/redirection-chain": gin.H{
			"get": gin.H{
				"summary":     "List of redirection chain urls",
				"operationId": "getRedirectionChain",
				"parameters": []gin.H{{
					"name":     "url",
					"in":       "query",
					"required": true,
					"type":     "string",
				}},
				"responses": gin.H{
					"200": gin.H{
						"description": "Deduplicated chain, seed first",
						"schema": gin.H{
							"type": "object",
							"properties": gin.H{
								"data": gin.H{"type": "array", "items": gin.H{"type": "string"}},
							},
						},
					},
					"400": gin.H{"description": "Missing url", "schema": errorSchema},
					"429": gin.H{"description": "Rate limit exceeded", "schema": errorSchema},
				},
			},
		},
		"/health": gin.H{
			"get": gin.H{
				"summary":     "Liveness probe",
				"operationId": "getHealth",
				"responses": gin.H{
					"200": gin.H{"description": "Service is up"},
				},
			},
		},
	},
}
