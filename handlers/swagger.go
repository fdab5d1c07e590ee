package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the claims API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>claimdesk - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "claimdesk", "version": "v0.1.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } },
    "schemas": {
      "Message": { "type": "object", "properties": { "message": { "type": "string" } } },
      "Claim": { "type": "object", "properties": {
        "id": {"type":"string"}, "employeeId": {"type":"string"}, "name": {"type":"string"},
        "category": {"type":"string"}, "amount": {"type":"number"}, "date": {"type":"string","format":"date"},
        "description": {"type":"string"},
        "proof": {"type":"object","properties":{"url":{"type":"string"},"filename":{"type":"string"}}},
        "status": {"type":"string","enum":["Submitted","Approved","Rejected"]},
        "comment": {"type":"string"}, "viewedBy": {"type":"string","nullable":true},
        "viewedAt": {"type":"string","format":"date-time","nullable":true},
        "createdAt": {"type":"string","format":"date-time"} } }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/claims": {
      "post": { "summary": "Submit a claim", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"employeeId":{"type":"string"},"name":{"type":"string"},"category":{"type":"string"},"amount":{"type":"number"},"date":{"type":"string"},"description":{"type":"string"},"proofUrl":{"type":"string"}}}}}}, "responses": { "201": { "description": "{message, claimId}" }, "400": { "description": "validation error" } } },
      "get": { "summary": "List all claims (admin)", "parameters": [ { "name": "status", "in": "query", "schema": {"type":"string"} } ], "responses": { "200": { "description": "{claims: [Claim + employeeName]}" }, "403": { "description": "not an admin" } } }
    },
    "/claims/my/{employeeId}": {
      "get": { "summary": "List an employee's claims", "parameters": [ { "name": "employeeId", "in": "path", "required": true, "schema": {"type":"string"} } ], "responses": { "200": { "description": "array of Claim" } } }
    },
    "/claims/{claimId}": {
      "get": { "summary": "Get a claim", "responses": { "200": { "description": "Claim" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Edit a Submitted claim", "responses": { "200": { "description": "updated" }, "409": { "description": "claim already decided" } } },
      "delete": { "summary": "Withdraw a Submitted claim", "responses": { "200": { "description": "withdrawn" }, "409": { "description": "claim already decided" } } }
    },
    "/claims/{claimId}/proof": {
      "patch": { "summary": "Attach a receipt URL", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"proofUrl":{"type":"string"},"filename":{"type":"string"}}}}}}, "responses": { "200": { "description": "attached" } } }
    },
    "/claims/{claimId}/receipt": {
      "post": { "summary": "Upload a receipt file", "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"file":{"type":"string","format":"binary"}}}}}}, "responses": { "200": { "description": "{message, proofUrl}" }, "500": { "description": "upload failed" } } }
    },
    "/claims/{claimId}/decision": {
      "patch": { "summary": "Approve or reject a claim (admin)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"status":{"type":"string","enum":["Approved","Rejected"]},"comment":{"type":"string","maxLength":50},"adminId":{"type":"string"}}}}}}, "responses": { "200": { "description": "decided" }, "400": { "description": "validation error" }, "403": { "description": "not an admin" }, "409": { "description": "claim already decided" } } }
    },
    "/users": {
      "post": { "summary": "Create a user (admin)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"firstName":{"type":"string"},"lastName":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"},"role":{"type":"string","enum":["admin","employee"]}}}}}}, "responses": { "201": { "description": "created" }, "409": { "description": "email already in use" } } }
    },
    "/users/me": { "get": { "summary": "Current user's profile", "responses": { "200": { "description": "profile" }, "404": { "description": "no profile" } } } },
    "/users/{uid}/role": { "get": { "summary": "Role of a user", "security": [], "responses": { "200": { "description": "{role}" }, "404": { "description": "not found" } } } },
    "/auth/logout": { "post": { "summary": "Revoke the current access token", "responses": { "200": { "description": "logged out" } } } },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
