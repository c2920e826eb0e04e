package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the document service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
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
    <title>mdshare API docs</title>
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

// Minimal OpenAPI document for the public routes. All /api routes take a
// Bearer token.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "mdshare", "version": "v0.1.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Principal": { "type": "object", "required": ["id","email"], "properties": { "id": {"type":"string"}, "name": {"type":"string"}, "email": {"type":"string","format":"email"} } },
      "DocumentInput": { "type": "object", "required": ["title","content"], "properties": { "title": {"type":"string"}, "content": {"type":"string"}, "allowSharing": {"type":"boolean"}, "whoCanAccess": {"type":"array","items":{"$ref":"#/components/schemas/Principal"}} } },
      "Document": { "type": "object", "properties": { "id": {"type":"string"}, "title": {"type":"string"}, "content": {"type":"string"}, "ownerId": {"type":"string"}, "allowSharing": {"type":"boolean"}, "whoCanAccess": {"type":"array","items":{"$ref":"#/components/schemas/Principal"}}, "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"} } },
      "CommentInput": { "type": "object", "required": ["content"], "properties": { "content": {"type":"string"}, "user": {"$ref":"#/components/schemas/Principal"} } },
      "Comment": { "type": "object", "properties": { "id": {"type":"string"}, "documentId": {"type":"string"}, "content": {"type":"string"}, "author": {"$ref":"#/components/schemas/Principal"}, "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"}, "fields": {"type":"array","items":{"type":"object","properties":{"field":{"type":"string"},"message":{"type":"string"}}}} } }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/api/documents": {
      "get": { "summary": "List owned and shared documents", "responses": { "200": { "description": "documents" } } },
      "post": { "summary": "Create a document", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/DocumentInput"} } } }, "responses": { "201": { "description": "created" }, "400": { "description": "validation failed" }, "403": { "description": "sharing policy violation" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document", "responses": { "200": { "description": "document" }, "401": { "description": "no read access" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update a document (owner only)", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/DocumentInput"} } } }, "responses": { "200": { "description": "persisted document" }, "401": { "description": "not owner" }, "403": { "description": "sharing policy violation" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a document (owner only)", "responses": { "200": { "description": "removed document" }, "403": { "description": "not owner" }, "404": { "description": "not found" } } }
    },
    "/api/documents/{id}/share": {
      "post": { "summary": "Share with a registered user by email", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"}}} } } }, "responses": { "200": { "description": "document" }, "403": { "description": "not owner" }, "404": { "description": "document or user not found" } } }
    },
    "/api/documents/{id}/share/{userId}": {
      "delete": { "summary": "Revoke a recipient", "responses": { "200": { "description": "document" }, "403": { "description": "not owner" } } }
    },
    "/api/documents/{id}/preview": {
      "get": { "summary": "Render Markdown to HTML", "responses": { "200": { "description": "text/html" } } }
    },
    "/api/documents/{id}/export": {
      "post": { "summary": "Export to object storage", "responses": { "200": { "description": "presigned url" }, "503": { "description": "storage not configured" } } }
    },
    "/api/comments/{documentId}": {
      "get": { "summary": "List comments", "responses": { "200": { "description": "comments" } } },
      "post": { "summary": "Add a comment", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/CommentInput"} } } }, "responses": { "201": { "description": "comment" } } },
      "put": { "summary": "Edit own comment (?commentId=)", "responses": { "200": { "description": "comment" } } },
      "delete": { "summary": "Delete own comment (?commentId=)", "responses": { "200": { "description": "removed comment" } } }
    },
    "/api/users": {
      "get": { "summary": "Find a user by email (?email=)", "responses": { "200": { "description": "principal" }, "404": { "description": "unknown" } } }
    },
    "/api/auth/me": {
      "get": { "summary": "Current principal", "responses": { "200": { "description": "principal and directory record" } } }
    },
    "/api/auth/logout": {
      "post": { "summary": "Revoke the presented access token", "responses": { "200": { "description": "logged out" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "security": [], "responses": { "200": { "description": "metrics" } } } }
  }
}`
