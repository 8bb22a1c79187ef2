// Package docs registers the OpenAPI description served under /swagger.
// The document covers the forwarding surface only: the backend's own endpoints
// are not described here.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/{path}": {
            "get": {
                "description": "Forwarded to BACKEND_URL/api/{path} with the query string. Only Authorization and Cookie are passed on. JSON bodies are compacted, multipart bodies re-encoded, anything else passed through. Set-Cookie headers from the backend are returned.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["proxy"],
                "summary": "Forward to the backend",
                "parameters": [
                    {"type": "string", "description": "Backend path", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Backend JSON, status preserved"},
                    "400": {"description": "Invalid JSON or multipart body", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "404": {"description": "Empty path", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "405": {"description": "Method not proxied", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Backend unreachable or not JSON", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Forwarded to BACKEND_URL/api/{path} with the query string. Only Authorization and Cookie are passed on. JSON bodies are compacted, multipart bodies re-encoded, anything else passed through. Set-Cookie headers from the backend are returned.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["proxy"],
                "summary": "Forward to the backend",
                "parameters": [
                    {"type": "string", "description": "Backend path", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Backend JSON, status preserved"},
                    "400": {"description": "Invalid JSON or multipart body", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "404": {"description": "Empty path", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "405": {"description": "Method not proxied", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Backend unreachable or not JSON", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            },
            "put": {
                "description": "Forwarded to BACKEND_URL/api/{path} with the query string. Only Authorization and Cookie are passed on. JSON bodies are compacted, multipart bodies re-encoded, anything else passed through. Set-Cookie headers from the backend are returned.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["proxy"],
                "summary": "Forward to the backend",
                "parameters": [
                    {"type": "string", "description": "Backend path", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Backend JSON, status preserved"},
                    "400": {"description": "Invalid JSON or multipart body", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "404": {"description": "Empty path", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "405": {"description": "Method not proxied", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Backend unreachable or not JSON", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Forwarded to BACKEND_URL/api/{path} with the query string. Only Authorization and Cookie are passed on. JSON bodies are compacted, multipart bodies re-encoded, anything else passed through. Set-Cookie headers from the backend are returned.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["proxy"],
                "summary": "Forward to the backend",
                "parameters": [
                    {"type": "string", "description": "Backend path", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Backend JSON, status preserved"},
                    "400": {"description": "Invalid JSON or multipart body", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "404": {"description": "Empty path", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "405": {"description": "Method not proxied", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Backend unreachable or not JSON", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/api/uploads/{path}": {
            "get": {
                "description": "Served byte for byte from BACKEND_URL/uploads/{path}.",
                "produces": ["application/octet-stream"],
                "tags": ["proxy"],
                "summary": "Uploaded files",
                "parameters": [
                    {"type": "string", "description": "File path", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "File content"},
                    "500": {"description": "Backend unreachable", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "description": "Latest result of the periodic backend probe.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Backend reachability",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/background.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/background.HealthResponse"}}
                }
            }
        },
        "/healthz/events": {
            "get": {
                "description": "Server-sent events, one \"probe\" event per backend check.",
                "produces": ["text/event-stream"],
                "tags": ["health"],
                "summary": "Backend reachability stream",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/background.Probe"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "apperror.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Failed to connect to backend"},
                "message": {"type": "string", "example": "dial tcp 127.0.0.1:4000: connect: connection refused"},
                "contentType": {"type": "string", "example": "text/html; charset=utf-8"},
                "preview": {"type": "string", "example": "<!DOCTYPE html><html>..."},
                "details": {"type": "string"},
                "backend": {"type": "string", "example": "http://localhost:4000"}
            }
        },
        "background.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "probe": {"$ref": "#/definitions/background.Probe"}
            }
        },
        "background.Probe": {
            "type": "object",
            "properties": {
                "backend": {"type": "string"},
                "reachable": {"type": "boolean"},
                "status": {"type": "integer"},
                "latencyMs": {"type": "integer"},
                "error": {"type": "string"},
                "checkedAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type 'Bearer YOUR_JWT_TOKEN'; the token is passed to the backend untouched",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Academia API gateway",
	Description:      "Forwarding proxy in front of the academy backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
