package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Alumni Directory API",
        "description": "Verified alumni listing with department, course and year filters",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Directory", "description": "Alumni cards and profiles"},
        {"name": "Ops", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check against postgres and redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/home": {
            "get": {
                "tags": ["Directory"],
                "summary": "Directory page with the unfiltered listing",
                "produces": ["text/html"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "HTML page"}
                }
            }
        },
        "/filter_cards": {
            "post": {
                "tags": ["Directory"],
                "summary": "Filter directory cards",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FilterRequest"}}
                ],
                "responses": {
                    "200": {
                        "description": "Matching cards in server order; empty array when nothing matched",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/Card"}}
                    },
                    "400": {"description": "Malformed or invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/static/listing.js": {
            "get": {
                "tags": ["Directory"],
                "summary": "Browser client that drives the listing from the home page",
                "produces": ["text/javascript"],
                "responses": {
                    "200": {"description": "JavaScript source"}
                }
            }
        },
        "/login": {
            "get": {
                "tags": ["Auth"],
                "summary": "Sign-in form",
                "produces": ["text/html"],
                "responses": {
                    "200": {"description": "HTML page"}
                }
            },
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange credentials for a session token",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json", "text/html"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued and session cookie set", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "303": {"description": "Form post accepted, redirect to /home"},
                    "401": {"description": "Invalid email or password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Account not verified yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Clear the session cookie",
                "responses": {
                    "204": {"description": "Session cleared"},
                    "303": {"description": "Form post, redirect to /login"}
                }
            }
        },
        "/profile/{id}": {
            "get": {
                "tags": ["Directory"],
                "summary": "Get a directory profile",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or unverified user", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "FilterRequest": {
            "type": "object",
            "properties": {
                "department": {"type": "string", "maxLength": 20},
                "course": {"type": "string", "maxLength": 20},
                "year_of_passing": {"type": "string", "maxLength": 4},
                "search_term": {"type": "string", "maxLength": 255}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "format": "email"},
                "password": {"type": "string"}
            }
        },
        "Card": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "course": {"type": "string"},
                "department": {"type": "string"},
                "passing_year": {"type": "string"},
                "user_image": {"type": "string", "description": "base64-encoded image bytes"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
