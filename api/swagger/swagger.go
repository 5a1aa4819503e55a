package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Account Console API",
        "description": "Read-only JSON endpoints of the account console. Requests are authorised by the console session cookie.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Users", "description": "Account listing of the signed-in system"},
        {"name": "Levels", "description": "Access-level catalogue"}
    ],
    "paths": {
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "description": "Filters are cumulative. An out-of-range page is clamped and reported in meta.page_corrected.",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string", "description": "Case-insensitive match on name or e-mail"},
                    {"name": "level", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["active", "inactive"]},
                    {"name": "page", "in": "query", "type": "integer", "minimum": 1},
                    {"name": "page_size", "in": "query", "type": "integer", "minimum": 1, "maximum": 100}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UserListEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not signed in or session expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Account API failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UserEnvelope"}},
                    "401": {"description": "Not signed in or session expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/levels": {
            "get": {
                "tags": ["Levels"],
                "summary": "List access levels",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LevelListEnvelope"}},
                    "401": {"description": "Not signed in or session expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "nickname": {"type": "string"},
                "email": {"type": "string"},
                "level_id": {"type": "string"},
                "level": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "Level": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        },
        "UserListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/User"}},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {
                    "type": "object",
                    "properties": {
                        "from": {"type": "integer"},
                        "to": {"type": "integer"},
                        "page_corrected": {"type": "boolean"}
                    }
                }
            }
        },
        "UserEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/User"}
            }
        },
        "LevelListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Level"}}
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
