// Package docs holds the OpenAPI document of the widget API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "DEFENDHUB Secure Operations",
            "email": "secure@defendhub.ng"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/widget/sessions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["widget"],
                "summary": "Create a widget session",
                "parameters": [
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/models.CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.CreateSessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/widget/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["widget"],
                "summary": "Get the state of a widget session",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WidgetState"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["widget"],
                "summary": "Stop and discard a widget session",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/widget/sessions/{id}/visibility": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["widget"],
                "summary": "Apply a visibility trigger",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.VisibilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WidgetState"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/widget/sessions/{id}/open": {
            "post": {
                "tags": ["widget"],
                "summary": "Fire the external open-chat signal",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/widget/sessions/{id}/input": {
            "put": {
                "consumes": ["application/json"],
                "tags": ["widget"],
                "summary": "Replace the input box contents",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.InputRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/widget/sessions/{id}/submit": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["widget"],
                "summary": "Submit the input (or the given text)",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/models.SubmitRequest"}}
                ],
                "responses": {
                    "200": {"description": "Reply appended (wait=true)", "schema": {"$ref": "#/definitions/models.SubmitResponse"}},
                    "202": {"description": "Accepted or ignored", "schema": {"$ref": "#/definitions/models.SubmitResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "504": {"description": "Reply not ready in time", "schema": {"$ref": "#/definitions/models.SubmitResponse"}}
                }
            }
        },
        "/widget/sessions/{id}/connectivity": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["widget"],
                "summary": "Report browser connectivity",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ConnectivityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WidgetState"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/widget/sessions/{id}/messages/{messageID}/action": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["widget"],
                "summary": "Activate the navigation action of a message",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "messageID", "in": "path", "required": true},
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/models.ActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ActionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/widget/sessions/{id}/events": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["widget"],
                "summary": "Stream widget events (SSE)",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Event stream"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/widget/sessions/{id}/ws": {
            "get": {
                "tags": ["widget"],
                "summary": "Live widget channel (WebSocket)",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/contact": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contact"],
                "summary": "Submit a contact inquiry",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ContactRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.ContactResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.Action": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "models.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "text": {"type": "string"},
                "sender": {"type": "string", "enum": ["user", "bot"]},
                "timestamp": {"type": "string", "format": "date-time"},
                "action": {"$ref": "#/definitions/models.Action"}
            }
        },
        "models.WidgetState": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "visibility": {"type": "string", "enum": ["closed", "open", "minimized"]},
                "composing": {"type": "boolean"},
                "online": {"type": "boolean"},
                "input": {"type": "string"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/models.Message"}}
            }
        },
        "models.CreateSessionRequest": {
            "type": "object",
            "properties": {
                "online": {"type": "boolean"}
            }
        },
        "models.CreateSessionResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "state": {"$ref": "#/definitions/models.WidgetState"}
            }
        },
        "models.VisibilityRequest": {
            "type": "object",
            "required": ["trigger"],
            "properties": {
                "trigger": {"type": "string", "enum": ["open", "minimize", "restore", "close"]}
            }
        },
        "models.InputRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
            }
        },
        "models.SubmitRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "wait": {"type": "boolean"}
            }
        },
        "models.SubmitResponse": {
            "type": "object",
            "properties": {
                "accepted": {"type": "boolean"},
                "user_message": {"$ref": "#/definitions/models.Message"},
                "bot_message": {"$ref": "#/definitions/models.Message"}
            }
        },
        "models.ConnectivityRequest": {
            "type": "object",
            "properties": {
                "online": {"type": "boolean"}
            }
        },
        "models.ActionRequest": {
            "type": "object",
            "properties": {
                "narrow_viewport": {"type": "boolean"}
            }
        },
        "models.ActionResponse": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "visibility": {"type": "string"}
            }
        },
        "models.ContactRequest": {
            "type": "object",
            "required": ["name", "email", "message"],
            "properties": {
                "name": {"type": "string", "maxLength": 200},
                "email": {"type": "string", "format": "email"},
                "service": {"type": "string"},
                "message": {"type": "string", "maxLength": 5000}
            }
        },
        "models.ContactResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Sentinel Widget API",
	Description:      "Conversation sessions for the DEFENDHUB Sentinel AI chat widget.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
