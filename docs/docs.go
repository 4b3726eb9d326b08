// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/settlements": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settlements"],
                "summary": "List settlements",
                "parameters": [
                    {"type": "string", "description": "Only settlements on this day (YYYY-MM-DD)", "name": "date", "in": "query"},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Items per page", "name": "per_page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settlements"],
                "summary": "Create a settlement",
                "parameters": [
                    {"description": "Settlement creation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/settlement.CreateSettlementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/settlements/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settlements"],
                "summary": "Get settlement by ID",
                "parameters": [{"type": "string", "description": "Settlement ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settlements"],
                "summary": "Update a settlement",
                "parameters": [
                    {"type": "string", "description": "Settlement ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/settlement.UpdateSettlementRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}}
            },
            "delete": {
                "tags": ["settlements"],
                "summary": "Delete a settlement",
                "parameters": [{"type": "string", "description": "Settlement ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}}
            }
        },
        "/settlements/{id}/complete": {
            "post": {
                "produces": ["application/json"],
                "tags": ["settlements"],
                "summary": "Complete a settlement",
                "parameters": [{"type": "string", "description": "Settlement ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/settlements/{id}/reopen": {
            "post": {
                "produces": ["application/json"],
                "tags": ["settlements"],
                "summary": "Reopen a settlement",
                "parameters": [{"type": "string", "description": "Settlement ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/settlements/{id}/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settlements"],
                "summary": "Settlement summary",
                "parameters": [{"type": "string", "description": "Settlement ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}}
            }
        },
        "/settlements/{id}/expenses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "List expenses of a settlement",
                "parameters": [{"type": "string", "description": "Settlement ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Add an expense",
                "parameters": [
                    {"type": "string", "description": "Settlement ID", "name": "id", "in": "path", "required": true},
                    {"description": "Expense", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/expense.ExpenseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/expenses/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Get expense by ID",
                "parameters": [{"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}}
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Edit an expense",
                "parameters": [
                    {"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true},
                    {"description": "Expense", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/expense.ExpenseRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}}
            },
            "delete": {
                "tags": ["expenses"],
                "summary": "Delete an expense",
                "parameters": [{"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}}
            }
        },
        "/rates": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Look up an exchange rate",
                "parameters": [
                    {"type": "string", "description": "Day (YYYY-MM-DD), defaults to today", "name": "date", "in": "query"},
                    {"enum": ["JPY", "KRW", "USD"], "type": "string", "description": "Source currency", "name": "from", "in": "query", "required": true},
                    {"enum": ["JPY", "KRW", "USD"], "type": "string", "description": "Target currency", "name": "to", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "response.APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "response.Meta": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "per_page": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "response.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/response.APIError"},
                "meta": {"$ref": "#/definitions/response.Meta"}
            }
        },
        "settlement.CreateSettlementRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "example": "Osaka trip"},
                "date": {"type": "string", "example": "2024-05-01"},
                "participants": {"type": "array", "items": {"type": "string"}},
                "base_currency": {"type": "string", "enum": ["JPY", "KRW", "USD"], "example": "JPY"}
            }
        },
        "settlement.UpdateSettlementRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}, "date": {"type": "string"}}
        },
        "expense.ExpenseRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Dinner"},
                "amount": {"type": "number", "example": 12000},
                "currency": {"type": "string", "example": "JPY"},
                "exchange_rate": {"type": "number"},
                "payer": {"type": "string", "example": "A"},
                "split_method": {"type": "string", "enum": ["equal", "amount"], "example": "equal"},
                "manual_amounts": {"type": "object", "additionalProperties": {"type": "number"}},
                "spent_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Dutch Pay API",
	Description:      "Shared-expense settlements: record expenses in several currencies and get the transfers that settle everyone up.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
