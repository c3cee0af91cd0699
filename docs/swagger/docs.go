// Package swagger registers the OpenAPI document served at /swagger/doc.json.
// Regenerate with: swag init -g cmd/api/main.go -o docs/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/customers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "List customers",
                "parameters": [
                    {"type": "integer", "description": "Page size (default 50, max 200)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Records to skip", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CustomerPage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "description": "Registers a customer, enriching the address from its postal code, and records CustomerCreated",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Create customer",
                "parameters": [
                    {"description": "Customer creation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCustomerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CustomerView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/customers/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Get customer",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Customer ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CustomerView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "description": "Replaces the mutable fields of an active customer and records CustomerUpdated",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Update customer",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Customer ID", "name": "id", "in": "path", "required": true},
                    {"description": "Customer update request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCustomerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CustomerView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Soft-deletes an active customer and records CustomerDeleted; its history stays readable",
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Delete customer",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Customer ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/customers/{id}/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Customer audit trail",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Customer ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/EventView"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "CreateCustomerRequest": {
            "type": "object",
            "required": ["customer_type", "city", "document", "email", "name", "neighborhood", "number", "phone", "state", "street", "zip_code"],
            "properties": {
                "name": {"type": "string", "maxLength": 200, "example": "Maria Silva"},
                "document": {"type": "string", "example": "111.222.333-44"},
                "customer_type": {"type": "integer", "enum": [1, 2], "example": 1},
                "birth_date": {"type": "string", "example": "1990-03-10T00:00:00Z"},
                "phone": {"type": "string", "maxLength": 20, "example": "11999990000"},
                "email": {"type": "string", "example": "maria@example.com"},
                "zip_code": {"type": "string", "example": "01001-000"},
                "street": {"type": "string", "maxLength": 200, "example": "Praça da Sé"},
                "number": {"type": "string", "maxLength": 20, "example": "100"},
                "complement": {"type": "string", "maxLength": 100, "example": "lado ímpar"},
                "neighborhood": {"type": "string", "maxLength": 100, "example": "Sé"},
                "city": {"type": "string", "maxLength": 100, "example": "São Paulo"},
                "state": {"type": "string", "example": "SP"},
                "state_registration": {"type": "string", "maxLength": 30, "example": "110.042.490.114"},
                "state_registration_exempt": {"type": "boolean", "example": false}
            }
        },
        "UpdateCustomerRequest": {
            "type": "object",
            "required": ["city", "email", "name", "neighborhood", "number", "phone", "state", "street", "zip_code"],
            "properties": {
                "id": {"type": "string", "format": "uuid", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "name": {"type": "string", "maxLength": 200, "example": "Maria Silva"},
                "phone": {"type": "string", "maxLength": 20, "example": "11999990000"},
                "email": {"type": "string", "example": "maria@example.com"},
                "zip_code": {"type": "string", "example": "01001-000"},
                "street": {"type": "string", "maxLength": 200, "example": "Praça da Sé"},
                "number": {"type": "string", "maxLength": 20, "example": "100"},
                "complement": {"type": "string", "maxLength": 100, "example": "lado ímpar"},
                "neighborhood": {"type": "string", "maxLength": 100, "example": "Sé"},
                "city": {"type": "string", "maxLength": 100, "example": "São Paulo"},
                "state": {"type": "string", "example": "SP"},
                "state_registration": {"type": "string", "maxLength": 30, "example": "110.042.490.114"},
                "state_registration_exempt": {"type": "boolean", "example": false}
            }
        },
        "CustomerView": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "name": {"type": "string", "example": "Maria Silva"},
                "document": {"type": "string", "example": "11122233344"},
                "customer_type": {"type": "integer", "example": 1},
                "birth_date": {"type": "string", "example": "1990-03-10T00:00:00Z"},
                "phone": {"type": "string", "example": "11999990000"},
                "email": {"type": "string", "example": "maria@example.com"},
                "zip_code": {"type": "string", "example": "01001000"},
                "street": {"type": "string", "example": "Praça da Sé"},
                "number": {"type": "string", "example": "100"},
                "complement": {"type": "string", "example": "lado ímpar"},
                "neighborhood": {"type": "string", "example": "Sé"},
                "city": {"type": "string", "example": "São Paulo"},
                "state": {"type": "string", "example": "SP"},
                "state_registration": {"type": "string", "example": "110.042.490.114"},
                "state_registration_exempt": {"type": "boolean", "example": false},
                "created_by": {"type": "string", "example": "System"},
                "created_at": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "updated_by": {"type": "string", "example": "maria"},
                "updated_at": {"type": "string", "example": "2024-01-16T10:30:00Z"}
            }
        },
        "CustomerPage": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/CustomerView"}},
                "total": {"type": "integer", "example": 120},
                "limit": {"type": "integer", "example": 50},
                "offset": {"type": "integer", "example": 0}
            }
        },
        "EventView": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "customer_id": {"type": "string", "format": "uuid"},
                "event_type": {"type": "string", "example": "CustomerCreated"},
                "payload": {"type": "object"},
                "occurred_at": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "occurred_by": {"type": "string", "example": "System"}
            }
        },
        "ErrorItem": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "Customer.DuplicateDocument"},
                "message": {"type": "string", "example": "A customer with this document already exists"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "A customer with this document already exists"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/ErrorItem"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Customer Registry API",
	Description:      "Customer registry with an append-only audit trail.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
