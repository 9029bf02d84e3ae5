// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "description": "Create an inactive account, or reuse a pending one, and email a confirmation code",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}
                ],
                "responses": {
                    "200": {"description": "Verification code sent", "schema": {"$ref": "#/definitions/handlers.RegisterResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/register/check": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Confirm a registration code",
                "parameters": [
                    {"description": "Email and code", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CheckCodeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Registered", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}},
                    "400": {"description": "Code expired or incorrect", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/forgot-password": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Request a password reset code",
                "parameters": [
                    {"description": "Account email", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ForgotPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "Code sent", "schema": {"$ref": "#/definitions/handlers.EmailStatusResponse"}},
                    "400": {"description": "Invalid input or unknown email", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/verify-otp": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Verify a password reset code",
                "parameters": [
                    {"description": "Email and code", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CheckCodeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Correct code, reset token issued", "schema": {"$ref": "#/definitions/handlers.EmailStatusResponse"}},
                    "400": {"description": "Code expired or incorrect", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Set a new password",
                "parameters": [
                    {"description": "Email, new password and reset token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ResetPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "Password updated", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}},
                    "403": {"description": "Reset not verified", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "423": {"description": "Account locked", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Rotate tokens",
                "parameters": [
                    {"description": "Refresh token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "New tokens", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Get user profile",
                "responses": {
                    "200": {"description": "User profile", "schema": {"$ref": "#/definitions/handlers.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/expenses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "List expenses",
                "parameters": [
                    {"enum": ["income", "expense"], "type": "string", "description": "Filter by type", "name": "type", "in": "query"},
                    {"type": "string", "description": "Filter by category ID", "name": "category", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Items per page (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Paginated expenses", "schema": {"$ref": "#/definitions/handlers.ExpenseListResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Create an expense",
                "parameters": [
                    {"description": "Expense details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateExpenseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Expense created", "schema": {"$ref": "#/definitions/handlers.ExpenseResponse"}},
                    "400": {"description": "Invalid input or category type mismatch", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/expenses/balance": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Get balance",
                "responses": {
                    "200": {"description": "Balance", "schema": {"$ref": "#/definitions/handlers.BalanceResponse"}}
                }
            }
        },
        "/expenses/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Get expense by ID",
                "parameters": [{"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Expense details", "schema": {"$ref": "#/definitions/handlers.ExpenseResponse"}},
                    "404": {"description": "Expense not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Update an expense",
                "parameters": [
                    {"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to update", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateExpenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Expense updated", "schema": {"$ref": "#/definitions/handlers.ExpenseResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Update an expense",
                "parameters": [
                    {"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to update", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateExpenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Expense updated", "schema": {"$ref": "#/definitions/handlers.ExpenseResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Delete an expense",
                "parameters": [{"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Deleted expense", "schema": {"$ref": "#/definitions/handlers.ExpenseResponse"}}
                }
            }
        },
        "/category/{kind}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "List categories by type",
                "parameters": [{"enum": ["income", "expense"], "type": "string", "description": "Category type", "name": "kind", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Categories", "schema": {"type": "array", "items": {"$ref": "#/definitions/handlers.CategoryResponse"}}}
                }
            }
        },
        "/admin/category": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List all categories",
                "responses": {"200": {"description": "Paginated categories"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create a category",
                "parameters": [
                    {"description": "Category details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateCategoryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Category created", "schema": {"$ref": "#/definitions/handlers.CategoryResponse"}}
                }
            }
        },
        "/admin/category/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Update a category",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to update", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateCategoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "Category updated", "schema": {"$ref": "#/definitions/handlers.CategoryResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Delete a category",
                "parameters": [{"type": "string", "description": "Category ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "Category deleted"}}
            }
        }
    },
    "definitions": {
        "handlers.RegisterRequest": {"type": "object", "required": ["fullname", "email", "password"], "properties": {"fullname": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}},
        "handlers.CheckCodeRequest": {"type": "object", "required": ["email", "code"], "properties": {"email": {"type": "string"}, "code": {"type": "integer"}}},
        "handlers.ForgotPasswordRequest": {"type": "object", "required": ["email"], "properties": {"email": {"type": "string"}}},
        "handlers.ResetPasswordRequest": {"type": "object", "required": ["email", "password", "reset_token"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "reset_token": {"type": "string"}}},
        "handlers.LoginRequest": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "handlers.RefreshRequest": {"type": "object", "required": ["refresh_token"], "properties": {"refresh_token": {"type": "string"}}},
        "handlers.RegisterResponse": {"type": "object", "properties": {"status": {"type": "integer"}, "message": {"type": "string"}, "data": {"type": "object"}}},
        "handlers.StatusResponse": {"type": "object", "properties": {"status": {"type": "integer"}, "message": {"type": "string"}}},
        "handlers.EmailStatusResponse": {"type": "object", "properties": {"status": {"type": "integer"}, "message": {"type": "string"}, "email": {"type": "string"}, "reset_token": {"type": "string"}}},
        "handlers.UserResponse": {"type": "object", "properties": {"id": {"type": "string"}, "email": {"type": "string"}, "fullname": {"type": "string"}, "is_staff": {"type": "boolean"}}},
        "handlers.AuthResponse": {"type": "object", "properties": {"access_token": {"type": "string"}, "refresh_token": {"type": "string"}, "user": {"$ref": "#/definitions/handlers.UserResponse"}}},
        "handlers.CategoryResponse": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "type": {"type": "string"}, "icon": {"type": "string"}}},
        "handlers.CreateCategoryRequest": {"type": "object", "required": ["name", "type"], "properties": {"name": {"type": "string"}, "type": {"type": "string", "enum": ["income", "expense"]}, "icon": {"type": "string"}}},
        "handlers.UpdateCategoryRequest": {"type": "object", "properties": {"name": {"type": "string"}, "type": {"type": "string", "enum": ["income", "expense"]}, "icon": {"type": "string"}}},
        "handlers.CreateExpenseRequest": {"type": "object", "required": ["amount", "type"], "properties": {"amount": {"type": "string", "example": "12.50"}, "type": {"type": "string", "enum": ["income", "expense"]}, "category": {"type": "string"}, "description": {"type": "string"}}},
        "handlers.UpdateExpenseRequest": {"type": "object", "properties": {"amount": {"type": "string", "example": "12.50"}, "type": {"type": "string", "enum": ["income", "expense"]}, "category": {"type": "string"}, "description": {"type": "string"}}},
        "handlers.ExpenseResponse": {"type": "object", "properties": {"id": {"type": "string"}, "amount": {"type": "number"}, "type": {"type": "string"}, "description": {"type": "string"}, "category": {"$ref": "#/definitions/handlers.CategoryResponse"}, "created_at": {"type": "string"}}},
        "handlers.ExpenseListResponse": {"type": "object", "properties": {"status": {"type": "integer"}, "expenses": {"type": "array", "items": {"$ref": "#/definitions/handlers.ExpenseResponse"}}, "page": {"type": "integer"}, "page_size": {"type": "integer"}, "total_items": {"type": "integer"}, "total_pages": {"type": "integer"}}},
        "handlers.BalanceResponse": {"type": "object", "properties": {"status": {"type": "integer"}, "total": {"type": "number"}, "income_sum": {"type": "number"}, "expense_sum": {"type": "number"}, "net": {"type": "number"}}},
        "handlers.ErrorDetail": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "fields": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}}},
        "handlers.ErrorResponse": {"type": "object", "properties": {"error": {"$ref": "#/definitions/handlers.ErrorDetail"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Moneta API",
	Description:      "Moneta is a personal finance backend: email-confirmed accounts, income and expense records, and balances.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
