// Package docs holds the OpenAPI description served at /swagger.
// Keep it in step with the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "API Support",
			"email": "support@returns.sacco.go.ke"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/auth/login": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Login user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.LoginRequest"
						}
					}
				]
			}
		},
		"/auth/refresh": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Refresh access token",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": false,
						"schema": {
							"$ref": "#/definitions/handlers.RefreshRequest"
						}
					}
				]
			}
		},
		"/auth/logout": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Logout user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/auth/logout-all": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Logout from all devices",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/auth/me": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "Get current user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/users": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "List users",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "",
						"name": "role",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "",
						"name": "sacco_id",
						"in": "query"
					},
					{
						"type": "string",
						"description": "",
						"name": "search",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "",
						"name": "limit",
						"in": "query"
					}
				]
			},
			"post": {
				"tags": [
					"Users"
				],
				"summary": "Create user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/services.RegisterUserInput"
						}
					}
				]
			}
		},
		"/users/{id}": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "Get user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"put": {
				"tags": [
					"Users"
				],
				"summary": "Update user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/services.UpdateUserInput"
						}
					}
				]
			}
		},
		"/users/{id}/deactivate": {
			"post": {
				"tags": [
					"Users"
				],
				"summary": "Deactivate user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/profile": {
			"get": {
				"tags": [
					"Profile"
				],
				"summary": "Get my profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"put": {
				"tags": [
					"Profile"
				],
				"summary": "Update my profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/services.UpdateProfileInput"
						}
					}
				]
			}
		},
		"/profile/password": {
			"put": {
				"tags": [
					"Profile"
				],
				"summary": "Change my password",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.ChangePasswordRequest"
						}
					}
				]
			}
		},
		"/saccos": {
			"get": {
				"tags": [
					"SACCOs"
				],
				"summary": "List SACCOs",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"tags": [
					"SACCOs"
				],
				"summary": "Create SACCO",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.SaccoRequest"
						}
					}
				]
			}
		},
		"/saccos/search": {
			"get": {
				"tags": [
					"SACCOs"
				],
				"summary": "Search SACCOs",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "",
						"name": "q",
						"in": "query"
					}
				]
			}
		},
		"/saccos/{id}": {
			"get": {
				"tags": [
					"SACCOs"
				],
				"summary": "Get SACCO",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"put": {
				"tags": [
					"SACCOs"
				],
				"summary": "Update SACCO",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.SaccoRequest"
						}
					}
				]
			},
			"delete": {
				"tags": [
					"SACCOs"
				],
				"summary": "Delete SACCO",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/saccos/{id}/toggle-status": {
			"post": {
				"tags": [
					"SACCOs"
				],
				"summary": "Toggle SACCO status",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/returns": {
			"get": {
				"tags": [
					"Returns"
				],
				"summary": "List monthly returns",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "",
						"name": "sacco_id",
						"in": "query"
					},
					{
						"type": "string",
						"description": "",
						"name": "status",
						"in": "query"
					},
					{
						"type": "string",
						"description": "YYYY-MM",
						"name": "from",
						"in": "query"
					},
					{
						"type": "string",
						"description": "YYYY-MM",
						"name": "to",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "",
						"name": "limit",
						"in": "query"
					}
				]
			},
			"post": {
				"tags": [
					"Returns"
				],
				"summary": "Create draft return",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.CreateReturnRequest"
						}
					}
				]
			}
		},
		"/returns/{id}": {
			"get": {
				"tags": [
					"Returns"
				],
				"summary": "Get return",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/returns/{id}/financial-data": {
			"put": {
				"tags": [
					"Returns"
				],
				"summary": "Attach financial data",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.FinancialData"
						}
					}
				]
			}
		},
		"/returns/{id}/documents": {
			"post": {
				"tags": [
					"Returns"
				],
				"summary": "Attach document",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"consumes": [
					"application/json",
					"multipart/form-data"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Document type (multipart)",
						"name": "document_type",
						"in": "formData"
					},
					{
						"type": "file",
						"description": "Document (multipart)",
						"name": "file",
						"in": "formData"
					}
				]
			}
		},
		"/returns/{id}/submit": {
			"post": {
				"tags": [
					"Returns"
				],
				"summary": "Submit return",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/returns/{id}/begin-review": {
			"post": {
				"tags": [
					"Returns"
				],
				"summary": "Begin review",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/returns/{id}/decide": {
			"post": {
				"tags": [
					"Returns"
				],
				"summary": "Decide return",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.DecideRequest"
						}
					}
				]
			}
		},
		"/returns/{id}/reopen": {
			"post": {
				"tags": [
					"Returns"
				],
				"summary": "Reopen for resubmission",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/compliance/saccos/{id}/rate": {
			"get": {
				"tags": [
					"Compliance"
				],
				"summary": "SACCO compliance rate",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Window in months (default 3)",
						"name": "window",
						"in": "query"
					}
				]
			}
		},
		"/compliance/saccos/{id}/summary": {
			"get": {
				"tags": [
					"Compliance"
				],
				"summary": "SACCO compliance summary",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/compliance/low": {
			"get": {
				"tags": [
					"Compliance"
				],
				"summary": "Low-compliance SACCOs",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/compliance/pending-count": {
			"get": {
				"tags": [
					"Compliance"
				],
				"summary": "Pending review count",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/compliance/summary": {
			"get": {
				"tags": [
					"Compliance"
				],
				"summary": "Ministry summary",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/compliance/report.xlsx": {
			"get": {
				"tags": [
					"Compliance"
				],
				"summary": "Compliance report (XLSX)",
				"produces": [
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		}
	},
	"definitions": {
		"response.Response": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"message": {
					"type": "string"
				},
				"data": {},
				"error": {
					"type": "string"
				}
			}
		},
		"handlers.LoginRequest": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"handlers.RefreshRequest": {
			"type": "object",
			"properties": {
				"refresh_token": {
					"type": "string"
				}
			}
		},
		"handlers.ChangePasswordRequest": {
			"type": "object",
			"properties": {
				"old_password": {
					"type": "string"
				},
				"new_password": {
					"type": "string"
				}
			}
		},
		"handlers.SaccoRequest": {
			"type": "object",
			"properties": {
				"registration_number": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"county": {
					"type": "string"
				},
				"sub_county": {
					"type": "string"
				},
				"registration_date": {
					"type": "string"
				},
				"sacco_type": {
					"type": "string"
				},
				"contact_person": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"address": {
					"type": "string"
				},
				"status": {
					"type": "string"
				}
			}
		},
		"handlers.CreateReturnRequest": {
			"type": "object",
			"properties": {
				"sacco_id": {
					"type": "integer"
				},
				"reporting_month": {
					"type": "string"
				}
			}
		},
		"handlers.DecideRequest": {
			"type": "object",
			"properties": {
				"decision": {
					"type": "string"
				},
				"notes": {
					"type": "string"
				}
			}
		},
		"services.RegisterUserInput": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				},
				"role": {
					"type": "string"
				},
				"sacco_id": {
					"type": "integer"
				}
			}
		},
		"services.UpdateUserInput": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				},
				"role": {
					"type": "string"
				},
				"sacco_id": {
					"type": "integer"
				},
				"is_active": {
					"type": "boolean"
				}
			}
		},
		"services.UpdateProfileInput": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				}
			}
		},
		"models.FinancialData": {
			"type": "object",
			"properties": {
				"share_capital": {
					"type": "string",
					"example": "0.00"
				},
				"member_deposits": {
					"type": "string",
					"example": "0.00"
				},
				"total_assets": {
					"type": "string",
					"example": "0.00"
				},
				"total_liabilities": {
					"type": "string",
					"example": "0.00"
				},
				"total_members": {
					"type": "integer"
				},
				"new_members": {
					"type": "integer"
				},
				"exited_members": {
					"type": "integer"
				},
				"total_loans_cumulative": {
					"type": "string",
					"example": "0.00"
				},
				"loans_issued_monthly": {
					"type": "string",
					"example": "0.00"
				},
				"loans_repaid_monthly": {
					"type": "string",
					"example": "0.00"
				},
				"outstanding_loan_balance": {
					"type": "string",
					"example": "0.00"
				},
				"number_of_loanees": {
					"type": "integer"
				},
				"par30": {
					"type": "string",
					"example": "0.00"
				},
				"par60": {
					"type": "string",
					"example": "0.00"
				},
				"par90": {
					"type": "string",
					"example": "0.00"
				},
				"interest_earned_monthly": {
					"type": "string",
					"example": "0.00"
				},
				"total_income_monthly": {
					"type": "string",
					"example": "0.00"
				},
				"total_expenses_monthly": {
					"type": "string",
					"example": "0.00"
				}
			}
		}
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
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "SACCO Returns API",
	Description:      "Monthly return filing and compliance monitoring for regulated SACCOs",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
