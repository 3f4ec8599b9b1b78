// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/registrations": {
            "get": {"tags": ["registrations"], "summary": "List registrations", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "region_id", "in": "query", "type": "integer"},
                    {"name": "category_id", "in": "query", "type": "integer"},
                    {"name": "tournament_id", "in": "query", "type": "integer"},
                    {"name": "mine", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "post": {"tags": ["registrations"], "summary": "Submit a registration", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRegistrationInput"}}],
                "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden or window closed"}, "404": {"description": "Unknown category"}, "409": {"description": "Active registration exists"}, "422": {"description": "Roster rejected"}}}
        },
        "/registrations/{registrationID}": {
            "get": {"tags": ["registrations"], "summary": "Get a registration", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "registrationID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}}
        },
        "/registrations/{registrationID}/roster": {
            "patch": {"tags": ["registrations"], "summary": "Replace athletes and/or judges", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "registrationID", "in": "path", "required": true, "type": "integer"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditRosterInput"}}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not pending"}, "422": {"description": "Roster rejected"}}}
        },
        "/registrations/{registrationID}/approve": {
            "post": {"tags": ["registrations"], "summary": "Approve a pending registration", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "registrationID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not pending"}, "422": {"description": "No judge"}}}
        },
        "/registrations/{registrationID}/reject": {
            "post": {"tags": ["registrations"], "summary": "Reject a pending registration", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "registrationID", "in": "path", "required": true, "type": "integer"},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"reason": {"type": "string"}}}}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not pending"}, "422": {"description": "Reason required"}}}
        },
        "/registrations/{registrationID}/withdraw": {
            "post": {"tags": ["registrations"], "summary": "Withdraw a pending registration", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "registrationID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not pending"}}}
        },
        "/registrations/{registrationID}/history": {
            "get": {"tags": ["registrations"], "summary": "Audit trail", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "registrationID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/registrations/{registrationID}/export": {
            "post": {"tags": ["registrations"], "summary": "Export the roster as an Excel workbook to object storage", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "registrationID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/categories/{categoryID}/results": {
            "get": {"tags": ["results"], "summary": "Results of a category ordered by place", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "categoryID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown category"}}},
            "put": {"tags": ["results"], "summary": "Replace the results of a category", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "categoryID", "in": "path", "required": true, "type": "integer"},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"results": {"type": "array", "items": {"$ref": "#/definitions/ResultInput"}}}}}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid results"}}}
        },
        "/categories/{categoryID}/events": {
            "get": {"tags": ["realtime"], "summary": "Recent events of a category", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "categoryID", "in": "path", "required": true, "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/standings": {
            "get": {"tags": ["results"], "summary": "Season standings", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "season", "in": "query", "type": "integer"}, {"name": "age_category", "in": "query", "type": "string"},
                    {"name": "gender", "in": "query", "type": "string"}, {"name": "bow_type", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "AthleteInput": {"type": "object", "properties": {
            "athlete_id": {"type": "integer"}, "coach_id": {"type": "integer"},
            "new_coach": {"type": "object", "properties": {"name": {"type": "string"}}}}},
        "JudgeInput": {"type": "object", "properties": {
            "judge_id": {"type": "integer"},
            "new_judge": {"type": "object", "properties": {"name": {"type": "string"}, "category": {"type": "string"}}}}},
        "CreateRegistrationInput": {"type": "object", "properties": {
            "region_id": {"type": "integer"}, "tournament_category_id": {"type": "integer"},
            "athletes": {"type": "array", "items": {"$ref": "#/definitions/AthleteInput"}},
            "judges": {"type": "array", "items": {"$ref": "#/definitions/JudgeInput"}}}},
        "EditRosterInput": {"type": "object", "properties": {
            "athletes": {"type": "array", "items": {"$ref": "#/definitions/AthleteInput"}},
            "judges": {"type": "array", "items": {"$ref": "#/definitions/JudgeInput"}}}},
        "ResultInput": {"type": "object", "properties": {
            "athlete_id": {"type": "integer"}, "place": {"type": "integer"}, "raw_score": {"type": "number"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Federation Registry API",
	Description:      "Tournament registration, review and results for the archery federation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
