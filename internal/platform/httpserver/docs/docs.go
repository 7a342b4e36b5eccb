// Package docs registers the OpenAPI document served under /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "SessionCookie": {"type": "apiKey", "name": "fv_session", "in": "cookie"}
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register an account", "parameters": [{"name": "Idempotency-Key", "in": "header", "type": "string"}], "responses": {"201": {"description": "Created"}, "200": {"description": "Replayed"}, "409": {"description": "Conflict"}, "422": {"description": "Validation error"}, "429": {"description": "Rate limited"}}}},
        "/auth/verify-email": {"post": {"tags": ["auth"], "summary": "Consume a verification token and start a session", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid token"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Start a session", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}, "403": {"description": "Suspended"}, "429": {"description": "Rate limited"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Clear session cookies", "responses": {"204": {"description": "No content"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "summary": "Describe the current principal", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthenticated"}}}},
        "/kyc/session": {"post": {"tags": ["kyc"], "summary": "Create or replay a verification session", "parameters": [{"name": "Idempotency-Key", "in": "header", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid state for KYC"}, "409": {"description": "Open session exists"}}}},
        "/kyc/status": {"get": {"tags": ["kyc"], "summary": "Latest session and onboarding state", "responses": {"200": {"description": "OK"}}}},
        "/kyc/complete": {"post": {"tags": ["kyc"], "summary": "Complete a verification session", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid verdict or already completed"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}}},
        "/posts": {"post": {"tags": ["posts"], "summary": "Create a post", "responses": {"201": {"description": "Created"}, "403": {"description": "KYC required"}, "422": {"description": "Validation error"}}}},
        "/posts/{post_id}": {
            "get": {"tags": ["posts"], "summary": "Read a post with entitlement applied", "parameters": [{"name": "post_id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "patch": {"tags": ["posts"], "summary": "Update an owned post", "parameters": [{"name": "post_id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/creators/{handle}/posts": {"get": {"tags": ["posts"], "summary": "Creator profile listing", "parameters": [{"name": "handle", "in": "path", "type": "string", "required": true}, {"name": "include_locked", "in": "query", "type": "boolean"}, {"name": "cursor", "in": "query", "type": "string"}, {"name": "limit", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/creators/{handle}/follow": {
            "post": {"tags": ["follows"], "summary": "Follow a creator", "parameters": [{"name": "handle", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["follows"], "summary": "Unfollow a creator", "parameters": [{"name": "handle", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/feed": {"get": {"tags": ["posts"], "summary": "Posts from followed creators", "responses": {"200": {"description": "OK"}}}},
        "/vault/posts": {"get": {"tags": ["posts"], "summary": "The creator's own posts including drafts", "responses": {"200": {"description": "OK"}}}},
        "/media/uploads": {"post": {"tags": ["media"], "summary": "Register an upload", "responses": {"201": {"description": "Created"}}}},
        "/ppv/posts/{post_id}/status": {"get": {"tags": ["ppv"], "summary": "PPV unlock status", "parameters": [{"name": "post_id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/ppv/posts/{post_id}/create-intent": {"post": {"tags": ["ppv"], "summary": "Create a payment intent", "parameters": [{"name": "post_id", "in": "path", "type": "string", "required": true}, {"name": "Idempotency-Key", "in": "header", "type": "string"}], "responses": {"201": {"description": "Created"}, "200": {"description": "Replayed"}, "409": {"description": "Already purchased"}}}},
        "/admin/force-verify-email": {"post": {"tags": ["admin"], "summary": "Mark an email verified", "parameters": [{"name": "email", "in": "query", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/admin/force-state": {"post": {"tags": ["admin"], "summary": "Force an onboarding state", "responses": {"200": {"description": "OK"}}}},
        "/admin/force-role": {"post": {"tags": ["admin"], "summary": "Force an account role", "responses": {"200": {"description": "OK"}}}},
        "/admin/creators/{creator_id}/action": {"post": {"tags": ["admin"], "summary": "Moderate a creator", "parameters": [{"name": "creator_id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid state"}}}},
        "/admin/users": {"get": {"tags": ["admin"], "summary": "List accounts", "responses": {"200": {"description": "OK"}}}},
        "/admin/audit": {"get": {"tags": ["admin"], "summary": "List audit entries", "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["ops"], "summary": "Liveness", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "fanvault API",
	Description:      "Creator onboarding, verification and content entitlements.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
