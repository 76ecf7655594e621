// Package docs registers the Swagger 2.0 document served at /swagger/ with
// swag. It is maintained by hand from the handler annotations.
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
        "/": {
            "get": {
                "description": "Serves the HTML shell of the single-page app. Protected routes redirect to /login without a session.",
                "produces": ["text/html"],
                "tags": ["frontend"],
                "summary": "Serve application shell",
                "responses": {
                    "200": {"description": "Application HTML", "schema": {"type": "string"}},
                    "302": {"description": "Redirect to /login", "schema": {"type": "string"}},
                    "404": {"description": "Frontend not found", "schema": {"type": "string"}}
                }
            }
        },
        "/login": {
            "get": {
                "description": "Serves the HTML login page. An error query parameter carries the reason of a failed login.",
                "produces": ["text/html"],
                "tags": ["frontend"],
                "summary": "Serve login page",
                "parameters": [
                    {"type": "string", "description": "Failure code of the previous attempt", "name": "error", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Login page HTML", "schema": {"type": "string"}},
                    "404": {"description": "Login page not found", "schema": {"type": "string"}}
                }
            }
        },
        "/auth/login": {
            "get": {
                "description": "Redirects the browser to the OAuth provider's authorization page.",
                "tags": ["auth"],
                "summary": "Start OAuth login",
                "responses": {
                    "302": {"description": "Redirect to the provider", "schema": {"type": "string"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "description": "Notifies the backend, clears the session and the draft, and redirects to the login page.",
                "tags": ["auth"],
                "summary": "Process logout",
                "responses": {
                    "302": {"description": "Redirect to login page", "schema": {"type": "string"}}
                }
            }
        },
        "/oauth/callback/{provider}": {
            "get": {
                "description": "Exchanges the authorization code with the backend and stores the returned credential.",
                "tags": ["auth"],
                "summary": "Complete OAuth login",
                "parameters": [
                    {"type": "string", "description": "OAuth provider", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "Authorization code", "name": "code", "in": "query", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to / on success, /login?error=... on failure", "schema": {"type": "string"}}
                }
            }
        },
        "/api/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "Current user", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "No session", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Backend unavailable", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/api/videos": {
            "get": {
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "List shorts",
                "parameters": [
                    {"type": "string", "description": "Sort order (latest, popular)", "name": "sortby", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Shorts", "schema": {"type": "array", "items": {"type": "object", "additionalProperties": true}}},
                    "502": {"description": "Backend unavailable", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "Upload short",
                "parameters": [
                    {"type": "file", "description": "Video file", "name": "video", "in": "formData", "required": true},
                    {"type": "string", "description": "Title", "name": "title", "in": "formData"},
                    {"type": "string", "description": "Description", "name": "description", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created short", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid form", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Upload failed", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/api/videos/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "Get short",
                "parameters": [
                    {"type": "string", "description": "Short ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Short", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/api/my/videos": {
            "get": {
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "List my shorts",
                "responses": {
                    "200": {"description": "Shorts", "schema": {"type": "array", "items": {"type": "object", "additionalProperties": true}}},
                    "401": {"description": "No session", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/api/profile": {
            "get": {
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Get profile",
                "responses": {
                    "200": {"description": "Profile", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "No session", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "tags": ["profile"],
                "summary": "Update nickname",
                "parameters": [
                    {"description": "New nickname", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.updateProfileRequest"}}
                ],
                "responses": {
                    "204": {"description": "Updated"},
                    "400": {"description": "Invalid nickname", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/api/profile/image": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Upload profile image",
                "parameters": [
                    {"type": "file", "description": "Image file", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "New image address", "schema": {"$ref": "#/definitions/handlers.profileImageResponse"}},
                    "400": {"description": "Invalid form", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Upload failed", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/api/account": {
            "delete": {
                "tags": ["profile"],
                "summary": "Delete account",
                "responses": {
                    "204": {"description": "Deleted"},
                    "401": {"description": "No session", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/api/drafts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["drafts"],
                "summary": "Get draft",
                "responses": {
                    "200": {"description": "Draft summary", "schema": {"$ref": "#/definitions/drafts.Summary"}}
                }
            },
            "delete": {
                "tags": ["drafts"],
                "summary": "Delete draft",
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/api/drafts/publish": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["drafts"],
                "summary": "Publish draft",
                "parameters": [
                    {"description": "Title and description", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/video.Meta"}}
                ],
                "responses": {
                    "201": {"description": "Created short", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Nothing recorded", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Upload failed", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/api/drafts/{kind}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["drafts"],
                "summary": "Get draft media",
                "parameters": [
                    {"type": "string", "description": "video or thumbnail", "name": "kind", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Media content", "schema": {"type": "file"}},
                    "404": {"description": "Nothing recorded", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/octet-stream"],
                "tags": ["drafts"],
                "summary": "Store draft media",
                "parameters": [
                    {"type": "string", "description": "video or thumbnail", "name": "kind", "in": "path", "required": true},
                    {"type": "string", "description": "File name", "name": "name", "in": "query"}
                ],
                "responses": {
                    "204": {"description": "Stored"},
                    "400": {"description": "Empty or oversized media", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Health status", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "A dependency is unhealthy", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {
            "description": "Session cookie set by the OAuth callback",
            "type": "apiKey",
            "name": "Cookie",
            "in": "header"
        }
    },
    "definitions": {
        "drafts.Summary": {
            "type": "object",
            "properties": {
                "hasThumbnail": {"type": "boolean"},
                "hasVideo": {"type": "boolean"},
                "thumbnailSize": {"type": "integer"},
                "thumbnailType": {"type": "string"},
                "updatedAt": {"type": "string"},
                "videoName": {"type": "string"},
                "videoSize": {"type": "integer"},
                "videoType": {"type": "string"}
            }
        },
        "handlers.errorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "handlers.profileImageResponse": {
            "type": "object",
            "properties": {
                "imageUrl": {"type": "string"}
            }
        },
        "handlers.updateProfileRequest": {
            "type": "object",
            "properties": {
                "nickname": {"type": "string"}
            }
        },
        "video.Meta": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "thumbnailUrl": {"type": "string"},
                "title": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Shorts Web API",
	Description:      "Web frontend for the shorts service. Relays the browser to the backend REST API with the session credential.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
