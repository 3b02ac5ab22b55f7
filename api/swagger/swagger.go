package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Mentor Portal API",
        "description": "Request lifecycle engine for the college mentoring portal",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Login, token refresh and logout"},
        {"name": "Requests", "description": "Workflow request submission and review"},
        {"name": "Meetings", "description": "Mentor meeting registry"},
        {"name": "Mentorships", "description": "Mentor assignment registry"},
        {"name": "Artifacts", "description": "Internship and project records"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Refresh token invalid or revoked"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the caller's refresh token",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "204": {"description": "Token revoked"}
                }
            }
        },
        "/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List requests visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Submit a new request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure"}
                }
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Get request detail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/requests/{id}/review": {
            "post": {
                "tags": ["Requests"],
                "summary": "Approve or reject a pending request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Reviewed request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure"},
                    "403": {"description": "Actor may not review this request"},
                    "409": {"description": "Request already reviewed or side effect conflict"}
                }
            }
        },
        "/meetings": {
            "get": {
                "tags": ["Meetings"],
                "summary": "List meetings visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Meetings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Meetings"],
                "summary": "Schedule a meeting directly",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleMeetingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Scheduled meeting", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure"},
                    "403": {"description": "Students cannot schedule directly"}
                }
            }
        },
        "/meetings/{id}": {
            "get": {
                "tags": ["Meetings"],
                "summary": "Get meeting detail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Meeting", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/meetings/{id}/cancel": {
            "post": {
                "tags": ["Meetings"],
                "summary": "Cancel a scheduled meeting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cancelled meeting", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Meeting is not in a scheduled state"}
                }
            }
        },
        "/meetings/{id}/complete": {
            "post": {
                "tags": ["Meetings"],
                "summary": "Mark a scheduled meeting as completed",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Completed meeting", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Meeting is not in a scheduled state"}
                }
            }
        },
        "/meetings/{id}/review": {
            "post": {
                "tags": ["Meetings"],
                "summary": "Attach a mentor note to a completed meeting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MeetingReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Reviewed meeting", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Only completed meetings can be reviewed"}
                }
            }
        },
        "/mentorships": {
            "get": {
                "tags": ["Mentorships"],
                "summary": "List mentorships visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Mentorships", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mentorships/active/{menteeId}": {
            "get": {
                "tags": ["Mentorships"],
                "summary": "Get the active mentor for a mentee",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "menteeId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Active mentorship", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Mentee has no active mentor"}
                }
            }
        },
        "/mentorships/{id}": {
            "get": {
                "tags": ["Mentorships"],
                "summary": "Get mentorship detail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Mentorship", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/mentorships/{id}/complete": {
            "post": {
                "tags": ["Mentorships"],
                "summary": "Complete an active mentorship",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Completed mentorship", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Only active mentorships can be completed"}
                }
            }
        },
        "/artifacts": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "List internship and project records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "kind", "in": "query", "type": "string", "description": "internship or project"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "includeDeleted", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Artifacts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/{id}": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "Get artifact detail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Artifact", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refreshToken"],
            "properties": {
                "refreshToken": {"type": "string"}
            }
        },
        "SubmitRequest": {
            "type": "object",
            "required": ["type", "title"],
            "properties": {
                "type": {"type": "string", "enum": ["meeting-request", "mentor-assignment", "role-change", "internship", "project", "delete-internship", "delete-project", "other"]},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "targetUserId": {"type": "string"},
                "meeting": {"$ref": "#/definitions/MeetingParams"},
                "artifact": {"type": "object", "description": "Artifact payload for internship/project requests"}
            }
        },
        "MeetingParams": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "example": "2026-03-10"},
                "time": {"type": "string", "example": "14:00"},
                "durationMinutes": {"type": "integer"},
                "meetingType": {"type": "string"},
                "purpose": {"type": "string"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": ["decision"],
            "properties": {
                "decision": {"type": "string", "enum": ["approve", "reject"]},
                "notes": {"type": "string"}
            }
        },
        "ScheduleMeetingRequest": {
            "type": "object",
            "required": ["menteeId", "title", "date", "time"],
            "properties": {
                "menteeId": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string", "example": "2026-03-10"},
                "time": {"type": "string", "example": "14:00"},
                "durationMinutes": {"type": "integer"},
                "meetingType": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "MeetingReviewRequest": {
            "type": "object",
            "required": ["note"],
            "properties": {
                "note": {"type": "string"}
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
                "pagination": {"type": "object"},
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
