package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Journal Editorial API",
        "description": "Manuscript submission, peer review, DOI deposit and issue publication.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login and current user"},
        {"name": "Manuscripts", "description": "Submission lifecycle, revisions and timeline"},
        {"name": "Reviews", "description": "Reviewer invitations and reports"},
        {"name": "DOI", "description": "Identifier deposit and retries"},
        {"name": "Issues", "description": "Issue assembly, publication and table of contents"},
        {"name": "Notifications", "description": "In-app notifications"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange credentials for an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current token claims",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manuscripts": {
            "get": {
                "tags": ["Manuscripts"],
                "summary": "List manuscripts visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "depositStatus", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Manuscripts"],
                "summary": "Submit a manuscript",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "metadata", "in": "formData", "type": "string", "required": true, "description": "CreateManuscriptRequest as JSON"},
                    {"name": "files", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/manuscripts/stats": {
            "get": {
                "tags": ["Manuscripts"],
                "summary": "Manuscript counts by status",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manuscripts/{id}": {
            "get": {
                "tags": ["Manuscripts"],
                "summary": "Get a manuscript",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Manuscripts"],
                "summary": "Delete a manuscript and its reviews",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/manuscripts/{id}/timeline": {
            "get": {
                "tags": ["Manuscripts"],
                "summary": "Audit timeline",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manuscripts/{id}/editor": {
            "post": {
                "tags": ["Manuscripts"],
                "summary": "Assign the handling editor",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignEditorRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manuscripts/{id}/decision": {
            "post": {
                "tags": ["Manuscripts"],
                "summary": "Record an editorial decision",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/manuscripts/{id}/revisions": {
            "post": {
                "tags": ["Manuscripts"],
                "summary": "Submit a revision",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "files", "in": "formData", "type": "file", "required": true},
                    {"name": "responseDocument", "in": "formData", "type": "file"},
                    {"name": "notes", "in": "formData", "type": "string"}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manuscripts/{id}/revisions/compare": {
            "get": {
                "tags": ["Manuscripts"],
                "summary": "Compare the file sets of two versions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "from", "in": "query", "type": "integer", "required": true},
                    {"name": "to", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manuscripts/{id}/files/{fileId}": {
            "get": {
                "tags": ["Manuscripts"],
                "summary": "Download a manuscript file",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "fileId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "File stream"}}
            }
        },
        "/manuscripts/{id}/files/{fileId}/url": {
            "get": {
                "tags": ["Manuscripts"],
                "summary": "Issue a signed download link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "fileId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/files/download": {
            "get": {
                "tags": ["Manuscripts"],
                "summary": "Download through a signed link",
                "parameters": [{"name": "token", "in": "query", "type": "string", "required": true}],
                "responses": {"200": {"description": "File stream"}}
            }
        },
        "/manuscripts/{id}/reviewers": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Invite reviewers",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignReviewersRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manuscripts/{id}/reviews": {
            "get": {
                "tags": ["Reviews"],
                "summary": "List reviews of a manuscript",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reviews/mine": {
            "get": {
                "tags": ["Reviews"],
                "summary": "List the caller's review assignments",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reviews/{id}": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Get a review",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reviews/{id}/respond": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Accept or decline an invitation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RespondInvitationRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reviews/{id}/submit": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Submit a review report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReviewRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reviews/{id}/reminders": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Remind a reviewer",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manuscripts/{id}/doi/deposit": {
            "post": {
                "tags": ["DOI"],
                "summary": "Deposit an identifier",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Registrar failure; data carries the updated manuscript", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/manuscripts/{id}/doi/retry": {
            "post": {
                "tags": ["DOI"],
                "summary": "Retry a failed deposit",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manuscripts/{id}/doi": {
            "put": {
                "tags": ["DOI"],
                "summary": "Bind an identifier manually",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignDOIRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "DOI already in use", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/doi/bulk-retry": {
            "post": {
                "tags": ["DOI"],
                "summary": "Retry every failed deposit up to the configured limit",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/issues": {
            "get": {
                "tags": ["Issues"],
                "summary": "List issues",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "published", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Issues"],
                "summary": "Create an issue",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateIssueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Volume and number taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}": {
            "get": {
                "tags": ["Issues"],
                "summary": "Get an issue",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/issues/{id}/manuscripts": {
            "post": {
                "tags": ["Issues"],
                "summary": "Add an accepted manuscript",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddIssueManuscriptRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/issues/{id}/manuscripts/{manuscriptId}": {
            "delete": {
                "tags": ["Issues"],
                "summary": "Remove a manuscript from an unpublished issue",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "manuscriptId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/issues/{id}/publish": {
            "post": {
                "tags": ["Issues"],
                "summary": "Publish an issue and deposit identifiers",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/toc": {
            "get": {
                "tags": ["Issues"],
                "summary": "Table of contents",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/issues/{id}/toc/export": {
            "get": {
                "tags": ["Issues"],
                "summary": "Export the table of contents",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "Attachment"}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "unread", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification as read",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Marked"}}
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
        "AssignEditorRequest": {
            "type": "object",
            "required": ["editorId"],
            "properties": {"editorId": {"type": "string"}}
        },
        "DecisionRequest": {
            "type": "object",
            "required": ["decision"],
            "properties": {
                "decision": {"type": "string", "enum": ["ACCEPT", "REJECT", "REVISIONS_REQUIRED"]},
                "comment": {"type": "string"}
            }
        },
        "AssignReviewersRequest": {
            "type": "object",
            "required": ["reviewerIds"],
            "properties": {
                "reviewerIds": {"type": "array", "items": {"type": "string"}},
                "dueDate": {"type": "string", "format": "date-time"}
            }
        },
        "RespondInvitationRequest": {
            "type": "object",
            "required": ["accept"],
            "properties": {
                "accept": {"type": "boolean"},
                "declineReason": {"type": "string"}
            }
        },
        "SubmitReviewRequest": {
            "type": "object",
            "required": ["recommendation", "authorComments"],
            "properties": {
                "recommendation": {"type": "string", "enum": ["ACCEPT", "MINOR_REVISIONS", "MAJOR_REVISIONS", "REJECT"]},
                "confidentialComments": {"type": "string"},
                "authorComments": {"type": "string"}
            }
        },
        "AssignDOIRequest": {
            "type": "object",
            "required": ["doi"],
            "properties": {"doi": {"type": "string"}}
        },
        "CreateIssueRequest": {
            "type": "object",
            "required": ["volume", "number", "year", "title"],
            "properties": {
                "volume": {"type": "integer"},
                "number": {"type": "integer"},
                "year": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "AddIssueManuscriptRequest": {
            "type": "object",
            "required": ["manuscriptId", "pageStart", "pageEnd"],
            "properties": {
                "manuscriptId": {"type": "string"},
                "pageStart": {"type": "integer"},
                "pageEnd": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
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
