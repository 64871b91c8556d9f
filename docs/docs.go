// Package docs registers the OpenAPI description served by gofiber/swagger.
// Regenerate with `swag init -g cmd/server/main.go`.
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
        "/admin/videos": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Upload"],
                "summary": "Create Upload",
                "parameters": [
                    {"description": "Upload metadata", "name": "request", "in": "body", "required": true,
                     "schema": {"$ref": "#/definitions/dto.CreateUploadRequestDTO"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.CreateUploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/admin/videos/v2": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Upload"],
                "summary": "Single-shot Upload",
                "parameters": [
                    {"type": "string", "name": "name", "in": "formData", "required": true},
                    {"type": "boolean", "name": "isPremium", "in": "formData"},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.SingleShotUploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/admin/videos/{id}": {
            "put": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Upload"],
                "summary": "Upload Chunk",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "chunkId", "in": "formData", "required": true},
                    {"type": "string", "name": "chunkHash", "in": "formData"},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.UploadChunkResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Upload"],
                "summary": "Delete Video",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.DeleteVideoResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/admin/videos/{id}/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Upload"],
                "summary": "Get Upload Status",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.UploadStatusResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/admin/cleanup": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Run Janitor",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CleanupResponse"}}}
            }
        },
        "/config": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Upload"],
                "summary": "Pipeline Settings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PipelineSettingsResponse"}}}
            }
        },
        "/videos/{id}/thumbnail": {
            "get": {
                "produces": ["image/jpeg"],
                "tags": ["Media"],
                "summary": "Video Thumbnail",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/videos/{id}/stream": {
            "get": {
                "produces": ["video/mp4"],
                "tags": ["Media"],
                "summary": "Stream Video",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "Range", "in": "header"}
                ],
                "responses": {"206": {"description": "Partial Content"}, "404": {"description": "Not Found"}, "416": {"description": "Range Not Satisfiable"}}
            }
        }
    },
    "definitions": {
        "dto.CreateUploadRequestDTO": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "isPremium": {"type": "boolean"},
                "bufferSize": {"type": "integer"},
                "extension": {"type": "string"}
            }
        },
        "dto.ChunkDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "chunkSize": {"type": "integer"},
                "start": {"type": "integer"},
                "end": {"type": "integer"}
            }
        },
        "dto.CreateUploadResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "chunkSize": {"type": "integer"},
                "chunks": {"type": "array", "items": {"$ref": "#/definitions/dto.ChunkDTO"}}
            }
        },
        "dto.UploadChunkResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "id": {"type": "string"},
                "chunkId": {"type": "string"},
                "remainingChunks": {"type": "integer"},
                "videoStatus": {"type": "string"}
            }
        },
        "dto.SingleShotUploadResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "id": {"type": "string"}}
        },
        "dto.DeleteVideoResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "id": {"type": "string"}}
        },
        "dto.UploadStatusResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "isPremium": {"type": "boolean"},
                "status": {"type": "string"},
                "remainingChunks": {"type": "integer"},
                "createdAt": {"type": "string"},
                "uploadedAt": {"type": "string"}
            }
        },
        "dto.PipelineSettingsResponse": {
            "type": "object",
            "properties": {
                "chunkSize": {"type": "integer"},
                "transcodeConcurrency": {"type": "integer"},
                "staleAfter": {"type": "string"},
                "janitorInterval": {"type": "string"}
            }
        },
        "dto.CleanupResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "videosDeleted": {"type": "integer"},
                "sessionsPurged": {"type": "integer"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Video Hosting API",
	Description:      "Chunked video upload and transcode pipeline.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
