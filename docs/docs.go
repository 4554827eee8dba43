// Package docs registers the OpenAPI description of the history view.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/history": {
            "get": {
                "description": "Returns every stored daily high for a month-day with its stripe colour and the historical extremes. No forecast is included.",
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Get stored history for a month-day",
                "parameters": [
                    {
                        "type": "string",
                        "example": "Seattle",
                        "description": "Location name (defaults to the configured location)",
                        "name": "location",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "example": "10-16",
                        "description": "Month-day MM-DD (defaults to today)",
                        "name": "date",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Stored records",
                        "schema": {"$ref": "#/definitions/http.HistoryResponse"}
                    },
                    "400": {
                        "description": "Invalid date",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "500": {
                        "description": "History store unreadable",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/api/v1/history/plot": {
            "get": {
                "description": "Renders the stored daily highs of a month-day as a PNG bar chart, one bar per year.",
                "produces": ["image/png"],
                "tags": ["History"],
                "summary": "Render stored history as stripes",
                "parameters": [
                    {
                        "type": "string",
                        "example": "Seattle",
                        "description": "Location name (defaults to the configured location)",
                        "name": "location",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "example": "10-16",
                        "description": "Month-day MM-DD (defaults to today)",
                        "name": "date",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "PNG image"},
                    "400": {
                        "description": "Invalid date",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "500": {
                        "description": "History store unreadable",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Invalid date, expected MM-DD"}
            }
        },
        "http.HistoryRecord": {
            "type": "object",
            "properties": {
                "color": {"type": "string", "example": "#ffff00"},
                "date": {"type": "string", "example": "1979-10-16"},
                "temp": {"type": "number", "example": 58.1}
            }
        },
        "http.HistoryResponse": {
            "type": "object",
            "properties": {
                "extremes": {"$ref": "#/definitions/models.Extremes"},
                "location": {"type": "string", "example": "Seattle"},
                "month_day": {"type": "string", "example": "10-16"},
                "records": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/http.HistoryRecord"}
                }
            }
        },
        "models.Extremes": {
            "type": "object",
            "properties": {
                "high_temp": {"type": "number"},
                "high_year": {"type": "string"},
                "low_temp": {"type": "number"},
                "low_year": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Weather bot history API",
	Description:      "Read-only view of the daily high temperatures collected by the weather bot.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
