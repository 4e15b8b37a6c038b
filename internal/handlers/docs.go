package handlers

import (
	"encoding/json"
	"net/http"
)

func queryParam(name, description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

func pathParam(name, description, pattern string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      map[string]string{"type": "string", "pattern": pattern},
	}
}

func jsonResponse(description string, schema interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

var (
	errorRef     = map[string]string{"$ref": "#/components/schemas/ErrorResponse"}
	dayRecordRef = map[string]string{"$ref": "#/components/schemas/DayRecord"}
	nullableStr  = map[string]interface{}{"type": "string", "nullable": true}
	stringList   = map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}}
	filterParam  = queryParam("filter", "Focus filter: all, farming or business (default: all)",
		map[string]interface{}{"type": "string", "enum": []string{"all", "farming", "business"}})
)

var rangeParams = []map[string]interface{}{
	queryParam("start", "Inclusive start date (YYYY-MM-DD)", map[string]interface{}{"type": "string", "format": "date"}),
	queryParam("end", "Inclusive end date (YYYY-MM-DD)", map[string]interface{}{"type": "string", "format": "date"}),
	queryParam("phase", "Only days with this moon phase slug", map[string]interface{}{"type": "string"}),
	queryParam("holidays", "Only days with a holiday", map[string]interface{}{"type": "boolean"}),
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the almanac API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	guidance := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"bestFor": stringList,
			"avoid":   stringList,
		},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Lunar Almanac API",
			"description": "Precomputed lunar and agricultural almanac: moon phases, full-moon names, holidays, seasonal farming and business guidance",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/almanac/days": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List almanac days",
					"description": "Retrieve day records with filtering and pagination",
					"parameters": append(append([]map[string]interface{}{}, rangeParams...),
						filterParam,
						queryParam("page", "Page number (default: 1)", map[string]interface{}{"type": "integer", "default": 1}),
						queryParam("limit", "Records per page (default: 100, max: 1000)", map[string]interface{}{"type": "integer", "default": 100}),
					),
					"responses": map[string]interface{}{
						"200": jsonResponse("Paginated day records", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"data":        map[string]interface{}{"type": "array", "items": dayRecordRef},
								"total":       map[string]string{"type": "integer"},
								"page":        map[string]string{"type": "integer"},
								"limit":       map[string]string{"type": "integer"},
								"total_pages": map[string]string{"type": "integer"},
							},
						}),
						"400": jsonResponse("Invalid parameters", errorRef),
					},
				},
			},
			"/api/almanac/days/{date}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Get one day",
					"parameters": []map[string]interface{}{pathParam("date", "Date (YYYY-MM-DD)", `^\d{4}-\d{2}-\d{2}$`)},
					"responses": map[string]interface{}{
						"200": jsonResponse("Day record", dayRecordRef),
						"400": jsonResponse("Invalid date", errorRef),
						"404": jsonResponse("Date outside the data set", errorRef),
					},
				},
			},
			"/api/almanac/months": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List months present in the data set",
					"responses": map[string]interface{}{
						"200": jsonResponse("Month keys and labels", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"months": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"key":   map[string]string{"type": "string", "example": "2025-11"},
											"label": map[string]string{"type": "string", "example": "November 2025"},
										},
									},
								},
							},
						}),
					},
				},
			},
			"/api/almanac/months/{month}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get a month grid",
					"description": "Leading blank cells (dayNumber 0) for the weekday of the 1st, then one cell per day. Cells without a record have a null entry.",
					"parameters": []map[string]interface{}{
						pathParam("month", "Month (YYYY-MM)", `^\d{4}-\d{2}$`),
						filterParam,
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Month view", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"key":           map[string]string{"type": "string"},
								"label":         map[string]string{"type": "string"},
								"prev":          map[string]string{"type": "string"},
								"next":          map[string]string{"type": "string"},
								"filter":        map[string]string{"type": "string"},
								"weekdayLabels": stringList,
								"cells": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"dayNumber": map[string]string{"type": "integer"},
											"date":      map[string]string{"type": "string", "format": "date"},
											"entry":     dayRecordRef,
										},
									},
								},
							},
						}),
						"400": jsonResponse("Invalid month or filter", errorRef),
						"404": jsonResponse("Month outside the data set", errorRef),
					},
				},
			},
			"/api/almanac/today": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get the entry for the today strip",
					"description": "The selected date if present, otherwise today, otherwise the next future date, otherwise the last date",
					"parameters": []map[string]interface{}{
						queryParam("selected", "Preferred date (YYYY-MM-DD)", map[string]interface{}{"type": "string", "format": "date"}),
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Day record", dayRecordRef),
						"404": jsonResponse("No data loaded", errorRef),
					},
				},
			},
			"/api/almanac/export": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Export the almanac",
					"description": "iCalendar feed of holidays and named full moons, or CSV of day records",
					"parameters": append(append([]map[string]interface{}{}, rangeParams...),
						filterParam,
						queryParam("format", "ics or csv (default: ics)", map[string]interface{}{"type": "string", "enum": []string{"ics", "csv"}}),
					),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Export file",
							"content": map[string]interface{}{
								"text/calendar": map[string]interface{}{"schema": map[string]string{"type": "string"}},
								"text/csv":      map[string]interface{}{"schema": map[string]string{"type": "string"}},
							},
						},
						"400": jsonResponse("Invalid parameters or nothing to export", errorRef),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": jsonResponse("Service is healthy", map[string]interface{}{
							"type":       "object",
							"properties": map[string]interface{}{"status": map[string]string{"type": "string"}},
						}),
						"503": map[string]string{"description": "Storage unavailable"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"DayRecord": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"date":       map[string]string{"type": "string", "format": "date"},
						"moonPhase":  map[string]string{"type": "string"},
						"phaseGroup": map[string]string{"type": "string"},
						"moonName":   nullableStr,
						"sign":       nullableStr,
						"notes":      nullableStr,
						"region":     map[string]string{"type": "string"},
						"holiday":    nullableStr,
						"eclipse":    nullableStr,
						"season":     map[string]string{"type": "string"},
						"crops":      stringList,
						"farming":    guidance,
						"business":   guidance,
					},
				},
				"ErrorResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"code":    map[string]string{"type": "integer"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
