package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Ledger API",
        "description": "Append-oriented school attendance ledger with bounded scans, monthly partitions and guardian notifications",
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
        {"name": "Attendance", "description": "Scan recording and daily views"},
        {"name": "Reports", "description": "Date-range recaps"},
        {"name": "Students", "description": "Roster management"},
        {"name": "Schedule", "description": "Weekly attendance windows"},
        {"name": "Archive", "description": "Monthly roll-over administration"},
        {"name": "Notifications", "description": "Guardian notification administration"},
        {"name": "Auth", "description": "Operator tokens"}
    ],
    "paths": {
        "/attendance/scan": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record an attendance scan or manual entry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not registered"},
                    "422": {"description": "No schedule today"}
                }
            }
        },
        "/attendance/today": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List today's attendance rows",
                "parameters": [
                    {"name": "kelas", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/absent": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List students with no record today",
                "parameters": [
                    {"name": "kelas", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/recap": {
            "get": {
                "tags": ["Reports"],
                "summary": "Per-student attendance recap over a date range",
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"},
                    {"name": "kelas", "in": "query", "type": "string"},
                    {"name": "nama", "in": "query", "type": "string"},
                    {"name": "nis", "in": "query", "type": "string"},
                    {"name": "records", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List registered students",
                "parameters": [
                    {"name": "kelas", "in": "query", "type": "string"},
                    {"name": "nama", "in": "query", "type": "string"},
                    {"name": "nis", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/cohorts": {
            "get": {
                "tags": ["Students"],
                "summary": "List distinct cohorts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{nis}": {
            "put": {
                "tags": ["Students"],
                "summary": "Update a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "nis", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get the weekly attendance schedule",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Schedule"],
                "summary": "Replace the weekly attendance schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/today": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get today's resolved schedule",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/archive/run": {
            "post": {
                "tags": ["Archive"],
                "summary": "Trigger an archival pass",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Archival already in progress"}
                }
            }
        },
        "/archive/status": {
            "get": {
                "tags": ["Archive"],
                "summary": "Report archival state and existing partitions",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/test": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Send a test notification for one student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TestSendRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/flush": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Flush the pending notification queue now",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/token": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange the operator access key for a token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid access key"}
                }
            }
        }
    },
    "definitions": {
        "ScanRequest": {
            "type": "object",
            "required": ["nis"],
            "properties": {
                "nis": {"type": "string"},
                "status": {"type": "string", "enum": ["Present", "Sick", "Leave", "Absent"]},
                "note": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["nis", "nama", "kelas"],
            "properties": {
                "nis": {"type": "string"},
                "nama": {"type": "string"},
                "kelas": {"type": "string"},
                "guardian_contact": {"type": "string"}
            }
        },
        "UpdateStudentRequest": {
            "type": "object",
            "required": ["nama", "kelas"],
            "properties": {
                "nama": {"type": "string"},
                "kelas": {"type": "string"},
                "guardian_contact": {"type": "string"}
            }
        },
        "TestSendRequest": {
            "type": "object",
            "required": ["nis"],
            "properties": {
                "nis": {"type": "string"},
                "nama": {"type": "string"}
            }
        },
        "TokenRequest": {
            "type": "object",
            "required": ["access_key"],
            "properties": {
                "access_key": {"type": "string"},
                "operator": {"type": "string"}
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
