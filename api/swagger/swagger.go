package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SED Diário API",
        "description": "Automates lesson registration, class rosters and attendance on the SED portal for a chat-bot client.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Usuários",
            "description": "Phone to portal login bindings"
        },
        {
            "name": "Autenticação",
            "description": "Access tokens for the chat-bot"
        },
        {
            "name": "Portal",
            "description": "Classes, students and attendance"
        },
        {
            "name": "Aulas",
            "description": "Lesson registration from lesson plans"
        },
        {
            "name": "Observabilidade",
            "description": "Probes and metrics"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "Observabilidade"
                ],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "Observabilidade"
                ],
                "summary": "Readiness probe (Postgres and Redis)",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "A dependency is unreachable"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "Observabilidade"
                ],
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/usuarios": {
            "post": {
                "tags": [
                    "Usuários"
                ],
                "summary": "Create user",
                "description": "Binds a phone number to a portal login. Requires the admin key.",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateUsuarioRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Criado",
                        "schema": {
                            "$ref": "#/definitions/Status"
                        }
                    },
                    "400": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "409": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        },
        "/token": {
            "post": {
                "tags": [
                    "Autenticação"
                ],
                "summary": "Issue access token",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TokenRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/TokenResponse"
                        }
                    },
                    "401": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "500": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        },
        "/turmas": {
            "post": {
                "tags": [
                    "Portal"
                ],
                "summary": "List classes",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TurmasRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/TurmasResponse"
                        }
                    },
                    "401": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "409": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "429": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        },
        "/alunos": {
            "post": {
                "tags": [
                    "Portal"
                ],
                "summary": "List students of a class",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AlunosRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/AlunosResponse"
                        }
                    },
                    "400": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "401": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "409": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        },
        "/frequencia": {
            "post": {
                "tags": [
                    "Portal"
                ],
                "summary": "Mark attendance",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/FrequenciaRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Status"
                        }
                    },
                    "400": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "401": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "409": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        },
        "/aulas": {
            "post": {
                "tags": [
                    "Aulas"
                ],
                "summary": "Register lessons from a lesson plan",
                "description": "Blocks until every lesson reached a final state.",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AulasRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/AulasResponse"
                        }
                    },
                    "400": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "401": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "409": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        },
        "/aulas/execucoes": {
            "post": {
                "tags": [
                    "Aulas"
                ],
                "summary": "Queue a registration run",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AulasRequest"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Enfileirada",
                        "schema": {
                            "$ref": "#/definitions/RunResponse"
                        }
                    },
                    "400": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "401": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "503": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        },
        "/aulas/execucoes/{id}": {
            "get": {
                "tags": [
                    "Aulas"
                ],
                "summary": "Get run",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/RunResponse"
                        }
                    },
                    "404": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Aulas"
                ],
                "summary": "Cancel run",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Cancelamento solicitado",
                        "schema": {
                            "$ref": "#/definitions/RunResponse"
                        }
                    },
                    "404": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "409": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        },
        "/aulas/execucoes/{id}/exportar": {
            "get": {
                "tags": [
                    "Aulas"
                ],
                "summary": "Export run report",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "formato",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ],
                        "default": "csv"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/RunExportResponse"
                        }
                    },
                    "400": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    },
                    "409": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        },
        "/exportacoes/{token}": {
            "get": {
                "tags": [
                    "Aulas"
                ],
                "summary": "Download exported report",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "403": {
                        "description": "Erro",
                        "schema": {
                            "$ref": "#/definitions/ErrorBody"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "Status": {
            "type": "object",
            "properties": {
                "sucesso": {
                    "type": "boolean"
                },
                "mensagem": {
                    "type": "string"
                }
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "sucesso": {
                    "type": "boolean"
                },
                "mensagem": {
                    "type": "string"
                },
                "codigo": {
                    "type": "string"
                }
            }
        },
        "CreateUsuarioRequest": {
            "type": "object",
            "required": [
                "telefone",
                "login"
            ],
            "properties": {
                "telefone": {
                    "type": "string"
                },
                "login": {
                    "type": "string"
                },
                "adminApiKey": {
                    "type": "string"
                }
            }
        },
        "TokenRequest": {
            "type": "object",
            "required": [
                "telefone"
            ],
            "properties": {
                "telefone": {
                    "type": "string"
                },
                "apiKey": {
                    "type": "string"
                }
            }
        },
        "TokenResponse": {
            "type": "object",
            "properties": {
                "sucesso": {
                    "type": "boolean"
                },
                "token": {
                    "type": "string"
                },
                "expiraEm": {
                    "type": "string",
                    "example": "1800s"
                },
                "login": {
                    "type": "string"
                }
            }
        },
        "TurmasRequest": {
            "type": "object",
            "required": [
                "senha"
            ],
            "properties": {
                "senha": {
                    "type": "string"
                }
            }
        },
        "TurmasResponse": {
            "type": "object",
            "properties": {
                "sucesso": {
                    "type": "boolean"
                },
                "turmas": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "AlunosRequest": {
            "type": "object",
            "required": [
                "senha",
                "indiceTurma"
            ],
            "properties": {
                "senha": {
                    "type": "string"
                },
                "indiceTurma": {
                    "type": "string",
                    "example": "1"
                }
            }
        },
        "AlunosResponse": {
            "type": "object",
            "properties": {
                "sucesso": {
                    "type": "boolean"
                },
                "alunos": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "FrequenciaRequest": {
            "type": "object",
            "required": [
                "data",
                "alunosComFalta",
                "senha"
            ],
            "properties": {
                "data": {
                    "type": "string",
                    "example": "17/03/2025"
                },
                "alunosComFalta": {
                    "type": "string",
                    "example": "[1,4,7]"
                },
                "senha": {
                    "type": "string"
                }
            }
        },
        "AulasRequest": {
            "type": "object",
            "required": [
                "senha",
                "linkCronograma",
                "bimestre"
            ],
            "properties": {
                "senha": {
                    "type": "string"
                },
                "linkCronograma": {
                    "type": "string"
                },
                "bimestre": {
                    "type": "string",
                    "example": "1"
                }
            }
        },
        "Lesson": {
            "type": "object",
            "properties": {
                "materia": {
                    "type": "string"
                },
                "dia": {
                    "type": "string"
                },
                "descricao": {
                    "type": "string"
                },
                "habilidades": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "LessonOutcome": {
            "type": "object",
            "properties": {
                "aula": {
                    "$ref": "#/definitions/Lesson"
                },
                "sucesso": {
                    "type": "boolean"
                },
                "tentativas": {
                    "type": "integer"
                },
                "estado": {
                    "type": "string"
                },
                "habilidadesNaoEncontradas": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "log": {
                    "type": "string"
                }
            }
        },
        "Report": {
            "type": "object",
            "properties": {
                "sucesso": {
                    "type": "integer"
                },
                "falhas": {
                    "type": "integer"
                },
                "registros": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "mensagem": {
                    "type": "string"
                },
                "aulas": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/LessonOutcome"
                    }
                }
            }
        },
        "AulasResponse": {
            "type": "object",
            "properties": {
                "sucesso": {
                    "type": "boolean"
                },
                "mensagem": {
                    "type": "string"
                },
                "relatorio": {
                    "$ref": "#/definitions/Report"
                }
            }
        },
        "RegistrationRun": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "userId": {
                    "type": "string"
                },
                "login": {
                    "type": "string"
                },
                "bimestre": {
                    "type": "string"
                },
                "linkCronograma": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "QUEUED",
                        "PROCESSING",
                        "FINISHED",
                        "FAILED",
                        "CANCELLED"
                    ]
                },
                "relatorio": {
                    "$ref": "#/definitions/Report"
                },
                "mensagemErro": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "startedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "finishedAt": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "RunResponse": {
            "type": "object",
            "properties": {
                "sucesso": {
                    "type": "boolean"
                },
                "mensagem": {
                    "type": "string"
                },
                "execucao": {
                    "$ref": "#/definitions/RegistrationRun"
                }
            }
        },
        "RunExportResponse": {
            "type": "object",
            "properties": {
                "sucesso": {
                    "type": "boolean"
                },
                "url": {
                    "type": "string"
                },
                "formato": {
                    "type": "string"
                },
                "expiraEm": {
                    "type": "string",
                    "format": "date-time"
                }
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
