// Package docs registra la especificación OpenAPI servida en /swagger.
// Se regenera con `swag init -g cmd/api/main.go`.
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
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/health": {"get": {"tags": ["platform"], "summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
        "/shops": {"post": {"tags": ["shops"], "summary": "Crear taller", "responses": {"201": {"description": "created"}, "409": {"description": "shop already exists"}}}},
        "/shops/me": {
            "get": {"tags": ["shops"], "summary": "Taller del usuario", "responses": {"200": {"description": "ok"}, "403": {"description": "shop required"}}},
            "patch": {"tags": ["shops"], "summary": "Actualizar taller", "responses": {"200": {"description": "ok"}}}
        },
        "/shops/me/hours": {"put": {"tags": ["shops"], "summary": "Horario semanal", "responses": {"200": {"description": "ok"}}}},
        "/clients": {
            "get": {"tags": ["clients"], "summary": "Buscar clientes", "responses": {"200": {"description": "ok"}}},
            "post": {"tags": ["clients"], "summary": "Crear cliente", "responses": {"201": {"description": "created"}}}
        },
        "/clients/{clientID}": {
            "get": {"tags": ["clients"], "summary": "Ver cliente", "responses": {"200": {"description": "ok"}, "404": {"description": "not found"}}},
            "patch": {"tags": ["clients"], "summary": "Actualizar cliente", "responses": {"200": {"description": "ok"}}},
            "delete": {"tags": ["clients"], "summary": "Borrar cliente", "responses": {"204": {"description": "deleted"}, "409": {"description": "client has orders"}}}
        },
        "/clients/{clientID}/orders": {"get": {"tags": ["orders"], "summary": "Órdenes del cliente", "responses": {"200": {"description": "ok"}}}},
        "/catalog": {
            "get": {"tags": ["catalog"], "summary": "Listar catálogo", "responses": {"200": {"description": "ok"}}},
            "post": {"tags": ["catalog"], "summary": "Crear servicio de catálogo", "responses": {"201": {"description": "created"}}}
        },
        "/stages": {
            "get": {"tags": ["stages"], "summary": "Listar etapas", "responses": {"200": {"description": "ok"}}},
            "post": {"tags": ["stages"], "summary": "Agregar etapa", "responses": {"201": {"description": "created"}}},
            "put": {"tags": ["stages"], "summary": "Personalizar etapas", "responses": {"200": {"description": "ok"}, "409": {"description": "reassign required"}}}
        },
        "/orders": {
            "get": {"tags": ["orders"], "summary": "Listar órdenes", "responses": {"200": {"description": "ok"}}},
            "post": {"tags": ["orders"], "summary": "Crear orden con prendas", "responses": {"201": {"description": "created"}}}
        },
        "/orders/{orderID}": {"get": {"tags": ["orders"], "summary": "Detalle de orden", "responses": {"200": {"description": "ok"}}}},
        "/orders/{orderID}/status": {"patch": {"tags": ["orders"], "summary": "Cambiar estado", "responses": {"200": {"description": "ok"}, "409": {"description": "invalid transition"}}}},
        "/orders/{orderID}/payments": {"post": {"tags": ["orders"], "summary": "Registrar pago", "responses": {"201": {"description": "created"}}}},
        "/garments": {"get": {"tags": ["garments"], "summary": "Tablero de prendas", "responses": {"200": {"description": "ok"}}}},
        "/garments/{garmentID}": {
            "get": {"tags": ["garments"], "summary": "Ver prenda", "responses": {"200": {"description": "ok"}}},
            "patch": {"tags": ["garments"], "summary": "Actualizar prenda", "responses": {"200": {"description": "ok"}}}
        },
        "/garments/{garmentID}/stage": {"post": {"tags": ["garments"], "summary": "Mover de etapa", "responses": {"200": {"description": "ok"}}}},
        "/garments/{garmentID}/services": {"post": {"tags": ["garments"], "summary": "Agregar servicio", "responses": {"201": {"description": "created"}}}},
        "/garments/{garmentID}/time-entries": {
            "get": {"tags": ["time"], "summary": "Tiempo registrado", "responses": {"200": {"description": "ok"}}},
            "post": {"tags": ["time"], "summary": "Registrar tiempo manual", "responses": {"201": {"description": "created"}}}
        },
        "/timer": {"get": {"tags": ["time"], "summary": "Timer en curso", "responses": {"200": {"description": "ok"}}}},
        "/timer/start": {"post": {"tags": ["time"], "summary": "Iniciar timer", "responses": {"201": {"description": "created"}, "409": {"description": "timer running"}}}},
        "/timer/stop": {"post": {"tags": ["time"], "summary": "Detener timer", "responses": {"200": {"description": "ok"}}}},
        "/appointments": {
            "get": {"tags": ["appointments"], "summary": "Agenda por rango", "responses": {"200": {"description": "ok"}}},
            "post": {"tags": ["appointments"], "summary": "Agendar cita", "responses": {"201": {"description": "created"}, "409": {"description": "overlap"}}}
        },
        "/appointments/{appointmentID}/status": {"post": {"tags": ["appointments"], "summary": "Cambiar estado de cita", "responses": {"200": {"description": "ok"}}}},
        "/shops/me/payments/account": {"post": {"tags": ["payments"], "summary": "Crear cuenta conectada", "responses": {"201": {"description": "created"}}}},
        "/shops/me/payments/session": {"post": {"tags": ["payments"], "summary": "Sesión de onboarding", "responses": {"200": {"description": "ok"}}}},
        "/shops/me/payments/status": {"get": {"tags": ["payments"], "summary": "Estado de la cuenta", "responses": {"200": {"description": "ok"}}}},
        "/webhooks/payments": {"post": {"tags": ["payments"], "summary": "Webhook del proveedor", "security": [], "responses": {"200": {"description": "received"}, "400": {"description": "invalid signature"}}}}
    }
}`

// SwaggerInfo lo completa main a partir de la configuración.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Alterations Manager API",
	Description:      "Backend de gestión para talleres de arreglos de ropa.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
