package main

// @title Scanner Service API
// @version 1.0
// @description Inventory scan-and-commit service with full observability stack (Prometheus, Jaeger, Grafana)
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT

// @host localhost:8084
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Auth
// @tag.description Authentication endpoints

// @tag.name Scanner
// @tag.description Scan form, session and commit

// @tag.name Capture
// @tag.description Camera capture surface

// @tag.name Sessions
// @tag.description Inventory session history and export

// @tag.name Reports
// @tag.description Organization reports

// @tag.name Admin
// @tag.description Admin-only endpoints

// @tag.name Health
// @tag.description Health check endpoints
