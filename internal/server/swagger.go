package server

//go:generate swag init -g internal/server/swagger.go -o docs/swagger

// @title Hyperdocs API
// @version 0.1
// @description Public page payloads and the dashboard API of Hyperdocs.
// @contact.name Hyperdocs Maintainers
// @contact.url https://github.com/hyperdocs/hyperdocs
// @BasePath /
// @securityDefinitions.apikey AdminToken
// @in header
// @name Authorization
