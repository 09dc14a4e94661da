//go:generate swag init -g docs.go -o ../../docs --parseDependency --parseInternal --dir .,../../internal/httpapi

package main

// @title despensa_api API
// @version 1.0
// @description API de gestao da despensa comunitaria.
// @BasePath /v1
// @securityDefinitions.apikey SessionAuth
// @in cookie
// @name despensa_session
// @description HttpOnly session cookie
