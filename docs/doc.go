// Package docs provides generated OpenAPI documentation.
//
// Toccata API
//
//	@title			Toccata API
//	@version		1.0
//	@description	Table of contents extraction API for scanned book PDFs.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/toccata
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/toccata/serve.go -o ./swagger --parseDependency --parseInternal
