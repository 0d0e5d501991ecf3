// Package docs provides the Swagger documentation for the API.
package docs

// @title           AI Generation Gateway
// @version         1.0
// @description     A gateway for AI text, image and screenshot-to-code generation with streaming relay, rate limiting and artifact validation.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    https://github.com/sitesmith/ai-gateway

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      0.0.0.0:8082
// @BasePath  /
