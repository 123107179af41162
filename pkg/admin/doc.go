// Package admin provides the administrative operations for mock endpoints and
// their REST surface.
//
// Endpoints, mounted under /__mockapi by the engine:
//
//	POST   /endpoints                             - Publish a definition
//	GET    /endpoints?project=                    - List a project's endpoints
//	DELETE /endpoints?project=&route=&method=     - Delete a definition
//	PUT    /endpoints/status                      - Override a route's status code
//	GET    /openapi?project=                      - OpenAPI 3 document of a project
//
// Example curl commands:
//
//	# Publish an endpoint
//	curl -X POST http://localhost:8080/__mockapi/endpoints \
//	  -H "Content-Type: application/json" \
//	  -d '{"projectName": "shop", "route": "items", "method": "GET", "content": [{"id": 1}]}'
//
//	# Make it fail
//	curl -X PUT http://localhost:8080/__mockapi/endpoints/status \
//	  -d '{"projectName": "shop", "route": "items", "statusCode": 503, "errorMessage": "down"}'
//
// Every write invalidates the cached responses of the affected route.
package admin
