// Package cli implements the mockapi command line.
//
//	mockapi serve                      start the server
//	mockapi publish -p shop -r items   publish a JSON document
//	mockapi list -p shop               list a project's endpoints
//	mockapi delete -p shop -r items    delete a definition
//	mockapi status -p shop -r items    override a route's status code
//	mockapi openapi -p shop            export an OpenAPI document
//	mockapi config                     print the resolved configuration
//	mockapi version                    print build information
//
// The client commands talk to a running server through its admin API.
package cli
