// Package mock answers requests from a table of canned routes loaded from
// YAML or JSON. A Responder can stand in for the network as an easyhttp
// interceptor, or serve real connections as an http.Handler.
//
//	routes:
//	  - method: GET
//	    path: /users/{{id}}
//	    status: 200
//	    headers:
//	      Content-Type: application/json
//	    body: '{"id": "{{id}}", "requestId": "{{uuid()}}"}'
//
// Path segments written as {{name}} match any single segment, and the
// value is substituted into the body along with builtin functions.
package mock
