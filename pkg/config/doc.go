// Package config loads the server configuration and the route files it
// points to.
//
// A configuration file is YAML or JSON, detected by extension:
//
//	port: 8080
//	routes:
//	  - routes/**/*.yaml
//	fixturesDir: fixtures
//	throttlings:
//	  - name: Slow
//	    values: [1000, 2000]
//	proxies:
//	  - name: staging
//	    host: https://staging.example.com
//	persistence:
//	  enabled: true
//	  backend: file
//
// ${VAR} and ${VAR:-default} references are expanded before parsing and
// ROUTEMOCK_* environment variables override the file.
//
// Route files hold a list of routes. They are validated against an embedded
// JSON Schema before being converted into route.Route values:
//
//	routes:
//	  - path: /users/:id
//	    methods:
//	      - type: get
//	        dataExpr: '{"id": request.params.id}'
//	        overrides:
//	          - name: Inactive User
//	            data: {active: false}
//
// dataExpr and fileExpr are expr-lang expressions evaluated for each request
// with a single variable, request, holding method, path, params, query,
// headers and body.
package config
