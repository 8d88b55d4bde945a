// Package admin implements the runtime control API mounted under /admin.
//
// Endpoints:
//
//	GET  /admin/routes                 all routes, or ?path= for one
//	GET  /admin/routes/content         ?path=&type=&overrideName= content preview
//	POST /admin/routes/use-override    {"path","type","name"} select an override
//	POST /admin/routes/use-throttling  {"name"} switch the latency band
//	GET  /admin/config                 throttling bands and proxies
//	GET  /admin/overrides              routes reduced to overridable methods
//	GET  /admin/overrides/selected     active selections
//	GET  /admin/throttling             active band and all bands
//	GET  /admin/openapi.json           OpenAPI document of the routes
//	GET  /admin/events                 websocket feed of changes
//	GET  /admin/health                 liveness
//
// Every failure of a lookup or request body is answered with 400 and
// {"message": "..."}.
package admin
