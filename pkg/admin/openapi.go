package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/routemock/pkg/route"
)

// BuildOpenAPI describes routes as an OpenAPI 3 document. ":name" path
// segments become path parameters and override names are listed under
// x-routemock-overrides.
func BuildOpenAPI(ctx context.Context, routes []*route.Route, version string) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "routemock",
			Description: "Routes served by this routemock instance",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
	}

	seen := make(map[string]int)
	for _, rt := range routes {
		item := &openapi3.PathItem{}
		for _, m := range rt.Methods {
			op := operationFor(rt, m)
			if n := seen[op.OperationID]; n > 0 {
				seen[op.OperationID]++
				op.OperationID = fmt.Sprintf("%s_%d", op.OperationID, n+1)
			} else {
				seen[op.OperationID] = 1
			}
			item.SetOperation(strings.ToUpper(m.Type), op)
		}
		doc.Paths.Set(openAPIPath(rt.Path), item)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}

func operationFor(rt *route.Route, m *route.Method) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = strings.ToLower(m.Type) + strings.NewReplacer("/", "_", ":", "").Replace(rt.Path)
	op.Summary = fmt.Sprintf("%s %s", strings.ToUpper(m.Type), rt.Path)

	for _, name := range route.ParamNames(rt.Path) {
		op.AddParameter(openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()))
	}

	ok := openapi3.NewResponse().
		WithDescription("Mock response").
		WithJSONSchema(openapi3.NewSchema())
	op.AddResponse(http.StatusOK, ok)
	op.AddResponse(http.StatusNotFound, openapi3.NewResponse().WithDescription("Route, method or fixture not found"))

	if m.Overridable() {
		names := make([]string, 0, len(m.Overrides))
		for _, o := range m.Overrides {
			names = append(names, o.Name)
		}
		op.Extensions = map[string]any{"x-routemock-overrides": names}
	}
	return op
}

// openAPIPath rewrites "/users/:id" as "/users/{id}".
func openAPIPath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") && len(s) > 1 {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}
