package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/routemock/pkg/route"
)

// maxExprBody bounds the request body exposed to expressions.
const maxExprBody = 1 << 20

// RequestEnv is the request as seen by dataExpr and fileExpr.
type RequestEnv struct {
	Method  string            `expr:"method"`
	Path    string            `expr:"path"`
	Params  map[string]string `expr:"params"`
	Query   map[string]string `expr:"query"`
	Headers map[string]string `expr:"headers"`
	Body    any               `expr:"body"`
}

type exprEnv struct {
	Request RequestEnv `expr:"request"`
}

// NewRequestEnv captures r for expression evaluation. A JSON body is
// decoded; any other body is exposed as a string. The body is restored so
// it can be read again.
func NewRequestEnv(r *http.Request) (RequestEnv, error) {
	env := RequestEnv{
		Method:  r.Method,
		Path:    r.URL.Path,
		Params:  route.ParamsFrom(r.Context()),
		Query:   make(map[string]string),
		Headers: make(map[string]string),
	}
	if env.Params == nil {
		env.Params = map[string]string{}
	}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			env.Query[k] = v[0]
		}
	}
	for k, v := range r.Header {
		if len(v) > 0 {
			env.Headers[k] = v[0]
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return env, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxExprBody))
	if err != nil {
		return env, fmt.Errorf("read request body: %w", err)
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) == 0 {
		return env, nil
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		env.Body = decoded
	} else {
		env.Body = string(body)
	}
	return env, nil
}

// CompileDataExpr compiles a dataExpr into a dynamic payload.
func CompileDataExpr(source string) (route.Payload, error) {
	program, err := expr.Compile(source, expr.Env(exprEnv{}))
	if err != nil {
		return route.Payload{}, fmt.Errorf("compile %q: %w", source, err)
	}
	return route.Dynamic(evaluator(source, program)), nil
}

// CompileFileExpr compiles a fileExpr, which must produce a string.
func CompileFileExpr(source string) (route.Payload, error) {
	program, err := expr.Compile(source, expr.Env(exprEnv{}), expr.AsKind(reflect.String))
	if err != nil {
		return route.Payload{}, fmt.Errorf("compile %q: %w", source, err)
	}
	return route.Dynamic(evaluator(source, program)), nil
}

func evaluator(source string, program *vm.Program) route.Resolver {
	return func(r *http.Request) (any, error) {
		env, err := NewRequestEnv(r)
		if err != nil {
			return nil, err
		}
		out, err := expr.Run(program, exprEnv{Request: env})
		if err != nil {
			return nil, fmt.Errorf("eval %q: %w", source, err)
		}
		return out, nil
	}
}
