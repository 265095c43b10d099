/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package router

import (
	"strings"

	"github.com/nabbar/tudou/httpmsg"
	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/logger/level"
)

// Handler reads req and fills resp, matching the HttpServer handler
// contract exactly so a Router can be dropped in as one.
type Handler func(req *httpmsg.Request, resp *httpmsg.Response)

// Result reports how dispatch resolved a request.
type Result int

const (
	Matched Result = iota
	NotFound
	MethodNotAllowed
)

type routeKey struct {
	method string
	path   string
}

type prefixRoute struct {
	prefix  string
	handler Handler
}

// Router holds exact routes, a path-to-methods index for generating 405
// Allow headers, and an ordered list of prefix fallbacks. Registration
// is not safe for concurrent use; register every route before Start.
type Router struct {
	log logger.Logger

	exact         map[routeKey]Handler
	methodsByPath map[string][]string
	prefixes      []prefixRoute

	notFound         Handler
	methodNotAllowed Handler
}

// New builds an empty Router.
func New(log logger.Logger) *Router {
	return &Router{
		log:           log,
		exact:         make(map[routeKey]Handler),
		methodsByPath: make(map[string][]string),
	}
}

// Add registers an exact (method, path) route. Re-registering the same
// pair overwrites the previous handler and is logged as a warning.
func (r *Router) Add(method, path string, handler Handler) {
	key := routeKey{method: method, path: path}

	if _, exists := r.exact[key]; exists {
		r.log.CheckError(level.WarnLevel, level.NilLevel, "duplicate route overwritten", ErrorDuplicateRoute.Error())
	} else {
		r.methodsByPath[path] = append(r.methodsByPath[path], method)
	}

	r.exact[key] = handler
}

// AddPrefix appends a prefix fallback. Prefixes are tried in
// registration order, so register the more specific ones first.
func (r *Router) AddPrefix(prefix string, handler Handler) {
	r.prefixes = append(r.prefixes, prefixRoute{prefix: prefix, handler: handler})
}

// SetNotFound overrides the default 404 handler.
func (r *Router) SetNotFound(handler Handler) {
	r.notFound = handler
}

// SetMethodNotAllowed overrides the default 405 handler.
func (r *Router) SetMethodNotAllowed(handler Handler) {
	r.methodNotAllowed = handler
}

// Dispatch resolves (method, path) against the registered routes in
// four steps: exact match, method-mismatch on a known path, ordered
// prefix fallback, then not-found. The winning handler fills resp.
func (r *Router) Dispatch(req *httpmsg.Request, resp *httpmsg.Response) Result {
	method := req.Method()
	path := req.Path()

	if h, ok := r.exact[routeKey{method: method, path: path}]; ok {
		h(req, resp)
		return Matched
	}

	if methods, ok := r.methodsByPath[path]; ok {
		if r.methodNotAllowed != nil {
			r.methodNotAllowed(req, resp)
		} else {
			fillMethodNotAllowed(resp, methods)
		}
		return MethodNotAllowed
	}

	for _, pr := range r.prefixes {
		if strings.HasPrefix(path, pr.prefix) {
			pr.handler(req, resp)
			return Matched
		}
	}

	if r.notFound != nil {
		r.notFound(req, resp)
	} else {
		fillNotFound(resp)
	}
	return NotFound
}

func fillNotFound(resp *httpmsg.Response) {
	resp.SetStatus(404, "Not Found")
	resp.AddHeader("Content-Type", "text/plain")
	resp.SetBody([]byte("Not Found"))
	resp.SetClose(true)
}

func fillMethodNotAllowed(resp *httpmsg.Response, methods []string) {
	resp.SetStatus(405, "Method Not Allowed")
	resp.AddHeader("Allow", strings.Join(methods, ", "))
	resp.AddHeader("Content-Type", "text/plain")
	resp.SetBody([]byte("Method Not Allowed"))
	resp.SetClose(true)
}
