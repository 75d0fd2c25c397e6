/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package ec is the element controller: it hosts the routes of one or more
// routers behind an HTTP server.
package ec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	log "github.com/sirupsen/logrus"
)

// Logger is the structured logger handed to routers
type Logger = logr.Logger

var (
	GET_METHOD    = http.MethodGet
	POST_METHOD   = http.MethodPost
	PUT_METHOD    = http.MethodPut
	DELETE_METHOD = http.MethodDelete
)

const RequestIdHeader = "X-Request-Id"

type Route struct {
	Name        string
	Method      string
	Path        string
	HandlerFunc http.HandlerFunc
}

type Routes []Route

type Router interface {
	Routes() Routes

	Name() string
	Init(Logger) error
	Start() error
	Close() error
}

type Routers []Router

type Controller struct {
	Name    string
	Port    int
	Version string
	Routers Routers
	Log     Logger

	options   Options
	router    *mux.Router
	processor ControllerProcessor
}

type Options struct {
	Http    bool `name:"http" default:"true" negatable:"" help:"Serve requests over HTTP."`
	Port    int  `name:"port" default:"8080" env:"ETHSW_PORT" help:"HTTP server port."`
	Log     bool `name:"log" help:"Log every request."`
	Verbose bool `name:"log-verbose" help:"Include request and response bodies in the request log."`
}

func NewDefaultOptions() *Options {
	return &Options{Http: true, Port: 8080, Log: false, Verbose: false}
}

func NewDefaultTestOptions() *Options {
	return &Options{Http: false, Log: false, Verbose: false}
}

// ResponseWriter collects a response in memory
type ResponseWriter struct {
	StatusCode int
	Hdr        http.Header
	Buffer     *bytes.Buffer
}

func NewResponseWriter() *ResponseWriter {
	return &ResponseWriter{
		StatusCode: http.StatusOK,
		Hdr:        make(http.Header),
		Buffer:     new(bytes.Buffer),
	}
}

func (r *ResponseWriter) Header() http.Header         { return r.Hdr }
func (r *ResponseWriter) Write(b []byte) (int, error) { return r.Buffer.Write(b) }
func (r *ResponseWriter) WriteHeader(code int)        { r.StatusCode = code }

// Init prepares the controller and its routers. A nil opts takes the defaults.
func (c *Controller) Init(opts *Options) error {
	if opts == nil {
		opts = NewDefaultOptions()
	}

	if opts.Port != 0 {
		c.Port = opts.Port
	}

	if c.Log.GetSink() == nil {
		c.Log = logr.Discard()
	}

	c.options = *opts
	c.processor = NewControllerProcessor(opts.Http)
	c.router = mux.NewRouter().StrictSlash(true)

	for _, api := range c.Routers {
		if err := api.Init(c.Log.WithName(api.Name())); err != nil {
			return fmt.Errorf("%s failed to initialize: %w", api.Name(), err)
		}
	}

	for _, api := range c.Routers {
		if err := api.Start(); err != nil {
			return fmt.Errorf("%s failed to start: %w", api.Name(), err)
		}
	}

	c.router.Use(requestIdMiddleware)
	if opts.Log {
		c.router.Use(loggingMiddleware(opts.Verbose))
	}

	c.Attach(c.router, nil)

	return nil
}

// Handler returns the controller's routes behind a permissive CORS policy
func (c *Controller) Handler() http.Handler {
	return cors.AllowAll().Handler(c.router)
}

// Run serves requests until the controller is closed
func (c *Controller) Run() error {
	if c.processor == nil {
		return fmt.Errorf("controller %s must call Init() prior to run", c.Name)
	}

	return c.processor.Run(c, c.options)
}

// Send a request to the element controller
func (c *Controller) Send(w http.ResponseWriter, r *http.Request) {
	c.processor.Send(c, w, r)
}

// HandlerFunc overrides the handler of every route attached with it
type HandlerFunc func(c *Controller) http.HandlerFunc

// Reject refuses every request
func Reject(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	}
}

// Attach adds the controller's routes to router. A non-nil handlerFunc
// replaces the routes' own handlers.
func (c *Controller) Attach(router *mux.Router, handlerFunc HandlerFunc) {
	for _, api := range c.Routers {
		for _, r := range api.Routes() {
			route := router.
				Name(r.Name).
				Path(r.Path).
				Methods(r.Method).
				Handler(r.HandlerFunc)

			if handlerFunc != nil {
				route.Handler(handlerFunc(c))
			}
		}
	}
}

func (c *Controller) Close() {
	if c.processor != nil {
		c.processor.Close()
	}

	for _, api := range c.Routers {
		if err := api.Close(); err != nil {
			c.Log.Error(err, "Router failed to close", "router", api.Name())
		}
	}
}

type ControllerProcessor interface {
	Run(c *Controller, options Options) error
	Send(c *Controller, w http.ResponseWriter, r *http.Request)
	Close()
}

func NewControllerProcessor(http bool) ControllerProcessor {
	if http {
		return &HttpControllerProcessor{}
	}

	return &LocalControllerProcessor{}
}

type HttpControllerProcessor struct {
	server *http.Server
}

func (p *HttpControllerProcessor) Run(c *Controller, options Options) error {
	p.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Port),
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("Starting HTTP Server at %s", p.server.Addr)
	if err := p.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Errorf("ListenAndServe Failed")
		return err
	}

	return nil
}

// Send serves the request in process, as a client of this server would see it
func (p *HttpControllerProcessor) Send(c *Controller, w http.ResponseWriter, r *http.Request) {
	c.Handler().ServeHTTP(w, r)
}

func (p *HttpControllerProcessor) Close() {
	if p.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("HTTP Server shutdown failed")
		}
	}
}

// LocalControllerProcessor runs no server; requests are only served through
// Send. Use it for tests and for embedding the controller.
type LocalControllerProcessor struct{}

func (*LocalControllerProcessor) Run(c *Controller, options Options) error {
	return nil
}

func (*LocalControllerProcessor) Send(c *Controller, w http.ResponseWriter, r *http.Request) {
	c.Handler().ServeHTTP(w, r)
}

func (*LocalControllerProcessor) Close() {}

func requestIdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIdHeader)
		if len(id) == 0 {
			id = uuid.New().String()
			r.Header.Set(RequestIdHeader, id)
		}

		w.Header().Set(RequestIdHeader, id)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(verbose bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			var rlog = log.WithFields(log.Fields{
				"Method":    r.Method,
				"URL":       r.RequestURI,
				"RequestId": r.Header.Get(RequestIdHeader),
			})

			if verbose && r.Method == PUT_METHOD {
				body, _ := io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewBuffer(body))
				rlog.WithField("Request", string(body)).Infof("Http Request: %s %s", r.Method, r.URL)
			}

			start := time.Now()

			recorder := httptest.NewRecorder()
			recorder.Header().Set(RequestIdHeader, r.Header.Get(RequestIdHeader))
			next.ServeHTTP(recorder, r)

			for key, values := range recorder.Header() {
				w.Header()[key] = values
			}

			status := recorder.Code
			w.WriteHeader(status)
			w.Write(recorder.Body.Bytes())

			if verbose {
				rlog = rlog.WithField("Response", recorder.Body.String())
			}

			rlog.WithFields(log.Fields{
				"Status":      status,
				"ElapsedTime": time.Since(start).String(),
			}).Infof("Http Response: %d (%s)", status, http.StatusText(status))
		})
	}
}

// DecodeRequest unmarshals the request body into model
func DecodeRequest(r *http.Request, model interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return NewErrBadRequest().WithError(err).WithCause("Failed to read request body")
	}

	if err := json.Unmarshal(body, model); err != nil {
		return NewErrBadRequest().WithError(err).WithCause("Failed to decode request body")
	}

	return nil
}

// EncodeResponse writes s as the JSON body of the response, or the error
// response if err is set.
func EncodeResponse(s interface{}, err error, w http.ResponseWriter) {

	if err != nil {
		var e *ControllerError
		if !errors.As(err, &e) {
			e = NewErrInternalServerError().WithError(err)
		}

		s = NewErrorResponse(e, w.Header().Get(RequestIdHeader))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(e.statusCode)
	} else if s != nil {
		w.Header().Set("Content-Type", "application/json")
	}

	if s != nil {
		response, err := json.Marshal(s)
		if err != nil {
			log.WithError(err).Error("Failed to marshal json response")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if _, err := w.Write(response); err != nil {
			log.WithError(err).Error("Failed to write json response")
		}
	}
}
