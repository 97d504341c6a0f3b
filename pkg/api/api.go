// Package api exposes the deploy-and-call JSON API: scripts are deployed
// as YAML, compiled into namespaces, and their functions invoked over HTTP.
package api

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jbvsmo/funcbuilder/pkg/parser"
	"github.com/jbvsmo/funcbuilder/pkg/runtime"
	"github.com/jbvsmo/funcbuilder/pkg/stdlib"
	"github.com/jbvsmo/funcbuilder/pkg/store"
	"github.com/jbvsmo/funcbuilder/pkg/types"
)

// Server wires the script store to the HTTP surface.
type Server struct {
	store    *store.Store
	builtins *stdlib.Registry
	app      *fiber.App
}

// New creates a server around the given store.
func New(st *store.Store) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	s := &Server{
		store:    st,
		builtins: stdlib.NewRegistry(),
		app:      app,
	}
	s.register()
	return s
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the given address and blocks.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) register() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app.Put("/scripts/:name", s.deploy)
	s.app.Get("/scripts", s.list)
	s.app.Get("/scripts/:name", s.get)
	s.app.Delete("/scripts/:name", s.delete)
	s.app.Post("/scripts/:name/call/:function", s.call)
}

// errorJSON renders a tagged error as a JSON body.
func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": types.AsError(err).ToValue()})
}

type scriptInfo struct {
	Name       string    `json:"name"`
	Revision   int64     `json:"revision"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
	Names      []string  `json:"names"`
}

func info(script *store.Script) scriptInfo {
	return scriptInfo{
		Name:       script.Name,
		Revision:   script.Revision,
		CreateTime: script.CreateTime,
		UpdateTime: script.UpdateTime,
		Names:      script.Namespace.Names(),
	}
}

// deploy parses and compiles the YAML body and stores the result under the
// path name. A script that fails to parse or compile is not stored.
func (s *Server) deploy(c *fiber.Ctx) error {
	name := c.Params("name")
	source := c.Body()

	prog, err := parser.Parse(source)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	ns, err := runtime.Compile(prog, s.builtins)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	script := s.store.Save(name, string(source), prog, ns)
	return c.JSON(info(script))
}

func (s *Server) list(c *fiber.Ctx) error {
	scripts := s.store.List()
	result := make([]scriptInfo, len(scripts))
	for i, script := range scripts {
		result[i] = info(script)
	}
	return c.JSON(fiber.Map{"scripts": result})
}

func (s *Server) get(c *fiber.Ctx) error {
	script, err := s.store.Get(c.Params("name"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	return c.JSON(fiber.Map{
		"name":       script.Name,
		"revision":   script.Revision,
		"createTime": script.CreateTime,
		"updateTime": script.UpdateTime,
		"source":     script.Source,
		"names":      script.Namespace.Names(),
	})
}

func (s *Server) delete(c *fiber.Ctx) error {
	if err := s.store.Delete(c.Params("name")); err != nil {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// call invokes a compiled function from a deployed script. The request
// body is a JSON array of positional arguments; an empty body means no
// arguments.
func (s *Server) call(c *fiber.Ctx) error {
	script, err := s.store.Get(c.Params("name"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err)
	}

	var args []types.Value
	if body := c.Body(); len(body) > 0 {
		var raw []interface{}
		if err := json.Unmarshal(body, &raw); err != nil {
			return errorJSON(c, fiber.StatusBadRequest,
				types.NewValueError("request body must be a JSON array of arguments"))
		}
		args = make([]types.Value, len(raw))
		for i, a := range raw {
			args[i] = types.FromGo(a)
		}
	}

	fn := c.Params("function")
	if _, ok := script.Namespace.Get(fn); !ok {
		return errorJSON(c, fiber.StatusNotFound, types.NewNameError(fn))
	}
	result, err := script.Namespace.Call(fn, args)
	if err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, err)
	}
	return c.JSON(fiber.Map{"result": result})
}
