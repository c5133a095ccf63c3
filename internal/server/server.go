package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"emmark/internal/domain"
	"emmark/internal/engine"
	"emmark/internal/report"
	"emmark/internal/repo"
	"emmark/internal/stats"
	"emmark/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"activity not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Emmark API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Emmark API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerClients(group, cfg.Engine)
	registerActivities(group, cfg.Engine)
	registerStats(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerDownloads(router, basePath, cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, engine.ErrOversizeAttachment):
		return newAPIError(http.StatusRequestEntityTooLarge, "oversize_attachment", err.Error(), nil)
	case errors.Is(err, store.ErrWrite):
		return newAPIError(http.StatusServiceUnavailable, "storage_write_failed", err.Error(), nil)
	case errors.Is(err, report.ErrGeneration):
		return newAPIError(http.StatusInternalServerError, "report_generation_failed", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "required") || strings.Contains(lowered, "unknown") || strings.Contains(lowered, "invalid") || strings.Contains(lowered, "non-negative") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusRequestEntityTooLarge:
		return "oversize_attachment"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerClients(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-clients",
		Method:      http.MethodGet,
		Path:        "/clients",
		Summary:     "List clients",
	}, func(ctx context.Context, _ *struct{}) (*ClientListResponse, error) {
		clients, err := e.Clients(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if clients == nil {
			clients = []domain.Client{}
		}
		return &ClientListResponse{Body: clients}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-client",
		Method:        http.MethodPost,
		Path:          "/clients",
		Summary:       "Add a client",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body CreateClientRequest
	}) (*ClientResponse, error) {
		created, err := e.AddClient(ctx, domain.Client{
			Name:        input.Body.Name,
			Branch:      input.Body.Branch,
			Phone:       input.Body.Phone,
			IsConfirmed: input.Body.IsConfirmed,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &ClientResponse{Body: created}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-client",
		Method:      http.MethodPut,
		Path:        "/clients/{id}",
		Summary:     "Replace a client",
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body CreateClientRequest
	}) (*ClientResponse, error) {
		c := domain.Client{
			ID:          input.ID,
			Name:        input.Body.Name,
			Branch:      input.Body.Branch,
			Phone:       input.Body.Phone,
			IsConfirmed: input.Body.IsConfirmed,
		}
		found, err := e.UpdateClient(ctx, c)
		if err != nil {
			return nil, handleError(err)
		}
		if !found {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("client %s not found", input.ID), nil)
		}
		return &ClientResponse{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-client",
		Method:        http.MethodDelete,
		Path:          "/clients/{id}",
		Summary:       "Delete a client",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := e.DeleteClient(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerActivities(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-activities",
		Method:      http.MethodGet,
		Path:        "/activities",
		Summary:     "List activities",
	}, func(ctx context.Context, _ *struct{}) (*ActivityListResponse, error) {
		activities, err := e.Activities(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if activities == nil {
			activities = []domain.Activity{}
		}
		return &ActivityListResponse{Body: activities}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-activity",
		Method:        http.MethodPost,
		Path:          "/activities",
		Summary:       "Add an activity",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body CreateActivityRequest
	}) (*ActivityResponse, error) {
		created, err := e.AddActivity(ctx, engine.ActivityCreateOptions{
			Name:       input.Body.Name,
			Date:       input.Body.Date,
			Cost:       input.Body.Cost,
			InCharge:   input.Body.InCharge,
			Type:       domain.ActivityType(input.Body.Type),
			Status:     domain.ActivityStatus(input.Body.Status),
			Attachment: input.Body.Attachment,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &ActivityResponse{Body: created}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-activity",
		Method:      http.MethodPut,
		Path:        "/activities/{id}",
		Summary:     "Replace an activity",
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body CreateActivityRequest
	}) (*ActivityResponse, error) {
		a := domain.Activity{
			ID:         input.ID,
			Name:       input.Body.Name,
			Date:       input.Body.Date,
			Cost:       input.Body.Cost,
			InCharge:   input.Body.InCharge,
			Type:       domain.ActivityType(input.Body.Type),
			Status:     domain.ActivityStatus(input.Body.Status),
			Attachment: input.Body.Attachment,
		}
		found, err := e.UpdateActivity(ctx, a)
		if err != nil {
			return nil, handleError(err)
		}
		if !found {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("activity %s not found", input.ID), nil)
		}
		return &ActivityResponse{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-activity-status",
		Method:      http.MethodPost,
		Path:        "/activities/{id}/status",
		Summary:     "Move an activity to a new state",
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body SetStatusRequest
	}) (*ActivityResponse, error) {
		a, err := e.SetActivityStatus(ctx, input.ID, domain.ActivityStatus(input.Body.Status))
		if err != nil {
			return nil, handleError(err)
		}
		return &ActivityResponse{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-activity",
		Method:        http.MethodDelete,
		Path:          "/activities/{id}",
		Summary:       "Delete an activity",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := e.DeleteActivity(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerStats(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Dashboard figures",
	}, func(ctx context.Context, _ *struct{}) (*StatsResponse, error) {
		clients, err := e.Clients(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		activities, err := e.Activities(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &StatsResponse{Body: StatsBody{
			Stats:           stats.Compute(clients, activities),
			StatusBreakdown: stats.StatusBreakdown(activities),
			CostByType:      stats.CostByType(activities),
		}}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Tail the mutation log",
	}, func(ctx context.Context, input *struct {
		N          int    `query:"n" default:"20"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
	}) (*EventListResponse, error) {
		evts, err := e.Repo.LatestEvents(ctx, input.N, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		if evts == nil {
			evts = []domain.Event{}
		}
		return &EventListResponse{Body: evts}, nil
	})
}

// registerDownloads serves the two binary-ish endpoints directly on the
// router: attachment bytes and the rendered report document.
func registerDownloads(r chi.Router, basePath string, e engine.Engine) {
	r.Get(path.Join(basePath, "activities/{id}/attachment"), func(w http.ResponseWriter, req *http.Request) {
		att, data, err := e.AttachmentData(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			respondStatusError(w, handleError(err))
			return
		}
		w.Header().Set("Content-Type", att.Type)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Name))
		w.Write(data)
	})

	r.Get(path.Join(basePath, "report"), func(w http.ResponseWriter, req *http.Request) {
		clients, err := e.Clients(req.Context())
		if err != nil {
			respondStatusError(w, handleError(err))
			return
		}
		activities, err := e.Activities(req.Context())
		if err != nil {
			respondStatusError(w, handleError(err))
			return
		}
		doc, err := report.New(e.Config).Build(clients, activities)
		if err != nil {
			respondStatusError(w, handleError(fmt.Errorf("%w: %v", report.ErrGeneration, err)))
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="evento-emmark-reporte.txt"`)
		w.Write(doc)
	})
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Emmark API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}
