package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/fulldump/box"
	jsonv2 "github.com/go-json-experiment/json"

	"github.com/djdv/go-flowpool"
)

// NewAPI exposes registry over HTTP:
//
//	GET    /v1/flows             list (query: from, limit)
//	POST   /v1/flows             add
//	DELETE /v1/flows             clear
//	POST   /v1/flows:find        list with a [Query] body
//	GET    /v1/flows/{flowId}    get
//	DELETE /v1/flows/{flowId}    remove
//	GET    /v1/stats             [Stats]
func NewAPI(registry Registry, logger *log.Logger) *box.B {
	if logger == nil {
		logger = log.Default()
	}
	b := box.NewBox()
	b.WithInterceptors(
		accessLog(logger),
		prettyError,
	)
	v1 := b.Resource("/v1")
	v1.Resource("/flows").
		WithActions(
			box.Get(listFlows(registry)).WithName("listFlows"),
			box.Post(addFlow(registry)).WithName("addFlow"),
			box.Delete(clearFlows(registry)).WithName("clearFlows"),
			box.ActionPost(findFlows(registry)).WithName("find"),
		)
	v1.Resource("/flows/{flowId}").
		WithActions(
			box.Get(getFlow(registry)).WithName("getFlow"),
			box.Delete(removeFlow(registry)).WithName("removeFlow"),
		)
	v1.Resource("/stats").
		WithActions(
			box.Get(func(context.Context) Stats {
				return registry.Stats()
			}).WithName("stats"),
		)
	return b
}

func listFlows(registry Registry) func(ctx context.Context) ([]Flow, error) {
	return func(ctx context.Context) ([]Flow, error) {
		var (
			values = box.GetRequest(ctx).URL.Query()
			query  = Query{From: values.Get("from")}
		)
		if limit := values.Get("limit"); limit != "" {
			parsed, err := strconv.Atoi(limit)
			if err != nil {
				return nil, fmt.Errorf("%w: limit: %w", ErrInvalidQuery, err)
			}
			query.Limit = parsed
		}
		return listed(registry.ListFlows(query))
	}
}

func findFlows(registry Registry) func(ctx context.Context) ([]Flow, error) {
	return func(ctx context.Context) ([]Flow, error) {
		var query Query
		if err := decodeBody(ctx, &query); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		return listed(registry.ListFlows(query))
	}
}

// listed renders an empty selection as [] rather than null.
func listed(flows []Flow, err error) ([]Flow, error) {
	if err == nil && flows == nil {
		flows = []Flow{}
	}
	return flows, err
}

func addFlow(registry Registry) func(ctx context.Context) (*Flow, error) {
	return func(ctx context.Context) (*Flow, error) {
		var flow Flow
		if err := decodeBody(ctx, &flow); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFlow, err)
		}
		if err := registry.AddFlow(flow); err != nil {
			return nil, err
		}
		box.GetResponse(ctx).WriteHeader(http.StatusCreated)
		return &flow, nil
	}
}

// decodeBody reads the request body with the same codec as [Command].
func decodeBody(ctx context.Context, v any) error {
	return jsonv2.UnmarshalRead(box.GetRequest(ctx).Body, v)
}

func clearFlows(registry Registry) func(ctx context.Context) map[string]int {
	return func(context.Context) map[string]int {
		return map[string]int{"removed": registry.ClearFlows()}
	}
}

func getFlow(registry Registry) func(ctx context.Context) (*Flow, error) {
	return func(ctx context.Context) (*Flow, error) {
		id := box.GetUrlParameter(ctx, "flowId")
		flow, ok := registry.GetFlow(id)
		if !ok {
			return nil, notFoundError(id)
		}
		return &flow, nil
	}
}

func removeFlow(registry Registry) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		err := registry.RemoveFlow(box.GetUrlParameter(ctx, "flowId"))
		if err == nil {
			box.GetResponse(ctx).WriteHeader(http.StatusNoContent)
		}
		return err
	}
}

func accessLog(logger *log.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			var (
				request = box.GetRequest(ctx)
				start   = time.Now()
			)
			defer func() {
				logger.Println(request.Method, request.URL.String(), time.Since(start))
			}()
			next(ctx)
		}
	}
}

func prettyError(next box.H) box.H {
	return func(ctx context.Context) {
		next(ctx)
		err := box.GetError(ctx)
		if err == nil {
			return
		}
		var (
			status      = http.StatusInternalServerError
			description = "unexpected error"
		)
		switch {
		case errors.Is(err, flowpool.ErrDuplicateFlow):
			status, description = http.StatusConflict, "flow is already live"
		case errors.Is(err, ErrFlowNotFound):
			status, description = http.StatusNotFound, "flow is not live"
		case errors.Is(err, ErrInvalidFlow):
			status, description = http.StatusBadRequest, "flow cannot be probed"
		case errors.Is(err, ErrInvalidQuery):
			status, description = http.StatusBadRequest, "malformed query"
		}
		w := box.GetResponse(ctx)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message":     err.Error(),
				"description": description,
			},
		})
	}
}
