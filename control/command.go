package control

import (
	"errors"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"

	"github.com/djdv/go-flowpool"
)

type (
	// CommandType names a flow lifecycle operation.
	CommandType string
	// Command is one request to a [Registry],
	// as carried on the command topic.
	Command struct {
		ID     string      `json:"id"`
		Type   CommandType `json:"type"`
		Flow   *Flow       `json:"flow,omitzero"`
		FlowID string      `json:"flow_id,omitzero"`
		Query  *Query      `json:"query,omitzero"`
	}
	// Response answers the [Command] with the same ID.
	Response struct {
		ID    string `json:"id"`
		Error string `json:"error,omitzero"`
		// Code classifies Error for callers that branch on it.
		Code  string `json:"code,omitzero"`
		Flows []Flow `json:"flows,omitzero"`
		Count int    `json:"count"`
	}
)

const (
	CommandAddFlow    CommandType = "add_flow"
	CommandRemoveFlow CommandType = "remove_flow"
	CommandClearFlows CommandType = "clear_flows"
	CommandListFlows  CommandType = "list_flows"
)

// NewCommand returns a command of the given type with a fresh ID.
func NewCommand(commandType CommandType) Command {
	return Command{
		ID:   uuid.NewString(),
		Type: commandType,
	}
}

// DecodeCommand parses a JSON encoded [Command].
// Commands without an ID are assigned one.
func DecodeCommand(data []byte) (Command, error) {
	var command Command
	if err := json.Unmarshal(data, &command); err != nil {
		return Command{}, fmt.Errorf("decoding command: %w", err)
	}
	if command.ID == "" {
		command.ID = uuid.NewString()
	}
	return command, nil
}

func (c Command) Encode() ([]byte, error) { return json.Marshal(c) }

func (r Response) Encode() ([]byte, error) { return json.Marshal(r) }

// DecodeResponse parses a JSON encoded [Response].
func DecodeResponse(data []byte) (Response, error) {
	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, fmt.Errorf("decoding response: %w", err)
	}
	return response, nil
}

// Apply executes command against registry.
// Failures are reported in the response, never returned.
func Apply(registry Registry, command Command) Response {
	var (
		response = Response{ID: command.ID}
		err      error
	)
	switch command.Type {
	case CommandAddFlow:
		if command.Flow == nil {
			err = fmt.Errorf("%w: command carries no flow", ErrInvalidFlow)
			break
		}
		if err = registry.AddFlow(*command.Flow); err == nil {
			response.Count = 1
		}
	case CommandRemoveFlow:
		if err = registry.RemoveFlow(command.FlowID); err == nil {
			response.Count = 1
		}
	case CommandClearFlows:
		response.Count = registry.ClearFlows()
	case CommandListFlows:
		var query Query
		if command.Query != nil {
			query = *command.Query
		}
		if response.Flows, err = registry.ListFlows(query); err == nil {
			response.Count = len(response.Flows)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, command.Type)
	}
	if err != nil {
		response.Error = err.Error()
		response.Code = errorCode(err)
	}
	return response
}

// Apply executes command against the service; see [Apply].
func (s *Service[Handle]) Apply(command Command) Response {
	return Apply(s, command)
}

func errorCode(err error) string {
	for _, sentinel := range []error{
		flowpool.ErrDuplicateFlow,
		ErrFlowNotFound,
		ErrInvalidFlow,
		ErrInvalidQuery,
		ErrUnknownCommand,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal"
}
