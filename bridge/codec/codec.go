package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind names a failure category surfaced at the wire boundary.
type ErrorKind string

const (
	KindMalformedPayload ErrorKind = "MalformedPayload"
	KindUnknownCommand   ErrorKind = "UnknownCommand"
	KindInvalidArgument  ErrorKind = "InvalidArgument"
	KindHandlerError     ErrorKind = "HandlerError"
	KindTimeout          ErrorKind = "Timeout"
)

// Request is a decoded command invocation.
type Request struct {
	Command   string
	Arguments map[string]any
	ID        ID
}

// Failure is the error variant of a Result.
type Failure struct {
	Kind    ErrorKind
	Message string
	Detail  map[string]any
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result holds exactly one of a success value or a Failure. Build it with
// Success or Fail.
type Result struct {
	Value   any
	Failure *Failure
}

// Success wraps a handler payload.
func Success(v any) Result {
	return Result{Value: v}
}

// Fail builds a failure Result.
func Fail(kind ErrorKind, message string, detail map[string]any) Result {
	return Result{Failure: &Failure{Kind: kind, Message: message, Detail: detail}}
}

// OK reports whether the Result is the success variant.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Kind returns the failure kind, or "" on success.
func (r Result) Kind() ErrorKind {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Kind
}

// DecodeError reports a payload that could not be turned into a Request.
// ID is set when the correlation identifier was readable.
type DecodeError struct {
	ID     ID
	Reason string
}

func (e *DecodeError) Error() string {
	return "malformed payload: " + e.Reason
}

// Result converts the decode failure into a MalformedPayload Result.
func (e *DecodeError) Result() Result {
	return Fail(KindMalformedPayload, e.Reason, nil)
}

// Decode parses a request document of the form
// {"command": string, "arguments": object, "id": string|number}.
// Unknown top-level fields are ignored. Argument numbers decode as
// json.Number so integers survive intact.
func Decode(data []byte) (*Request, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("payload is not a JSON object: %v", err)}
	}
	if doc == nil {
		return nil, &DecodeError{Reason: "payload is not a JSON object"}
	}

	rawID, ok := doc["id"]
	if !ok || isNull(rawID) {
		return nil, &DecodeError{Reason: "missing required field: id"}
	}
	id, err := ParseID(rawID)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid field id: " + err.Error()}
	}

	rawCommand, ok := doc["command"]
	if !ok || isNull(rawCommand) {
		return nil, &DecodeError{ID: id, Reason: "missing required field: command"}
	}
	var command string
	if err := json.Unmarshal(rawCommand, &command); err != nil {
		return nil, &DecodeError{ID: id, Reason: "invalid field command: must be a string"}
	}
	if command == "" {
		return nil, &DecodeError{ID: id, Reason: "invalid field command: must not be empty"}
	}

	args := map[string]any{}
	if rawArgs, ok := doc["arguments"]; ok && !isNull(rawArgs) {
		dec := json.NewDecoder(bytes.NewReader(rawArgs))
		dec.UseNumber()
		if err := dec.Decode(&args); err != nil {
			return nil, &DecodeError{ID: id, Reason: "invalid field arguments: must be an object"}
		}
	}

	return &Request{Command: command, Arguments: args, ID: id}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Response is the wire form of a Result.
type Response struct {
	ID     ID              `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the wire form of a Failure.
type ErrorObject struct {
	Kind    ErrorKind      `json:"kind"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// OK reports whether the response carries a result.
func (r *Response) OK() bool {
	return r.Error == nil
}

// Failure converts the error object back into a Failure, or nil on success.
func (r *Response) Failure() *Failure {
	if r.Error == nil {
		return nil
	}
	return &Failure{Kind: r.Error.Kind, Message: r.Error.Message, Detail: r.Error.Detail}
}

// Encode renders a Result as a response document carrying id. It never
// fails: a payload that cannot be marshalled is reported as a HandlerError.
func Encode(r Result, id ID) []byte {
	resp := Response{ID: id}

	if r.Failure != nil {
		resp.Error = &ErrorObject{Kind: r.Failure.Kind, Message: r.Failure.Message, Detail: r.Failure.Detail}
	} else {
		payload, err := marshalPayload(r.Value)
		if err != nil {
			resp.Error = &ErrorObject{
				Kind:    KindHandlerError,
				Message: "result is not serializable: " + err.Error(),
			}
		} else {
			resp.Result = payload
		}
	}

	data, err := marshal(resp)
	if err != nil && resp.Error != nil {
		// Detail carried something unencodable; drop it and keep the message.
		resp.Error.Detail = nil
		data, err = marshal(resp)
	}
	if err != nil {
		return []byte(fmt.Sprintf(`{"id":%s,"error":{"kind":%q,"message":"response encoding failed"}}`,
			id.Raw(), KindHandlerError))
	}
	return data
}

// marshal encodes v without HTML escaping so ids and strings are echoed
// byte for byte.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalPayload(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("{}"), nil
	}
	data, err := marshal(v)
	if err != nil {
		return nil, err
	}
	if isNull(data) {
		return json.RawMessage("{}"), nil
	}
	return data, nil
}

// DecodeResponse parses a response document and checks that it carries
// exactly one of result and error.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	hasResult := len(resp.Result) > 0 && !isNull(resp.Result)
	hasError := resp.Error != nil
	if hasResult == hasError {
		return nil, errors.New("decode response: exactly one of result or error must be present")
	}
	return &resp, nil
}

// EncodeRequest renders a request document.
func EncodeRequest(command string, args map[string]any, id ID) ([]byte, error) {
	if args == nil {
		args = map[string]any{}
	}
	doc := struct {
		Command   string         `json:"command"`
		Arguments map[string]any `json:"arguments"`
		ID        ID             `json:"id"`
	}{command, args, id}
	return json.Marshal(doc)
}
