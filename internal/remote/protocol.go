// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Operations understood by the Handler.
const (
	// OpLaunch runs the launcher entry with LaunchBody.Args.
	OpLaunch Op = "launch"
	// OpAppend adds AppendBody.Locations to a realm.
	OpAppend Op = "append"
	// OpResult reports the stored execution result.
	OpResult Op = "result"
	// OpExit ends the session with ExitBody.Code.
	OpExit Op = "exit"
	// OpEvent frames carry build progress to the orchestrator. They are
	// sent by the bridge only.
	OpEvent Op = "event"
)

// ErrUnknownOp is the sentinel wrapped by UnknownOpError.
var ErrUnknownOp = errors.New("unknown operation")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

type (
	// Op names a control operation.
	Op string

	// UnknownOpError is reported to the orchestrator for an unrecognized op.
	UnknownOpError struct {
		Op Op
	}

	// Message is a request frame from the orchestrator.
	Message struct {
		// ID is echoed in the reply.
		ID   uint64          `cbor:"id"`
		Op   Op              `cbor:"op"`
		Body cbor.RawMessage `cbor:"body,omitempty"`
	}

	// Reply is a frame sent by the bridge. Event frames have ID 0.
	Reply struct {
		ID    uint64          `cbor:"id"`
		Op    Op              `cbor:"op"`
		Error string          `cbor:"error,omitempty"`
		Body  cbor.RawMessage `cbor:"body,omitempty"`
	}

	// LaunchBody is the OpLaunch request body.
	LaunchBody struct {
		Args []string `cbor:"args"`
	}

	// LaunchReply is the OpLaunch reply body.
	LaunchReply struct {
		ExitCode int `cbor:"exit_code"`
	}

	// AppendBody is the OpAppend request body.
	AppendBody struct {
		Realm     string   `cbor:"realm"`
		Locations []string `cbor:"locations"`
	}

	// AppendReply is the OpAppend reply body.
	AppendReply struct {
		Added int `cbor:"added"`
	}

	// ResultReply is the OpResult reply body. Present is false when no
	// execution has been stored yet.
	ResultReply struct {
		Present         bool     `cbor:"present"`
		ID              string   `cbor:"id,omitempty"`
		Projects        []string `cbor:"projects,omitempty"`
		Failures        []string `cbor:"failures,omitempty"`
		ExitStatus      int      `cbor:"exit_status"`
		DurationMillis  int64    `cbor:"duration_ms"`
		RequestRejected bool     `cbor:"request_rejected,omitempty"`
	}

	// ExitBody is the OpExit request body.
	ExitBody struct {
		Code int `cbor:"code"`
	}

	// EventBody is the OpEvent body.
	EventBody struct {
		Type    string `cbor:"type"`
		Project string `cbor:"project,omitempty"`
		Message string `cbor:"message,omitempty"`
		// UnixMillis is the event time.
		UnixMillis int64 `cbor:"time"`
	}
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("remote: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("remote: CBOR decoder initialization failed: " + err.Error())
	}
}

// Error implements the error interface.
func (e *UnknownOpError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownOp, e.Op)
}

// Unwrap returns ErrUnknownOp for errors.Is() compatibility.
func (e *UnknownOpError) Unwrap() error { return ErrUnknownOp }

// Marshal encodes v with deterministic encoding.
func Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

// NewEncoder returns a frame encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder { return encMode.NewEncoder(w) }

// NewDecoder returns a frame decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder { return decMode.NewDecoder(r) }

// NewMessage builds a request frame with body encoded. A nil body is
// omitted.
func NewMessage(id uint64, op Op, body any) (Message, error) {
	msg := Message{ID: id, Op: op}
	if body != nil {
		data, err := Marshal(body)
		if err != nil {
			return Message{}, fmt.Errorf("encode %s body: %w", op, err)
		}
		msg.Body = data
	}
	return msg, nil
}

// decodeBody decodes a frame body. An absent body leaves v untouched.
func decodeBody(body cbor.RawMessage, v any) error {
	if len(body) == 0 {
		return nil
	}
	return Unmarshal(body, v)
}
