package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrUnknownType is returned when decoding a message type the codec
	// has no registration for.
	ErrUnknownType = errors.New("unknown message type")
	// ErrInvalidMessage is returned when a message fails schema validation.
	ErrInvalidMessage = errors.New("invalid message")
)

// Message is a typed payload carried in an Envelope.
type Message interface {
	MessageType() string
}

// Envelope is the wire form of every message: {"type": ..., "data": ...}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Marshal encodes m into its envelope.
func Marshal(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.MessageType(), err)
	}
	return json.Marshal(Envelope{Type: m.MessageType(), Data: data})
}

type registration struct {
	typ    reflect.Type
	schema *jsonschema.Schema
}

// Codec decodes registered inbound messages, validating each payload
// against its JSON schema before it is unmarshalled.
type Codec struct {
	types map[string]registration
}

// NewCodec returns an empty codec.
func NewCodec() *Codec {
	return &Codec{types: make(map[string]registration)}
}

// Register compiles schema and associates it with prototype's message type.
// prototype must be a struct value (not a pointer).
func (c *Codec) Register(prototype Message, schema string) error {
	name := prototype.MessageType()
	compiler := jsonschema.NewCompiler()
	url := "mem://" + name + ".json"
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		return fmt.Errorf("add schema %s: %w", name, err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	c.types[name] = registration{typ: reflect.TypeOf(prototype), schema: s}
	return nil
}

// MustRegister is like Register but panics on error.
func (c *Codec) MustRegister(prototype Message, schema string) {
	if err := c.Register(prototype, schema); err != nil {
		panic(err)
	}
}

// Unmarshal decodes and validates an envelope. The returned Message is a
// value of the registered prototype's type.
func (c *Codec) Unmarshal(raw []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	reg, ok := c.types[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: %s without data", ErrInvalidMessage, env.Type)
	}

	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, env.Type, err)
	}
	if err := reg.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, env.Type, err)
	}

	ptr := reflect.New(reg.typ)
	if err := json.Unmarshal(env.Data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, env.Type, err)
	}
	return ptr.Elem().Interface().(Message), nil
}
