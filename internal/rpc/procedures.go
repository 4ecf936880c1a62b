package rpc

import (
	"context"
	"errors"
	"strings"
	"time"
)

// HelloInput is the input of greeting.hello.
type HelloInput struct {
	Name string `json:"name"`
}

// Validate requires a non-empty name.
func (in *HelloInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// HelloOutput is the output of greeting.hello.
type HelloOutput struct {
	Greeting string `json:"greeting"`
}

// TimeOutput is the output of system.time.
type TimeOutput struct {
	Time time.Time `json:"time"`
}

// RegisterDefaults registers the built-in procedures. now supplies system.time.
func RegisterDefaults(r *Router, now func() time.Time) {
	if now == nil {
		now = time.Now
	}

	Register(r, "greeting.hello", func(_ context.Context, in HelloInput) (HelloOutput, error) {
		return HelloOutput{Greeting: "Hello " + strings.TrimSpace(in.Name)}, nil
	})

	Register(r, "system.time", func(_ context.Context, _ struct{}) (TimeOutput, error) {
		return TimeOutput{Time: now().UTC()}, nil
	})
}
