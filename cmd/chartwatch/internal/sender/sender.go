// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package sender defines a transport-agnostic message delivery interface.
package sender

import (
	"context"
	"sync"
)

// Sender delivers messages to a configured destination.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a transport-agnostic outgoing message.
type Message struct {
	Text               string
	DisableLinkPreview bool
}

// Func adapts an ordinary function to the [Sender] interface.
type Func func(ctx context.Context, msg Message) error

// Send calls f(ctx, msg).
func (f Func) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Recorder is a [Sender] that keeps every message it is given.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

// Send implements [Sender].
func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// Texts returns the text of every recorded message in order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	texts := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		texts = append(texts, m.Text)
	}
	return texts
}
